// Package navigation opens resolved App Links.
//
// A Request bundles a resolved link with caller data and walks its
// candidates in priority order against a Platform. The Navigator facade
// composes resolution and navigation, synchronously or as a Task.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/metrics"
)

const (
	// KeyRefererAppLink is the navigationData key holding the referrer
	// back-link, either a URL string or a map with "url" (and optionally
	// "app_name").
	KeyRefererAppLink = "referer_app_link"

	// RefererPlatform tags the synthesized back-link candidate.
	RefererPlatform = "referer"

	// WebPlatform tags the synthesized browser target.
	WebPlatform = "web"
)

// ErrRequestConsumed is returned by a second Navigate on the same Request.
var ErrRequestConsumed = errors.New("navigation request already consumed")

// Request is a single navigation attempt for a resolved link. It is
// immutable after construction and may be navigated exactly once.
type Request struct {
	link           *domain.AppLink
	appData        map[string]any
	navigationData map[string]any
	consumed       atomic.Bool
}

// NewRequest builds a request. The link and both maps are copied, so later
// changes by the caller do not leak into the navigation.
func NewRequest(link *domain.AppLink, appData, navigationData map[string]any) (*Request, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}
	return &Request{
		link:           link.Clone(),
		appData:        domain.CopyData(appData),
		navigationData: domain.CopyData(navigationData),
	}, nil
}

// AppLink returns a copy of the link being navigated.
func (r *Request) AppLink() *domain.AppLink { return r.link.Clone() }

// AppData returns a copy of the app data.
func (r *Request) AppData() map[string]any { return domain.CopyData(r.appData) }

// NavigationData returns a copy of the navigation data.
func (r *Request) NavigationData() map[string]any { return domain.CopyData(r.navigationData) }

// Navigate attempts the candidates in order and falls back to the browser.
//
// The returned error is nil exactly when something was opened; on failure
// the outcome still lists the attempts made.
func (r *Request) Navigate(ctx context.Context, p Platform) (domain.Outcome, error) {
	return r.navigate(ctx, p, logger.Nop())
}

func (r *Request) navigate(ctx context.Context, p Platform, log logger.Logger) (domain.Outcome, error) {
	if !r.consumed.CompareAndSwap(false, true) {
		return domain.FailedOutcome(ErrRequestConsumed, nil), ErrRequestConsumed
	}

	outcome, err := r.run(ctx, p, log)
	metrics.RecordNavigation(outcome.Kind.String())
	for _, a := range outcome.Attempts {
		metrics.RecordAttempt(string(a.Result))
	}
	return outcome, err
}

func (r *Request) run(ctx context.Context, p Platform, log logger.Logger) (domain.Outcome, error) {
	var attempts []domain.Attempt
	var lastOpenErr error

	for _, candidate := range r.candidates() {
		if candidate.MinimumVersion != "" {
			if v, ok := p.InstalledVersion(ctx, candidate); ok && !domain.VersionAtLeast(v, candidate.MinimumVersion) {
				log.Debug("skipping target below minimum version",
					logger.String("url", candidate.URL),
					logger.String("installed", v),
					logger.String("minimum", candidate.MinimumVersion))
				attempts = append(attempts, domain.Attempt{Target: candidate, Result: domain.AttemptSkippedVersion})
				continue
			}
		}

		target := candidate
		merged, err := domain.MergeQuery(candidate.URL, r.appData, r.dataFor(candidate))
		if err != nil {
			log.Debug("skipping target with unusable url",
				logger.String("url", candidate.URL),
				logger.Error(err))
			attempts = append(attempts, domain.Attempt{Target: candidate, Result: domain.AttemptNotOpenable})
			continue
		}
		target.URL = merged

		if !p.CanOpen(ctx, target) {
			log.Debug("target not openable", logger.String("url", target.URL))
			attempts = append(attempts, domain.Attempt{Target: target, Result: domain.AttemptNotOpenable})
			continue
		}

		if err := ctx.Err(); err != nil {
			return domain.FailedOutcome(err, attempts), err
		}

		if p.Open(ctx, target) {
			log.Info("opened app target",
				logger.String("platform", target.Platform),
				logger.String("url", target.URL))
			attempts = append(attempts, domain.Attempt{Target: target, Result: domain.AttemptOpened})
			return domain.Outcome{Kind: domain.OutcomeApp, Target: &target, Attempts: attempts}, nil
		}

		log.Debug("open failed, trying next target", logger.String("url", target.URL))
		attempts = append(attempts, domain.Attempt{Target: target, Result: domain.AttemptOpenFailed})
		lastOpenErr = domain.NewError(domain.KindOpenFailed, target.URL, nil)
	}

	if !r.link.HasWebFallback() {
		err := domain.NewError(domain.KindNoAvailableTarget, r.link.SourceURL, lastOpenErr)
		return domain.FailedOutcome(err, attempts), err
	}

	// App data is meant for the receiving app, not for a browser.
	webURL, err := domain.MergeQuery(r.link.WebURL, r.navigationData)
	if err != nil {
		err = domain.NewError(domain.KindNoAvailableTarget, r.link.SourceURL, err)
		return domain.FailedOutcome(err, attempts), err
	}
	web := domain.Target{Platform: WebPlatform, URL: webURL}

	if err := ctx.Err(); err != nil {
		return domain.FailedOutcome(err, attempts), err
	}

	if p.Open(ctx, web) {
		log.Info("opened web fallback", logger.String("url", web.URL))
		attempts = append(attempts, domain.Attempt{Target: web, Result: domain.AttemptOpened})
		return domain.Outcome{Kind: domain.OutcomeBrowser, Target: &web, Attempts: attempts}, nil
	}

	attempts = append(attempts, domain.Attempt{Target: web, Result: domain.AttemptOpenFailed})
	err = domain.NewError(domain.KindNoAvailableTarget, r.link.SourceURL,
		domain.NewError(domain.KindOpenFailed, web.URL, fmt.Errorf("browser open failed")))
	return domain.FailedOutcome(err, attempts), err
}

// candidates returns the attempt order: the referrer back-link first when
// back-to-referrer navigation applies, then the link's targets.
func (r *Request) candidates() []domain.Target {
	out := make([]domain.Target, 0, len(r.link.Targets)+1)
	if r.link.BackToReferrer {
		if back, ok := refererTarget(r.navigationData); ok {
			out = append(out, back)
		}
	}
	return append(out, r.link.Targets...)
}

// dataFor returns the navigation data merged into candidate. The back-link
// does not carry itself.
func (r *Request) dataFor(candidate domain.Target) map[string]any {
	if candidate.Platform != RefererPlatform {
		return r.navigationData
	}
	if _, ok := r.navigationData[KeyRefererAppLink]; !ok {
		return r.navigationData
	}
	out := domain.CopyData(r.navigationData)
	delete(out, KeyRefererAppLink)
	return out
}

func refererTarget(navigationData map[string]any) (domain.Target, bool) {
	switch v := navigationData[KeyRefererAppLink].(type) {
	case string:
		if v != "" {
			return domain.Target{Platform: RefererPlatform, URL: v}, true
		}
	case map[string]any:
		u, _ := v["url"].(string)
		if u == "" {
			return domain.Target{}, false
		}
		name, _ := v["app_name"].(string)
		return domain.Target{Platform: RefererPlatform, URL: u, AppName: name}, true
	case map[string]string:
		if u := v["url"]; u != "" {
			return domain.Target{Platform: RefererPlatform, URL: u, AppName: v["app_name"]}, true
		}
	}
	return domain.Target{}, false
}
