package navigation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/resolver"
)

// Navigator composes resolution and navigation against one Platform.
type Navigator struct {
	platform Platform
	resolver resolver.Resolver // nil = process default
	logger   logger.Logger
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithResolver sets the resolver used when a call does not supply one.
func WithResolver(r resolver.Resolver) NavigatorOption {
	return func(n *Navigator) { n.resolver = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) NavigatorOption {
	return func(n *Navigator) { n.logger = l }
}

// New creates a Navigator opening targets on p.
func New(p Platform, opts ...NavigatorOption) *Navigator {
	n := &Navigator{platform: p}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = logger.Nop()
	}
	return n
}

// Resolve resolves destination with the navigator's resolver.
func (n *Navigator) Resolve(ctx context.Context, destination string) (*domain.AppLink, error) {
	return n.ResolveWith(ctx, destination, nil)
}

// ResolveWith resolves destination with r (nil = navigator/default resolver).
// Errors are always part of the domain taxonomy or a context error.
func (n *Navigator) ResolveWith(ctx context.Context, destination string, r resolver.Resolver) (*domain.AppLink, error) {
	if r == nil {
		r = n.resolver
	}
	link, err := ResolveWith(ctx, destination, r)
	if err != nil {
		return nil, wrapResolveError(destination, err)
	}
	if err := link.Validate(); err != nil {
		return nil, err
	}
	return link, nil
}

// NavigateToAppLink navigates to an already resolved link with no extra
// data attached.
func (n *Navigator) NavigateToAppLink(ctx context.Context, link *domain.AppLink) (domain.Outcome, error) {
	req, err := NewRequest(link, nil, nil)
	if err != nil {
		return domain.FailedOutcome(err, nil), err
	}
	return n.Navigate(ctx, req)
}

// Navigate runs req against the navigator's platform.
func (n *Navigator) Navigate(ctx context.Context, req *Request) (domain.Outcome, error) {
	log := n.logger.With(logger.String("navigation_id", uuid.NewString()))
	log.Debug("navigating",
		logger.String("source_url", req.link.SourceURL),
		logger.Int("targets", len(req.link.Targets)),
		logger.Bool("back_to_referrer", req.link.BackToReferrer))

	outcome, err := req.navigate(ctx, n.platform, log)
	if err != nil {
		log.Warn("navigation failed",
			logger.String("source_url", req.link.SourceURL),
			logger.Int("attempts", len(outcome.Attempts)),
			logger.Error(err))
	}
	return outcome, err
}

// NavigateToURL resolves destination and navigates to it, blocking until
// both phases are done.
func (n *Navigator) NavigateToURL(ctx context.Context, destination string) (domain.Outcome, error) {
	task := n.NavigateInBackground(ctx, destination)
	<-task.Done()
	return task.Wait(context.Background())
}

// NavigateInBackground resolves destination with the navigator's resolver
// and then navigates, without blocking the caller.
func (n *Navigator) NavigateInBackground(ctx context.Context, destination string) *Task {
	return n.NavigateInBackgroundWith(ctx, destination, nil)
}

// NavigateInBackgroundWith is NavigateInBackground with an explicit resolver.
func (n *Navigator) NavigateInBackgroundWith(ctx context.Context, destination string, r resolver.Resolver) *Task {
	ctx, cancel := context.WithCancel(ctx)
	task := newTask(cancel)

	go func() {
		if !task.transition(StateResolving) {
			task.finish(StateCancelled, domain.Outcome{}, context.Canceled)
			return
		}

		link, err := n.ResolveWith(ctx, destination, r)
		if err != nil {
			n.logger.Debug("background resolution failed",
				logger.String("url", destination),
				logger.Error(err))
			task.finish(StateResolutionFailed, domain.FailedOutcome(err, nil), err)
			return
		}
		if !task.transition(StateResolved) {
			task.finish(StateCancelled, domain.Outcome{}, context.Canceled)
			return
		}

		req, err := NewRequest(link, nil, nil)
		if err != nil {
			task.finish(StateResolutionFailed, domain.FailedOutcome(err, nil), err)
			return
		}
		if !task.transition(StateNavigating) {
			task.finish(StateCancelled, domain.Outcome{}, context.Canceled)
			return
		}

		outcome, err := n.Navigate(ctx, req)
		switch outcome.Kind {
		case domain.OutcomeApp:
			task.finish(StateOpenedInApp, outcome, nil)
		case domain.OutcomeBrowser:
			task.finish(StateOpenedInBrowser, outcome, nil)
		default:
			task.finish(StateFailed, outcome, err)
		}
	}()

	return task
}

// wrapResolveError keeps taxonomy and context errors as they are and folds
// anything else a custom resolver returns into FetchFailed.
func wrapResolveError(destination string, err error) error {
	if domain.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.NewError(domain.KindFetchFailed, destination, err)
}
