package resolver

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/logger"
	"github.com/MrSnakeDoc/applink/internal/metrics"
)

const (
	// QueryWebURL lets a self-referencing link embed its own web fallback.
	QueryWebURL = "al_web_url"
	// QueryBackToReferrer lets a link request back-to-referrer navigation.
	QueryBackToReferrer = "al_back_to_referrer"
)

// HTTPResolver is the default resolution strategy: fetch, parse, filter.
//
// It holds no per-request state; a single instance serves concurrent
// resolutions.
type HTTPResolver struct {
	fetcher   Fetcher
	parser    Parser
	platforms []string
	logger    logger.Logger
}

// Option configures an HTTPResolver.
type Option func(*HTTPResolver)

// WithFetcher replaces the fetch collaborator.
func WithFetcher(f Fetcher) Option {
	return func(r *HTTPResolver) { r.fetcher = f }
}

// WithParser replaces the parse collaborator.
func WithParser(p Parser) Option {
	return func(r *HTTPResolver) { r.parser = p }
}

// WithPlatforms sets the platform preference list. Targets for other
// platforms are dropped; kept targets are ordered by this list first and
// declaration order second. An empty list keeps everything.
func WithPlatforms(platforms ...string) Option {
	return func(r *HTTPResolver) {
		r.platforms = r.platforms[:0]
		for _, p := range platforms {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				r.platforms = append(r.platforms, p)
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *HTTPResolver) { r.logger = l }
}

// NewHTTPResolver builds the default resolver. Without options it fetches
// with a default HTTPFetcher and parses meta tags.
func NewHTTPResolver(opts ...Option) *HTTPResolver {
	r := &HTTPResolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	if r.fetcher == nil {
		r.fetcher = NewHTTPFetcher(FetcherOptions{}, r.logger)
	}
	if r.parser == nil {
		r.parser = NewMetaTagParser()
	}
	return r
}

// Platforms returns the configured preference list.
func (r *HTTPResolver) Platforms() []string {
	return append([]string(nil), r.platforms...)
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, destination string) (*domain.AppLink, error) {
	link, err := r.resolve(ctx, destination)
	if err != nil {
		metrics.RecordResolution(string(domain.KindOf(err)))
		r.logger.Debug("resolution failed",
			logger.String("url", destination),
			logger.Error(err))
		return nil, err
	}
	metrics.RecordResolution("ok")
	r.logger.Debug("resolved app link",
		logger.String("url", destination),
		logger.Int("targets", len(link.Targets)),
		logger.String("web_url", link.WebURL))
	return link, nil
}

func (r *HTTPResolver) resolve(ctx context.Context, destination string) (*domain.AppLink, error) {
	dest, err := ValidateDestination(destination)
	if err != nil {
		return nil, err
	}
	destination = dest.String()

	raw, err := r.fetcher.Fetch(ctx, destination)
	if err != nil {
		return nil, domain.NewError(domain.KindFetchFailed, destination, err)
	}

	md, err := r.parser.Parse(raw)
	if err != nil {
		return nil, domain.NewError(domain.KindParseFailed, destination, err)
	}

	link := &domain.AppLink{
		SourceURL:      destination,
		Targets:        r.filter(md.Targets),
		WebURL:         webFallback(md, dest),
		BackToReferrer: md.BackToReferrer || queryBool(dest.Query(), QueryBackToReferrer),
	}
	if err := link.Validate(); err != nil {
		return nil, err
	}
	return link, nil
}

// filter drops targets for other platforms and orders the rest by
// platform preference, keeping declaration order within a platform.
func (r *HTTPResolver) filter(targets []domain.Target) []domain.Target {
	if len(r.platforms) == 0 {
		return append([]domain.Target(nil), targets...)
	}

	rank := make(map[string]int, len(r.platforms))
	for i, p := range r.platforms {
		if _, dup := rank[p]; !dup {
			rank[p] = i
		}
	}

	out := make([]domain.Target, 0, len(targets))
	for _, t := range targets {
		if _, ok := rank[strings.ToLower(t.Platform)]; ok {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[strings.ToLower(out[i].Platform)] < rank[strings.ToLower(out[j].Platform)]
	})
	return out
}

// webFallback picks the browser fallback: declared web url, then the
// destination's own al_web_url parameter, then the destination itself,
// unless the page disabled fallback.
func webFallback(md *Metadata, dest *url.URL) string {
	if md.NoWebFallback {
		return ""
	}
	if md.WebURL != "" {
		return md.WebURL
	}
	if v := dest.Query().Get(QueryWebURL); v != "" {
		if u, err := url.Parse(v); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return v
		}
	}
	return dest.String()
}

func queryBool(q url.Values, key string) bool {
	if !q.Has(key) {
		return false
	}
	return parseBool(q.Get(key))
}
