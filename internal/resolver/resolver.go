// Package resolver turns a destination URL into a domain.AppLink.
//
// The default strategy (HTTPResolver) fetches the destination, parses its
// App Link meta tags and filters the candidates by platform. Any type
// implementing Resolver can replace it.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

const (
	// MaxURLLength is the practical limit for destination URLs.
	MaxURLLength = 2048
)

// Resolver resolves a destination URL into an App Link.
// Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, destination string) (*domain.AppLink, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, destination string) (*domain.AppLink, error)

func (f ResolverFunc) Resolve(ctx context.Context, destination string) (*domain.AppLink, error) {
	return f(ctx, destination)
}

// Fetcher retrieves the raw page behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return f(ctx, rawURL)
}

// Parser extracts App Link metadata from a raw page.
type Parser interface {
	Parse(raw []byte) (*Metadata, error)
}

// Metadata is what a Parser found in a page, before platform filtering.
type Metadata struct {
	// Targets in declaration order, all platforms.
	Targets []domain.Target

	// WebURL is the declared browser fallback ("" when not declared).
	WebURL string

	// NoWebFallback is set when the page declares should_fallback=false.
	NoWebFallback bool

	// BackToReferrer is set when the page asks to return to the referrer.
	BackToReferrer bool
}

// ValidateDestination checks that destination is an absolute http(s) URL.
// It never performs I/O.
func ValidateDestination(destination string) (*url.URL, error) {
	raw := strings.TrimSpace(destination)
	if raw == "" {
		return nil, domain.NewError(domain.KindMalformedURL, destination, fmt.Errorf("url cannot be empty"))
	}
	if len(raw) > MaxURLLength {
		return nil, domain.NewError(domain.KindMalformedURL, destination,
			fmt.Errorf("url exceeds maximum length of %d characters", MaxURLLength))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, domain.NewError(domain.KindMalformedURL, destination, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, domain.NewError(domain.KindMalformedURL, destination,
			fmt.Errorf("url must use http:// or https://"))
	}
	if u.Host == "" {
		return nil, domain.NewError(domain.KindMalformedURL, destination, fmt.Errorf("url missing host"))
	}
	return u, nil
}
