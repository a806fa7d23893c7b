package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

// StaticResolver answers from a fixed table of links and errors. It never
// performs I/O after construction.
type StaticResolver struct {
	links  map[string]*domain.AppLink
	errors map[string]error
}

// NewStaticResolver creates a resolver for the given links, keyed by
// their SourceURL.
func NewStaticResolver(links ...*domain.AppLink) *StaticResolver {
	r := &StaticResolver{
		links:  make(map[string]*domain.AppLink, len(links)),
		errors: make(map[string]error),
	}
	for _, l := range links {
		r.links[l.SourceURL] = l.Clone()
	}
	return r
}

// LoadStaticResolver reads a JSON array of App Links from path.
func LoadStaticResolver(path string) (*StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read link file: %w", err)
	}
	var links []*domain.AppLink
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("failed to parse link file: %w", err)
	}
	for _, l := range links {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("invalid link %s: %w", l.SourceURL, err)
		}
	}
	return NewStaticResolver(links...), nil
}

// WithError makes destination resolve to err. Returns r for chaining.
func (r *StaticResolver) WithError(destination string, err error) *StaticResolver {
	r.errors[destination] = err
	return r
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(ctx context.Context, destination string) (*domain.AppLink, error) {
	if _, err := ValidateDestination(destination); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := r.errors[destination]; ok {
		return nil, err
	}
	if l, ok := r.links[destination]; ok {
		return l.Clone(), nil
	}
	return nil, domain.NewError(domain.KindFetchFailed, destination, fmt.Errorf("no static link registered"))
}
