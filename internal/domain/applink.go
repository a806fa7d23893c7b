package domain

import (
	"fmt"
	"strings"
)

// Target represents one platform-specific navigation option of an App Link.
//
// Targets carry no explicit priority: their position inside AppLink.Targets
// is the attempt order (front = highest priority).
type Target struct {
	// Platform identifies the platform/app class the target is meant for.
	// Example: ios, iphone, android, linux
	Platform string `json:"platform"`

	// URL is the deep-link to attempt.
	// Example: myapp://items/42
	URL string `json:"url"`

	// AppStoreID is the install identifier used when the app is missing.
	AppStoreID string `json:"app_store_id,omitempty"`

	// AppName is the human readable application name.
	AppName string `json:"app_name,omitempty"`

	// MinimumVersion gates the target: it is only eligible when the
	// installed app reports a version >= MinimumVersion.
	MinimumVersion string `json:"minimum_version,omitempty"`
}

// Validate checks the target invariants.
func (t Target) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("target url is empty")
	}
	if strings.TrimSpace(t.Platform) == "" {
		return fmt.Errorf("target %s has no platform", t.URL)
	}
	return nil
}

// Scheme returns the lowercased URL scheme of the target ("" if none).
func (t Target) Scheme() string {
	i := strings.Index(t.URL, ":")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(t.URL[:i])
}

// IsWeb reports whether the target is a plain http(s) URL.
func (t Target) IsWeb() bool {
	s := t.Scheme()
	return s == "http" || s == "https"
}

// AppLink represents the full resolution result for a destination URL.
//
// Targets are already platform-filtered and priority-ordered by the
// resolver; navigation never reorders them.
type AppLink struct {
	// SourceURL is the destination that was resolved.
	SourceURL string `json:"source_url"`

	// Targets is the ordered candidate list (may be empty).
	Targets []Target `json:"targets"`

	// WebURL is the browser fallback ("" when absent).
	WebURL string `json:"web_url,omitempty"`

	// BackToReferrer prefers returning to the referring app over fresh targets.
	BackToReferrer bool `json:"back_to_referrer,omitempty"`
}

// Validate checks the App Link invariants. A link with neither targets nor
// a web fallback is a resolution failure, not an empty link.
func (l *AppLink) Validate() error {
	if l == nil {
		return NewError(KindParseFailed, "", fmt.Errorf("nil app link"))
	}
	if len(l.Targets) == 0 && l.WebURL == "" {
		return NewError(KindParseFailed, l.SourceURL, fmt.Errorf("no targets and no web fallback"))
	}
	for _, t := range l.Targets {
		if err := t.Validate(); err != nil {
			return NewError(KindParseFailed, l.SourceURL, err)
		}
	}
	return nil
}

// HasWebFallback reports whether a browser fallback is available.
func (l *AppLink) HasWebFallback() bool {
	return l != nil && l.WebURL != ""
}

// Clone returns a deep copy, for callers that reuse a resolved link across
// several navigation attempts.
func (l *AppLink) Clone() *AppLink {
	if l == nil {
		return nil
	}
	c := *l
	c.Targets = append([]Target(nil), l.Targets...)
	return &c
}
