package resolver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

const metaPrefix = "al:"

// MetaTagParser reads App Link metadata from HTML meta tags:
//
//	<meta property="al:ios:url" content="myapp://item/1">
//	<meta property="al:ios:app_store_id" content="12345">
//	<meta property="al:web:url" content="https://example.com/item/1">
//
// A bare "al:<platform>" tag, or a repeated property, starts a new target
// for that platform. Targets without a url are dropped.
type MetaTagParser struct{}

// NewMetaTagParser creates a parser.
func NewMetaTagParser() *MetaTagParser {
	return &MetaTagParser{}
}

// entry is a target under construction plus the fields already seen.
type entry struct {
	target domain.Target
	seen   map[string]bool
}

// Parse implements Parser.
func (p *MetaTagParser) Parse(raw []byte) (*Metadata, error) {
	md := &Metadata{}

	var entries []*entry
	current := make(map[string]*entry) // platform -> entry being filled

	startEntry := func(platform string) *entry {
		e := &entry{target: domain.Target{Platform: platform}, seen: make(map[string]bool)}
		entries = append(entries, e)
		current[platform] = e
		return e
	}

	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to tokenize page: %w", z.Err())
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		tok := z.Token()
		if tok.Data != "meta" {
			continue
		}

		property, content := metaAttrs(tok)
		if !strings.HasPrefix(property, metaPrefix) {
			continue
		}

		parts := strings.SplitN(strings.TrimPrefix(property, metaPrefix), ":", 2)
		platform := strings.ToLower(strings.TrimSpace(parts[0]))
		if platform == "" {
			continue
		}

		if platform == "web" {
			if err := applyWeb(md, parts, content); err != nil {
				return nil, err
			}
			continue
		}
		if platform == "back_to_referrer" {
			md.BackToReferrer = parseBool(content)
			continue
		}

		if len(parts) == 1 {
			startEntry(platform)
			continue
		}

		field := strings.ToLower(strings.TrimSpace(parts[1]))
		e := current[platform]
		if e == nil || e.seen[field] {
			e = startEntry(platform)
		}
		e.seen[field] = true

		switch field {
		case "url":
			e.target.URL = content
		case "app_store_id", "package":
			e.target.AppStoreID = content
		case "app_name":
			e.target.AppName = content
		case "minimum_version", "min_version":
			e.target.MinimumVersion = content
		}
	}

	for _, e := range entries {
		if e.target.URL == "" {
			continue
		}
		if _, err := url.Parse(e.target.URL); err != nil {
			return nil, fmt.Errorf("invalid %s target url %q: %w", e.target.Platform, e.target.URL, err)
		}
		md.Targets = append(md.Targets, e.target)
	}

	return md, nil
}

func applyWeb(md *Metadata, parts []string, content string) error {
	if len(parts) == 1 {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case "url":
		if content == "" {
			return nil
		}
		u, err := url.Parse(content)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid web url %q", content)
		}
		md.WebURL = content
	case "should_fallback":
		md.NoWebFallback = !parseBool(content)
	}
	return nil
}

// metaAttrs returns the property (or name) and content attributes.
func metaAttrs(tok html.Token) (property, content string) {
	for _, a := range tok.Attr {
		switch strings.ToLower(a.Key) {
		case "property":
			property = strings.ToLower(strings.TrimSpace(a.Val))
		case "name":
			if property == "" {
				property = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = strings.TrimSpace(a.Val)
		}
	}
	return property, content
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}
