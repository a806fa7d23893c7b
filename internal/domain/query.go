package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// MergeQuery merges key/value maps into the query string of rawURL.
//
// Collision policy: request-supplied data overwrites parameters already on
// the URL, and later maps overwrite earlier ones. String values are written
// verbatim; everything else is JSON-encoded. The resulting query is encoded
// with sorted keys.
func MergeQuery(rawURL string, data ...map[string]any) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url %q: %w", rawURL, err)
	}

	empty := true
	for _, m := range data {
		if len(m) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return rawURL, nil
	}

	q := u.Query()
	for _, m := range data {
		for k, v := range m {
			s, err := queryValue(v)
			if err != nil {
				return "", fmt.Errorf("failed to encode query value %q: %w", k, err)
			}
			q.Set(k, s)
		}
	}

	// Opaque URLs (myapp:path) have no RawQuery slot that url.String honours
	// the same way, so rebuild them by hand.
	if u.Opaque != "" {
		out := u.Scheme + ":" + u.Opaque + "?" + q.Encode()
		if u.Fragment != "" {
			out += "#" + u.EscapedFragment()
		}
		return out, nil
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func queryValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// CopyData returns a shallow copy of m (nil stays nil).
func CopyData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
