package utils

import (
	"net/url"
	"testing"
)

func TestHostAllowed(t *testing.T) {
	allowed := []string{"example.com", "Links.Example.ORG"}

	tests := []struct {
		host    string
		allowed []string
		want    bool
	}{
		{host: "example.com", allowed: allowed, want: true},
		{host: "m.example.com", allowed: allowed, want: true},
		{host: "EXAMPLE.COM.", allowed: allowed, want: true},
		{host: "links.example.org", allowed: allowed, want: true},
		{host: "example.org", allowed: allowed, want: false},
		{host: "evilexample.com", allowed: allowed, want: false},
		{host: "example.com.evil.net", allowed: allowed, want: false},
		{host: "", allowed: allowed, want: false},
		{host: "anything.net", allowed: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := HostAllowed(tt.host, tt.allowed); got != tt.want {
				t.Errorf("HostAllowed(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestIsWebURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a": true,
		"HTTP://example.com":    true,
		"myapp://back":          false,
		"https:///nohost":       false,
		"/relative":             false,
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("url.Parse(%q) error = %v", raw, err)
		}
		if got := IsWebURL(u); got != want {
			t.Errorf("IsWebURL(%q) = %v, want %v", raw, got, want)
		}
	}
}
