package redis

import "fmt"

const (
	// KeyPrefixApp is the prefix for app registry keys
	KeyPrefixApp = "applink:app:"
	// KeyPrefixLink is the prefix for resolved link keys
	KeyPrefixLink = "applink:link:"
	// KeyAllApps is the key for the set of all app schemes
	KeyAllApps = "applink:apps:all"
)

// AppKey returns the Redis key for an app by scheme
func AppKey(scheme string) string {
	return KeyPrefixApp + scheme
}

// LinkKey returns the Redis key for a resolved link
func LinkKey(sourceURL string) string {
	return KeyPrefixLink + sourceURL
}

// AllAppsKey returns the key for the set of all app schemes
func AllAppsKey() string {
	return KeyAllApps
}

// ExtractScheme extracts the app scheme from a Redis key
func ExtractScheme(key string) (string, error) {
	if len(key) <= len(KeyPrefixApp) || key[:len(KeyPrefixApp)] != KeyPrefixApp {
		return "", fmt.Errorf("invalid app key: %s", key)
	}
	return key[len(KeyPrefixApp):], nil
}
