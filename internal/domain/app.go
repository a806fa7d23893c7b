package domain

import "time"

// App represents an application installed on the host that handles a URL
// scheme. Apps feed the host platform's CanOpen/InstalledVersion answers.
//
// An App is uniquely identified by its Scheme.
type App struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// Scheme is the lowercased URL scheme handled by the app.
	// Example: spotify
	Scheme string

	// ─────────────────────────────
	// Functional description
	// (may be overwritten by apps file reload)
	// ─────────────────────────────

	// Platform is the platform identifier the app answers for.
	// Example: linux
	Platform string

	// Name is the display name.
	Name string

	// Version is the installed version ("" when unknown).
	Version string

	// Command is the argv used to open a URL, "{url}" is substituted.
	// Example: ["spotify", "--uri={url}"]
	Command []string

	// ─────────────────────────────
	// Provenance & observation
	// ─────────────────────────────

	// Sources indicates where this app was discovered from.
	// Example: file, redis
	Sources []string

	// UpdatedAt is updated on any mutation.
	UpdatedAt time.Time

	// Disabled marks an app removed from the apps file.
	// It may be garbage-collected later.
	Disabled bool
}
