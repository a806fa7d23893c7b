package navigation

import (
	"context"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

// Platform is the launch mechanism of the host environment.
//
// CanOpen must be a pure probe: it never launches anything. Open is the
// only call with an observable side effect and is issued at most once per
// candidate, strictly in priority order.
type Platform interface {
	// CanOpen reports whether something on this platform handles target.
	CanOpen(ctx context.Context, target domain.Target) bool

	// Open launches target and reports whether the launch succeeded.
	Open(ctx context.Context, target domain.Target) bool

	// InstalledVersion returns the version of the app that would handle
	// target, and false when it is unknown.
	InstalledVersion(ctx context.Context, target domain.Target) (string, bool)
}
