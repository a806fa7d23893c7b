package navigation

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/applink/internal/domain"
)

// State is the lifecycle position of a background navigation.
type State int

const (
	StateUnresolved State = iota
	StateResolving
	StateResolutionFailed
	StateResolved
	StateNavigating
	StateOpenedInApp
	StateOpenedInBrowser
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateResolutionFailed:
		return "resolution_failed"
	case StateResolved:
		return "resolved"
	case StateNavigating:
		return "navigating"
	case StateOpenedInApp:
		return "opened_in_app"
	case StateOpenedInBrowser:
		return "opened_in_browser"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	switch s {
	case StateResolutionFailed, StateOpenedInApp, StateOpenedInBrowser, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Task is the pending result of NavigateInBackground.
//
// Cancel before navigation has started guarantees that nothing is opened.
// Once the first open has been issued, Cancel only stops the remaining
// candidates.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	outcome domain.Outcome
	err     error
}

func newTask(cancel context.CancelFunc) *Task {
	return &Task{
		done:   make(chan struct{}),
		cancel: cancel,
		state:  StateUnresolved,
	}
}

// Done is closed once the task reached a terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Wait blocks until the task completes or ctx is done. Abandoning the wait
// does not cancel the task; call Cancel for that.
func (t *Task) Wait(ctx context.Context) (domain.Outcome, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.outcome, t.err
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	}
}

// Cancel aborts the task. It is safe to call at any time and more than once.
func (t *Task) Cancel() {
	t.mu.Lock()
	if !t.state.Terminal() && t.state < StateNavigating {
		t.state = StateCancelled
	}
	t.mu.Unlock()
	t.cancel()
}

// transition moves to next unless the task was cancelled first. It
// reports whether the move happened.
func (t *Task) transition(next State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateCancelled {
		return false
	}
	t.state = next
	return true
}

// finish records the result and releases waiters. A cancelled task keeps
// its Cancelled state and reports context.Canceled.
func (t *Task) finish(final State, outcome domain.Outcome, err error) {
	t.mu.Lock()
	if t.state == StateCancelled {
		outcome = domain.FailedOutcome(context.Canceled, outcome.Attempts)
		err = context.Canceled
	} else {
		t.state = final
	}
	t.outcome = outcome
	t.err = err
	t.mu.Unlock()

	t.cancel()
	close(t.done)
}
