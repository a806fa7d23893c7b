package domain

// OutcomeKind is the closed set of navigation results.
type OutcomeKind int

const (
	// OutcomeFailure: nothing was opened.
	OutcomeFailure OutcomeKind = iota
	// OutcomeBrowser: the web fallback was opened.
	OutcomeBrowser
	// OutcomeApp: one of the app targets was opened.
	OutcomeApp
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApp:
		return "app"
	case OutcomeBrowser:
		return "browser"
	default:
		return "failure"
	}
}

// AttemptResult describes what happened to a single candidate.
type AttemptResult string

const (
	AttemptSkippedVersion AttemptResult = "skipped_version"
	AttemptNotOpenable    AttemptResult = "not_openable"
	AttemptOpenFailed     AttemptResult = "open_failed"
	AttemptOpened         AttemptResult = "opened"
)

// Attempt records the handling of one candidate during navigation.
type Attempt struct {
	Target Target        `json:"target"`
	Result AttemptResult `json:"result"`
}

// Outcome is the result of a navigation.
//
// For OutcomeApp, Target is the app target that opened (URL includes the
// merged request data). For OutcomeBrowser, Target is a synthesized web
// target. For OutcomeFailure, Err holds the reason.
type Outcome struct {
	Kind     OutcomeKind `json:"-"`
	Target   *Target     `json:"target,omitempty"`
	Err      error       `json:"-"`
	Attempts []Attempt   `json:"attempts,omitempty"`
}

// Opened reports whether anything was opened.
func (o Outcome) Opened() bool {
	return o.Kind != OutcomeFailure
}

// FailedOutcome builds a failure outcome.
func FailedOutcome(err error, attempts []Attempt) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err, Attempts: attempts}
}
