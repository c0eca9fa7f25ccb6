package models

import "fmt"

// Phase tags where in the pipeline an error originated.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseFetch    Phase = "fetch"
	PhaseRender   Phase = "render"
	PhaseServer   Phase = "server"

	// PhaseAuth marks requests rejected before any pipeline work.
	PhaseAuth Phase = "auth"
)

// Error codes used for infrastructure failures (browser, store, transport).
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeStore        = "STORE_FAILED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// PhaseError is the phase-tagged error carried on every result and response.
type PhaseError struct {
	Message string `json:"message"`
	Phase   Phase  `json:"phase"`
}

// NewPhaseError builds a PhaseError from an arbitrary error.
func NewPhaseError(phase Phase, err error) PhaseError {
	if err == nil {
		return PhaseError{Phase: phase}
	}
	return PhaseError{Message: err.Error(), Phase: phase}
}

// ScrapeError is the internal error type carrying an error code and phase.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Phase   Phase
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code string, phase Phase, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Phase: phase, Message: message, Err: err}
}

// ToPhaseError converts an internal error to the API-facing PhaseError.
// The wrapped cause is kept in the message so callers always get context.
func (e *ScrapeError) ToPhaseError() PhaseError {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return PhaseError{Message: msg, Phase: e.Phase}
}
