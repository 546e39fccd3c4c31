package apperrors

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionSettled  = errors.New("session already settled")

	// Event log.
	ErrStructural  = errors.New("record is not a well-formed event")
	ErrLogFull     = errors.New("event log capacity reached")
	ErrPersistence = errors.New("persistence failed")

	// Import payloads.
	ErrMissingEvents  = errors.New("payload has no events")
	ErrTooManyEvents  = errors.New("too many events")
	ErrCorruptPayload = errors.New("corrupt payload")
	ErrLegacyPayload  = errors.New("legacy history/intents payload is not supported")

	ErrNoCoachChoice = errors.New("no coach choice to attach an outcome to")
)

// IsNotice reports whether err is an expected state conflict that callers
// surface to the user instead of failing.
func IsNotice(err error) bool {
	return errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrSessionSettled) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoCoachChoice)
}
