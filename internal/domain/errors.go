package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrChallengeNotFound is returned when the referenced challenge does not exist.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when the referenced attempt does not exist.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrNotParticipant is returned when the caller is not part of the challenge.
	ErrNotParticipant = errors.New("user is not part of this challenge")
	// ErrNotChallenged is returned when someone other than the challenged user
	// tries to accept or decline.
	ErrNotChallenged = errors.New("user is not the challenged user")
	// ErrChallengeNotPending is returned when accept/decline hits a challenge
	// that already left the pending state.
	ErrChallengeNotPending = errors.New("challenge is not pending")
	// ErrAlreadyCompleted is returned when a participant records a second
	// completion for a slot that is already filled.
	ErrAlreadyCompleted = errors.New("participant already completed this challenge")
	// ErrSelfChallenge is returned when a user tries to challenge themselves.
	ErrSelfChallenge = errors.New("you cannot challenge yourself")
	// ErrGenerationUnavailable indicates the external question generator failed.
	ErrGenerationUnavailable = errors.New("quiz generation unavailable")
)

// ValidationError reports a malformed grading submission. Grading never
// returns partial results alongside it.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
