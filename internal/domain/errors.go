package domain

import "errors"

var (
	// ErrNotFound covers unknown codes, ids and email+code pairs alike so
	// responses cannot be used to enumerate which of them exist.
	ErrNotFound = errors.New("not found")

	ErrDuplicateEmail = errors.New("a guest with this email already exists")

	ErrDuplicateCode = errors.New("invitation code already in use")

	// ErrCodeExhausted is returned when unique-code generation ran out of
	// retries against the store's uniqueness check.
	ErrCodeExhausted = errors.New("could not generate a unique invitation code")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPrecondition marks state-machine violations such as checking in a
	// guest who never confirmed attendance.
	ErrPrecondition = errors.New("precondition failed")

	// ErrForbidden gates content reserved for confirmed guests.
	ErrForbidden = errors.New("access not authorized")
)

// ValidationError carries a user-correctable message for the 400 boundary.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is user-correctable input failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
