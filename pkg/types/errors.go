package types

import "errors"

// Validation errors. The router forwards their text to the offending
// connection as an error envelope, so messages are phrased for end users.
var (
	ErrUsernameEmpty    = errors.New("username must not be empty")
	ErrUsernameTooLong  = errors.New("username is too long")
	ErrUsernameInvalid  = errors.New("username may only contain letters, digits, underscores, spaces and hyphens")
	ErrMessageEmpty     = errors.New("message must not be empty")
	ErrMessageTooLong   = errors.New("message is too long")
)
