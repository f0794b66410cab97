package types

import (
	"regexp"
	"strings"
)

// Compiled once; validation runs on every join and chat envelope.
var usernameRegex = regexp.MustCompile(`^[\w \-]+$`)

// ValidateUsername checks a display name after trimming. Callers are
// expected to trim before registering so the stored name matches what
// was validated.
func ValidateUsername(name string, maxLen int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrUsernameEmpty
	}
	if len(name) > maxLen {
		return ErrUsernameTooLong
	}
	if !usernameRegex.MatchString(name) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidateMessageText checks chat text after trimming.
func ValidateMessageText(text string, maxLen int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrMessageEmpty
	}
	if len(text) > maxLen {
		return ErrMessageTooLong
	}
	return nil
}
