package domain

import (
	"errors"
	"regexp"
)

// ErrInvalidUsername reports a username that fails format validation.
var ErrInvalidUsername = errors.New("domain: invalid username")

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Username is a validated account handle. A Username is always non-empty,
// contains no spaces, and matches [A-Za-z0-9_-]+. Construct one with
// NewUsername; the zero value is not valid.
type Username string

// NewUsername validates s and returns it as a Username. The input is taken
// as-is: surrounding whitespace is not stripped, it is rejected. Validation
// runs before any persistence attempt so malformed input never reaches the
// store.
func NewUsername(s string) (Username, error) {
	if s == "" || !usernamePattern.MatchString(s) {
		return "", ErrInvalidUsername
	}
	return Username(s), nil
}

func (u Username) String() string { return string(u) }
