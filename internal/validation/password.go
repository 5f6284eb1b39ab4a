package validation

import (
	"errors"
)

const (
	MinPasswordLength = 8
	// bcrypt silently truncates anything longer
	MaxPasswordLength = 72
)

// ValidatePassword checks length bounds only; strength rules belong to the
// auth backend.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > MaxPasswordLength {
		return errors.New("password must not exceed 72 characters")
	}

	return nil
}
