package validation

import (
	"errors"
	"strings"
)

const MinPasswordLength = 8

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}

	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	commonPasswords := []string{
		"password", "12345678", "123456789", "qwertyuiop", "11111111",
		"iloveyou", "sunshine", "letmein1",
	}

	for _, common := range commonPasswords {
		if lower == common {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
