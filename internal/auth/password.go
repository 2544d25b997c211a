package auth

import "unicode"

const minPasswordLength = 8

// ValidatePassword applies the minimum-strength policy for new passwords.
func ValidatePassword(raw string) error {
	if len(raw) < minPasswordLength {
		return fieldError("password", "password must be at least 8 characters")
	}

	numeric := true
	for _, r := range raw {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return fieldError("password", "password cannot be entirely numeric")
	}

	return nil
}
