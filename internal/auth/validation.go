package auth

import (
	"strings"
	"unicode"
)

// ValidatePasswordStrength checks a candidate password against the portal's
// complexity rules and returns the list of violations, empty when acceptable.
func ValidatePasswordStrength(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "password must contain at least one number")
	}
	if !hasSpecial {
		errs = append(errs, "password must contain at least one special character")
	}
	if strings.TrimSpace(password) != password {
		errs = append(errs, "password must not start or end with whitespace")
	}

	return errs
}
