package validator

import (
	"errors"
	"strings"
)

// NormalizePhone strips formatting characters from a customer phone number.
// Phone numbers are the customer identity across the platform, so they are
// normalized before they touch the database.
func NormalizePhone(phone string) (string, error) {
	trimmed := strings.TrimSpace(phone)

	var b strings.Builder
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
			// formatting noise
		default:
			return "", errors.New("phone number contains invalid characters")
		}
	}

	cleaned := b.String()
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", errors.New("phone number must have 7-15 digits")
	}

	return cleaned, nil
}

func ValidateEmail(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || !strings.Contains(parts[1], ".") {
		return errors.New("invalid email format")
	}
	return nil
}
