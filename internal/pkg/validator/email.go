package validator

import (
	"errors"
	"strings"
)

func ValidateEmail(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return errors.New("invalid email format")
	}

	domain := parts[1]
	if domain == "" || !strings.Contains(domain, ".") {
		return errors.New("invalid email domain")
	}
	if strings.ContainsAny(email, " \t") {
		return errors.New("invalid email format")
	}

	return nil
}
