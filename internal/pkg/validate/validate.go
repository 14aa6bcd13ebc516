package validate

import (
	"net/mail"
	"strings"
	"unicode"
)

const minPasswordLength = 8

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func Email(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == value
}

// Password requires at least 8 characters with one letter and one digit,
// matching the registration policy of the web client.
func Password(value string) bool {
	if len(value) < minPasswordLength {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func Rating(value int) bool {
	return value >= 1 && value <= 5
}
