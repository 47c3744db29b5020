// Package validate holds input checks shared by the client and the services.
package validate

import (
	"regexp"
	"strings"
)

// local-part@domain with exactly one '@' and a non-empty domain.
var emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[^@\s]+$`)

func Email(email string) bool {
	return emailRe.MatchString(email)
}

// Required reports whether s has any non-blank content.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Password reports whether password fits the bcrypt input limit.
func Password(password string) bool {
	return len(password) <= MaxPasswordBytes
}
