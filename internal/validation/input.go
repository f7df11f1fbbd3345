// Package validation holds input rules shared by handlers and services.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"orma/internal/models"
)

var (
	phoneRegex     = regexp.MustCompile(`^[0-9]{6,15}$`)
	eventHashRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

const maxEventNameLength = 200

// ValidatePhone accepts digits only, without a leading '+'.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("phone must contain 6-15 digits only")
	}
	return nil
}

// ValidateEventName requires a non-blank name of at most 200 characters.
func ValidateEventName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("event name is required")
	}
	if utf8.RuneCountInString(name) > maxEventNameLength {
		return fmt.Errorf("event name must be at most %d characters", maxEventNameLength)
	}
	return nil
}

// ValidateComment requires non-blank content within models.MaxCommentLength characters.
func ValidateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return fmt.Errorf("comment must be at most %d characters", models.MaxCommentLength)
	}
	return nil
}

// ValidateEmail accepts an empty value or a bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateEventHash rejects hashes that cannot have been issued.
func ValidateEventHash(hash string) error {
	if !eventHashRegex.MatchString(hash) {
		return fmt.Errorf("invalid event hash")
	}
	return nil
}

// ParseTimezone resolves an IANA zone name.
func ParseTimezone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}
	return loc, nil
}
