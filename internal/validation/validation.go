package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxPlayerIDLength    = 64
	minDisplayNameLength = 2
	maxDisplayNameLength = 32
)

var playerIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]+$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePlayerID checks that an id is safe to use as a token subject and in URLs
func ValidatePlayerID(id string) error {
	if id == "" {
		return ValidationError{Field: "player_id", Message: "player ID is required"}
	}
	if len(id) > maxPlayerIDLength {
		return ValidationError{Field: "player_id", Message: fmt.Sprintf("player ID must be at most %d characters", maxPlayerIDLength)}
	}
	if !playerIDRegex.MatchString(id) {
		return ValidationError{Field: "player_id", Message: "player ID may only contain letters, digits, '.', '_' and '-'"}
	}
	return nil
}

// ValidateDisplayName checks if a display name is valid
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "display_name", Message: "display name is required"}
	}
	n := utf8.RuneCountInString(name)
	if n < minDisplayNameLength {
		return ValidationError{Field: "display_name", Message: fmt.Sprintf("display name must be at least %d characters", minDisplayNameLength)}
	}
	if n > maxDisplayNameLength {
		return ValidationError{Field: "display_name", Message: fmt.Sprintf("display name must be at most %d characters", maxDisplayNameLength)}
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ValidationError{Field: "display_name", Message: "display name contains control characters"}
		}
	}
	return nil
}
