package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Field pairs a field name with its submitted value for RequireFields.
type Field struct {
	Name  string
	Value string
}

// RequireFields returns a ValidationError for the first blank field.
func RequireFields(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return &ValidationError{Field: f.Name, Message: f.Name + " is required"}
		}
	}
	return nil
}

// ValidateEmail checks the basic shape of an address. Case is preserved;
// the stored address is what uniqueness is checked against.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return &ValidationError{Field: "email", Message: "email is not valid"}
	}
	return nil
}
