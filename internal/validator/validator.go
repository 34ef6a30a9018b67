// Package validator accumulates field-level validation errors for form input.
//
// A Validator collects the first failure per field. Once all checks have run,
// Err returns nil for valid input or an Errors value keyed by form field name.
//
//	v := validator.New()
//	v.Check(validator.NotBlank(title), "title", "Book title is required!")
//	v.Check(validator.MaxChars(title, 100), "title", validator.MaxCharsMessage(100))
//	if err := v.Err(); err != nil {
//		return err
//	}
package validator

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Standard messages shared by every form.
const (
	MsgRequired     = "This field is required."
	MsgInvalidEmail = "Enter a valid email address."
	MsgInvalidURL   = "Enter a valid URL."
	MsgInvalidDate  = "Enter a valid date in YYYY-MM-DD format."
	MsgInvalidRef   = "Select a valid choice. That choice is not one of the available choices."
)

// EmailRX is a compiled regular expression for basic email validation.
var EmailRX = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Errors maps form field names to a human-readable message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsErrors extracts field errors from err, if any.
func AsErrors(err error) (Errors, bool) {
	var fieldErrs Errors
	if errors.As(err, &fieldErrs) {
		return fieldErrs, true
	}
	return nil, false
}

// Validator holds a map of field names to their validation error messages.
// A Validator with an empty Errors map is considered valid.
type Validator struct {
	Errors Errors
}

// New creates and returns a fresh, empty Validator.
func New() *Validator {
	return &Validator{Errors: make(Errors)}
}

// Valid returns true if the Errors map contains no entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records key as failing with the given message.
// The first failure for a field is the one that is reported.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key with message only when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Err returns nil when valid, otherwise the accumulated Errors.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return v.Errors
}

// NotBlank reports whether value contains any non-space character.
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxChars reports whether value has at most n characters.
func MaxChars(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

// MaxCharsMessage is the message reported by a failed MaxChars check.
func MaxCharsMessage(n int) string {
	return fmt.Sprintf("Ensure this value has at most %d characters.", n)
}

// Matches returns true if value matches the provided compiled regexp.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

// IsEmail reports whether value looks like an email address.
func IsEmail(value string) bool {
	return len(value) <= 254 && Matches(value, EmailRX)
}

// IsURL reports whether value is an absolute http or https URL with a host.
func IsURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && !strings.ContainsAny(value, " \t\n")
}
