package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrReferenceConflict = errors.New("record is still referenced")
)

// MissingReferenceError reports a foreign key that points at no row at
// write time. Field names the form field carrying the reference.
type MissingReferenceError struct {
	Field string
	ID    uint
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Field, e.ID)
}

// AsMissingReference extracts a MissingReferenceError from err, if any.
func AsMissingReference(err error) (*MissingReferenceError, bool) {
	var ref *MissingReferenceError
	if errors.As(err, &ref) {
		return ref, true
	}
	return nil, false
}

// Translate maps GORM's missing-row error onto ErrNotFound and passes
// everything else through.
func Translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// LikeEscape is the escape character used by ContainsPattern.
const LikeEscape = `\`

// ContainsPattern builds a LIKE pattern matching token anywhere in a value.
// The token is lowercased with Unicode rules, so the column side must go
// through unicode_lower() rather than LOWER(). Wildcards inside token are
// escaped so it matches literally; the caller must add ESCAPE '\' to the
// clause.
func ContainsPattern(token string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(token)) + "%"
}

// Tokens splits a search query on whitespace.
func Tokens(query string) []string {
	return strings.Fields(query)
}
