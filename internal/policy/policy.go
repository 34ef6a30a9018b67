// Package policy decides whether an actor may view or change catalog records.
//
// Viewing requires an authenticated actor. Creating, updating and deleting
// any catalog record requires an admin. Anonymous actors are told to log in;
// authenticated non-admins are refused outright.
package policy

import "fmt"

// Actor is the identity performing a request. A zero UserID is anonymous.
type Actor struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// Anonymous is the actor of an unauthenticated request.
var Anonymous = Actor{}

func (a Actor) IsAuthenticated() bool {
	return a.UserID != 0
}

// Resource names a catalog record type.
type Resource string

const (
	ResourceBook           Resource = "book"
	ResourceAuthor         Resource = "author"
	ResourcePublisher      Resource = "publisher"
	ResourceClassification Resource = "classification"
	ResourceImport         Resource = "import"
	ResourceAudit          Resource = "audit"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Allowed Decision = iota
	// DenyLogin means the actor must authenticate first.
	DenyLogin
	// DenyForbidden means the actor is known but lacks the privilege.
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DenyLogin:
		return "login required"
	case DenyForbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// IsAllowed reports whether the decision permits the action.
func (d Decision) IsAllowed() bool {
	return d == Allowed
}

// CanView gates list, detail and search pages.
func CanView(actor Actor, _ Resource) Decision {
	if !actor.IsAuthenticated() {
		return DenyLogin
	}
	return Allowed
}

// CanMutate gates create, update and delete of every resource, including
// authors.
func CanMutate(actor Actor, _ Resource) Decision {
	if !actor.IsAuthenticated() {
		return DenyLogin
	}
	if !actor.IsAdmin {
		return DenyForbidden
	}
	return Allowed
}
