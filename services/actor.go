package services

import "strings"

// Actor is the identity handed in by the auth collaborator. The core never
// authenticates; it only resolves a display/audit string from what it is
// given, and an approval must never fail for a missing identity.
type Actor struct {
	Email    string // explicit email of the current session
	AltEmail string // alternate session email
	AltID    string // alternate identity id
}

// Display resolves the audit string: session email, then alternate email,
// then alternate id, then the literal "admin".
func (a Actor) Display() string {
	for _, candidate := range []string{a.Email, a.AltEmail, a.AltID} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return "admin"
}
