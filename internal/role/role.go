// Package role defines the closed set of account roles.
package role

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies what an account is allowed to do on the wheel.
type Role string

const (
	// User accounts spend a finite spin balance.
	User Role = "user"

	// Admin accounts spin without limit and manage other accounts.
	Admin Role = "admin"
)

// ErrUnknownRole indicates a role string outside the known set.
var ErrUnknownRole = errors.New("unknown role")

// All returns every known role in display order.
func All() []Role {
	return []Role{User, Admin}
}

// Parse converts a user-supplied string to a Role.
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case User, Admin:
		return true
	default:
		return false
	}
}

// Other returns the role an admin toggle switches r to.
func (r Role) Other() Role {
	if r == Admin {
		return User
	}
	return Admin
}

func (r Role) String() string {
	return string(r)
}
