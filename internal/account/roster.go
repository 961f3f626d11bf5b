package account

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/steveyegge/luckywheel/internal/role"
)

// Roster holds every account. Stored under KeyRoster.
type Roster struct {
	// Version is the schema version.
	Version int `json:"version"`

	// Users is the list of accounts in creation order.
	Users []UserRecord `json:"users"`
}

func newRoster() *Roster {
	return &Roster{Version: CurrentRosterVersion, Users: []UserRecord{}}
}

// decodeRoster parses a stored roster. A bare JSON array is accepted as an
// unversioned roster.
func decodeRoster(data []byte) (*Roster, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var users []UserRecord
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return nil, err
		}
		return &Roster{Version: CurrentRosterVersion, Users: users}, nil
	}

	var r Roster
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, err
	}
	if r.Users == nil {
		r.Users = []UserRecord{}
	}
	if r.Version == 0 {
		r.Version = CurrentRosterVersion
	}
	return &r, nil
}

// fold returns s in its case-insensitive comparison form.
// A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func sameName(a, b string) bool {
	return fold(a) == fold(b)
}

func isRoot(username string) bool {
	return sameName(username, RootUsername)
}

// Find returns the account with the given username, ignoring case.
func (r *Roster) Find(username string) *UserRecord {
	key := fold(username)
	for i := range r.Users {
		if fold(r.Users[i].Username) == key {
			return &r.Users[i]
		}
	}
	return nil
}

func (r *Roster) findSocial(provider Provider, email string) *UserRecord {
	key := fold(email)
	for i := range r.Users {
		u := &r.Users[i]
		if u.Provider == provider && fold(u.Email) == key {
			return u
		}
	}
	return nil
}

// emailOwner returns the first account using email, optionally only among
// password accounts.
func (r *Roster) emailOwner(email string, passwordOnly bool) *UserRecord {
	key := fold(email)
	for i := range r.Users {
		u := &r.Users[i]
		if passwordOnly && u.IsSocial() {
			continue
		}
		if fold(u.Email) == key {
			return u
		}
	}
	return nil
}

func (r *Roster) remove(username string) bool {
	key := fold(username)
	for i := range r.Users {
		if fold(r.Users[i].Username) == key {
			r.Users = append(r.Users[:i], r.Users[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Roster) clone() *Roster {
	c := &Roster{Version: r.Version, Users: make([]UserRecord, len(r.Users))}
	for i := range r.Users {
		c.Users[i] = *r.Users[i].clone()
	}
	return c
}

// Stats counts accounts by role.
func (r *Roster) Stats() Stats {
	s := Stats{Total: len(r.Users)}
	for _, u := range r.Users {
		switch u.Role {
		case role.Admin:
			s.Admins++
		case role.User:
			s.Users++
		}
	}
	return s
}

// Collisions lists usernames and emails shared by more than one account after
// case folding. Social accounts may share an email across providers.
func (r *Roster) Collisions() []string {
	var out []string
	names := make(map[string]string)
	emails := make(map[string]string)
	for _, u := range r.Users {
		if prev, ok := names[fold(u.Username)]; ok {
			out = append(out, fmt.Sprintf("username %q collides with %q", u.Username, prev))
		} else {
			names[fold(u.Username)] = u.Username
		}

		emailKey := string(u.Provider) + "|" + fold(u.Email)
		if prev, ok := emails[emailKey]; ok && u.Email != "" {
			out = append(out, fmt.Sprintf("email %q of %q is also used by %q", u.Email, u.Username, prev))
		} else {
			emails[emailKey] = u.Username
		}
	}
	return out
}

// Repair brings every record back inside the roster invariants and describes
// each change it made. It does not create the root admin.
func (r *Roster) Repair(historyLimit int) []string {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	var fixes []string
	for i := range r.Users {
		u := &r.Users[i]

		if !u.Role.Valid() {
			fixes = append(fixes, fmt.Sprintf("%s: unknown role %q reset to user", u.Username, u.Role))
			u.Role = role.User
		}
		if isRoot(u.Username) && u.Role != role.Admin {
			fixes = append(fixes, fmt.Sprintf("%s: root account restored to admin", u.Username))
			promote(u)
		}

		switch u.Role {
		case role.User:
			if u.Spins.IsUnlimited() || u.Spins.Count() >= LegacyUnlimited {
				restored := 1
				if u.SavedSpins != nil && *u.SavedSpins >= 0 && *u.SavedSpins < LegacyUnlimited {
					restored = *u.SavedSpins
				}
				fixes = append(fixes, fmt.Sprintf("%s: unlimited balance on a user account reset to %d", u.Username, restored))
				u.Spins = Finite(restored)
				u.SavedSpins = nil
			}
		case role.Admin:
			if !u.Spins.IsUnlimited() {
				fixes = append(fixes, fmt.Sprintf("%s: admin balance set to unlimited", u.Username))
				if u.SavedSpins == nil && u.Spins.Count() < LegacyUnlimited {
					n := u.Spins.Count()
					u.SavedSpins = &n
				}
				u.Spins = Unlimited()
			}
		}

		if len(u.History) > historyLimit {
			fixes = append(fixes, fmt.Sprintf("%s: history trimmed from %d to %d entries", u.Username, len(u.History), historyLimit))
			u.History = u.History[:historyLimit]
		}
	}
	return fixes
}

// promote moves u to admin, keeping its finite balance for a later demotion.
func promote(u *UserRecord) {
	if u.Role == role.Admin && u.Spins.IsUnlimited() {
		return
	}
	if !u.Spins.IsUnlimited() {
		n := u.Spins.Count()
		u.SavedSpins = &n
	}
	u.Role = role.Admin
	u.Spins = Unlimited()
}

// demote moves u to user, restoring the balance saved at promotion.
func demote(u *UserRecord) {
	restored := 0
	if u.SavedSpins != nil {
		restored = *u.SavedSpins
	}
	u.Role = role.User
	u.Spins = Finite(restored)
	u.SavedSpins = nil
}
