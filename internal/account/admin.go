package account

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/steveyegge/luckywheel/internal/role"
)

// SetRole changes an account's role. Promotion saves the finite balance and
// grants unlimited spins; demotion restores the saved balance, or 0.
// The root admin can never leave the admin role.
func (d *Directory) SetRole(ctx context.Context, username string, r role.Role) (*UserRecord, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, fmt.Errorf("%w: %q", role.ErrUnknownRole, r))
	}
	if isRoot(username) && r != role.Admin {
		return nil, fmt.Errorf("%w: the %s account must stay admin", ErrForbidden, RootUsername)
	}

	var updated *UserRecord
	err := d.mutate(ctx, func(tx *txn) error {
		u := tx.roster.Find(username)
		if u == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, username)
		}
		if u.Role == r {
			updated = u.clone()
			return nil
		}

		switch r {
		case role.Admin:
			promote(u)
		case role.User:
			demote(u)
		}
		tx.rosterDirty = true
		if tx.session != nil && sameName(tx.session.Username, u.Username) {
			tx.setSession(u)
		}
		updated = u.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.log.Debug(ctx, "role changed", "user", updated.Username, "role", string(r))
	return updated, nil
}

// GrantSpins adds count spins to an account. Admin balances stay unlimited.
func (d *Directory) GrantSpins(ctx context.Context, username string, count int) (*UserRecord, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: spin count must be a positive integer, got %d", ErrValidation, count)
	}

	var updated *UserRecord
	err := d.mutate(ctx, func(tx *txn) error {
		u := tx.roster.Find(username)
		if u == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, username)
		}
		if !u.Spins.IsUnlimited() && count > math.MaxInt-u.Spins.Count() {
			return fmt.Errorf("%w: %s already has %d spins, cannot add %d", ErrValidation, u.Username, u.Spins.Count(), count)
		}
		u.Spins = u.Spins.Add(count)
		tx.rosterDirty = true
		if tx.session != nil && sameName(tx.session.Username, u.Username) {
			tx.setSession(u)
		}
		updated = u.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.log.Debug(ctx, "spins granted", "user", updated.Username, "count", count)
	return updated, nil
}

// DeleteUser is the admin form of Delete, with the same root-admin guard.
func (d *Directory) DeleteUser(ctx context.Context, username string) error {
	return d.Delete(ctx, username)
}

// RequireAdmin returns the current session if it belongs to a live admin.
func (d *Directory) RequireAdmin(ctx context.Context) (*Session, error) {
	s, err := d.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	if s.Role != role.Admin {
		return nil, fmt.Errorf("%w: %s is not an admin", ErrForbidden, s.Username)
	}
	return s, nil
}

// Search returns accounts whose username, email, provider or role contains
// query, ignoring case. An empty query matches everything.
func (d *Directory) Search(ctx context.Context, query string) ([]PublicUser, error) {
	all, err := d.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	q := fold(query)
	if q == "" {
		return all, nil
	}

	out := make([]PublicUser, 0, len(all))
	for _, u := range all {
		for _, field := range []string{u.Username, u.Email, string(u.Provider), string(u.Role)} {
			if strings.Contains(fold(field), q) {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

// Stats counts accounts by role.
func (d *Directory) Stats(ctx context.Context) (Stats, error) {
	tx, err := d.view(ctx)
	if err != nil {
		return Stats{}, err
	}
	return tx.roster.Stats(), nil
}
