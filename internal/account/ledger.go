package account

import (
	"context"
	"fmt"

	"github.com/steveyegge/luckywheel/internal/role"
)

// balanceViews maps each role to how the ledger reads its balance.
var balanceViews = map[role.Role]func(*UserRecord) Spins{
	role.Admin: func(*UserRecord) Spins { return Unlimited() },
	role.User:  func(u *UserRecord) Spins { return u.Spins },
}

// CurrentBalance returns the live balance of the logged-in account.
func (d *Directory) CurrentBalance(ctx context.Context) (Spins, error) {
	s, err := d.CurrentUser(ctx)
	if err != nil {
		return Spins{}, err
	}
	if s == nil {
		return Spins{}, ErrNoSession
	}
	return s.Spins, nil
}

// ConsumeOneSpin spends one spin of the logged-in account and returns what is
// left. Admins spend nothing. An empty balance fails without any write.
func (d *Directory) ConsumeOneSpin(ctx context.Context) (Spins, error) {
	var remaining Spins
	err := d.mutate(ctx, func(tx *txn) error {
		u := tx.current()
		if u == nil {
			return ErrNoSession
		}
		next, err := charge(tx, u)
		if err != nil {
			return err
		}
		remaining = next
		return nil
	})
	if err != nil {
		return Spins{}, err
	}
	d.log.Debug(ctx, "spin consumed", "remaining", remaining.String())
	return remaining, nil
}

// Play is one spin charged and recorded in a single transaction.
type Play struct {
	Username  string
	Role      role.Role
	Prize     string
	Remaining Spins
}

// DrawFunc picks a prize label for the role the spin is charged under.
type DrawFunc func(role.Role) (string, error)

// PlaySpin charges one spin to the logged-in account, draws a prize with the
// account's stored role and records it, all under one lock. A failed draw
// leaves the balance and history untouched.
func (d *Directory) PlaySpin(ctx context.Context, draw DrawFunc) (*Play, error) {
	var play *Play
	err := d.mutate(ctx, func(tx *txn) error {
		u := tx.current()
		if u == nil {
			return ErrNoSession
		}
		if _, ok := u.Balance().Take(); !ok {
			return fmt.Errorf("%w: %s has 0 spins", ErrInsufficientBalance, u.Username)
		}

		label, err := draw(u.Role)
		if err != nil {
			return err
		}

		remaining, err := charge(tx, u)
		if err != nil {
			return err
		}
		d.record(tx, u, label)
		tx.setSession(u)
		play = &Play{Username: u.Username, Role: u.Role, Prize: label, Remaining: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.log.Debug(ctx, "spin played", "prize", play.Prize, "remaining", play.Remaining.String())
	return play, nil
}

// charge takes one spin from u and refreshes the session. Unlimited balances
// are left alone.
func charge(tx *txn, u *UserRecord) (Spins, error) {
	balance := u.Balance()
	if balance.IsUnlimited() {
		return balance, nil
	}

	next, ok := balance.Take()
	if !ok {
		return Spins{}, fmt.Errorf("%w: %s has 0 spins", ErrInsufficientBalance, u.Username)
	}
	u.Spins = next
	tx.rosterDirty = true
	tx.setSession(u)
	return next, nil
}
