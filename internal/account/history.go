package account

import (
	"context"
)

// AppendHistory records a prize for the logged-in account, newest first,
// dropping the oldest entries beyond the history limit.
func (d *Directory) AppendHistory(ctx context.Context, prize string) error {
	return d.mutate(ctx, func(tx *txn) error {
		u := tx.current()
		if u == nil {
			return ErrNoSession
		}

		d.record(tx, u, prize)
		return nil
	})
}

func (d *Directory) record(tx *txn, u *UserRecord, prize string) {
	rec := SpinRecord{ID: d.newID(), Prize: prize, OccurredAt: d.now()}
	history := make([]SpinRecord, 0, len(u.History)+1)
	history = append(history, rec)
	history = append(history, u.History...)
	if len(history) > d.cfg.HistoryLimit {
		history = history[:d.cfg.HistoryLimit]
	}
	u.History = history
	tx.rosterDirty = true
}

// History returns the logged-in account's spins, newest first. It is empty
// when nobody is logged in.
func (d *Directory) History(ctx context.Context) ([]SpinRecord, error) {
	tx, err := d.view(ctx)
	if err != nil {
		return nil, err
	}
	u := tx.current()
	if u == nil {
		return []SpinRecord{}, nil
	}
	return append([]SpinRecord{}, u.History...), nil
}
