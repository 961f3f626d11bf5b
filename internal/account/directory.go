package account

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/steveyegge/luckywheel/internal/logging"
	"github.com/steveyegge/luckywheel/internal/role"
	"github.com/steveyegge/luckywheel/internal/store"
)

// Directory is the single owner of the roster and the session.
type Directory struct {
	store store.Store
	cfg   Config
	now   func() time.Time
	newID func() string
	log   *logging.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithClock sets the time source used for creation and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *logging.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.log = l
		}
	}
}

// New returns a Directory over s. Call Init before first use.
func New(s store.Store, cfg Config, opts ...Option) *Directory {
	d := &Directory{
		store: s,
		cfg:   cfg.withDefaults(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective account policy.
func (d *Directory) Config() Config {
	return d.cfg
}

// txn is one locked read-modify-write of the roster and session.
type txn struct {
	roster       *Roster
	session      *Session
	rosterDirty  bool
	sessionDirty bool
}

func (tx *txn) setSession(u *UserRecord) {
	if u == nil {
		tx.session = nil
	} else {
		tx.session = u.session()
	}
	tx.sessionDirty = true
}

// current returns the live record behind the session, or nil.
func (tx *txn) current() *UserRecord {
	if tx.session == nil {
		return nil
	}
	return tx.roster.Find(tx.session.Username)
}

// mutate runs fn under the store lock and commits only if fn succeeds.
func (d *Directory) mutate(ctx context.Context, fn func(tx *txn) error) error {
	unlock, err := d.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			d.log.Warn(ctx, "releasing store lock", err)
		}
	}()

	tx, err := d.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return d.commit(ctx, tx)
}

// view loads a consistent snapshot without taking the lock.
func (d *Directory) view(ctx context.Context) (*txn, error) {
	return d.load(ctx)
}

func (d *Directory) load(ctx context.Context) (*txn, error) {
	roster, err := d.loadRoster(ctx)
	if err != nil {
		return nil, err
	}
	session, err := d.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	return &txn{roster: roster, session: session}, nil
}

func (d *Directory) commit(ctx context.Context, tx *txn) error {
	if tx.rosterDirty {
		if err := d.saveRoster(ctx, tx.roster); err != nil {
			return err
		}
	}
	if tx.sessionDirty {
		if err := d.saveSession(ctx, tx.session); err != nil {
			return err
		}
	}
	return nil
}

// loadRoster reads the roster. A missing or unparseable roster reads as empty.
func (d *Directory) loadRoster(ctx context.Context) (*Roster, error) {
	data, err := d.store.Get(ctx, KeyRoster)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newRoster(), nil
		}
		return nil, fmt.Errorf("loading roster: %w", err)
	}

	r, err := decodeRoster(data)
	if err != nil {
		d.log.Warn(ctx, "roster is corrupt, starting empty", err)
		return newRoster(), nil
	}
	return r, nil
}

func (d *Directory) saveRoster(ctx context.Context, r *Roster) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding roster: %w", err)
	}
	if err := d.store.Put(ctx, KeyRoster, data); err != nil {
		return fmt.Errorf("saving roster: %w", err)
	}
	return nil
}

// loadSession reads the session. A missing or unparseable session reads as nil.
func (d *Directory) loadSession(ctx context.Context) (*Session, error) {
	data, err := d.store.Get(ctx, KeySession)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var s *Session
	if err := json.Unmarshal(data, &s); err != nil {
		d.log.Warn(ctx, "session is corrupt, treating as logged out", err)
		return nil, nil
	}
	if s == nil || s.Username == "" {
		return nil, nil
	}
	return s, nil
}

func (d *Directory) saveSession(ctx context.Context, s *Session) error {
	if s == nil {
		if err := d.store.Delete(ctx, KeySession); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := d.store.Put(ctx, KeySession, data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Init seeds the root admin if it is missing and repairs records that break
// the roster invariants. It writes only when something changed.
func (d *Directory) Init(ctx context.Context) error {
	return d.mutate(ctx, func(tx *txn) error {
		if tx.roster.Find(RootUsername) == nil {
			secret := d.cfg.SeedSecret
			tx.roster.Users = append(tx.roster.Users, UserRecord{
				ID:        d.newID(),
				Username:  RootUsername,
				Email:     strings.ToLower(strings.TrimSpace(d.cfg.SeedEmail)),
				Secret:    &secret,
				Role:      role.Admin,
				Spins:     Unlimited(),
				History:   []SpinRecord{},
				CreatedAt: d.now(),
			})
			tx.rosterDirty = true
			d.log.Info(ctx, "seeded root admin", "user", RootUsername)
		}

		for _, fix := range tx.roster.Repair(d.cfg.HistoryLimit) {
			d.log.Warn(ctx, "repaired account: "+fix, nil)
			tx.rosterDirty = true
		}
		return nil
	})
}

// Register creates a password account with the initial balance and logs it in.
func (d *Directory) Register(ctx context.Context, username, email, secret string) (*UserRecord, error) {
	in := registerInput{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Secret:   secret,
	}
	if err := check(in); err != nil {
		return nil, err
	}

	var created *UserRecord
	err := d.mutate(ctx, func(tx *txn) error {
		if tx.roster.Find(in.Username) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, in.Username)
		}
		if tx.roster.emailOwner(in.Email, false) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}

		secret := in.Secret
		u := UserRecord{
			ID:        d.newID(),
			Username:  in.Username,
			Email:     in.Email,
			Secret:    &secret,
			Role:      role.User,
			Spins:     Finite(d.cfg.InitialSpins),
			History:   []SpinRecord{},
			CreatedAt: d.now(),
		}
		tx.roster.Users = append(tx.roster.Users, u)
		tx.rosterDirty = true
		tx.setSession(&u)
		created = u.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log.Debug(ctx, "registered account", "user", created.Username)
	return created, nil
}

// Login checks a password and makes the account current.
func (d *Directory) Login(ctx context.Context, username, secret string) (*UserRecord, error) {
	in := loginInput{Username: strings.TrimSpace(username), Secret: secret}
	if err := check(in); err != nil {
		return nil, err
	}

	var found *UserRecord
	err := d.mutate(ctx, func(tx *txn) error {
		u := tx.roster.Find(in.Username)
		if u == nil {
			return ErrInvalidCredentials
		}
		if u.Secret == nil {
			provider := string(u.Provider)
			if provider == "" {
				provider = "social"
			}
			return fmt.Errorf("%w: this account signs in with %s", ErrInvalidCredentials, provider)
		}
		if subtle.ConstantTimeCompare([]byte(*u.Secret), []byte(in.Secret)) != 1 {
			return ErrInvalidCredentials
		}
		tx.setSession(u)
		found = u.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// CurrentUser returns a fresh projection of the logged-in account, or nil when
// nobody is logged in. A session whose account was deleted is cleared.
func (d *Directory) CurrentUser(ctx context.Context) (*Session, error) {
	var current *Session
	err := d.mutate(ctx, func(tx *txn) error {
		if tx.session == nil {
			return nil
		}
		u := tx.current()
		if u == nil {
			tx.setSession(nil)
			return nil
		}
		fresh := u.session()
		if *fresh != *tx.session {
			tx.setSession(u)
		}
		current = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

// IsLoggedIn reports whether a live account is current.
func (d *Directory) IsLoggedIn(ctx context.Context) (bool, error) {
	s, err := d.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

// IsAdmin reports whether the current account is an admin, judged by its live record.
func (d *Directory) IsAdmin(ctx context.Context) (bool, error) {
	s, err := d.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	return s != nil && s.Role == role.Admin, nil
}

// Logout clears the session. The roster is untouched.
func (d *Directory) Logout(ctx context.Context) error {
	return d.mutate(ctx, func(tx *txn) error {
		tx.setSession(nil)
		return nil
	})
}

// ListAll returns every account without secrets, in creation order.
func (d *Directory) ListAll(ctx context.Context) ([]PublicUser, error) {
	tx, err := d.view(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicUser, 0, len(tx.roster.Users))
	for i := range tx.roster.Users {
		out = append(out, tx.roster.Users[i].Public())
	}
	return out, nil
}

// Lookup returns one account without its secret.
func (d *Directory) Lookup(ctx context.Context, username string) (*PublicUser, error) {
	tx, err := d.view(ctx)
	if err != nil {
		return nil, err
	}
	u := tx.roster.Find(username)
	if u == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	pub := u.Public()
	return &pub, nil
}

// Delete removes an account. The root admin can never be deleted. Deleting
// the current account logs it out.
func (d *Directory) Delete(ctx context.Context, username string) error {
	if isRoot(username) {
		return fmt.Errorf("%w: the %s account cannot be deleted", ErrForbidden, RootUsername)
	}
	err := d.mutate(ctx, func(tx *txn) error {
		if !tx.roster.remove(username) {
			return fmt.Errorf("%w: %s", ErrNotFound, username)
		}
		tx.rosterDirty = true
		if tx.session != nil && sameName(tx.session.Username, username) {
			tx.setSession(nil)
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.log.Debug(ctx, "deleted account", "user", username)
	return nil
}

// Snapshot returns a copy of the whole roster.
func (d *Directory) Snapshot(ctx context.Context) (*Roster, error) {
	tx, err := d.view(ctx)
	if err != nil {
		return nil, err
	}
	return tx.roster.clone(), nil
}

// Session returns the persisted session as stored, without refreshing it.
func (d *Directory) Session(ctx context.Context) (*Session, error) {
	return d.loadSession(ctx)
}

// Repair applies Roster.Repair under the lock and returns what it changed.
func (d *Directory) Repair(ctx context.Context) ([]string, error) {
	var fixes []string
	err := d.mutate(ctx, func(tx *txn) error {
		fixes = tx.roster.Repair(d.cfg.HistoryLimit)
		tx.rosterDirty = len(fixes) > 0
		if u := tx.current(); u != nil && tx.rosterDirty {
			tx.setSession(u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixes, nil
}
