// Package account owns the roster of wheel players and the current session.
//
// Every read and write of persisted account state goes through a Directory:
// registration and login, the spin ledger, per-user history, and the admin
// mutations. Mutations run under the store lock so two processes can never
// spend the same spin.
package account

import (
	"strings"
	"time"

	"github.com/steveyegge/luckywheel/internal/role"
)

// CurrentRosterVersion is the current schema version for the persisted roster.
const CurrentRosterVersion = 1

// RootUsername is the administrator that can never be demoted or deleted.
const RootUsername = "admin"

// Store keys owned by the directory.
const (
	KeyRoster  = "users"
	KeySession = "session"
)

// Provider names a social identity provider. Empty means a password account.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// NormalizeProvider lowercases and trims a provider id.
func NormalizeProvider(s string) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(s)))
}

// SpinRecord is one past spin outcome.
type SpinRecord struct {
	ID         string    `json:"id"`
	Prize      string    `json:"prize"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserRecord is a persisted account.
type UserRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	// Secret is nil for social accounts, which cannot log in with a password.
	Secret *string `json:"secret,omitempty"`

	Role  role.Role `json:"role"`
	Spins Spins     `json:"spins"`

	// SavedSpins holds the balance a user had when promoted to admin.
	SavedSpins *int `json:"saved_spins,omitempty"`

	Provider    Provider     `json:"provider,omitempty"`
	DisplayName string       `json:"display_name,omitempty"`
	History     []SpinRecord `json:"history"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IsSocial reports whether the account was created through a social provider.
func (u *UserRecord) IsSocial() bool {
	return u.Provider != ""
}

// Balance returns the balance the ledger spends from.
func (u *UserRecord) Balance() Spins {
	view, ok := balanceViews[u.Role]
	if !ok {
		return Finite(0)
	}
	return view(u)
}

// Public projects the record without its secret.
func (u *UserRecord) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Spins:       u.Balance(),
		Provider:    u.Provider,
		DisplayName: u.DisplayName,
		History:     append([]SpinRecord(nil), u.History...),
		CreatedAt:   u.CreatedAt,
	}
}

func (u *UserRecord) session() *Session {
	return &Session{
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Spins:    u.Balance(),
	}
}

func (u *UserRecord) clone() *UserRecord {
	c := *u
	if u.Secret != nil {
		s := *u.Secret
		c.Secret = &s
	}
	if u.SavedSpins != nil {
		n := *u.SavedSpins
		c.SavedSpins = &n
	}
	c.History = append([]SpinRecord(nil), u.History...)
	return &c
}

// PublicUser is a UserRecord safe to show in listings.
type PublicUser struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Role        role.Role    `json:"role"`
	Spins       Spins        `json:"spins"`
	Provider    Provider     `json:"provider,omitempty"`
	DisplayName string       `json:"display_name,omitempty"`
	History     []SpinRecord `json:"history"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Session points at the logged-in account. It is a cache, never the source of truth.
type Session struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     role.Role `json:"role"`
	Spins    Spins     `json:"spins"`
}

// SocialIdentity is what an identity provider reports about a user.
type SocialIdentity struct {
	Provider    Provider
	Email       string
	DisplayName string
}

// Stats summarises the roster for the admin panel.
type Stats struct {
	Total  int `json:"total"`
	Admins int `json:"admins"`
	Users  int `json:"users"`
}

// Config holds the fixed account policy.
type Config struct {
	// RootAdminEmail auto-promotes social logins with this email. Empty disables it.
	RootAdminEmail string

	// SeedEmail and SeedSecret are the root admin's credentials on first start.
	SeedEmail  string
	SeedSecret string

	// HistoryLimit caps each user's history. Zero means DefaultHistoryLimit.
	HistoryLimit int

	// InitialSpins is the balance of new user accounts. Zero means DefaultInitialSpins.
	InitialSpins int
}

// Defaults applied when Config leaves a field unset.
const (
	DefaultHistoryLimit = 20
	DefaultInitialSpins = 1
)

func (c Config) withDefaults() Config {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.InitialSpins <= 0 {
		c.InitialSpins = DefaultInitialSpins
	}
	c.RootAdminEmail = strings.ToLower(strings.TrimSpace(c.RootAdminEmail))
	return c
}
