// Package identity obtains a social identity (provider, email, display name)
// for social login. The account package treats whatever it returns as
// untrusted input.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/config"
)

// ErrCanceled indicates the user abandoned the sign-in. Callers treat it as a no-op.
var ErrCanceled = errors.New("sign-in canceled")

// Fallbacks for providers that omit profile fields.
const (
	FallbackDisplayName = "User"
	fallbackEmailDomain = ".com"
)

// Identity is what a provider vouches for.
type Identity struct {
	Provider    account.Provider
	Email       string
	DisplayName string
}

// Social converts the identity for account.Directory.SocialLogin.
func (i Identity) Social() account.SocialIdentity {
	return account.SocialIdentity{
		Provider:    i.Provider,
		Email:       i.Email,
		DisplayName: i.DisplayName,
	}
}

// Provider authenticates a user with one social provider.
type Provider interface {
	Name() account.Provider
	Authenticate(ctx context.Context) (Identity, error)
}

// withFallbacks fills fields the provider left empty.
func withFallbacks(provider account.Provider, subject, email, name string) Identity {
	email = strings.TrimSpace(email)
	if email == "" && subject != "" {
		email = subject + "@" + string(provider) + fallbackEmailDomain
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = FallbackDisplayName
	}
	return Identity{Provider: provider, Email: email, DisplayName: name}
}

// Static is a provider that always returns the same identity. It stands in
// for a real provider when none is configured.
type Static struct {
	Identity Identity
}

// Simulated returns the stand-in identity for a provider with no OAuth client.
func Simulated(provider account.Provider, email, name string) *Static {
	if email == "" {
		email = "test@" + string(provider) + fallbackEmailDomain
	}
	if name == "" {
		name = "Test User"
	}
	return &Static{Identity: withFallbacks(provider, "", email, name)}
}

func (s *Static) Name() account.Provider {
	return s.Identity.Provider
}

func (s *Static) Authenticate(ctx context.Context) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, ErrCanceled
	}
	return s.Identity, nil
}

// FromConfig returns a device-flow provider when cfg has a client id for
// provider, and a simulated one otherwise.
func FromConfig(provider account.Provider, cfg *config.Config, prompt PromptFunc) Provider {
	if cfg != nil {
		if oc, ok := cfg.Provider(string(provider)); ok {
			return NewDeviceFlow(provider, oc, prompt)
		}
	}
	return Simulated(provider, "", "")
}
