package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/luckywheel/internal/role"
)

// SocialLogin signs in with an identity from a social provider. It reports
// returning=true when the (provider, email) account already existed.
//
// The root-admin email is promoted to admin on every login, new or returning.
func (d *Directory) SocialLogin(ctx context.Context, id SocialIdentity) (*UserRecord, bool, error) {
	in := socialInput{
		Provider:    string(NormalizeProvider(string(id.Provider))),
		Email:       strings.ToLower(strings.TrimSpace(id.Email)),
		DisplayName: strings.TrimSpace(id.DisplayName),
	}
	if err := check(in); err != nil {
		return nil, false, err
	}
	provider := Provider(in.Provider)
	rootEmail := strings.TrimSpace(d.cfg.RootAdminEmail)
	isRootEmail := rootEmail != "" && strings.EqualFold(in.Email, rootEmail)

	var (
		result    *UserRecord
		returning bool
	)
	err := d.mutate(ctx, func(tx *txn) error {
		if u := tx.roster.findSocial(provider, in.Email); u != nil {
			if isRootEmail && u.Role != role.Admin {
				promote(u)
				tx.rosterDirty = true
				d.log.Info(ctx, "promoted root-admin email", "user", u.Username)
			}
			tx.setSession(u)
			result = u.clone()
			returning = true
			return nil
		}

		if owner := tx.roster.emailOwner(in.Email, true); owner != nil {
			return fmt.Errorf("%w: %s is registered to a password account", ErrEmailInUse, in.Email)
		}

		u := UserRecord{
			ID:          d.newID(),
			Username:    uniqueUsername(tx.roster, socialUsername(in.DisplayName, provider)),
			Email:       in.Email,
			Role:        role.User,
			Spins:       Finite(d.cfg.InitialSpins),
			Provider:    provider,
			DisplayName: in.DisplayName,
			History:     []SpinRecord{},
			CreatedAt:   d.now(),
		}
		if isRootEmail {
			promote(&u)
		}
		tx.roster.Users = append(tx.roster.Users, u)
		tx.rosterDirty = true
		tx.setSession(&u)
		result = u.clone()
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, returning, nil
}

// socialUsername joins the words of a display name with underscores and
// appends the provider, e.g. "Test User" via google becomes "Test_User_google".
func socialUsername(displayName string, provider Provider) string {
	base := strings.Join(strings.Fields(displayName), "_")
	if base == "" {
		base = "user"
	}
	return base + "_" + string(provider)
}

// uniqueUsername appends _1, _2, ... until the name is free.
func uniqueUsername(r *Roster, base string) string {
	name := base
	for n := 1; r.Find(name) != nil; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	return name
}
