package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/luckywheel/internal/role"
)

func TestSetRole_RoundTripRestoresBalance(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	_, err := d.Register(ctx, "alice", "a@x.com", "pass1")
	require.NoError(t, err)
	_, err = d.GrantSpins(ctx, "alice", 2)
	require.NoError(t, err)

	promoted, err := d.SetRole(ctx, "alice", role.Admin)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, promoted.Role)
	assert.True(t, promoted.Spins.IsUnlimited())
	require.NotNil(t, promoted.SavedSpins)
	assert.Equal(t, 3, *promoted.SavedSpins)

	// Promoting twice keeps the first snapshot.
	_, err = d.SetRole(ctx, "alice", role.Admin)
	require.NoError(t, err)

	demoted, err := d.SetRole(ctx, "alice", role.User)
	require.NoError(t, err)
	assert.Equal(t, role.User, demoted.Role)
	assert.Equal(t, Finite(3), demoted.Spins)
	assert.Nil(t, demoted.SavedSpins)

	sess, err := d.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, Finite(3), sess.Spins)
}

func TestSetRole_DemoteRestoresSnapshotTakenAtPromotion(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	u, _, err := d.SocialLogin(ctx, SocialIdentity{Provider: ProviderGoogle, Email: "root@example.com", DisplayName: "Root"})
	require.NoError(t, err)
	require.Equal(t, role.Admin, u.Role)

	demoted, err := d.SetRole(ctx, u.Username, role.User)
	require.NoError(t, err)
	assert.Equal(t, Finite(1), demoted.Spins, "signup balance was saved at promotion")

	_, err = d.Register(ctx, "bob", "b@x.com", "pass1")
	require.NoError(t, err)
	_, err = d.ConsumeOneSpin(ctx)
	require.NoError(t, err)
	_, err = d.SetRole(ctx, "bob", role.Admin)
	require.NoError(t, err)
	demoted, err = d.SetRole(ctx, "bob", role.User)
	require.NoError(t, err)
	assert.Equal(t, Finite(0), demoted.Spins)
}

func TestSetRole_Guards(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	_, err := d.SetRole(ctx, "admin", role.User)
	assert.True(t, errors.Is(err, ErrForbidden))

	admin, err := d.SetRole(ctx, "admin", role.Admin)
	require.NoError(t, err, "keeping the root admin an admin is allowed")
	assert.Equal(t, role.Admin, admin.Role)

	_, err = d.SetRole(ctx, "ghost", role.Admin)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = d.SetRole(ctx, "ghost", role.Role("owner"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, role.ErrUnknownRole))
	assert.Equal(t, CodeValidation, Code(err))
}

func TestGrantSpins(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	_, err := d.Register(ctx, "alice", "a@x.com", "pass1")
	require.NoError(t, err)
	_, err = d.ConsumeOneSpin(ctx)
	require.NoError(t, err)

	for _, n := range []int{-5, 0} {
		_, err = d.GrantSpins(ctx, "alice", n)
		assert.True(t, errors.Is(err, ErrValidation), "count %d", n)
	}
	alice, err := d.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, Finite(0), alice.Spins)

	updated, err := d.GrantSpins(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Equal(t, Finite(5), updated.Spins)

	balance, err := d.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, balance.Count())

	_, err = d.GrantSpins(ctx, "alice", math.MaxInt)
	assert.True(t, errors.Is(err, ErrValidation))
	balance, err = d.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, balance.Count())

	_, err = d.GrantSpins(ctx, "ghost", 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	admin, err := d.GrantSpins(ctx, "admin", 3)
	require.NoError(t, err)
	assert.True(t, admin.Spins.IsUnlimited())
}

func TestConsumeOneSpin_AdminAndNoSession(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	_, err := d.ConsumeOneSpin(ctx)
	assert.True(t, errors.Is(err, ErrNoSession))

	_, err = d.CurrentBalance(ctx)
	assert.True(t, errors.Is(err, ErrNoSession))

	_, err = d.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		left, err := d.ConsumeOneSpin(ctx)
		require.NoError(t, err)
		assert.True(t, left.IsUnlimited())
	}
}

func TestPlaySpin_DrawsWithStoredRole(t *testing.T) {
	ctx := context.Background()
	d, st := newTestDirectory(t)

	_, err := d.Register(ctx, "alice", "a@x.com", "pass1")
	require.NoError(t, err)
	stale, err := st.Get(ctx, KeySession)
	require.NoError(t, err)

	_, err = d.SetRole(ctx, "alice", role.Admin)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, KeySession, stale))

	var drawnFor role.Role
	play, err := d.PlaySpin(ctx, func(r role.Role) (string, error) {
		drawnFor = r
		return "CMNM", nil
	})
	require.NoError(t, err)
	assert.Equal(t, role.Admin, drawnFor)
	assert.Equal(t, role.Admin, play.Role)
	assert.True(t, play.Remaining.IsUnlimited())

	raw, err := st.Get(ctx, KeySession)
	require.NoError(t, err)
	var sess Session
	require.NoError(t, json.Unmarshal(raw, &sess))
	assert.Equal(t, role.Admin, sess.Role, "the session is refreshed in the same write")

	history, err := d.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "CMNM", history[0].Prize)
}

func TestPlaySpin_FailedDrawChargesNothing(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	_, err := d.Register(ctx, "alice", "a@x.com", "pass1")
	require.NoError(t, err)

	_, err = d.PlaySpin(ctx, func(role.Role) (string, error) {
		return "", errors.New("no odds")
	})
	require.Error(t, err)

	balance, err := d.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, balance.Count())
	history, err := d.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	play, err := d.PlaySpin(ctx, func(role.Role) (string, error) { return "1k", nil })
	require.NoError(t, err)
	assert.Equal(t, "alice", play.Username)
	assert.Equal(t, Finite(0), play.Remaining)

	drawn := false
	_, err = d.PlaySpin(ctx, func(role.Role) (string, error) {
		drawn = true
		return "1k", nil
	})
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.False(t, drawn, "an empty balance never reaches the draw")

	require.NoError(t, d.Logout(ctx))
	_, err = d.PlaySpin(ctx, func(role.Role) (string, error) { return "1k", nil })
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestBalancesNeverGoNegative(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)
	rng := rand.New(rand.NewPCG(7, 11))

	names := []string{"alice", "bobby", "carol"}
	for i, name := range names {
		_, err := d.Register(ctx, name, fmt.Sprintf("u%d@x.com", i), "pass1")
		require.NoError(t, err)
	}

	for step := 0; step < 300; step++ {
		name := names[rng.IntN(len(names))]
		switch rng.IntN(4) {
		case 0:
			_, err := d.Login(ctx, name, "pass1")
			require.NoError(t, err)
			_, _ = d.ConsumeOneSpin(ctx)
		case 1:
			_, _ = d.GrantSpins(ctx, name, rng.IntN(5)-2)
		case 2:
			_, err := d.SetRole(ctx, name, role.All()[rng.IntN(2)])
			require.NoError(t, err)
		case 3:
			_, _ = d.ConsumeOneSpin(ctx)
		}

		snap, err := d.Snapshot(ctx)
		require.NoError(t, err)
		for _, u := range snap.Users {
			if u.Role == role.User {
				require.False(t, u.Spins.IsUnlimited(), "step %d: %s", step, u.Username)
				require.GreaterOrEqual(t, u.Spins.Count(), 0, "step %d: %s", step, u.Username)
			}
		}
	}
}
