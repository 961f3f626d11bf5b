package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/luckywheel/internal/role"
)

func TestSocialLogin_NewThenReturning(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)
	id := SocialIdentity{Provider: "Google", Email: " Test@Google.com ", DisplayName: "Test  User"}

	u, returning, err := d.SocialLogin(ctx, id)
	require.NoError(t, err)
	assert.False(t, returning)
	assert.Equal(t, "Test_User_google", u.Username)
	assert.Equal(t, "test@google.com", u.Email)
	assert.Equal(t, ProviderGoogle, u.Provider)
	assert.Nil(t, u.Secret)
	assert.Equal(t, role.User, u.Role)
	assert.Equal(t, Finite(1), u.Spins)

	again, returning, err := d.SocialLogin(ctx, id)
	require.NoError(t, err)
	assert.True(t, returning)
	assert.Equal(t, u.ID, again.ID)

	sess, err := d.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Test_User_google", sess.Username)
}

func TestSocialLogin_DeduplicatesUsernames(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	var names []string
	for _, email := range []string{"one@x.com", "two@x.com", "three@x.com"} {
		u, _, err := d.SocialLogin(ctx, SocialIdentity{Provider: ProviderGoogle, Email: email, DisplayName: "Sam Lee"})
		require.NoError(t, err)
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"Sam_Lee_google", "Sam_Lee_google_1", "Sam_Lee_google_2"}, names)
}

func TestSocialLogin_EmailRules(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	_, err := d.Register(ctx, "alice", "a@x.com", "pass1")
	require.NoError(t, err)

	_, _, err = d.SocialLogin(ctx, SocialIdentity{Provider: ProviderGoogle, Email: "A@x.com", DisplayName: "Alice"})
	assert.True(t, errors.Is(err, ErrEmailInUse))

	_, _, err = d.SocialLogin(ctx, SocialIdentity{Provider: ProviderGoogle, Email: "s@x.com", DisplayName: "Sue"})
	require.NoError(t, err)
	_, returning, err := d.SocialLogin(ctx, SocialIdentity{Provider: ProviderFacebook, Email: "s@x.com", DisplayName: "Sue"})
	require.NoError(t, err, "the same email may be used once per provider")
	assert.False(t, returning)
}

func TestSocialLogin_Validation(t *testing.T) {
	d, _ := newTestDirectory(t)

	tests := []struct {
		name string
		id   SocialIdentity
	}{
		{"empty email", SocialIdentity{Provider: ProviderGoogle, DisplayName: "Sue"}},
		{"blank email", SocialIdentity{Provider: ProviderGoogle, Email: "  ", DisplayName: "Sue"}},
		{"short name", SocialIdentity{Provider: ProviderGoogle, Email: "s@x.com", DisplayName: "S"}},
		{"blank name", SocialIdentity{Provider: ProviderGoogle, Email: "s@x.com", DisplayName: "   "}},
		{"no provider", SocialIdentity{Email: "s@x.com", DisplayName: "Sue"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := d.SocialLogin(context.Background(), tt.id)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestSocialLogin_AcceptsLocalEmail(t *testing.T) {
	d, _ := newTestDirectory(t)

	u, returning, err := d.SocialLogin(context.Background(), SocialIdentity{Provider: ProviderGoogle, Email: "sue@localhost", DisplayName: "Sue"})
	require.NoError(t, err)
	assert.False(t, returning)
	assert.Equal(t, "sue@localhost", u.Email)
}

func TestSocialLogin_RootAdminEmail(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDirectory(t)

	u, returning, err := d.SocialLogin(ctx, SocialIdentity{Provider: ProviderGoogle, Email: "root@example.com", DisplayName: "Root"})
	require.NoError(t, err)
	assert.False(t, returning)
	assert.Equal(t, role.Admin, u.Role)
	assert.True(t, u.Spins.IsUnlimited())

	isAdmin, err := d.IsAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// A returning account demoted in the meantime is promoted again.
	_, err = d.SetRole(ctx, u.Username, role.User)
	require.NoError(t, err)
	again, returning, err := d.SocialLogin(ctx, SocialIdentity{Provider: ProviderGoogle, Email: "ROOT@example.com", DisplayName: "Root"})
	require.NoError(t, err)
	assert.True(t, returning)
	assert.Equal(t, role.Admin, again.Role)
	require.NotNil(t, again.SavedSpins)
	assert.Equal(t, 1, *again.SavedSpins)
}

func TestSocialLogin_RootEmailDisabledByDefault(t *testing.T) {
	ctx := context.Background()
	d := New(newMemory(), Config{})
	require.NoError(t, d.Init(ctx))

	u, _, err := d.SocialLogin(ctx, SocialIdentity{Provider: ProviderGoogle, Email: "root@example.com", DisplayName: "Root"})
	require.NoError(t, err)
	assert.Equal(t, role.User, u.Role)
}

func TestSocialLogin_RootEmailConfigIgnoresCase(t *testing.T) {
	ctx := context.Background()
	d := New(newMemory(), Config{RootAdminEmail: " Root@Example.com", SeedSecret: "admin123"})
	require.NoError(t, d.Init(ctx))

	u, _, err := d.SocialLogin(ctx, SocialIdentity{Provider: ProviderFacebook, Email: "root@example.com", DisplayName: "Root"})
	require.NoError(t, err)
	assert.Equal(t, role.Admin, u.Role)
}

func TestSocialUsername(t *testing.T) {
	assert.Equal(t, "Nguyen_Van_A_facebook", socialUsername("Nguyen \t Van  A", ProviderFacebook))
	assert.Equal(t, "user_google", socialUsername("", ProviderGoogle))
}
