package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/store"
)

const brokenRoster = `{"version":1,"users":[
  {"username":"alice","email":"a@x.com","secret":"pass","role":"user","spins":"unlimited","saved_spins":2,"history":[]},
  {"username":"Alice","email":"other@x.com","secret":"pass","role":"user","spins":1,"history":[]},
  {"username":"bob","email":"b@x.com","secret":"pass","role":"admin","spins":7,"history":[
    {"prize":"1k"},{"prize":"2k"},{"prize":"5k"},{"prize":"10k"}
  ]}
]}`

func brokenDirectory(t *testing.T) *account.Directory {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Put(ctx, account.KeyRoster, []byte(brokenRoster)))
	require.NoError(t, s.Put(ctx, account.KeySession, []byte(`{"username":"ghost","role":"user","spins":0}`)))
	return account.New(s, account.Config{HistoryLimit: 3, SeedSecret: "admin123"})
}

func resultFor(t *testing.T, r *Report, name string) *CheckResult {
	t.Helper()
	for _, res := range r.Results {
		if res.Name == name {
			return res
		}
	}
	t.Fatalf("no result for %s", name)
	return nil
}

func TestRun_FindsProblems(t *testing.T) {
	dir := brokenDirectory(t)

	report, err := Run(context.Background(), dir, DefaultChecks(), false)
	require.NoError(t, err)
	require.Len(t, report.Results, 5)
	assert.Empty(t, report.Fixed)

	assert.Equal(t, StatusError, resultFor(t, report, "root-admin").Status)

	balances := resultFor(t, report, "spin-balances")
	assert.Equal(t, StatusWarning, balances.Status)
	assert.Len(t, balances.Details, 2)

	assert.Equal(t, StatusWarning, resultFor(t, report, "history-limit").Status)
	assert.Equal(t, StatusError, resultFor(t, report, "uniqueness").Status)
	assert.Equal(t, StatusWarning, resultFor(t, report, "session").Status)

	assert.Equal(t, StatusError, report.Worst())
	ok, warnings, errs := report.Counts()
	assert.Equal(t, 0, ok)
	assert.Equal(t, 3, warnings)
	assert.Equal(t, 2, errs)
}

func TestRun_FixRepairsWhatItCan(t *testing.T) {
	ctx := context.Background()
	dir := brokenDirectory(t)

	report, err := Run(ctx, dir, DefaultChecks(), true)
	require.NoError(t, err)
	// Seeding the root admin also repairs balances and histories, so the
	// later checks already pass when they run.
	assert.Equal(t, []string{"root-admin", "session"}, report.Fixed)

	for _, name := range []string{"root-admin", "spin-balances", "history-limit", "session"} {
		assert.Equal(t, StatusOK, resultFor(t, report, name).Status, name)
	}

	uniq := resultFor(t, report, "uniqueness")
	assert.Equal(t, StatusError, uniq.Status, "collisions need a human")
	assert.Contains(t, uniq.Details[0], "collides")

	alice, err := dir.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, account.Finite(2), alice.Spins)

	sess, err := dir.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestBaseCheckCannotFix(t *testing.T) {
	c := NewUniquenessCheck()
	assert.False(t, c.CanFix())
	assert.True(t, errors.Is(c.Fix(nil), ErrNotFixable))
	assert.True(t, NewSessionCheck().CanFix())
}

func TestRun_SingleFixableCheck(t *testing.T) {
	ctx := context.Background()
	dir := brokenDirectory(t)

	report, err := Run(ctx, dir, []Check{NewSpinBalanceCheck(), NewHistoryLimitCheck()}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"spin-balances"}, report.Fixed)
	assert.Equal(t, StatusOK, report.Worst())

	bob, err := dir.Lookup(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, bob.Spins.IsUnlimited())
	assert.Len(t, bob.History, 3)

	roster, err := dir.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, roster.Find(account.RootUsername), "balance repair never seeds accounts")
}
