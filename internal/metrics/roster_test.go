package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/role"
)

type staticSource struct {
	roster *account.Roster
	err    error
}

func (s staticSource) Snapshot(context.Context) (*account.Roster, error) {
	return s.roster, s.err
}

func sampleRoster() *account.Roster {
	return &account.Roster{
		Version: account.CurrentRosterVersion,
		Users: []account.UserRecord{
			{Username: "admin", Role: role.Admin, Spins: account.Unlimited(),
				History: []account.SpinRecord{{Prize: "500k"}}},
			{Username: "alice", Role: role.User, Spins: account.Finite(3),
				History: []account.SpinRecord{{Prize: "1k"}, {Prize: "1k"}, {Prize: "CMNM"}}},
			{Username: "bob", Role: role.User, Spins: account.Finite(2)},
		},
	}
}

func TestRosterCollector(t *testing.T) {
	reg := NewRegistry(staticSource{roster: sampleRoster()})
	mfs, err := reg.Gather()
	require.NoError(t, err)

	assertGauge(t, mfs, "luckywheel_accounts", "role", "admin", 1)
	assertGauge(t, mfs, "luckywheel_accounts", "role", "user", 2)
	assertGauge(t, mfs, "luckywheel_spins_outstanding", "", "", 5)
	assertGauge(t, mfs, "luckywheel_history_prizes", "prize", "1k", 2)
	assertGauge(t, mfs, "luckywheel_history_prizes", "prize", "CMNM", 1)
	assertGauge(t, mfs, "luckywheel_history_prizes", "prize", "500k", 1)
	assertGauge(t, mfs, "luckywheel_history_prizes", "prize", "200k", 0)
}

func TestRosterCollector_SourceError(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewRosterCollector(staticSource{err: errors.New("store offline")}))

	_, err := reg.Gather()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luckywheel.prom")
	require.NoError(t, WriteTextfile(path, staticSource{roster: sampleRoster()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `luckywheel_accounts{role="user"} 2`)
	assert.Contains(t, string(data), "luckywheel_spins_outstanding 5")
}

func assertGauge(t *testing.T, mfs []*dto.MetricFamily, name, label, value string, want float64) {
	t.Helper()
	got, err := fetchGauge(mfs, name, label, value)
	require.NoError(t, err)
	assert.Equal(t, want, got, "%s{%s=%q}", name, label, value)
}

func fetchGauge(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" || matchesLabel(m.GetLabel(), label, value) {
				return m.GetGauge().GetValue(), nil
			}
		}
		return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
	}
	return 0, fmt.Errorf("metric %q not found", name)
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, l := range labels {
		if l.GetName() == name && l.GetValue() == value {
			return true
		}
	}
	return false
}
