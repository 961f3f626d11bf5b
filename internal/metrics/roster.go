// Package metrics exports roster gauges in the Prometheus format.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/prize"
	"github.com/steveyegge/luckywheel/internal/role"
)

const namespace = "luckywheel"

// RosterSource supplies the roster to export.
type RosterSource interface {
	Snapshot(ctx context.Context) (*account.Roster, error)
}

// RosterCollector reads a fresh roster on every scrape.
type RosterCollector struct {
	src     RosterSource
	timeout time.Duration

	accounts    *prometheus.Desc
	outstanding *prometheus.Desc
	prizes      *prometheus.Desc
}

// NewRosterCollector returns a collector over src.
func NewRosterCollector(src RosterSource) *RosterCollector {
	return &RosterCollector{
		src:     src,
		timeout: 5 * time.Second,
		accounts: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "accounts"),
			"Accounts on the roster by role.",
			[]string{"role"}, nil,
		),
		outstanding: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "spins_outstanding"),
			"Unspent spins across user accounts.",
			nil, nil,
		),
		prizes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "history_prizes"),
			"Prizes in retained spin history by label.",
			[]string{"prize"}, nil,
		),
	}
}

func (c *RosterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.accounts
	ch <- c.outstanding
	ch <- c.prizes
}

func (c *RosterCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	roster, err := c.src.Snapshot(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.accounts, err)
		return
	}

	byRole := make(map[role.Role]int)
	outstanding := 0
	prizes := make(map[string]int)
	for _, u := range roster.Users {
		byRole[u.Role]++
		if u.Role == role.User {
			outstanding += u.Spins.Count()
		}
		for _, h := range u.History {
			prizes[h.Prize]++
		}
	}

	for _, r := range role.All() {
		ch <- prometheus.MustNewConstMetric(c.accounts, prometheus.GaugeValue, float64(byRole[r]), r.String())
	}
	ch <- prometheus.MustNewConstMetric(c.outstanding, prometheus.GaugeValue, float64(outstanding))
	for _, seg := range prize.Catalog() {
		ch <- prometheus.MustNewConstMetric(c.prizes, prometheus.GaugeValue, float64(prizes[seg.Label]), seg.Label)
	}
}

// NewRegistry returns a registry holding only the roster collector.
func NewRegistry(src RosterSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewRosterCollector(src))
	return reg
}

// WriteTextfile writes the roster gauges for the node exporter textfile collector.
func WriteTextfile(path string, src RosterSource) error {
	return prometheus.WriteToTextfile(path, NewRegistry(src))
}
