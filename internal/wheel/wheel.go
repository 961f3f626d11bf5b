// Package wheel runs a spin end to end: spend a spin, draw a prize, record it.
package wheel

import (
	"context"
	"fmt"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/logging"
	"github.com/steveyegge/luckywheel/internal/prize"
	"github.com/steveyegge/luckywheel/internal/role"
	"github.com/steveyegge/luckywheel/internal/slack"
)

// Tier classifies an outcome for the result screen and notifications.
type Tier string

const (
	TierRegular Tier = "regular"
	TierBig     Tier = "big"
	TierGrand   Tier = "grand"
)

// TierOf classifies a segment.
func TierOf(s prize.Segment) Tier {
	switch {
	case s.Grand:
		return TierGrand
	case s.Value >= prize.BigWinValue:
		return TierBig
	default:
		return TierRegular
	}
}

// Outcome is the result of one spin.
type Outcome struct {
	Username  string        `json:"username"`
	Segment   prize.Segment `json:"segment"`
	Role      role.Role     `json:"role"`
	Remaining account.Spins `json:"remaining"`
	Tier      Tier          `json:"tier"`
}

// Notifier receives wins worth announcing.
type Notifier interface {
	Post(ctx context.Context, event slack.EventType, fields map[string]string) error
}

// Service spins the wheel for the logged-in account.
type Service struct {
	dir      *account.Directory
	resolver *prize.Resolver
	notifier Notifier
	log      *logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier announces big and grand wins.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Service.
func New(dir *account.Directory, resolver *prize.Resolver, opts ...Option) *Service {
	s := &Service{dir: dir, resolver: resolver, log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spin charges one spin, draws a segment for the account's stored role and
// records it, in one directory transaction. Nothing is charged when the draw
// fails.
func (s *Service) Spin(ctx context.Context) (*Outcome, error) {
	var seg prize.Segment
	play, err := s.dir.PlaySpin(ctx, func(r role.Role) (string, error) {
		picked, err := s.resolver.Pick(r)
		if err != nil {
			return "", err
		}
		seg = picked
		return picked.Label, nil
	})
	if err != nil {
		return nil, err
	}
	ctx = s.log.WithUser(ctx, play.Username)

	out := &Outcome{
		Username:  play.Username,
		Segment:   seg,
		Role:      play.Role,
		Remaining: play.Remaining,
		Tier:      TierOf(seg),
	}
	s.log.Debug(ctx, "spin resolved", "prize", seg.Label, "tier", string(out.Tier))
	s.announce(ctx, out)
	return out, nil
}

// announce posts big and grand wins. Failures are logged, never returned.
func (s *Service) announce(ctx context.Context, out *Outcome) {
	if s.notifier == nil {
		return
	}

	var event slack.EventType
	switch out.Tier {
	case TierGrand:
		event = slack.EventGrandPrize
	case TierBig:
		event = slack.EventBigWin
	default:
		return
	}

	fields := map[string]string{
		slack.FieldUser:      out.Username,
		slack.FieldPrize:     out.Segment.Title(),
		slack.FieldRole:      out.Role.String(),
		slack.FieldRemaining: out.Remaining.String(),
	}
	if err := s.notifier.Post(ctx, event, fields); err != nil {
		s.log.Warn(ctx, "announcing win", err)
	}
}

// SimulationRow compares observed and expected frequency for one segment.
type SimulationRow struct {
	Segment  prize.Segment `json:"segment"`
	Count    int           `json:"count"`
	Observed float64       `json:"observed"`
	Expected float64       `json:"expected"`
}

// Simulate draws n segments for r without touching any account.
func Simulate(resolver *prize.Resolver, r role.Role, n int) ([]SimulationRow, error) {
	if n <= 0 {
		return nil, fmt.Errorf("simulation size must be positive, got %d", n)
	}
	odds, err := resolver.Odds(r)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(odds))
	for i := 0; i < n; i++ {
		seg, err := resolver.Pick(r)
		if err != nil {
			return nil, err
		}
		idx, _ := prize.Index(seg.Label)
		counts[idx]++
	}

	rows := make([]SimulationRow, len(odds))
	for i, o := range odds {
		rows[i] = SimulationRow{
			Segment:  o.Segment,
			Count:    counts[i],
			Observed: float64(counts[i]) / float64(n),
			Expected: o.Probability,
		}
	}
	return rows, nil
}
