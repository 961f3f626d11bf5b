package prize

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/steveyegge/luckywheel/internal/role"
)

var (
	// ErrUnknownRole indicates a role with no weight profile.
	ErrUnknownRole = errors.New("no prize profile for role")

	// ErrBadProfile indicates weights that cannot drive a draw.
	ErrBadProfile = errors.New("invalid prize profile")
)

// Weights are relative odds aligned 1:1 with the catalog. They need not sum to 100.
type Weights []float64

// Total returns the sum of the weights.
func (w Weights) Total() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

func (w Weights) validate() error {
	if len(w) != segmentCount {
		return fmt.Errorf("%w: %d weights for %d segments", ErrBadProfile, len(w), segmentCount)
	}
	for i, v := range w {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %v for %s", ErrBadProfile, v, catalog[i].Label)
		}
	}
	if w.Total() <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrBadProfile)
	}
	return nil
}

// Profiles maps each role to its weights.
type Profiles map[role.Role]Weights

// DefaultProfiles returns the shipped odds. Admins land mostly on mid and high
// tiers; users land on low tiers, with the top four slots practically out of reach.
func DefaultProfiles() Profiles {
	return Profiles{
		role.Admin: {1, 1, 1, 10, 10, 21, 20, 20, 10, 6},
		role.User:  {10, 20, 20, 21, 10, 10, 0.0001, 0.0001, 0.0001, 8.9997},
	}
}

// Resolver draws segments for a role.
type Resolver struct {
	profiles Profiles
	source   func() float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSource sets the uniform [0,1) source behind Pick.
func WithSource(src func() float64) Option {
	return func(r *Resolver) { r.source = src }
}

// WithProfiles replaces the default weight profiles.
func WithProfiles(p Profiles) Option {
	return func(r *Resolver) { r.profiles = p }
}

// NewResolver returns a Resolver using DefaultProfiles and math/rand/v2.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		profiles: DefaultProfiles(),
		source:   rand.Float64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) weights(ro role.Role) (Weights, error) {
	w, ok := r.profiles[ro]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, ro)
	}
	if err := w.validate(); err != nil {
		return nil, fmt.Errorf("role %s: %w", ro, err)
	}
	return w, nil
}

// Pick draws one segment for ro.
func (r *Resolver) Pick(ro role.Role) (Segment, error) {
	w, err := r.weights(ro)
	if err != nil {
		return Segment{}, err
	}
	return catalog[walk(w, r.source()*w.Total())], nil
}

// PickAt returns the segment a draw in [0, total weight) selects for ro: the
// first segment, in catalog order, whose cumulative weight exceeds the draw.
// Draws outside the range clamp to the first or last reachable segment.
func (r *Resolver) PickAt(ro role.Role, draw float64) (Segment, error) {
	w, err := r.weights(ro)
	if err != nil {
		return Segment{}, err
	}
	return catalog[walk(w, draw)], nil
}

func walk(w Weights, draw float64) int {
	var cum float64
	last := 0
	for i, v := range w {
		if v <= 0 {
			continue
		}
		cum += v
		last = i
		if draw < cum {
			return i
		}
	}
	return last
}

// Odd is one segment's chance for a role.
type Odd struct {
	Segment     Segment `json:"segment"`
	Weight      float64 `json:"weight"`
	Probability float64 `json:"probability"`
}

// Odds returns every segment's normalised probability for ro, in catalog order.
func (r *Resolver) Odds(ro role.Role) ([]Odd, error) {
	w, err := r.weights(ro)
	if err != nil {
		return nil, err
	}
	total := w.Total()
	out := make([]Odd, len(w))
	for i, v := range w {
		out[i] = Odd{Segment: catalog[i], Weight: v, Probability: v / total}
	}
	return out, nil
}
