package account

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// LegacyUnlimited is the number older rosters stored for unlimited balances.
// It decodes as a finite balance; Roster.Repair converts it.
const LegacyUnlimited = 999999

const unlimitedToken = "unlimited"

// Spins is a spin balance: either a finite non-negative count or unlimited.
// The zero value is Finite(0).
type Spins struct {
	n         int
	unlimited bool
}

// Finite returns a balance of n spins. Negative counts clamp to zero.
func Finite(n int) Spins {
	if n < 0 {
		n = 0
	}
	return Spins{n: n}
}

// Unlimited returns the balance admins spin with.
func Unlimited() Spins {
	return Spins{unlimited: true}
}

// IsUnlimited reports whether the balance never runs out.
func (s Spins) IsUnlimited() bool {
	return s.unlimited
}

// Count returns the finite count. It is zero for unlimited balances.
func (s Spins) Count() int {
	if s.unlimited {
		return 0
	}
	return s.n
}

// Add returns the balance with k more spins. Unlimited stays unlimited and a
// sum past math.MaxInt saturates.
func (s Spins) Add(k int) Spins {
	if s.unlimited {
		return s
	}
	if k > 0 && s.n > math.MaxInt-k {
		return Finite(math.MaxInt)
	}
	return Finite(s.n + k)
}

// Take removes one spin. It reports false, leaving s unchanged, when nothing is left.
func (s Spins) Take() (Spins, bool) {
	switch {
	case s.unlimited:
		return s, true
	case s.n <= 0:
		return s, false
	default:
		return Spins{n: s.n - 1}, true
	}
}

func (s Spins) String() string {
	if s.unlimited {
		return "∞"
	}
	return strconv.Itoa(s.n)
}

// MarshalJSON writes unlimited balances as "unlimited" and finite ones as numbers.
func (s Spins) MarshalJSON() ([]byte, error) {
	if s.unlimited {
		return json.Marshal(unlimitedToken)
	}
	return json.Marshal(s.n)
}

// UnmarshalJSON accepts a number, "unlimited", or null (zero).
func (s *Spins) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Finite(0)
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var tok string
		if err := json.Unmarshal(data, &tok); err != nil {
			return err
		}
		if tok != unlimitedToken {
			return fmt.Errorf("invalid spin balance %q", tok)
		}
		*s = Unlimited()
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid spin balance: %w", err)
	}
	*s = Finite(int(f))
	return nil
}
