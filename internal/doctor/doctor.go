// Package doctor runs health checks over the persisted roster and session.
package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/steveyegge/luckywheel/internal/account"
)

// CheckStatus is the outcome of a check.
type CheckStatus int

const (
	StatusOK CheckStatus = iota
	StatusWarning
	StatusError
)

func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CheckStatus) UnmarshalText(text []byte) error {
	for _, c := range []CheckStatus{StatusOK, StatusWarning, StatusError} {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", text)
}

// ErrNotFixable is returned by Fix on checks that cannot repair anything.
var ErrNotFixable = errors.New("check cannot be fixed automatically")

// CheckResult is what a check found.
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Details []string    `json:"details,omitempty"`
	FixHint string      `json:"fix_hint,omitempty"`
}

// CheckContext is the state a check inspects. Roster and Session are loaded
// once per pass.
type CheckContext struct {
	Context   context.Context
	Directory *account.Directory
	Roster    *account.Roster
	Session   *account.Session
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Description() string
	Run(ctx *CheckContext) *CheckResult
	CanFix() bool
	Fix(ctx *CheckContext) error
}

// BaseCheck provides the name and description half of a Check.
type BaseCheck struct {
	CheckName        string
	CheckDescription string
}

func (b *BaseCheck) Name() string        { return b.CheckName }
func (b *BaseCheck) Description() string { return b.CheckDescription }
func (b *BaseCheck) CanFix() bool        { return false }

func (b *BaseCheck) Fix(*CheckContext) error {
	return fmt.Errorf("%w: %s", ErrNotFixable, b.CheckName)
}

// FixableCheck is embedded by checks that implement Fix.
type FixableCheck struct {
	BaseCheck
}

func (f *FixableCheck) CanFix() bool { return true }

// Report collects a doctor run.
type Report struct {
	Results []*CheckResult `json:"results"`
	Fixed   []string       `json:"fixed,omitempty"`
}

// Worst returns the most severe status in the report.
func (r *Report) Worst() CheckStatus {
	worst := StatusOK
	for _, res := range r.Results {
		if res.Status > worst {
			worst = res.Status
		}
	}
	return worst
}

// Counts returns how many results have each status.
func (r *Report) Counts() (ok, warnings, errs int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusOK:
			ok++
		case StatusWarning:
			warnings++
		case StatusError:
			errs++
		}
	}
	return ok, warnings, errs
}

// DefaultChecks returns every roster check in run order.
func DefaultChecks() []Check {
	return []Check{
		NewRootAdminCheck(),
		NewSpinBalanceCheck(),
		NewHistoryLimitCheck(),
		NewUniquenessCheck(),
		NewSessionCheck(),
	}
}

func load(ctx context.Context, dir *account.Directory) (*CheckContext, error) {
	roster, err := dir.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	session, err := dir.Session(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckContext{Context: ctx, Directory: dir, Roster: roster, Session: session}, nil
}

// Run executes checks against dir. With fix set, failing fixable checks are
// repaired and re-run against the updated state.
func Run(ctx context.Context, dir *account.Directory, checks []Check, fix bool) (*Report, error) {
	cc, err := load(ctx, dir)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, check := range checks {
		res := check.Run(cc)
		if fix && res.Status != StatusOK && check.CanFix() {
			if err := check.Fix(cc); err != nil {
				res.Details = append(res.Details, "fix failed: "+err.Error())
			} else {
				report.Fixed = append(report.Fixed, check.Name())
				if cc, err = load(ctx, dir); err != nil {
					return nil, err
				}
				res = check.Run(cc)
			}
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}
