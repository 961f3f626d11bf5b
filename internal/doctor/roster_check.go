package doctor

import (
	"fmt"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/role"
)

// RootAdminCheck verifies the root admin account exists and is an unlimited admin.
type RootAdminCheck struct {
	FixableCheck
}

// NewRootAdminCheck creates a new root admin check.
func NewRootAdminCheck() *RootAdminCheck {
	return &RootAdminCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "root-admin",
				CheckDescription: "Verify the root admin account exists",
			},
		},
	}
}

func (c *RootAdminCheck) Run(ctx *CheckContext) *CheckResult {
	u := ctx.Roster.Find(account.RootUsername)
	if u == nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Root admin account is missing",
			FixHint: "Run 'lw doctor --fix' to seed it from the configured credentials",
		}
	}
	if u.Role != role.Admin || !u.Spins.IsUnlimited() {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: fmt.Sprintf("Root admin has role %s and %s spins", u.Role, u.Spins),
			FixHint: "Run 'lw doctor --fix'",
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: "Root admin account is present",
	}
}

// Fix seeds the root admin and repairs its role.
func (c *RootAdminCheck) Fix(ctx *CheckContext) error {
	return ctx.Directory.Init(ctx.Context)
}

// SpinBalanceCheck finds balances that do not match the account's role.
type SpinBalanceCheck struct {
	FixableCheck
}

// NewSpinBalanceCheck creates a new spin balance check.
func NewSpinBalanceCheck() *SpinBalanceCheck {
	return &SpinBalanceCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "spin-balances",
				CheckDescription: "Verify users have finite balances and admins unlimited ones",
			},
		},
	}
}

func (c *SpinBalanceCheck) Run(ctx *CheckContext) *CheckResult {
	var details []string
	for _, u := range ctx.Roster.Users {
		switch u.Role {
		case role.User:
			if u.Spins.IsUnlimited() || u.Spins.Count() >= account.LegacyUnlimited {
				details = append(details, fmt.Sprintf("%s: user account with unlimited balance", u.Username))
			}
		case role.Admin:
			if !u.Spins.IsUnlimited() {
				details = append(details, fmt.Sprintf("%s: admin account with %d spins", u.Username, u.Spins.Count()))
			}
		default:
			details = append(details, fmt.Sprintf("%s: unknown role %q", u.Username, u.Role))
		}
	}

	if len(details) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d account(s) have balances that do not match their role", len(details)),
			Details: details,
			FixHint: "Run 'lw doctor --fix' to restore saved balances",
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: "All balances match their roles",
	}
}

func (c *SpinBalanceCheck) Fix(ctx *CheckContext) error {
	_, err := ctx.Directory.Repair(ctx.Context)
	return err
}

// HistoryLimitCheck finds histories longer than the configured cap.
type HistoryLimitCheck struct {
	FixableCheck
}

// NewHistoryLimitCheck creates a new history limit check.
func NewHistoryLimitCheck() *HistoryLimitCheck {
	return &HistoryLimitCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "history-limit",
				CheckDescription: "Verify spin histories stay within the limit",
			},
		},
	}
}

func (c *HistoryLimitCheck) Run(ctx *CheckContext) *CheckResult {
	limit := ctx.Directory.Config().HistoryLimit
	var details []string
	for _, u := range ctx.Roster.Users {
		if len(u.History) > limit {
			details = append(details, fmt.Sprintf("%s: %d entries", u.Username, len(u.History)))
		}
	}

	if len(details) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d account(s) exceed the %d-entry history limit", len(details), limit),
			Details: details,
			FixHint: "Run 'lw doctor --fix' to drop the oldest entries",
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("All histories within %d entries", limit),
	}
}

func (c *HistoryLimitCheck) Fix(ctx *CheckContext) error {
	_, err := ctx.Directory.Repair(ctx.Context)
	return err
}

// UniquenessCheck reports usernames or emails that collide ignoring case.
// Which account should win is a human decision, so it cannot fix.
type UniquenessCheck struct {
	BaseCheck
}

// NewUniquenessCheck creates a new uniqueness check.
func NewUniquenessCheck() *UniquenessCheck {
	return &UniquenessCheck{
		BaseCheck: BaseCheck{
			CheckName:        "uniqueness",
			CheckDescription: "Verify usernames and emails are unique ignoring case",
		},
	}
}

func (c *UniquenessCheck) Run(ctx *CheckContext) *CheckResult {
	collisions := ctx.Roster.Collisions()
	if len(collisions) > 0 {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: fmt.Sprintf("%d collision(s) on the roster", len(collisions)),
			Details: collisions,
			FixHint: "Delete or rename one of each pair with 'lw admin delete'",
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("%d account(s), no collisions", len(ctx.Roster.Users)),
	}
}

// SessionCheck finds a session pointing at an account that no longer exists.
type SessionCheck struct {
	FixableCheck
}

// NewSessionCheck creates a new session check.
func NewSessionCheck() *SessionCheck {
	return &SessionCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "session",
				CheckDescription: "Verify the session points at a live account",
			},
		},
	}
}

func (c *SessionCheck) Run(ctx *CheckContext) *CheckResult {
	if ctx.Session == nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusOK,
			Message: "Nobody is logged in",
		}
	}
	if ctx.Roster.Find(ctx.Session.Username) == nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: fmt.Sprintf("Session points at missing account %q", ctx.Session.Username),
			FixHint: "Run 'lw doctor --fix' or 'lw logout'",
		}
	}
	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("Logged in as %s", ctx.Session.Username),
	}
}

func (c *SessionCheck) Fix(ctx *CheckContext) error {
	return ctx.Directory.Logout(ctx.Context)
}
