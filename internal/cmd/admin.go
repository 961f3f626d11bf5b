package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/role"
	"github.com/steveyegge/luckywheel/internal/slack"
	"github.com/steveyegge/luckywheel/internal/style"
)

var adminCmd = &cobra.Command{
	Use:     "admin",
	GroupID: GroupAdmin,
	Short:   "Manage player accounts (admin only)",
	Long: `Manage player accounts. Every subcommand requires an admin to be logged in.

The root admin account cannot be demoted or deleted.

Examples:
  lw admin users --search gmail
  lw admin grant alice 5
  lw admin role alice admin
  lw admin toggle alice
  lw admin delete alice --yes`,
	RunE: requireSubcommand,
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List accounts",
	Long: `List every account with its role and balance.

--search keeps accounts whose username, email, provider or role contains
the query, ignoring case.`,
	Args: cobra.NoArgs,
	RunE: runAdminUsers,
}

var adminRoleCmd = &cobra.Command{
	Use:   "role <username> <role>",
	Short: "Set an account's role",
	Long: `Set an account's role to user or admin.

Promoting saves the player's balance and grants unlimited spins. Demoting
restores the saved balance.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdminRole,
}

var adminToggleCmd = &cobra.Command{
	Use:   "toggle <username>",
	Short: "Switch an account between user and admin",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminToggle,
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <username> <count>",
	Short: "Give an account more spins",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminGrant,
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account",
	Long: `Delete an account and its history. Asks for confirmation unless --yes is given.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminDelete,
}

var (
	adminSearch    string
	adminDeleteYes bool
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminRoleCmd)
	adminCmd.AddCommand(adminToggleCmd)
	adminCmd.AddCommand(adminGrantCmd)
	adminCmd.AddCommand(adminDeleteCmd)

	adminUsersCmd.Flags().StringVar(&adminSearch, "search", "", "Filter by username, email, provider or role")
	adminDeleteCmd.Flags().BoolVarP(&adminDeleteYes, "yes", "y", false, "Delete without asking")
}

func runAdminUsers(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if _, err := current.dir.RequireAdmin(ctx); err != nil {
		return err
	}

	users, err := current.dir.Search(ctx, adminSearch)
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd, users); ok {
		return err
	}

	w := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintf(w, "No accounts match %q.\n", adminSearch)
		return nil
	}
	renderUsers(w, users)
	return nil
}

func runAdminRole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	actor, err := current.dir.RequireAdmin(ctx)
	if err != nil {
		return err
	}

	r, err := role.Parse(args[1])
	if err != nil {
		return fmt.Errorf("%w: %w", account.ErrValidation, err)
	}
	return setRole(cmd, actor, args[0], r)
}

func runAdminToggle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	actor, err := current.dir.RequireAdmin(ctx)
	if err != nil {
		return err
	}

	u, err := current.dir.Lookup(ctx, args[0])
	if err != nil {
		return err
	}
	return setRole(cmd, actor, u.Username, u.Role.Other())
}

func setRole(cmd *cobra.Command, actor *account.Session, username string, r role.Role) error {
	ctx := cmd.Context()
	u, err := current.dir.SetRole(ctx, username, r)
	if err != nil {
		return err
	}

	notifyAdmin(ctx, slack.EventRoleChanged, actor, map[string]string{
		slack.FieldUser: u.Username,
		slack.FieldRole: u.Role.String(),
	})
	return printResult(cmd, account.ResultOf(u, false, nil),
		fmt.Sprintf("%s is now %s (%s spins)", style.Bold.Render(u.Username), roleLabel(u.Role), u.Balance()))
}

func runAdminGrant(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	actor, err := current.dir.RequireAdmin(ctx)
	if err != nil {
		return err
	}

	count, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: spin count must be a positive integer, got %q", account.ErrValidation, args[1])
	}

	u, err := current.dir.GrantSpins(ctx, args[0], count)
	if err != nil {
		return err
	}

	notifyAdmin(ctx, slack.EventSpinsGranted, actor, map[string]string{
		slack.FieldUser:  u.Username,
		slack.FieldCount: strconv.Itoa(count),
	})
	return printResult(cmd, account.ResultOf(u, false, nil),
		fmt.Sprintf("Granted %d spin(s) to %s, balance now %s", count, style.Bold.Render(u.Username), u.Balance()))
}

func runAdminDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	actor, err := current.dir.RequireAdmin(ctx)
	if err != nil {
		return err
	}

	u, err := current.dir.Lookup(ctx, args[0])
	if err != nil {
		return err
	}

	if !adminDeleteYes {
		if jsonOutput {
			return fmt.Errorf("%w: pass --yes to delete without a prompt", account.ErrValidation)
		}
		ok, err := confirm(cmd, fmt.Sprintf("Delete %s (%s) and all of its history?", u.Username, u.Email))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), style.Dim.Render("Nothing deleted."))
			return nil
		}
	}

	if err := current.dir.DeleteUser(ctx, u.Username); err != nil {
		return err
	}

	notifyAdmin(ctx, slack.EventAccountDeleted, actor, map[string]string{
		slack.FieldUser: u.Username,
	})
	return printResult(cmd, account.ResultOf(nil, false, nil), fmt.Sprintf("Deleted %s", u.Username))
}

// notifyAdmin posts an admin action. Notifications are best-effort.
func notifyAdmin(ctx context.Context, event slack.EventType, actor *account.Session, fields map[string]string) {
	fields[slack.FieldActor] = actor.Username
	if err := current.notifier.Post(ctx, event, fields); err != nil {
		current.log.Warn(ctx, "posting admin notification", err)
	}
}
