package cmd

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/prize"
	"github.com/steveyegge/luckywheel/internal/role"
	"github.com/steveyegge/luckywheel/internal/style"
	"github.com/steveyegge/luckywheel/internal/tui"
	"github.com/steveyegge/luckywheel/internal/wheel"
)

var spinCmd = &cobra.Command{
	Use:     "spin",
	GroupID: GroupWheel,
	Short:   "Spend one spin and see what you win",
	Long: `Spin the wheel for the logged-in account.

Each spin costs one from your balance; admins spin for free. The
result is recorded in your history. On a terminal the wheel animates
onto the prize; press enter to skip ahead.

Examples:
  lw spin
  lw spin --no-anim
  lw spin --json`,
	Args: cobra.NoArgs,
	RunE: runSpin,
}

var balanceCmd = &cobra.Command{
	Use:     "balance",
	GroupID: GroupWheel,
	Short:   "Show how many spins you have left",
	Args:    cobra.NoArgs,
	RunE:    runBalance,
}

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: GroupWheel,
	Short:   "Show your recent prizes, newest first",
	Args:    cobra.NoArgs,
	RunE:    runHistory,
}

var prizesCmd = &cobra.Command{
	Use:     "prizes",
	GroupID: GroupWheel,
	Short:   "List the wheel segments",
	Long: `List the ten wheel segments in order.

Admins can add --role to see the probability of each segment for that
role's odds profile.

Examples:
  lw prizes
  lw prizes --role user`,
	Args: cobra.NoArgs,
	RunE: runPrizes,
}

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	GroupID: GroupWheel,
	Short:   "Draw many prizes without spending spins (admin only)",
	Long: `Draw --n prizes for a role's odds profile and compare the observed
frequencies with the configured probabilities. No account is touched.

Examples:
  lw simulate --n 100000
  lw simulate --role admin --n 5000`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

var (
	spinNoAnim bool

	prizesRole string

	simulateRole string
	simulateN    int
)

func init() {
	rootCmd.AddCommand(spinCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(prizesCmd)
	rootCmd.AddCommand(simulateCmd)

	spinCmd.Flags().BoolVar(&spinNoAnim, "no-anim", false, "Skip the wheel animation")

	prizesCmd.Flags().StringVar(&prizesRole, "role", "", "Show odds for this role (admin only)")

	simulateCmd.Flags().StringVar(&simulateRole, "role", string(role.User), "Odds profile to draw from")
	simulateCmd.Flags().IntVar(&simulateN, "n", 10000, "Number of draws")
}

func runSpin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := wheel.New(current.dir, current.resolver,
		wheel.WithNotifier(current.notifier),
		wheel.WithLogger(current.log),
	)

	out, err := svc.Spin(ctx)
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd, out); ok {
		return err
	}

	if _, tty := terminalFd(cmd.OutOrStdout()); tty && !spinNoAnim {
		target, _ := prize.Index(out.Segment.Label)
		err := tui.Run(ctx, prize.Catalog(), target, tui.Options{
			Turns:  tui.MinTurns + rand.IntN(tui.MaxTurns-tui.MinTurns+1),
			Output: cmd.OutOrStdout(),
			Input:  cmd.InOrStdin(),
		})
		if err != nil {
			current.log.Warn(ctx, "spin animation", err)
		}
	}

	w := cmd.OutOrStdout()
	title := out.Segment.Title()
	switch out.Tier {
	case wheel.TierGrand:
		fmt.Fprintln(w, style.Jackpot.Render("🎆 "+title+" 🎆"))
	case wheel.TierBig:
		fmt.Fprintln(w, style.BigWin.Render("💰 Big win: "+title))
	default:
		fmt.Fprintf(w, "%s You won %s\n", style.SuccessPrefix, style.Swatch(out.Segment.Color, title))
	}
	fmt.Fprintf(w, "%s %s\n", style.Dim.Render("Spins left:"), out.Remaining)
	return nil
}

func runBalance(cmd *cobra.Command, _ []string) error {
	spins, err := current.dir.CurrentBalance(cmd.Context())
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd, map[string]account.Spins{"spins": spins}); ok {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", style.Bold.Render("Spins:"), spins)
	if !spins.IsUnlimited() && spins.Count() == 0 {
		fmt.Fprintln(w, style.Dim.Render("Ask an admin for more spins."))
	}
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sess, err := current.dir.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return account.ErrNoSession
	}

	history, err := current.dir.History(ctx)
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd, history); ok {
		return err
	}

	w := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintln(w, style.Dim.Render("No spins yet. Run 'lw spin' to try your luck."))
		return nil
	}

	rows := make([][]string, 0, len(history))
	for _, rec := range history {
		label := rec.Prize
		if seg, ok := prize.Lookup(rec.Prize); ok {
			label = style.Swatch(seg.Color, seg.Title())
		}
		rows = append(rows, []string{rec.OccurredAt.Local().Format(time.DateTime), label})
	}
	renderTable(w, []string{"WHEN", "PRIZE"}, rows)
	return nil
}

func runPrizes(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	segments := prize.Catalog()

	if prizesRole == "" {
		if ok, err := printJSON(cmd, segments); ok {
			return err
		}
		rows := make([][]string, 0, len(segments))
		for i, seg := range segments {
			rows = append(rows, []string{fmt.Sprintf("%d", i+1), style.Swatch(seg.Color, seg.Title()), string(wheel.TierOf(seg))})
		}
		renderTable(cmd.OutOrStdout(), []string{"#", "PRIZE", "TIER"}, rows)
		return nil
	}

	if _, err := current.dir.RequireAdmin(ctx); err != nil {
		return err
	}
	r, err := role.Parse(prizesRole)
	if err != nil {
		return fmt.Errorf("%w: %v", account.ErrValidation, err)
	}
	odds, err := current.resolver.Odds(r)
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd, odds); ok {
		return err
	}

	rows := make([][]string, 0, len(odds))
	for i, o := range odds {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			style.Swatch(o.Segment.Color, o.Segment.Title()),
			fmt.Sprintf("%g", o.Weight),
			fmt.Sprintf("%.4f%%", o.Probability*100),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", style.Bold.Render("Odds for"), roleLabel(r))
	renderTable(cmd.OutOrStdout(), []string{"#", "PRIZE", "WEIGHT", "CHANCE"}, rows)
	return nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	if _, err := current.dir.RequireAdmin(cmd.Context()); err != nil {
		return err
	}
	r, err := role.Parse(simulateRole)
	if err != nil {
		return fmt.Errorf("%w: %v", account.ErrValidation, err)
	}

	rows, err := wheel.Simulate(current.resolver, r, simulateN)
	if err != nil {
		return fmt.Errorf("%w: %v", account.ErrValidation, err)
	}
	if ok, err := printJSON(cmd, rows); ok {
		return err
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			style.Swatch(row.Segment.Color, row.Segment.Title()),
			fmt.Sprintf("%d", row.Count),
			fmt.Sprintf("%.4f%%", row.Observed*100),
			fmt.Sprintf("%.4f%%", row.Expected*100),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d draws for %s\n", style.Bold.Render("Simulated"), simulateN, roleLabel(r))
	renderTable(cmd.OutOrStdout(), []string{"PRIZE", "COUNT", "OBSERVED", "EXPECTED"}, table)
	return nil
}
