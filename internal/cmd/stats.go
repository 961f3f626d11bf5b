package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/luckywheel/internal/metrics"
	"github.com/steveyegge/luckywheel/internal/style"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: GroupDiagnostics,
	Short:   "Count accounts by role (admin only)",
	Long: `Show how many accounts exist, split by role.

With --textfile, or metrics.textfile in the config, the roster gauges are
also written in Prometheus text format for the node exporter's textfile
collector.

Examples:
  lw stats
  lw stats --textfile /var/lib/node_exporter/luckywheel.prom`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var statsTextfile string

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsTextfile, "textfile", "", "Write Prometheus gauges to this file")
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if _, err := current.dir.RequireAdmin(ctx); err != nil {
		return err
	}

	stats, err := current.dir.Stats(ctx)
	if err != nil {
		return err
	}

	path := statsTextfile
	if path == "" {
		path = current.cfg.Metrics.Textfile
	}
	if path != "" {
		if err := metrics.WriteTextfile(path, current.dir); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		current.log.Debug(ctx, "wrote metrics textfile", "path", path)
	}

	if ok, err := printJSON(cmd, stats); ok {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %d\n", style.Bold.Render("Accounts:"), stats.Total)
	fmt.Fprintf(w, "  %s %d\n", style.Admin.Render("admin"), stats.Admins)
	fmt.Fprintf(w, "  user  %d\n", stats.Users)
	if path != "" {
		fmt.Fprintf(w, "%s Wrote %s\n", style.SuccessPrefix, path)
	}
	return nil
}
