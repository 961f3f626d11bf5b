package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/luckywheel/internal/doctor"
	"github.com/steveyegge/luckywheel/internal/style"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupDiagnostics,
	Short:   "Check the stored roster for problems",
	Long: `Run health checks against the roster and session exactly as stored.

Checks:
  root-admin      The root admin exists with unlimited spins
  spin-balances   Players have finite balances, admins unlimited ones
  history-limit   No history is longer than the configured limit
  uniqueness      No two usernames, or emails per provider, differ only by case
  session         The session points at an existing account

With --fix, fixable problems are repaired and the check is run again.
Exits non-zero when an error remains.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoInit: "true"},
	RunE:        runDoctor,
}

var doctorFix bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair what can be repaired")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	report, err := doctor.Run(cmd.Context(), current.dir, doctor.DefaultChecks(), doctorFix)
	if err != nil {
		return err
	}

	if ok, err := printJSON(cmd, report); ok {
		if err != nil {
			return err
		}
		return doctorExit(report)
	}

	w := cmd.OutOrStdout()
	for _, res := range report.Results {
		var prefix string
		switch res.Status {
		case doctor.StatusOK:
			prefix = style.SuccessPrefix
		case doctor.StatusWarning:
			prefix = style.WarningPrefix
		default:
			prefix = style.ErrorPrefix
		}
		fmt.Fprintf(w, "%s %s: %s\n", prefix, style.Bold.Render(res.Name), res.Message)
		for _, d := range res.Details {
			fmt.Fprintf(w, "    %s\n", d)
		}
		if res.Status != doctor.StatusOK && res.FixHint != "" {
			fmt.Fprintf(w, "    %s %s\n", style.ArrowPrefix, style.Dim.Render(res.FixHint))
		}
	}

	for _, name := range report.Fixed {
		fmt.Fprintf(w, "%s Fixed %s\n", style.SuccessPrefix, name)
	}

	ok, warnings, errs := report.Counts()
	fmt.Fprintf(w, "\n%d passed, %d warning(s), %d error(s)\n", ok, warnings, errs)
	return doctorExit(report)
}

func doctorExit(report *doctor.Report) error {
	if report.Worst() == doctor.StatusError {
		return silentError{code: 1}
	}
	return nil
}
