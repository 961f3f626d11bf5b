package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/role"
	"github.com/steveyegge/luckywheel/internal/style"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printJSON writes v when --json is set and reports whether it did.
func printJSON(cmd *cobra.Command, v any) (bool, error) {
	if !jsonOutput {
		return false, nil
	}
	return true, writeJSON(cmd.OutOrStdout(), v)
}

// printResult writes an account result as JSON, or the success line for humans.
func printResult(cmd *cobra.Command, res account.Result, human string) error {
	if ok, err := printJSON(cmd, res); ok {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", style.SuccessPrefix, human)
	return nil
}

func roleLabel(r role.Role) string {
	if r == role.Admin {
		return style.Admin.Render(r.String())
	}
	return r.String()
}

// renderUsers lays out accounts as an aligned table.
func renderUsers(w io.Writer, users []account.PublicUser) {
	headers := []string{"USERNAME", "EMAIL", "ROLE", "SPINS", "PROVIDER", "SPUN"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		provider := string(u.Provider)
		if provider == "" {
			provider = "-"
		}
		rows = append(rows, []string{
			u.Username,
			u.Email,
			roleLabel(u.Role),
			u.Spins.String(),
			provider,
			fmt.Sprintf("%d", len(u.History)),
		})
	}
	renderTable(w, headers, rows)
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, render func(string) string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			parts[i] = render(cell) + pad
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(headers, func(s string) string { return style.Header.Render(s) })
	for _, row := range rows {
		line(row, func(s string) string { return s })
	}
}
