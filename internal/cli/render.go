package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/raphaelgruber/staffdash/internal/aggregate"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/service"
	"golang.org/x/term"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Border  lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Warning: lipgloss.Color("#FFAF00"), // amber
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Border:  lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status).Bold(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// statusColor colours a status by how settled it is.
func (t Theme) statusColor(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "active", "approved", "paid", "completed", "valid", "filled":
		return lipgloss.NewStyle().Foreground(t.Success)
	case "pending", "pending_review", "submitted", "sent", "trial", "open", "draft":
		return lipgloss.NewStyle().Foreground(t.Warning)
	case "rejected", "failed", "expired", "suspended", "cancelled", "inactive":
		return lipgloss.NewStyle().Foreground(t.Error)
	}
	return lipgloss.NewStyle()
}

// isTTY reports whether w is an interactive terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printBanner warns about partial data before anything else is shown.
func printBanner(w io.Writer, snap service.Snapshot, pending int) {
	style := func(s lipgloss.Style, text string) string {
		if isTTY(w) {
			return s.Render(text)
		}
		return text
	}
	for _, d := range snap.Degraded {
		msg := fmt.Sprintf("! %s unavailable: %s", d.Collection, d.Message)
		if len(d.FailedOwners) > 0 {
			msg = fmt.Sprintf("! %s partially loaded (%d owners failed)", d.Collection, len(d.FailedOwners))
		}
		fmt.Fprintln(w, style(defaultTheme.errorStyle(), msg))
	}
	if t := snap.Truncated(); len(t) > 0 {
		fmt.Fprintln(w, style(defaultTheme.warningStyle(), "! showing first page only: "+strings.Join(t, ", ")))
	}
	if pending > 0 {
		fmt.Fprintln(w, style(defaultTheme.hintStyle(), fmt.Sprintf("%d change(s) awaiting confirmation", pending)))
	}
	if snap.IsDegraded() || len(snap.Truncated()) > 0 || pending > 0 {
		fmt.Fprintln(w)
	}
}

// printRows prints a table on terminals and tab-separated lines otherwise.
func printRows(w io.Writer, rows []service.Row) {
	if !isTTY(w) {
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Status, r.Title, r.Detail, r.Date)
		}
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(defaultTheme.Border)).
		Headers("ID", "STATUS", "TITLE", "DETAIL", "DATE")
	for _, r := range rows {
		t.Row(r.ID, r.Status, r.Title, r.Detail, r.Date)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		base := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return base.Inherit(defaultTheme.headingStyle())
		}
		if col == 1 && row >= 0 && row < len(rows) {
			return base.Inherit(defaultTheme.statusColor(rows[row].Status))
		}
		return base
	})
	fmt.Fprintln(w, t.Render())
}

// printBuckets prints status counts in declaration order, "other" last.
func printBuckets(w io.Writer, b aggregate.Buckets, enum models.Enum) {
	parts := make([]string, 0, len(enum.Values())+1)
	for _, status := range enum.Values() {
		parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(status), b.Count(status)))
	}
	if n := b.Count(models.StatusOther); n > 0 {
		parts = append(parts, fmt.Sprintf("%s %d", models.StatusOther, n))
	}
	fmt.Fprintf(w, "  %s (total %d)\n", strings.Join(parts, ", "), b.Total)
}

func heading(w io.Writer, title string) {
	if isTTY(w) {
		title = defaultTheme.headingStyle().Render(title)
	}
	fmt.Fprintln(w, title)
}

func percent(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}
