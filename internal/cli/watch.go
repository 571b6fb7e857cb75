package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/service"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard that refreshes periodically",
	Long: `Show the dashboard rates as bars and refresh them periodically.
Press r to refresh now, q to quit.

Examples:
  staffdash watch
  staffdash watch --interval 10s --scope client:c-42`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "refresh interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	scope, err := currentScope()
	if err != nil {
		return err
	}
	d, err := manager.Dashboard(scope)
	if err != nil {
		return err
	}
	if !isTTY(cmd.OutOrStdout()) {
		return errors.New("watch needs a terminal; use dashboard instead")
	}
	return RunWatch(cmd.Context(), d, watchInterval)
}

// tickMsg triggers the next refresh.
type tickMsg time.Time

// snapshotMsg carries the outcome of a refresh.
type snapshotMsg struct {
	snap service.Snapshot
	err  error
}

// watchModel is the bubbletea model for the live dashboard.
type watchModel struct {
	ctx        context.Context
	dash       *service.Dashboard
	interval   time.Duration
	snap       service.Snapshot
	loaded     bool
	refreshing bool
	lastErr    error
	fatal      error
	bar        progress.Model
	theme      Theme
	quitting   bool
}

func newWatchModel(ctx context.Context, d *service.Dashboard, interval time.Duration) watchModel {
	return watchModel{
		ctx:      ctx,
		dash:     d,
		interval: interval,
		bar: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme:      defaultTheme,
		refreshing: true,
	}
}

// Init starts the first refresh.
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		m.bar.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, m.refresh()
			}
		}

	case tickMsg:
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.refresh()

	case snapshotMsg:
		m.refreshing = false
		switch {
		case gateway.IsAuthExpired(msg.err):
			m.fatal = fmt.Errorf("session expired, sign in again: %w", msg.err)
			return m, tea.Quit
		case errors.Is(msg.err, service.ErrStale):
			// A newer refresh already published; keep showing it.
		case msg.err != nil:
			m.lastErr = msg.err
		default:
			m.snap, m.loaded, m.lastErr = msg.snap, true, nil
		}
		return m, tickCmd(m.interval)

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.bar, cmd = m.bar.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the live dashboard.
func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m watchModel) renderContent() string {
	if m.quitting || m.fatal != nil {
		if m.fatal != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("✗ %s\n", m.fatal))
		}
		return ""
	}
	if !m.loaded {
		if m.lastErr != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("✗ %s\n", m.lastErr))
		}
		return "Loading dashboard...\n"
	}

	var b strings.Builder
	st := m.snap.Stats
	status := "idle"
	if m.refreshing {
		status = "refreshing"
	}
	fmt.Fprintf(&b, "%s %s  generation %d  %s\n\n",
		m.theme.headingStyle().Render(m.snap.Scope.String()),
		m.theme.hintStyle().Render("["+status+"]"),
		m.snap.Generation, m.snap.FetchedAt.Format("15:04:05"))

	for _, d := range m.snap.Degraded {
		b.WriteString(m.theme.errorStyle().Render(fmt.Sprintf("! %s: %s", d.Collection, d.Message)) + "\n")
	}
	if t := m.snap.Truncated(); len(t) > 0 {
		b.WriteString(m.theme.warningStyle().Render("! first page only: "+strings.Join(t, ", ")) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(m.theme.warningStyle().Render("! last refresh failed: "+m.lastErr.Error()) + "\n")
	}

	row := func(label string, rate float64, detail string) {
		fmt.Fprintf(&b, "%-22s %s %6s  %s\n", label, m.bar.ViewAs(rate), percent(rate), detail)
	}
	if m.snap.Scope.Kind == service.ScopeAdmin {
		row("Clients active", st.Clients.ActiveRate,
			fmt.Sprintf("%d of %d", st.Clients.Status.Count(models.ClientActive), st.Clients.Status.Total))
	}
	row("Timesheets approved", st.Timesheets.ApprovalRate,
		fmt.Sprintf("%.1fh pending", st.Timesheets.PendingHours))
	if m.snap.Scope.Kind != service.ScopeClient {
		row("Referrals converted", st.Referrals.ConversionRate,
			fmt.Sprintf("%d of %d", st.Referrals.Completed, st.Referrals.Status.Total))
	}

	fmt.Fprintf(&b, "\nAssignments: %d active, %d pending, weekly cost %.2f\n",
		st.Assignments.Status.Count(models.AssignmentActive),
		st.Assignments.Status.Count(models.AssignmentPending),
		st.Assignments.ActiveWeeklyCost)
	if m.snap.Scope.Kind != service.ScopeWorker {
		fmt.Fprintf(&b, "Open positions: %d\n", st.Jobs.OpenPositions)
	}
	if m.snap.Scope.Kind != service.ScopeClient {
		fmt.Fprintf(&b, "Documents: %d expiring soon, %d overdue\n", st.Documents.ExpiringSoon, st.Documents.Overdue)
	}
	if n := len(m.dash.Pending()); n > 0 {
		fmt.Fprintf(&b, "%d change(s) awaiting confirmation\n", n)
	}

	b.WriteString("\n" + m.theme.hintStyle().Render("r refresh · q quit") + "\n")
	return b.String()
}

// refresh loads a new snapshot off the update loop.
func (m watchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.dash.Refresh(m.ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// tickCmd returns a command that sends a tick after d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunWatch runs the live dashboard until the user quits.
// Returns an error only when the session expires or the UI fails.
func RunWatch(ctx context.Context, d *service.Dashboard, interval time.Duration) error {
	p := tea.NewProgram(newWatchModel(ctx, d, interval), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("watch UI error: %w", err)
	}
	if m, ok := finalModel.(watchModel); ok && m.fatal != nil {
		return m.fatal
	}
	return nil
}
