package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/service"
	"github.com/spf13/cobra"
)

var dashboardAnomalies bool

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show dashboard figures for a scope",
	Long: `Fetch every collection for the scope and print its figures.

Collections that could not be loaded are reported above the figures; the
remaining figures are still shown.

Examples:
  staffdash dashboard
  staffdash dashboard --scope client:c-42
  staffdash dashboard --scope worker:w-7 --anomalies
  staffdash dashboard --json`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().BoolVar(&dashboardAnomalies, "anomalies", false, "list values that could not be read as numbers")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	d, snap, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, snap)
	}
	printBanner(out, snap, len(d.Pending()))
	printDashboard(out, snap)
	if dashboardAnomalies {
		printAnomalies(out, snap)
	}
	return nil
}

// printDashboard prints the figures relevant to the snapshot's scope.
func printDashboard(w io.Writer, snap service.Snapshot) {
	st := snap.Stats
	heading(w, fmt.Sprintf("Dashboard %s (generation %d, %s)", snap.Scope, snap.Generation, snap.FetchedAt.Format("2006-01-02 15:04")))
	fmt.Fprintln(w)

	if snap.Scope.Kind == service.ScopeAdmin {
		heading(w, "Clients")
		printBuckets(w, st.Clients.Status, models.ClientStatuses)
		fmt.Fprintf(w, "  active rate %s\n", percent(st.Clients.ActiveRate))

		heading(w, "Workers")
		printBuckets(w, st.Workers.Status, models.WorkerStatuses)
		fmt.Fprintf(w, "  average rating %.2f, completed jobs %d\n", st.Workers.AverageRating, st.Workers.CompletedJobs)
		if len(st.Workers.TopSkills) > 0 {
			skills := make([]string, len(st.Workers.TopSkills))
			for i, s := range st.Workers.TopSkills {
				skills[i] = fmt.Sprintf("%s (%d)", s.Skill, s.Count)
			}
			fmt.Fprintf(w, "  top skills %s\n", strings.Join(skills, ", "))
		}
	}

	if snap.Scope.Kind != service.ScopeWorker {
		heading(w, "Jobs")
		printBuckets(w, st.Jobs.Status, models.JobStatuses)
		fmt.Fprintf(w, "  open positions %d\n", st.Jobs.OpenPositions)
	}

	heading(w, "Assignments")
	printBuckets(w, st.Assignments.Status, models.AssignmentStatuses)
	fmt.Fprintf(w, "  active hours/week %.1f, weekly cost %.2f\n", st.Assignments.ActiveHoursPerWeek, st.Assignments.ActiveWeeklyCost)

	heading(w, "Timesheets")
	printBuckets(w, st.Timesheets.Status, models.TimesheetStatuses)
	fmt.Fprintf(w, "  hours %.1f (approved %.1f, pending %.1f), approval rate %s, cost %.2f\n",
		st.Timesheets.TotalHours, st.Timesheets.ApprovedHours, st.Timesheets.PendingHours,
		percent(st.Timesheets.ApprovalRate), st.Timesheets.TotalCost)

	if snap.Scope.Kind != service.ScopeClient {
		heading(w, "Documents")
		printBuckets(w, st.Documents.Status, models.DocumentStatuses)
		fmt.Fprintf(w, "  expiring soon %d, overdue %d, pending review %d\n",
			st.Documents.ExpiringSoon, st.Documents.Overdue, st.Documents.PendingReview)

		heading(w, "Payments")
		printBuckets(w, st.Payments.Status, models.PaymentStatuses)
		fmt.Fprintf(w, "  paid %.2f (net %.2f), pending %.2f\n", st.Payments.TotalPaid, st.Payments.NetPaid, st.Payments.TotalPending)

		heading(w, "Referrals")
		printBuckets(w, st.Referrals.Status, models.ReferralStatuses)
		fmt.Fprintf(w, "  conversion %s, bonus paid %.2f, bonus pending %.2f\n",
			percent(st.Referrals.ConversionRate), st.Referrals.BonusPaid, st.Referrals.BonusPending)
	}

	if n := len(snap.Anomalies); n > 0 && !dashboardAnomalies {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d value(s) could not be read as numbers; rerun with --anomalies\n", n)
	}
}

func printAnomalies(w io.Writer, snap service.Snapshot) {
	if len(snap.Anomalies) == 0 {
		return
	}
	fmt.Fprintln(w)
	heading(w, fmt.Sprintf("Anomalies (%d)", len(snap.Anomalies)))
	for _, a := range snap.Anomalies {
		fmt.Fprintf(w, "  - %s\n", a)
	}
}
