package cli

import (
	"fmt"
	"time"

	"github.com/raphaelgruber/staffdash/internal/service"
	"github.com/spf13/cobra"
)

var expiringDays int

var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List documents expiring soon",
	Long: `List documents whose expiry date falls within the next days, soonest
first. Documents without an expiry date never appear.

Examples:
  staffdash expiring
  staffdash expiring --days 7 --scope worker:w-7`,
	Args: cobra.NoArgs,
	RunE: runExpiring,
}

func init() {
	expiringCmd.Flags().IntVar(&expiringDays, "days", 0, "look-ahead in days (default STAFFDASH_EXPIRY_WINDOW_DAYS)")
}

func runExpiring(cmd *cobra.Command, args []string) error {
	d, snap, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	if expiringDays > 0 {
		snap.ExpiryWindow = time.Duration(expiringDays) * 24 * time.Hour
	}
	docs := snap.Expiring()

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, docs)
	}
	printBanner(out, snap, len(d.Pending()))

	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents expiring soon.")
		return nil
	}
	rows := make([]service.Row, len(docs))
	for i, doc := range docs {
		days := int(doc.ExpiryDate.Time.Sub(snap.FetchedAt).Hours() / 24)
		rows[i] = service.Row{
			ID:     doc.ID,
			Status: doc.Status,
			Title:  doc.Name,
			Detail: fmt.Sprintf("%s, in %d day(s)", doc.Worker.Value.DisplayName(), days),
			Date:   doc.ExpiryDate.Time.Format("2006-01-02"),
		}
	}
	heading(out, fmt.Sprintf("Expiring documents (%d)", len(docs)))
	printRows(out, rows)
	return nil
}
