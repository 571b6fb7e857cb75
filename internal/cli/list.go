package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/staffdash/internal/filter"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listQuery  string
	listFrom   string
	listTo     string
	listSort   string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List records of a collection",
	Long: `List the records of one collection, joined with their related records.

Collections: clients, workers, jobs, assignments, timesheets, documents,
payments, referrals.

Filters combine with AND. --from and --to bound the record's date
(start date, week, expiry, payment date, ...) inclusively. --sort takes a
key such as id, start, week, expiry, date, created, name, or rating; prefix
it with "-" to reverse.

Examples:
  staffdash list assignments --status active
  staffdash list documents --sort expiry --to 2026-12-31
  staffdash list timesheets -q "acme" --sort -week
  staffdash list workers --sort rating -n 10`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (\"all\" for any)")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "case-insensitive text search")
	listCmd.Flags().StringVar(&listFrom, "from", "", "earliest date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "latest date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort key, \"-\" prefix for descending")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "max rows (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	spec := filter.Spec{Status: listStatus, Query: listQuery, Sort: listSort}
	var err error
	if spec.From, err = parseDate(listFrom); err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	if spec.To, err = parseDate(listTo); err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	d, snap, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	listing, err := snap.List(gateway.Collection(strings.ToLower(args[0])), spec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, listing)
	}
	printBanner(out, snap, len(d.Pending()))

	if len(listing.Rows) == 0 {
		fmt.Fprintf(out, "No %s found.\n", listing.Collection)
		return nil
	}
	rows := listing.Rows
	if listLimit > 0 && len(rows) > listLimit {
		rows = rows[:listLimit]
	}
	heading(out, fmt.Sprintf("%s (%d of %d)", strings.ToUpper(string(listing.Collection[:1]))+string(listing.Collection[1:]), listing.Matched, listing.Total))
	printRows(out, rows)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
