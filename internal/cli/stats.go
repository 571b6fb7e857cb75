package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/spf13/cobra"
)

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show gateway call statistics",
	Long: `Show call counts, failures, and timings for resource service calls.

Without --server, one dashboard refresh is run and its calls are reported.
With --server, the in-memory statistics of a running staffdash-server are
shown instead.

Examples:
  staffdash stats
  staffdash stats --scope worker:w-7
  staffdash stats --server http://localhost:8585`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "", "staffdash-server base URL")
}

// serverStats mirrors the server's /api/v1/stats response.
type serverStats struct {
	Version string           `json:"version"`
	Scopes  []string         `json:"scopes"`
	Metrics metrics.Snapshot `json:"metrics"`
}

func runStats(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if statsServer != "" {
		stats, err := fetchServerStats(cmd.Context(), statsServer)
		if err != nil {
			return fmt.Errorf("get server stats: %w", err)
		}
		if jsonOut {
			return printJSON(out, stats)
		}
		fmt.Fprintf(out, "Server %s, dashboards: %s\n\n", stats.Version, strings.Join(stats.Scopes, ", "))
		printMetrics(out, stats.Metrics)
		return nil
	}

	if _, _, err := loadDashboard(cmd.Context()); err != nil {
		return err
	}
	snap := collector.Snapshot()
	if jsonOut {
		return printJSON(out, snap)
	}
	printMetrics(out, snap)
	return nil
}

func fetchServerStats(ctx context.Context, baseURL string) (*serverStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var stats serverStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &stats, nil
}

// printMetrics displays runtime statistics.
func printMetrics(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(w, "Gateway Statistics (in-memory, since start)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)

	for _, op := range snap.Operations {
		fmt.Fprintf(w, "\n%s:\n", op.Name)
		printOpStats(w, op)
	}

	if len(snap.Events) > 0 {
		fmt.Fprintf(w, "\nEvents:\n")
		for _, name := range []string{
			metrics.EventDegradedFetch,
			metrics.EventFanOutFailure,
			metrics.EventStaleCycle,
			metrics.EventRollback,
			metrics.EventCoercedValue,
		} {
			if n, ok := snap.Events[name]; ok {
				fmt.Fprintf(w, "  %-16s %d\n", name, n)
			}
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
