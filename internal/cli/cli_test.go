package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/gateway/gatewaytest"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/service"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useFake points the package globals at an in-memory gateway.
func useFake(t *testing.T, fake *gatewaytest.Fake) {
	t.Helper()
	collector = metrics.NewCollector()
	manager = service.NewManager(fake, service.Options{Collector: collector})
	scopeFlag = "admin"
	jsonOut = false
	t.Cleanup(func() {
		manager, collector, scopeFlag = nil, nil, ""
	})
}

func seededFake() *gatewaytest.Fake {
	now := time.Now()
	return gatewaytest.New().
		Seed(gateway.Clients, models.Client{ID: "c1", CompanyName: "Acme", Status: models.ClientActive}).
		Seed(gateway.Workers, models.Worker{ID: "w1", FirstName: "Ada", LastName: "Lovelace", Status: models.WorkerActive}).
		Seed(gateway.Jobs, models.Job{ID: "j1", ClientID: "c1", Title: "Welder", Status: models.JobOpen, Positions: 3}).
		Seed(gateway.Assignments,
			models.Assignment{ID: "a1", JobID: "j1", WorkerID: "w1", ClientID: "c1", Status: models.AssignmentPending, Rate: models.N(20), HoursPerWeek: models.N(40)},
		).
		Seed(gateway.Timesheets,
			models.Timesheet{ID: "t1", AssignmentID: "a1", Status: models.TimesheetPending, TotalHours: models.N(8)},
		).
		Seed(gateway.Documents,
			models.Document{ID: "d1", WorkerID: "w1", Name: "Forklift licence", Status: models.DocumentValid, ExpiryDate: models.At(now.Add(5 * 24 * time.Hour))},
			models.Document{ID: "d2", WorkerID: "w1", Name: "Passport", Status: models.DocumentValid, ExpiryDate: models.At(now.Add(400 * 24 * time.Hour))},
		)
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := fn(cmd, args)
	return out.String(), err
}

func TestDashboardOutput(t *testing.T) {
	useFake(t, seededFake().Fail(gateway.Referrals))

	out, err := run(t, runDashboard)
	require.NoError(t, err)
	assert.Contains(t, out, "! referrals unavailable")
	assert.Contains(t, out, "Dashboard admin (generation 1")
	assert.Contains(t, out, "open positions 3")
	assert.Contains(t, out, "pending 1, active 0")
}

func TestListOutput(t *testing.T) {
	useFake(t, seededFake())
	listStatus, listQuery, listSort = "", "", "-expiry"
	t.Cleanup(func() { listSort = "" })

	out, err := run(t, runList, "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents (2 of 2)")
	assert.Regexp(t, `(?s)d2\t.*d1\t`, out, "sorted by expiry descending")

	listFrom = "not-a-date"
	t.Cleanup(func() { listFrom = "" })
	_, err = run(t, runList, "documents")
	assert.ErrorContains(t, err, "--from")
}

func TestExpiringOutput(t *testing.T) {
	useFake(t, seededFake())

	out, err := run(t, runExpiring)
	require.NoError(t, err)
	assert.Contains(t, out, "Expiring documents (1)")
	assert.Contains(t, out, "Forklift licence")
	assert.NotContains(t, out, "Passport")
}

func TestMutateOutput(t *testing.T) {
	fake := seededFake()
	useFake(t, fake)

	out, err := run(t, func(cmd *cobra.Command, args []string) error {
		return runMutate(cmd, "Assignment", "a1", "approve")
	})
	require.NoError(t, err)
	assert.Equal(t, "assignment a1: pending -> active\n", out)

	_, err = run(t, func(cmd *cobra.Command, args []string) error {
		return runMutate(cmd, "timesheet", "t1", "pay")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actions for timesheet: approve, reject")
}

func TestStatsOutput(t *testing.T) {
	useFake(t, seededFake().Fail(gateway.Referrals))

	out, err := run(t, runStats)
	require.NoError(t, err)
	assert.Contains(t, out, "Gateway Statistics")
	assert.Contains(t, out, metrics.EventDegradedFetch)
}
