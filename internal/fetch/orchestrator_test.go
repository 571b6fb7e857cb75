package fetch_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/staffdash/internal/fetch"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/gateway/gatewaytest"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *gatewaytest.Fake {
	return gatewaytest.New().
		Seed(gateway.Jobs,
			models.Job{ID: "j1", ClientID: "c1", Title: "Welder", Status: models.JobOpen},
			models.Job{ID: "j2", ClientID: "c1", Title: "Driver", Status: models.JobFilled},
		).
		Seed(gateway.Workers,
			models.Worker{ID: "w1", FirstName: "Ada", Status: models.WorkerActive},
			models.Worker{ID: "w2", FirstName: "Bo", Status: models.WorkerActive},
		).
		Seed(gateway.Assignments,
			models.Assignment{ID: "a1", JobID: "j1", WorkerID: "w1", ClientID: "c1", Status: models.AssignmentActive},
		)
}

func TestRunPartialFailure(t *testing.T) {
	fake := seeded().Fail(gateway.Workers)
	collector := metrics.NewCollector()
	orch := fetch.New(fake, fetch.Options{Collector: collector})

	var (
		jobs        fetch.Result[models.Job]
		workers     fetch.Result[models.Worker]
		assignments fetch.Result[models.Assignment]
	)
	err := orch.Run(context.Background(),
		fetch.List(gateway.Jobs, gateway.ListOptions{}, &jobs),
		fetch.List(gateway.Workers, gateway.ListOptions{}, &workers),
		fetch.List(gateway.Assignments, gateway.ListOptions{}, &assignments),
	)
	require.NoError(t, err)

	assert.False(t, jobs.Degraded())
	assert.Len(t, jobs.Items, 2)
	assert.False(t, assignments.Degraded())
	assert.Len(t, assignments.Items, 1)

	assert.True(t, workers.Degraded())
	assert.Empty(t, workers.Records())
	assert.ErrorIs(t, workers.Err, gateway.ErrTransport)

	d, ok := workers.Describe()
	require.True(t, ok)
	assert.Equal(t, gateway.Workers, d.Collection)
	assert.Equal(t, int64(1), collector.Snapshot().Events[metrics.EventDegradedFetch])
}

func TestRunAuthExpiredPropagates(t *testing.T) {
	fake := seeded().ExpireAuth()
	orch := fetch.New(fake, fetch.Options{})

	var jobs fetch.Result[models.Job]
	var workers fetch.Result[models.Worker]
	err := orch.Run(context.Background(),
		fetch.List(gateway.Jobs, gateway.ListOptions{}, &jobs),
		fetch.List(gateway.Workers, gateway.ListOptions{}, &workers),
	)
	require.Error(t, err)
	assert.True(t, gateway.IsAuthExpired(err))
}

func TestRunMarksTruncation(t *testing.T) {
	fake := gatewaytest.New()
	for i := range 5 {
		fake.Seed(gateway.Clients, models.Client{ID: fmt.Sprintf("c%d", i), Status: models.ClientActive})
	}
	orch := fetch.New(fake, fetch.Options{PageSize: 2})

	var clients fetch.Result[models.Client]
	require.NoError(t, orch.Run(context.Background(), fetch.List(gateway.Clients, gateway.ListOptions{}, &clients)))

	assert.True(t, clients.Truncated)
	assert.Len(t, clients.Items, 2)
	assert.Equal(t, 5, clients.Total)
	assert.False(t, clients.Degraded())
}

func TestRecordNotFoundIsEmpty(t *testing.T) {
	orch := fetch.New(seeded(), fetch.Options{})

	var found, missing fetch.Result[models.Worker]
	require.NoError(t, orch.Run(context.Background(),
		fetch.Record(gateway.Workers, "w2", &found),
		fetch.Record(gateway.Workers, "w9", &missing),
	))
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Bo", found.Items[0].FirstName)
	assert.Empty(t, missing.Items)
	assert.False(t, missing.Degraded())
}

func TestFanOutKeepsSuccessfulOwners(t *testing.T) {
	fake := gatewaytest.New().
		Seed(gateway.Documents,
			models.Document{ID: "d1", WorkerID: "w1", Name: "Passport"},
			models.Document{ID: "d2", WorkerID: "w2", Name: "Licence"},
			models.Document{ID: "d3", WorkerID: "w3", Name: "Visa"},
			models.Document{ID: "d4", WorkerID: "w1", Name: "Forklift"},
		).
		FailWhere(gateway.Documents, "workerId", "w2")
	collector := metrics.NewCollector()
	orch := fetch.New(fake, fetch.Options{Collector: collector})

	var docs fetch.Result[models.Document]
	err := orch.Run(context.Background(),
		fetch.FanOut(gateway.Documents, "workerId", []string{"w1", "w2", "w3", "w1", ""}, &docs))
	require.NoError(t, err)

	assert.True(t, docs.Degraded())
	assert.Equal(t, []string{"w2"}, docs.FailedOwners)
	assert.Equal(t, []string{"d1", "d4", "d3"}, models.IDs(docs.Items))
	assert.Equal(t, 3, fake.CountCalls("list", gateway.Documents))
	assert.Equal(t, int64(1), collector.Snapshot().Events[metrics.EventFanOutFailure])
}

// concurrencyMeter tracks how many List calls are in flight at once.
type concurrencyMeter struct {
	gateway.Resources
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *concurrencyMeter) List(ctx context.Context, coll gateway.Collection, opts gateway.ListOptions) (gateway.Page[json.RawMessage], error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return p.Resources.List(ctx, coll, opts)
}

func TestFanOutIsBounded(t *testing.T) {
	fake := gatewaytest.New()
	owners := make([]string, 12)
	for i := range owners {
		owners[i] = fmt.Sprintf("w%d", i)
		fake.Seed(gateway.Documents, models.Document{ID: fmt.Sprintf("d%d", i), WorkerID: owners[i]})
	}
	meter := &concurrencyMeter{Resources: fake}
	orch := fetch.New(meter, fetch.Options{FanOutLimit: 3})

	var docs fetch.Result[models.Document]
	require.NoError(t, orch.Run(context.Background(), fetch.FanOut(gateway.Documents, "workerId", owners, &docs)))

	assert.Len(t, docs.Items, 12)
	assert.False(t, docs.Degraded())
	assert.LessOrEqual(t, meter.peak.Load(), int32(3))
}

func TestFanOutAuthExpired(t *testing.T) {
	fake := gatewaytest.New().ExpireAuth()
	orch := fetch.New(fake, fetch.Options{})

	var docs fetch.Result[models.Document]
	err := orch.Run(context.Background(), fetch.FanOut(gateway.Documents, "workerId", []string{"w1", "w2"}, &docs))
	assert.True(t, gateway.IsAuthExpired(err))
}
