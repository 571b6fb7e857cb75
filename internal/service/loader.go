package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/staffdash/internal/aggregate"
	"github.com/raphaelgruber/staffdash/internal/fetch"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/models"
)

// Owner fields used to scope list requests.
const (
	fieldID         = "id"
	fieldClientID   = "clientId"
	fieldWorkerID   = "workerId"
	fieldReferrerID = "referrerId"
)

// Loader fetches and assembles the snapshot of a scope.
type Loader struct {
	orch         *fetch.Orchestrator
	expiryWindow time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewLoader creates a loader over orch.
func NewLoader(orch *fetch.Orchestrator, expiryWindow time.Duration, logger *slog.Logger) *Loader {
	if expiryWindow <= 0 {
		expiryWindow = aggregate.DefaultExpiryWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{orch: orch, expiryWindow: expiryWindow, now: time.Now, logger: logger}
}

// Load fetches every collection the scope needs and builds its snapshot.
// Failed collections are marked degraded; only ErrAuthExpired is returned.
func (l *Loader) Load(ctx context.Context, scope Scope) (Snapshot, error) {
	if err := scope.Validate(); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		Scope:        scope,
		ExpiryWindow: l.expiryWindow,
		Clients:      fetch.Ok[models.Client](gateway.Clients, nil),
		Workers:      fetch.Ok[models.Worker](gateway.Workers, nil),
		Jobs:         fetch.Ok[models.Job](gateway.Jobs, nil),
		Assignments:  fetch.Ok[models.Assignment](gateway.Assignments, nil),
		Timesheets:   fetch.Ok[models.Timesheet](gateway.Timesheets, nil),
		Documents:    fetch.Ok[models.Document](gateway.Documents, nil),
		Payments:     fetch.Ok[models.Payment](gateway.Payments, nil),
		Referrals:    fetch.Ok[models.Referral](gateway.Referrals, nil),
	}

	start := time.Now()
	var err error
	switch scope.Kind {
	case ScopeAdmin:
		err = l.loadAdmin(ctx, &s)
	case ScopeClient:
		err = l.loadClient(ctx, &s, scope.ID)
	case ScopeWorker:
		err = l.loadWorker(ctx, &s, scope.ID)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", scope, err)
	}

	s.FetchedAt = l.now()
	s = s.build()
	l.logger.Debug("snapshot loaded",
		"scope", scope.String(),
		"degraded", len(s.Degraded),
		"anomalies", len(s.Anomalies),
		"duration_ms", time.Since(start).Milliseconds())
	return s, nil
}

// loadAdmin lists every collection, then fetches documents per worker.
func (l *Loader) loadAdmin(ctx context.Context, s *Snapshot) error {
	all := gateway.ListOptions{}
	err := l.orch.Run(ctx,
		fetch.List(gateway.Clients, all, &s.Clients),
		fetch.List(gateway.Workers, all, &s.Workers),
		fetch.List(gateway.Jobs, all, &s.Jobs),
		fetch.List(gateway.Assignments, all, &s.Assignments),
		fetch.List(gateway.Timesheets, all, &s.Timesheets),
		fetch.List(gateway.Payments, all, &s.Payments),
		fetch.List(gateway.Referrals, all, &s.Referrals),
	)
	if err != nil {
		return err
	}
	return l.orch.Run(ctx,
		fetch.FanOut(gateway.Documents, fieldWorkerID, models.IDs(s.Workers.Records()), &s.Documents),
	)
}

// loadClient fetches the client's own records, then the workers on its assignments.
func (l *Loader) loadClient(ctx context.Context, s *Snapshot, clientID string) error {
	err := l.orch.Run(ctx,
		fetch.Record(gateway.Clients, clientID, &s.Clients),
		fetch.List(gateway.Jobs, gateway.Owned(fieldClientID, clientID, 0), &s.Jobs),
		fetch.List(gateway.Assignments, gateway.Owned(fieldClientID, clientID, 0), &s.Assignments),
		fetch.List(gateway.Timesheets, gateway.Owned(fieldClientID, clientID, 0), &s.Timesheets),
	)
	if err != nil {
		return err
	}
	workerIDs := make([]string, 0, len(s.Assignments.Records()))
	for _, a := range s.Assignments.Records() {
		workerIDs = append(workerIDs, a.WorkerID)
	}
	return l.orch.Run(ctx,
		fetch.FanOut(gateway.Workers, fieldID, workerIDs, &s.Workers),
	)
}

// loadWorker fetches the worker's own records, then the jobs and clients of its assignments.
func (l *Loader) loadWorker(ctx context.Context, s *Snapshot, workerID string) error {
	err := l.orch.Run(ctx,
		fetch.Record(gateway.Workers, workerID, &s.Workers),
		fetch.List(gateway.Assignments, gateway.Owned(fieldWorkerID, workerID, 0), &s.Assignments),
		fetch.List(gateway.Timesheets, gateway.Owned(fieldWorkerID, workerID, 0), &s.Timesheets),
		fetch.List(gateway.Documents, gateway.Owned(fieldWorkerID, workerID, 0), &s.Documents),
		fetch.List(gateway.Payments, gateway.Owned(fieldWorkerID, workerID, 0), &s.Payments),
		fetch.List(gateway.Referrals, gateway.Owned(fieldReferrerID, workerID, 0), &s.Referrals),
	)
	if err != nil {
		return err
	}
	var jobIDs, clientIDs []string
	for _, a := range s.Assignments.Records() {
		jobIDs = append(jobIDs, a.JobID)
		clientIDs = append(clientIDs, a.ClientID)
	}
	return l.orch.Run(ctx,
		fetch.FanOut(gateway.Jobs, fieldID, jobIDs, &s.Jobs),
		fetch.FanOut(gateway.Clients, fieldID, clientIDs, &s.Clients),
	)
}
