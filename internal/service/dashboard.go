package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/staffdash/internal/fetch"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/reconcile"
)

var (
	// ErrStale is returned by Refresh when a newer refresh started before this one finished.
	ErrStale = errors.New("refresh superseded by a newer one")
	// ErrNoSnapshot is returned when a mutation is requested before the first refresh.
	ErrNoSnapshot = errors.New("no snapshot loaded")
)

// Dashboard holds the live snapshot of one scope.
// Refresh replaces it with fresh data; Mutate changes it optimistically.
type Dashboard struct {
	scope     Scope
	loader    *Loader
	gw        gateway.Resources
	store     *fetch.Store[Snapshot]
	ledger    *reconcile.Ledger
	table     reconcile.Table
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewDashboard creates a dashboard. Nothing is fetched until Refresh.
func NewDashboard(scope Scope, loader *Loader, gw gateway.Resources, table reconcile.Table, logger *slog.Logger, collector *metrics.Collector) *Dashboard {
	if table == nil {
		table = reconcile.DefaultTable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		scope:     scope,
		loader:    loader,
		gw:        gw,
		store:     fetch.NewStore[Snapshot](collector),
		ledger:    reconcile.NewLedger(),
		table:     table,
		logger:    logger.With("scope", scope.String()),
		collector: collector,
	}
}

// Scope returns the dashboard's scope.
func (d *Dashboard) Scope() Scope {
	return d.scope
}

// Refresh fetches a new snapshot and publishes it unless a newer refresh
// started in the meantime, in which case ErrStale is returned with the
// discarded snapshot. Changes still awaiting confirmation are re-applied.
func (d *Dashboard) Refresh(ctx context.Context) (Snapshot, error) {
	gen := d.store.Begin()
	snap, err := d.loader.Load(ctx, d.scope)
	if err != nil {
		if gateway.IsAuthExpired(err) {
			d.logger.Error("authorization expired, sign in again", "error", err)
		}
		return Snapshot{}, err
	}
	snap.Generation = gen

	snap, ok := d.store.PublishWith(gen, snap, d.reapplyPending)
	if !ok {
		d.logger.Debug("discarding stale snapshot", "generation", gen)
		return snap, ErrStale
	}
	if snap.IsDegraded() {
		d.logger.Warn("snapshot published with partial data", "generation", gen, "degraded", len(snap.Degraded))
	}
	if n := len(snap.Anomalies); n > 0 {
		d.collector.Inc(metrics.EventCoercedValue, int64(n))
	}
	return snap, nil
}

// reapplyPending applies every unresolved change to a freshly loaded snapshot.
// It runs under the store lock, so Begin and Rollback cannot interleave.
func (d *Dashboard) reapplyPending(snap Snapshot) Snapshot {
	for _, ch := range d.ledger.Pending() {
		if next, _, err := snap.Apply(d.table, ch.Intent); err == nil {
			snap = next
		}
	}
	return snap
}

// Current returns the published snapshot.
func (d *Dashboard) Current() (Snapshot, bool) {
	snap, _, ok := d.store.Current()
	return snap, ok
}

// Subscribe delivers every newly published or reconciled snapshot.
func (d *Dashboard) Subscribe() (<-chan Snapshot, func()) {
	return d.store.Subscribe()
}

// Pending lists optimistic changes not yet confirmed by the gateway.
func (d *Dashboard) Pending() []reconcile.Change {
	return d.ledger.Pending()
}

// Begin applies a status transition to the current snapshot and records it
// as pending. The snapshot is unchanged when the mutation is invalid.
func (d *Dashboard) Begin(kind models.Kind, recordID string, action reconcile.Action) (reconcile.Change, error) {
	if _, _, ok := d.store.Current(); !ok {
		return reconcile.Change{}, ErrNoSnapshot
	}
	intent := reconcile.NewIntent(kind, recordID, action)
	var ch reconcile.Change
	_, err := d.store.Update(func(cur Snapshot) (Snapshot, error) {
		next, c, err := cur.Apply(d.table, intent)
		if err != nil {
			return cur, err
		}
		ch = c
		d.ledger.Add(ch)
		return next, nil
	})
	if err != nil {
		return reconcile.Change{}, err
	}
	return ch, nil
}

// Confirm marks a pending change as accepted by the gateway.
func (d *Dashboard) Confirm(intentID string) error {
	_, err := d.ledger.Resolve(intentID)
	return err
}

// Rollback undoes a pending change and recomputes its aggregates.
func (d *Dashboard) Rollback(intentID string) error {
	var ch reconcile.Change
	_, err := d.store.Update(func(cur Snapshot) (Snapshot, error) {
		var err error
		if ch, err = d.ledger.Resolve(intentID); err != nil {
			return cur, err
		}
		return cur.Revert(ch)
	})
	if errors.Is(err, reconcile.ErrUnknownIntent) {
		return err
	}
	if err != nil {
		return fmt.Errorf("rollback %s: %w", intentID, err)
	}
	d.collector.Inc(metrics.EventRollback, 1)
	d.logger.Warn("mutation rolled back", "intent", intentID, "kind", ch.Intent.Kind, "record", ch.Intent.RecordID, "restored", ch.From)
	return nil
}

// Mutate applies a transition optimistically, sends it to the gateway, and
// confirms it or rolls it back depending on the outcome.
func (d *Dashboard) Mutate(ctx context.Context, kind models.Kind, recordID string, action reconcile.Action) (reconcile.Change, error) {
	coll, ok := gateway.CollectionFor(kind)
	if !ok {
		return reconcile.Change{}, fmt.Errorf("%w: unknown kind %q", reconcile.ErrUndefinedTransition, kind)
	}
	ch, err := d.Begin(kind, recordID, action)
	if err != nil {
		return reconcile.Change{}, err
	}

	if _, err := d.gw.Update(ctx, coll, recordID, gateway.StatusPatch{Status: ch.To}); err != nil {
		if rbErr := d.Rollback(ch.Intent.ID); rbErr != nil {
			d.logger.Error("rollback failed", "intent", ch.Intent.ID, "error", rbErr)
		}
		return ch, fmt.Errorf("%s %s %s: %w", action, kind, recordID, err)
	}
	if err := d.Confirm(ch.Intent.ID); err != nil {
		return ch, err
	}
	d.logger.Info("mutation confirmed", "kind", kind, "record", recordID, "from", ch.From, "to", ch.To)
	return ch, nil
}
