package service

import (
	"fmt"
	"time"

	"github.com/raphaelgruber/staffdash/internal/aggregate"
	"github.com/raphaelgruber/staffdash/internal/fetch"
	"github.com/raphaelgruber/staffdash/internal/join"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/reconcile"
)

// Snapshot is one consistent view of a scope: the fetched collections, their
// joins, and their statistics. A Snapshot is never modified once published;
// Apply and Revert return new values.
type Snapshot struct {
	Scope        Scope                           `json:"scope"`
	Generation   uint64                          `json:"generation"`
	FetchedAt    time.Time                       `json:"fetchedAt"`
	ExpiryWindow time.Duration                   `json:"-"`
	Clients      fetch.Result[models.Client]     `json:"clients"`
	Workers      fetch.Result[models.Worker]     `json:"workers"`
	Jobs         fetch.Result[models.Job]        `json:"jobs"`
	Assignments  fetch.Result[models.Assignment] `json:"assignments"`
	Timesheets   fetch.Result[models.Timesheet]  `json:"timesheets"`
	Documents    fetch.Result[models.Document]   `json:"documents"`
	Payments     fetch.Result[models.Payment]    `json:"payments"`
	Referrals    fetch.Result[models.Referral]   `json:"referrals"`
	Views        join.Views                      `json:"views"`
	Stats        aggregate.Stats                 `json:"stats"`
	Anomalies    []aggregate.Anomaly             `json:"anomalies"`
	Degraded     []fetch.Degradation             `json:"degraded"`
}

// Collections returns the raw records of every collection.
func (s Snapshot) Collections() join.Collections {
	return join.Collections{
		Clients:     s.Clients.Records(),
		Workers:     s.Workers.Records(),
		Jobs:        s.Jobs.Records(),
		Assignments: s.Assignments.Records(),
		Timesheets:  s.Timesheets.Records(),
		Documents:   s.Documents.Records(),
		Payments:    s.Payments.Records(),
		Referrals:   s.Referrals.Records(),
	}
}

// IsDegraded reports whether any collection is missing data.
func (s Snapshot) IsDegraded() bool {
	return len(s.Degraded) > 0
}

// Truncated lists the collections cut to their first page.
func (s Snapshot) Truncated() []string {
	var out []string
	add := func(coll string, truncated bool) {
		if truncated {
			out = append(out, coll)
		}
	}
	add(string(s.Clients.Collection), s.Clients.Truncated)
	add(string(s.Workers.Collection), s.Workers.Truncated)
	add(string(s.Jobs.Collection), s.Jobs.Truncated)
	add(string(s.Assignments.Collection), s.Assignments.Truncated)
	add(string(s.Timesheets.Collection), s.Timesheets.Truncated)
	add(string(s.Documents.Collection), s.Documents.Truncated)
	add(string(s.Payments.Collection), s.Payments.Truncated)
	add(string(s.Referrals.Collection), s.Referrals.Truncated)
	return out
}

func (s Snapshot) input() aggregate.Input {
	return aggregate.Input{
		Collections:  s.Collections(),
		Views:        s.Views,
		Now:          s.FetchedAt,
		ExpiryWindow: s.ExpiryWindow,
	}
}

// build computes joins, statistics, and markers from the fetched results.
func (s Snapshot) build() Snapshot {
	s.Views = join.Build(s.Collections())
	s.Stats = aggregate.Compute(s.input())
	s.Anomalies = s.Stats.Anomalies()
	s.Degraded = []fetch.Degradation{}
	for _, d := range []func() (fetch.Degradation, bool){
		s.Clients.Describe, s.Workers.Describe, s.Jobs.Describe, s.Assignments.Describe,
		s.Timesheets.Describe, s.Documents.Describe, s.Payments.Describe, s.Referrals.Describe,
	} {
		if deg, ok := d(); ok {
			s.Degraded = append(s.Degraded, deg)
		}
	}
	return s
}

// recompute refreshes only the views and statistics that depend on kind.
func (s Snapshot) recompute(kind models.Kind) Snapshot {
	c := s.Collections()
	ix := join.NewIndexes(c)
	stats := []models.Kind{kind}

	switch kind {
	case models.KindClient:
		s.Views.Jobs = ix.JobViews(c.Jobs)
		s.Views.Assignments = ix.AssignmentViews(c.Assignments)
		s.Views.Timesheets = ix.Timesheets(c.Timesheets)
	case models.KindWorker:
		s.Views.Assignments = ix.AssignmentViews(c.Assignments)
		s.Views.Timesheets = ix.Timesheets(c.Timesheets)
		s.Views.Documents = ix.Documents(c.Documents)
		s.Views.Payments = ix.Payments(c.Payments)
		s.Views.Referrals = ix.Referrals(c.Referrals)
	case models.KindJob:
		s.Views.Jobs = ix.JobViews(c.Jobs)
		s.Views.Assignments = ix.AssignmentViews(c.Assignments)
	case models.KindAssignment:
		s.Views.Assignments = ix.AssignmentViews(c.Assignments)
		s.Views.Timesheets = ix.Timesheets(c.Timesheets)
		s.Views.Payments = ix.Payments(c.Payments)
		stats = append(stats, models.KindTimesheet)
	case models.KindTimesheet:
		s.Views.Timesheets = ix.Timesheets(c.Timesheets)
	case models.KindDocument:
		s.Views.Documents = ix.Documents(c.Documents)
	case models.KindPayment:
		s.Views.Payments = ix.Payments(c.Payments)
	case models.KindReferral:
		s.Views.Referrals = ix.Referrals(c.Referrals)
	}

	in := s.input()
	for _, k := range stats {
		s.Stats = s.Stats.Recompute(k, in)
	}
	s.Anomalies = s.Stats.Anomalies()
	return s
}

// Apply returns a snapshot with the intent's status transition applied and
// its dependent aggregates recomputed. On error s is returned unchanged.
func (s Snapshot) Apply(tb reconcile.Table, in reconcile.Intent) (Snapshot, reconcile.Change, error) {
	next := s
	var (
		ch  reconcile.Change
		err error
	)
	switch in.Kind {
	case models.KindClient:
		ch, err = applyTo(tb, &next.Clients, in)
	case models.KindWorker:
		ch, err = applyTo(tb, &next.Workers, in)
	case models.KindJob:
		ch, err = applyTo(tb, &next.Jobs, in)
	case models.KindAssignment:
		ch, err = applyTo(tb, &next.Assignments, in)
	case models.KindTimesheet:
		ch, err = applyTo(tb, &next.Timesheets, in)
	case models.KindDocument:
		ch, err = applyTo(tb, &next.Documents, in)
	case models.KindPayment:
		ch, err = applyTo(tb, &next.Payments, in)
	case models.KindReferral:
		ch, err = applyTo(tb, &next.Referrals, in)
	default:
		err = fmt.Errorf("%w: unknown kind %q", reconcile.ErrUndefinedTransition, in.Kind)
	}
	if err != nil {
		return s, reconcile.Change{}, err
	}
	return next.recompute(in.Kind), ch, nil
}

// Revert returns a snapshot with ch undone and its dependent aggregates recomputed.
func (s Snapshot) Revert(ch reconcile.Change) (Snapshot, error) {
	next := s
	var err error
	switch ch.Intent.Kind {
	case models.KindClient:
		err = revertIn(&next.Clients, ch)
	case models.KindWorker:
		err = revertIn(&next.Workers, ch)
	case models.KindJob:
		err = revertIn(&next.Jobs, ch)
	case models.KindAssignment:
		err = revertIn(&next.Assignments, ch)
	case models.KindTimesheet:
		err = revertIn(&next.Timesheets, ch)
	case models.KindDocument:
		err = revertIn(&next.Documents, ch)
	case models.KindPayment:
		err = revertIn(&next.Payments, ch)
	case models.KindReferral:
		err = revertIn(&next.Referrals, ch)
	default:
		err = fmt.Errorf("%w: unknown kind %q", reconcile.ErrUndefinedTransition, ch.Intent.Kind)
	}
	if err != nil {
		return s, err
	}
	return next.recompute(ch.Intent.Kind), nil
}

// applyTo and revertIn write through res, which must point into a copy owned by the caller.
func applyTo[T models.Mutable[T]](tb reconcile.Table, res *fetch.Result[T], in reconcile.Intent) (reconcile.Change, error) {
	records, ch, err := reconcile.Apply(tb, res.Records(), in)
	if err != nil {
		return reconcile.Change{}, err
	}
	*res = res.WithItems(records)
	return ch, nil
}

func revertIn[T models.Mutable[T]](res *fetch.Result[T], ch reconcile.Change) error {
	records, err := reconcile.Revert(res.Records(), ch)
	if err != nil {
		return err
	}
	*res = res.WithItems(records)
	return nil
}
