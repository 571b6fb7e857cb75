package aggregate

import (
	"time"

	"github.com/raphaelgruber/staffdash/internal/join"
	"github.com/raphaelgruber/staffdash/internal/models"
)

// Input is everything the statistics of one snapshot are computed from.
type Input struct {
	Collections  join.Collections
	Views        join.Views
	Now          time.Time
	ExpiryWindow time.Duration
}

// Stats bundles the statistics of every collection in a snapshot.
type Stats struct {
	Clients     ClientStats     `json:"clients"`
	Workers     WorkerStats     `json:"workers"`
	Jobs        JobStats        `json:"jobs"`
	Assignments AssignmentStats `json:"assignments"`
	Timesheets  TimesheetStats  `json:"timesheets"`
	Documents   DocumentStats   `json:"documents"`
	Payments    PaymentStats    `json:"payments"`
	Referrals   ReferralStats   `json:"referrals"`
}

// Compute computes every bundle.
func Compute(in Input) Stats {
	var s Stats
	for _, kind := range AllKinds {
		s = s.Recompute(kind, in)
	}
	return s
}

// AllKinds lists the record kinds in the order their statistics are computed.
var AllKinds = []models.Kind{
	models.KindClient,
	models.KindWorker,
	models.KindJob,
	models.KindAssignment,
	models.KindTimesheet,
	models.KindDocument,
	models.KindPayment,
	models.KindReferral,
}

// Recompute returns a copy of s with the bundle for kind recomputed from in.
func (s Stats) Recompute(kind models.Kind, in Input) Stats {
	window := in.ExpiryWindow
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	c := in.Collections
	switch kind {
	case models.KindClient:
		s.Clients = Clients(c.Clients)
	case models.KindWorker:
		s.Workers = Workers(c.Workers)
	case models.KindJob:
		s.Jobs = Jobs(c.Jobs)
	case models.KindAssignment:
		s.Assignments = Assignments(c.Assignments)
	case models.KindTimesheet:
		s.Timesheets = Timesheets(in.Views.Timesheets)
	case models.KindDocument:
		s.Documents = Documents(c.Documents, in.Now, window)
	case models.KindPayment:
		s.Payments = Payments(c.Payments)
	case models.KindReferral:
		s.Referrals = Referrals(c.Referrals)
	}
	return s
}

// Anomalies lists every coerced quantity and unreadable date, grouped by kind.
func (s Stats) Anomalies() []Anomaly {
	var out []Anomaly
	for _, a := range [][]Anomaly{
		s.Workers.Anomalies,
		s.Assignments.Anomalies,
		s.Timesheets.Anomalies,
		s.Documents.Anomalies,
		s.Payments.Anomalies,
		s.Referrals.Anomalies,
	} {
		out = append(out, a...)
	}
	return out
}

// Buckets returns the status buckets of kind.
func (s Stats) Buckets(kind models.Kind) (Buckets, bool) {
	switch kind {
	case models.KindClient:
		return s.Clients.Status, true
	case models.KindWorker:
		return s.Workers.Status, true
	case models.KindJob:
		return s.Jobs.Status, true
	case models.KindAssignment:
		return s.Assignments.Status, true
	case models.KindTimesheet:
		return s.Timesheets.Status, true
	case models.KindDocument:
		return s.Documents.Status, true
	case models.KindPayment:
		return s.Payments.Status, true
	case models.KindReferral:
		return s.Referrals.Status, true
	}
	return Buckets{}, false
}
