package service

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/raphaelgruber/staffdash/internal/aggregate"
	"github.com/raphaelgruber/staffdash/internal/filter"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/join"
	"github.com/raphaelgruber/staffdash/internal/models"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Row is a flattened record for terminal tables.
type Row struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Listing is one filtered collection of a snapshot.
type Listing struct {
	Collection gateway.Collection `json:"collection"`
	Generation uint64             `json:"generation"`
	Total      int                `json:"total"`
	Matched    int                `json:"matched"`
	Truncated  bool               `json:"truncated"`
	Items      any                `json:"items"`
	Rows       []Row              `json:"-"`
}

// List filters one collection of the snapshot. Joined collections are listed
// through their views, so related names are searchable and returned.
func (s Snapshot) List(coll gateway.Collection, spec filter.Spec) (Listing, error) {
	out := Listing{Collection: coll, Generation: s.Generation}
	var err error
	switch coll {
	case gateway.Clients:
		out.Truncated = s.Clients.Truncated
		err = fill(&out, s.Clients.Records(), filter.ClientFields, spec, clientRow)
	case gateway.Workers:
		out.Truncated = s.Workers.Truncated
		err = fill(&out, s.Workers.Records(), filter.WorkerFields, spec, workerRow)
	case gateway.Jobs:
		out.Truncated = s.Jobs.Truncated
		err = fill(&out, s.Views.Jobs, filter.JobFields, spec, jobRow)
	case gateway.Assignments:
		out.Truncated = s.Assignments.Truncated
		err = fill(&out, s.Views.Assignments, filter.AssignmentFields, spec, assignmentRow)
	case gateway.Timesheets:
		out.Truncated = s.Timesheets.Truncated
		err = fill(&out, s.Views.Timesheets, filter.TimesheetFields, spec, timesheetRow)
	case gateway.Documents:
		out.Truncated = s.Documents.Truncated
		err = fill(&out, s.Views.Documents, filter.DocumentFields, spec, documentRow)
	case gateway.Payments:
		out.Truncated = s.Payments.Truncated
		err = fill(&out, s.Views.Payments, filter.PaymentFields, spec, paymentRow)
	case gateway.Referrals:
		out.Truncated = s.Referrals.Truncated
		err = fill(&out, s.Views.Referrals, filter.ReferralFields, spec, referralRow)
	default:
		return Listing{}, fmt.Errorf("%w %q", ErrUnknownCollection, coll)
	}
	if err != nil {
		return Listing{}, err
	}
	return out, nil
}

// Expiring lists documents expiring within the snapshot's window, soonest first.
func (s Snapshot) Expiring() []join.DocumentView {
	window := s.ExpiryWindow
	if window <= 0 {
		window = aggregate.DefaultExpiryWindow
	}
	var out []join.DocumentView
	for _, d := range s.Views.Documents {
		if aggregate.ExpiringSoon(d.ExpiryDate.Time, s.FetchedAt, window) {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, filter.SoonestExpiry)
	return out
}

func fill[T any](l *Listing, in []T, f filter.Fields[T], spec filter.Spec, row func(T) Row) error {
	items, err := filter.Apply(in, f, spec)
	if err != nil {
		return err
	}
	l.Total = len(in)
	l.Matched = len(items)
	l.Items = items
	l.Rows = make([]Row, len(items))
	for i, it := range items {
		l.Rows[i] = row(it)
	}
	return nil
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// amount formats n, or "?" when it is missing or unusable.
func amount(n models.Number) string {
	v, coerced := n.Quantity()
	if coerced || !n.Present() {
		return "?"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func clientRow(c models.Client) Row {
	return Row{ID: c.ID, Status: c.Status, Title: c.CompanyName, Detail: c.Industry, Date: day(c.CreatedAt.Time)}
}

func workerRow(w models.Worker) Row {
	return Row{ID: w.ID, Status: w.Status, Title: w.DisplayName(), Detail: "rating " + amount(w.Rating)}
}

func jobRow(j join.JobView) Row {
	return Row{ID: j.ID, Status: j.Status, Title: j.Title, Detail: j.Client.Value.CompanyName, Date: day(j.CreatedAt.Time)}
}

func assignmentRow(a join.AssignmentView) Row {
	return Row{
		ID:     a.ID,
		Status: a.Status,
		Title:  a.Job.Value.Title,
		Detail: a.Worker.Value.DisplayName() + " @ " + a.Client.Value.CompanyName,
		Date:   day(a.StartDate.Time),
	}
}

func timesheetRow(t join.TimesheetView) Row {
	return Row{
		ID:     t.ID,
		Status: t.Status,
		Title:  t.Worker.Value.DisplayName(),
		Detail: amount(t.TotalHours) + "h x " + amount(t.Rate()),
		Date:   day(t.PeriodStart()),
	}
}

func documentRow(d join.DocumentView) Row {
	return Row{ID: d.ID, Status: d.Status, Title: d.Name, Detail: d.Worker.Value.DisplayName(), Date: day(d.ExpiryDate.Time)}
}

func paymentRow(p join.PaymentView) Row {
	return Row{ID: p.ID, Status: p.Status, Title: p.Worker.Value.DisplayName(), Detail: amount(p.Amount), Date: day(p.EffectiveDate())}
}

func referralRow(r join.ReferralView) Row {
	return Row{
		ID:     r.ID,
		Status: r.Status,
		Title:  r.CandidateName,
		Detail: "by " + r.Referrer.Value.DisplayName() + ", bonus " + amount(r.BonusAmount),
		Date:   day(r.CreatedAt.Time),
	}
}
