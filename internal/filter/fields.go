package filter

import (
	"cmp"
	"strings"
	"time"

	"github.com/raphaelgruber/staffdash/internal/join"
	"github.com/raphaelgruber/staffdash/internal/models"
)

// Sort orders records by one key in either direction. Records without the
// key stay last and ties stay by id ascending whatever the direction.
type Sort[T any] struct {
	Asc  func(a, b T) int
	Desc func(a, b T) int
}

// ByID orders records by id ascending.
func ByID[T models.Record](a, b T) int {
	return cmp.Compare(a.RecordID(), b.RecordID())
}

// ByKey sorts by primary, ties by id.
func ByKey[T models.Record](primary func(a, b T) int) Sort[T] {
	return Sort[T]{
		Asc:  func(a, b T) int { return cmp.Or(primary(a, b), ByID(a, b)) },
		Desc: func(a, b T) int { return cmp.Or(primary(b, a), ByID(a, b)) },
	}
}

// ByTime sorts by date, records without a date last, ties by id.
func ByTime[T models.Record](date func(T) time.Time) Sort[T] {
	order := func(desc bool) func(a, b T) int {
		return func(a, b T) int {
			da, db := date(a), date(b)
			switch {
			case da.IsZero() && db.IsZero():
			case da.IsZero():
				return 1
			case db.IsZero():
				return -1
			default:
				c := da.Compare(db)
				if desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return ByID(a, b)
		}
	}
	return Sort[T]{Asc: order(false), Desc: order(true)}
}

// SoonestExpiry orders documents by expiry date, soonest first, ties by id ascending.
var SoonestExpiry = ByTime(func(d join.DocumentView) time.Time { return d.ExpiryDate.Time }).Asc

func status[T models.Record](r T) string {
	return r.RecordStatus()
}

var AssignmentFields = Fields[join.AssignmentView]{
	Enum:   models.AssignmentStatuses,
	Status: status[join.AssignmentView],
	Text: []func(join.AssignmentView) string{
		func(a join.AssignmentView) string { return a.Job.Value.Title },
		func(a join.AssignmentView) string { return a.Worker.Value.DisplayName() },
		func(a join.AssignmentView) string { return a.Client.Value.CompanyName },
	},
	Date: func(a join.AssignmentView) time.Time { return a.StartDate.Time },
	Sorts: map[string]Sort[join.AssignmentView]{
		"id":    ByKey(ByID[join.AssignmentView]),
		"start": ByTime(func(a join.AssignmentView) time.Time { return a.StartDate.Time }),
		"end":   ByTime(func(a join.AssignmentView) time.Time { return a.EndDate.Time }),
	},
}

var TimesheetFields = Fields[join.TimesheetView]{
	Enum:   models.TimesheetStatuses,
	Status: status[join.TimesheetView],
	Text: []func(join.TimesheetView) string{
		func(t join.TimesheetView) string { return t.Worker.Value.DisplayName() },
		func(t join.TimesheetView) string { return t.Client.Value.CompanyName },
		func(t join.TimesheetView) string { return t.Notes },
	},
	Date: join.TimesheetView.PeriodStart,
	Sorts: map[string]Sort[join.TimesheetView]{
		"id":   ByKey(ByID[join.TimesheetView]),
		"week": ByTime(join.TimesheetView.PeriodStart),
	},
}

var JobFields = Fields[join.JobView]{
	Enum:   models.JobStatuses,
	Status: status[join.JobView],
	Text: []func(join.JobView) string{
		func(j join.JobView) string { return j.Title },
		func(j join.JobView) string { return j.Location },
		func(j join.JobView) string { return j.Client.Value.CompanyName },
		func(j join.JobView) string { return strings.Join(j.Skills, " ") },
	},
	Date: func(j join.JobView) time.Time { return j.CreatedAt.Time },
	Sorts: map[string]Sort[join.JobView]{
		"id":      ByKey(ByID[join.JobView]),
		"created": ByTime(func(j join.JobView) time.Time { return j.CreatedAt.Time }),
	},
}

var DocumentFields = Fields[join.DocumentView]{
	Enum:   models.DocumentStatuses,
	Status: status[join.DocumentView],
	Text: []func(join.DocumentView) string{
		func(d join.DocumentView) string { return d.Name },
		func(d join.DocumentView) string { return d.Category },
		func(d join.DocumentView) string { return d.Worker.Value.DisplayName() },
	},
	Date: func(d join.DocumentView) time.Time { return d.ExpiryDate.Time },
	Sorts: map[string]Sort[join.DocumentView]{
		"id":     ByKey(ByID[join.DocumentView]),
		"expiry": ByTime(func(d join.DocumentView) time.Time { return d.ExpiryDate.Time }),
	},
}

var PaymentFields = Fields[join.PaymentView]{
	Enum:   models.PaymentStatuses,
	Status: status[join.PaymentView],
	Text: []func(join.PaymentView) string{
		func(p join.PaymentView) string { return p.Worker.Value.DisplayName() },
	},
	Date: func(p join.PaymentView) time.Time { return p.EffectiveDate() },
	Sorts: map[string]Sort[join.PaymentView]{
		"id":   ByKey(ByID[join.PaymentView]),
		"date": ByTime(func(p join.PaymentView) time.Time { return p.EffectiveDate() }),
	},
}

var ReferralFields = Fields[join.ReferralView]{
	Enum:   models.ReferralStatuses,
	Status: status[join.ReferralView],
	Text: []func(join.ReferralView) string{
		func(r join.ReferralView) string { return r.CandidateName },
		func(r join.ReferralView) string { return r.CandidateEmail },
		func(r join.ReferralView) string { return r.Referrer.Value.DisplayName() },
	},
	Date: func(r join.ReferralView) time.Time { return r.CreatedAt.Time },
	Sorts: map[string]Sort[join.ReferralView]{
		"id":      ByKey(ByID[join.ReferralView]),
		"created": ByTime(func(r join.ReferralView) time.Time { return r.CreatedAt.Time }),
	},
}

var ClientFields = Fields[models.Client]{
	Enum:   models.ClientStatuses,
	Status: status[models.Client],
	Text: []func(models.Client) string{
		func(c models.Client) string { return c.CompanyName },
		func(c models.Client) string { return c.Industry },
		func(c models.Client) string { return c.ContactEmail },
	},
	Date: func(c models.Client) time.Time { return c.CreatedAt.Time },
	Sorts: map[string]Sort[models.Client]{
		"id":      ByKey(ByID[models.Client]),
		"name":    ByKey(func(a, b models.Client) int { return strings.Compare(strings.ToLower(a.CompanyName), strings.ToLower(b.CompanyName)) }),
		"created": ByTime(func(c models.Client) time.Time { return c.CreatedAt.Time }),
	},
}

var WorkerFields = Fields[models.Worker]{
	Enum:   models.WorkerStatuses,
	Status: status[models.Worker],
	Text: []func(models.Worker) string{
		models.Worker.DisplayName,
		func(w models.Worker) string { return w.Email },
		func(w models.Worker) string { return strings.Join(w.Skills, " ") },
	},
	Sorts: map[string]Sort[models.Worker]{
		"id":     ByKey(ByID[models.Worker]),
		"name":   ByKey(func(a, b models.Worker) int { return strings.Compare(a.DisplayName(), b.DisplayName()) }),
		"rating": ByKey(func(a, b models.Worker) int { return cmp.Compare(b.Rating.Value, a.Rating.Value) }),
	},
}
