package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/raphaelgruber/staffdash/internal/join"
	"github.com/raphaelgruber/staffdash/internal/models"
)

// MaxRating is the upper bound of a worker rating.
const MaxRating = 5.0

// TopSkillsLimit caps WorkerStats.TopSkills.
const TopSkillsLimit = 5

// Unspecified labels records with an empty grouping field.
const Unspecified = "unspecified"

type ClientStats struct {
	Status     Buckets        `json:"status"`
	ActiveRate float64        `json:"activeRate"`
	ByIndustry map[string]int `json:"byIndustry"`
}

// Clients computes client statistics.
func Clients(cs []models.Client) ClientStats {
	s := ClientStats{
		Status:     CountByStatus(models.ClientStatuses, cs),
		ByIndustry: countBy(cs, func(c models.Client) string { return c.Industry }),
	}
	s.ActiveRate = Rate(float64(s.Status.Count(models.ClientActive)), float64(s.Status.Total))
	return s
}

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type WorkerStats struct {
	Status        Buckets      `json:"status"`
	AverageRating float64      `json:"averageRating"`
	CompletedJobs int          `json:"completedJobs"`
	TopSkills     []SkillCount `json:"topSkills"`
	Anomalies     []Anomaly    `json:"anomalies,omitempty"`
}

// Workers computes worker statistics. The average rating covers workers that
// have one; ratings above MaxRating are clamped.
func Workers(ws []models.Worker) WorkerStats {
	s := WorkerStats{Status: CountByStatus(models.WorkerStatuses, ws)}

	rating := Field[models.Worker]{Name: "rating", Value: func(w models.Worker) models.Number { return w.Rating }}
	var sum float64
	rated := 0
	skills := make(map[string]int)
	for _, w := range ws {
		if w.Rating.Present() {
			sum += min(quantity(models.KindWorker, w, rating, &s.Anomalies), MaxRating)
			rated++
		}
		s.CompletedJobs += max(w.CompletedJobs, 0)
		seen := make(map[string]bool, len(w.Skills))
		for _, sk := range w.Skills {
			sk = strings.TrimSpace(sk)
			if sk == "" || seen[strings.ToLower(sk)] {
				continue
			}
			seen[strings.ToLower(sk)] = true
			skills[sk]++
		}
	}
	if rated > 0 {
		s.AverageRating = sum / float64(rated)
	}

	s.TopSkills = make([]SkillCount, 0, len(skills))
	for sk, n := range skills {
		s.TopSkills = append(s.TopSkills, SkillCount{Skill: sk, Count: n})
	}
	slices.SortFunc(s.TopSkills, func(a, b SkillCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Skill, b.Skill)
	})
	if len(s.TopSkills) > TopSkillsLimit {
		s.TopSkills = s.TopSkills[:TopSkillsLimit]
	}
	return s
}

type JobStats struct {
	Status        Buckets `json:"status"`
	OpenPositions int     `json:"openPositions"`
}

// Jobs computes job statistics.
func Jobs(js []models.Job) JobStats {
	s := JobStats{Status: CountByStatus(models.JobStatuses, js)}
	for _, j := range Where(js, StatusIs[models.Job](models.JobStatuses, models.JobOpen)) {
		s.OpenPositions += max(j.Positions, 0)
	}
	return s
}

type AssignmentStats struct {
	Status             Buckets   `json:"status"`
	ActiveHoursPerWeek float64   `json:"activeHoursPerWeek"`
	ActiveWeeklyCost   float64   `json:"activeWeeklyCost"`
	Anomalies          []Anomaly `json:"anomalies,omitempty"`
}

var (
	assignmentHours = Field[models.Assignment]{Name: "hoursPerWeek", Value: func(a models.Assignment) models.Number { return a.HoursPerWeek }}
	assignmentRate  = Field[models.Assignment]{Name: "rate", Value: models.Assignment.EffectiveRate}
)

// Assignments computes assignment statistics over active assignments.
func Assignments(as []models.Assignment) AssignmentStats {
	s := AssignmentStats{Status: CountByStatus(models.AssignmentStatuses, as)}
	active := Where(as, StatusIs[models.Assignment](models.AssignmentStatuses, models.AssignmentActive))

	var a1, a2 []Anomaly
	s.ActiveHoursPerWeek, a1 = Sum(models.KindAssignment, active, assignmentHours)
	s.ActiveWeeklyCost, a2 = Cost(models.KindAssignment, active, assignmentHours, assignmentRate)
	// Cost re-reads the hours field, so keep one report per record and field.
	s.Anomalies = dedupe(append(a1, a2...))
	return s
}

type TimesheetStats struct {
	Status        Buckets   `json:"status"`
	TotalHours    float64   `json:"totalHours"`
	ApprovedHours float64   `json:"approvedHours"`
	PendingHours  float64   `json:"pendingHours"`
	ApprovalRate  float64   `json:"approvalRate"`
	TotalCost     float64   `json:"totalCost"`
	HoursByWeek   Series    `json:"hoursByWeek"`
	Anomalies     []Anomaly `json:"anomalies,omitempty"`
}

var (
	timesheetHours = Field[join.TimesheetView]{Name: "totalHours", Value: func(t join.TimesheetView) models.Number { return t.TotalHours }}
	timesheetRate  = Field[join.TimesheetView]{Name: "rate", Value: join.TimesheetView.Rate}
)

// Timesheets computes timesheet statistics. Cost uses each timesheet's
// assignment rate; the approval rate is approved over decided timesheets.
func Timesheets(ts []join.TimesheetView) TimesheetStats {
	s := TimesheetStats{Status: CountByStatus(models.TimesheetStatuses, ts)}
	kind := models.KindTimesheet

	var all []Anomaly
	collect := func(v float64, a []Anomaly) float64 {
		all = append(all, a...)
		return v
	}
	s.TotalHours = collect(Sum(kind, ts, timesheetHours))
	s.ApprovedHours, _ = Sum(kind, Where(ts, StatusIs[join.TimesheetView](models.TimesheetStatuses, models.TimesheetApproved)), timesheetHours)
	s.PendingHours, _ = Sum(kind, Where(ts, StatusIs[join.TimesheetView](models.TimesheetStatuses, models.TimesheetPending)), timesheetHours)
	s.TotalCost = collect(Cost(kind, ts, timesheetHours, timesheetRate))
	s.HoursByWeek, _ = ByPeriod(kind, ts, join.TimesheetView.PeriodStart, Weekly, timesheetHours)
	s.Anomalies = dedupe(all)

	approved := s.Status.Count(models.TimesheetApproved)
	decided := approved + s.Status.Count(models.TimesheetRejected)
	s.ApprovalRate = Rate(float64(approved), float64(decided))
	return s
}

type DocumentStats struct {
	Status        Buckets        `json:"status"`
	ExpiringSoon  int            `json:"expiringSoon"`
	Overdue       int            `json:"overdue"`
	PendingReview int            `json:"pendingReview"`
	ByCategory    map[string]int `json:"byCategory"`
	Anomalies     []Anomaly      `json:"anomalies,omitempty"`
}

// Documents computes document statistics as of now. A document counts as
// expiring soon or overdue by its expiry date alone, whatever its status.
func Documents(ds []models.Document, now time.Time, window time.Duration) DocumentStats {
	s := DocumentStats{
		Status:     CountByStatus(models.DocumentStatuses, ds),
		ByCategory: countBy(ds, func(d models.Document) string { return d.Category }),
	}
	for _, d := range ds {
		if d.ExpiryDate.Invalid() {
			s.Anomalies = append(s.Anomalies, Anomaly{
				Kind:     models.KindDocument,
				RecordID: d.ID,
				Field:    "expiryDate",
				Raw:      d.ExpiryDate.Raw,
			})
		}
		switch {
		case ExpiringSoon(d.ExpiryDate.Time, now, window):
			s.ExpiringSoon++
		case Overdue(d.ExpiryDate.Time, now):
			s.Overdue++
		}
	}
	s.PendingReview = s.Status.Count(models.DocumentPendingReview)
	return s
}

type PaymentStats struct {
	Status        Buckets   `json:"status"`
	TotalPaid     float64   `json:"totalPaid"`
	TotalPending  float64   `json:"totalPending"`
	NetPaid       float64   `json:"netPaid"`
	AmountByMonth Series    `json:"amountByMonth"`
	Anomalies     []Anomaly `json:"anomalies,omitempty"`
}

var (
	paymentAmount = Field[models.Payment]{Name: "amount", Value: func(p models.Payment) models.Number { return p.Amount }}
	paymentNet    = Field[models.Payment]{Name: "netAmount", Value: func(p models.Payment) models.Number { return p.NetAmount }}
)

// Payments computes payment statistics. AmountByMonth covers paid payments
// and adds up to TotalPaid.
func Payments(ps []models.Payment) PaymentStats {
	s := PaymentStats{Status: CountByStatus(models.PaymentStatuses, ps)}
	paid := Where(ps, StatusIs[models.Payment](models.PaymentStatuses, models.PaymentPaid))
	pending := Where(ps, StatusIs[models.Payment](models.PaymentStatuses, models.PaymentPending))

	var all []Anomaly
	collect := func(v float64, a []Anomaly) float64 {
		all = append(all, a...)
		return v
	}
	s.TotalPaid = collect(Sum(models.KindPayment, paid, paymentAmount))
	s.TotalPending = collect(Sum(models.KindPayment, pending, paymentAmount))
	s.NetPaid = collect(Sum(models.KindPayment, paid, paymentNet))
	s.AmountByMonth, _ = ByPeriod(models.KindPayment, paid, models.Payment.EffectiveDate, Monthly, paymentAmount)
	s.Anomalies = all
	return s
}

type ReferralStats struct {
	Status         Buckets   `json:"status"`
	Completed      int       `json:"completed"`
	Pending        int       `json:"pending"`
	ConversionRate float64   `json:"conversionRate"`
	BonusPaid      float64   `json:"bonusPaid"`
	BonusPending   float64   `json:"bonusPending"`
	Anomalies      []Anomaly `json:"anomalies,omitempty"`
}

var referralBonus = Field[models.Referral]{Name: "bonusAmount", Value: func(r models.Referral) models.Number { return r.BonusAmount }}

func bonusIs(status string) func(models.Referral) bool {
	return func(r models.Referral) bool {
		return models.BonusStatuses.Bucket(r.BonusStatus) == status
	}
}

// Referrals computes referral statistics. Conversion is completed over all referrals.
func Referrals(rs []models.Referral) ReferralStats {
	s := ReferralStats{Status: CountByStatus(models.ReferralStatuses, rs)}
	s.Completed = s.Status.Count(models.ReferralCompleted)
	s.Pending = s.Status.Count(models.ReferralPending)
	s.ConversionRate = Rate(float64(s.Completed), float64(s.Status.Total))

	var a1, a2 []Anomaly
	s.BonusPaid, a1 = Sum(models.KindReferral, Where(rs, bonusIs(models.BonusPaid)), referralBonus)
	s.BonusPending, a2 = Sum(models.KindReferral, Where(rs, bonusIs(models.BonusPending)), referralBonus)
	s.Anomalies = append(a1, a2...)
	return s
}

func countBy[T any](records []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		k := strings.TrimSpace(key(r))
		if k == "" {
			k = Unspecified
		}
		out[k]++
	}
	return out
}

func dedupe(as []Anomaly) []Anomaly {
	if len(as) == 0 {
		return nil
	}
	seen := make(map[Anomaly]bool, len(as))
	out := as[:0:0]
	for _, a := range as {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
