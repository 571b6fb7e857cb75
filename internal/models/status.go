package models

import "strings"

// StatusOther is the bucket for status values outside an enumeration.
const StatusOther = "other"

// Enum is a closed set of status values.
// Matching is case-insensitive and ignores surrounding whitespace; the
// canonical spelling is the one the enum was declared with.
type Enum struct {
	name   string
	values []string
}

// NewEnum declares an enumeration.
func NewEnum(name string, values ...string) Enum {
	return Enum{name: name, values: values}
}

// Name returns the enumeration name, used in logs.
func (e Enum) Name() string {
	return e.name
}

// Values returns the declared values in declaration order.
func (e Enum) Values() []string {
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out
}

// Canonical returns the declared spelling of raw, if raw belongs to the enum.
func (e Enum) Canonical(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, v := range e.values {
		if strings.EqualFold(v, raw) {
			return v, true
		}
	}
	return "", false
}

// Bucket returns the canonical value of raw, or StatusOther.
func (e Enum) Bucket(raw string) string {
	if v, ok := e.Canonical(raw); ok {
		return v
	}
	return StatusOther
}

// Client statuses.
const (
	ClientActive    = "ACTIVE"
	ClientInactive  = "INACTIVE"
	ClientTrial     = "TRIAL"
	ClientSuspended = "SUSPENDED"
)

// Worker statuses.
const (
	WorkerActive    = "ACTIVE"
	WorkerInactive  = "INACTIVE"
	WorkerSuspended = "SUSPENDED"
)

// Job statuses.
const (
	JobDraft  = "DRAFT"
	JobOpen   = "OPEN"
	JobFilled = "FILLED"
	JobClosed = "CLOSED"
)

// Assignment statuses.
const (
	AssignmentPending   = "pending"
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
	AssignmentCancelled = "cancelled"
)

// Timesheet statuses.
const (
	TimesheetPending  = "pending"
	TimesheetApproved = "approved"
	TimesheetRejected = "rejected"
)

// Document statuses.
const (
	DocumentValid         = "VALID"
	DocumentExpired       = "EXPIRED"
	DocumentPendingReview = "PENDING_REVIEW"
)

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Referral statuses.
const (
	ReferralPending    = "PENDING"
	ReferralSent       = "SENT"
	ReferralRegistered = "REGISTERED"
	ReferralCompleted  = "COMPLETED"
	ReferralExpired    = "EXPIRED"
)

// Referral bonus statuses.
const (
	BonusPending  = "PENDING"
	BonusPaid     = "PAID"
	BonusDeclined = "DECLINED"
)

var (
	ClientStatuses     = NewEnum("client", ClientActive, ClientInactive, ClientTrial, ClientSuspended)
	WorkerStatuses     = NewEnum("worker", WorkerActive, WorkerInactive, WorkerSuspended)
	JobStatuses        = NewEnum("job", JobDraft, JobOpen, JobFilled, JobClosed)
	AssignmentStatuses = NewEnum("assignment", AssignmentPending, AssignmentActive, AssignmentCompleted, AssignmentCancelled)
	TimesheetStatuses  = NewEnum("timesheet", TimesheetPending, TimesheetApproved, TimesheetRejected)
	DocumentStatuses   = NewEnum("document", DocumentValid, DocumentExpired, DocumentPendingReview)
	PaymentStatuses    = NewEnum("payment", PaymentPending, PaymentPaid, PaymentFailed)
	ReferralStatuses   = NewEnum("referral", ReferralPending, ReferralSent, ReferralRegistered, ReferralCompleted, ReferralExpired)
	BonusStatuses      = NewEnum("bonus", BonusPending, BonusPaid, BonusDeclined)
)

// StatusEnum returns the status enumeration for a record kind.
func StatusEnum(kind Kind) (Enum, bool) {
	switch kind {
	case KindClient:
		return ClientStatuses, true
	case KindWorker:
		return WorkerStatuses, true
	case KindJob:
		return JobStatuses, true
	case KindAssignment:
		return AssignmentStatuses, true
	case KindTimesheet:
		return TimesheetStatuses, true
	case KindDocument:
		return DocumentStatuses, true
	case KindPayment:
		return PaymentStatuses, true
	case KindReferral:
		return ReferralStatuses, true
	}
	return Enum{}, false
}
