// Package reconcile applies optimistic status transitions to snapshot
// collections and reverts them when the remote mutation fails.
package reconcile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/staffdash/internal/models"
)

var (
	ErrUnknownRecord       = errors.New("record not in snapshot")
	ErrUndefinedTransition = errors.New("undefined status transition")
	ErrUnknownIntent       = errors.New("unknown mutation intent")
)

// IsInvalid reports whether err rejects a mutation request.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrUnknownRecord) || errors.Is(err, ErrUndefinedTransition)
}

// Action is a user-facing state change.
type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionActivate   Action = "activate"
	ActionSuspend    Action = "suspend"
	ActionDeactivate Action = "deactivate"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionPublish    Action = "publish"
	ActionFill       Action = "fill"
	ActionClose      Action = "close"
	ActionExpire     Action = "expire"
	ActionPay        Action = "pay"
	ActionFail       Action = "fail"
)

// ParseAction normalizes a user-supplied action name.
func ParseAction(s string) Action {
	return Action(strings.ToLower(strings.TrimSpace(s)))
}

// Transition moves a record from any of From to To.
type Transition struct {
	From []string
	To   string
}

// Table holds the defined transitions per kind and action.
type Table map[models.Kind]map[Action]Transition

// DefaultTable is the set of transitions the dashboards offer.
var DefaultTable = Table{
	models.KindAssignment: {
		ActionApprove:  {From: []string{models.AssignmentPending}, To: models.AssignmentActive},
		ActionActivate: {From: []string{models.AssignmentPending}, To: models.AssignmentActive},
		ActionComplete: {From: []string{models.AssignmentActive}, To: models.AssignmentCompleted},
		ActionCancel:   {From: []string{models.AssignmentPending, models.AssignmentActive}, To: models.AssignmentCancelled},
	},
	models.KindTimesheet: {
		ActionApprove: {From: []string{models.TimesheetPending}, To: models.TimesheetApproved},
		ActionReject:  {From: []string{models.TimesheetPending}, To: models.TimesheetRejected},
	},
	models.KindClient: {
		ActionActivate:   {From: []string{models.ClientInactive, models.ClientTrial, models.ClientSuspended}, To: models.ClientActive},
		ActionSuspend:    {From: []string{models.ClientActive, models.ClientTrial}, To: models.ClientSuspended},
		ActionDeactivate: {From: []string{models.ClientActive, models.ClientTrial, models.ClientSuspended}, To: models.ClientInactive},
	},
	models.KindWorker: {
		ActionActivate:   {From: []string{models.WorkerInactive, models.WorkerSuspended}, To: models.WorkerActive},
		ActionSuspend:    {From: []string{models.WorkerActive}, To: models.WorkerSuspended},
		ActionDeactivate: {From: []string{models.WorkerActive, models.WorkerSuspended}, To: models.WorkerInactive},
	},
	models.KindJob: {
		ActionPublish: {From: []string{models.JobDraft}, To: models.JobOpen},
		ActionFill:    {From: []string{models.JobOpen}, To: models.JobFilled},
		ActionClose:   {From: []string{models.JobDraft, models.JobOpen, models.JobFilled}, To: models.JobClosed},
	},
	models.KindDocument: {
		ActionApprove: {From: []string{models.DocumentPendingReview}, To: models.DocumentValid},
		ActionReject:  {From: []string{models.DocumentPendingReview}, To: models.DocumentExpired},
		ActionExpire:  {From: []string{models.DocumentValid}, To: models.DocumentExpired},
	},
	models.KindPayment: {
		ActionPay:  {From: []string{models.PaymentPending}, To: models.PaymentPaid},
		ActionFail: {From: []string{models.PaymentPending}, To: models.PaymentFailed},
	},
	models.KindReferral: {
		ActionComplete: {From: []string{models.ReferralRegistered}, To: models.ReferralCompleted},
		ActionExpire:   {From: []string{models.ReferralPending, models.ReferralSent}, To: models.ReferralExpired},
	},
}

// Target returns the status a record of kind in status current moves to under action.
func (tb Table) Target(kind models.Kind, action Action, current string) (string, error) {
	tr, ok := tb[kind][action]
	if !ok {
		return "", fmt.Errorf("%w: %s cannot %s", ErrUndefinedTransition, kind, action)
	}
	enum, _ := models.StatusEnum(kind)
	canon, known := enum.Canonical(current)
	if !known || !slices.Contains(tr.From, canon) {
		return "", fmt.Errorf("%w: cannot %s %s in status %q", ErrUndefinedTransition, action, kind, current)
	}
	return tr.To, nil
}

// Actions lists the actions defined for kind, sorted.
func (tb Table) Actions(kind models.Kind) []Action {
	out := make([]Action, 0, len(tb[kind]))
	for a := range tb[kind] {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// Intent is a requested status change on one record.
type Intent struct {
	ID        string      `json:"id"`
	Kind      models.Kind `json:"kind"`
	RecordID  string      `json:"recordId"`
	Action    Action      `json:"action"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewIntent creates an intent with a fresh id.
func NewIntent(kind models.Kind, recordID string, action Action) Intent {
	return Intent{
		ID:        uuid.NewString(),
		Kind:      kind,
		RecordID:  recordID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
}

// Change is the outcome of an applied intent.
type Change struct {
	Intent Intent `json:"intent"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// Apply returns a copy of records with the intent's record moved to its
// target status. records is left untouched; on error it is returned as is.
func Apply[T models.Mutable[T]](tb Table, records []T, in Intent) ([]T, Change, error) {
	i := indexOf(records, in.RecordID)
	if i < 0 {
		return records, Change{}, fmt.Errorf("%w: %s %q", ErrUnknownRecord, in.Kind, in.RecordID)
	}
	from := records[i].RecordStatus()
	to, err := tb.Target(in.Kind, in.Action, from)
	if err != nil {
		return records, Change{}, err
	}
	return replace(records, i, records[i].WithStatus(to)), Change{Intent: in, From: from, To: to}, nil
}

// Revert returns a copy of records with the changed record restored to its
// status before the change. A record no longer in the change's target status
// was overwritten by fresher data and is left as it is.
func Revert[T models.Mutable[T]](records []T, ch Change) ([]T, error) {
	i := indexOf(records, ch.Intent.RecordID)
	if i < 0 {
		return records, fmt.Errorf("%w: %s %q", ErrUnknownRecord, ch.Intent.Kind, ch.Intent.RecordID)
	}
	if !holds(ch.Intent.Kind, records[i].RecordStatus(), ch.To) {
		return records, nil
	}
	return replace(records, i, records[i].WithStatus(ch.From)), nil
}

func holds(kind models.Kind, current, to string) bool {
	if enum, ok := models.StatusEnum(kind); ok {
		return enum.Bucket(current) == enum.Bucket(to)
	}
	return current == to
}

func indexOf[T models.Record](records []T, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(records, func(r T) bool { return r.RecordID() == id })
}

func replace[T any](records []T, i int, v T) []T {
	out := slices.Clone(records)
	out[i] = v
	return out
}
