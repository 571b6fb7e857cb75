package models

import "time"

// Timesheet reports a worker's hours on an assignment for one week or day.
type Timesheet struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignmentId"`
	WorkerID     string    `json:"workerId"`
	ClientID     string    `json:"clientId"`
	WeekStarting Timestamp `json:"weekStarting"`
	Date         Timestamp `json:"date"`
	TotalHours   Number    `json:"totalHours"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
}

func (t Timesheet) RecordID() string     { return t.ID }
func (t Timesheet) RecordStatus() string { return t.Status }

// WithStatus returns a copy of the timesheet with status replaced.
func (t Timesheet) WithStatus(status string) Timesheet {
	t.Status = status
	return t
}

// PeriodStart is WeekStarting when sent, else Date.
func (t Timesheet) PeriodStart() time.Time {
	if !t.WeekStarting.IsZero() {
		return t.WeekStarting.Time
	}
	return t.Date.Time
}
