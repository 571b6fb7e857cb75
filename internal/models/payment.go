package models

import "time"

// Payment is a payout to a worker.
type Payment struct {
	ID           string    `json:"id"`
	WorkerID     string    `json:"workerId"`
	AssignmentID string    `json:"assignmentId,omitempty"`
	Amount       Number    `json:"amount"`
	NetAmount    Number    `json:"netAmount"`
	Hours        Number    `json:"hours"`
	Rate         Number    `json:"rate"`
	Status       string    `json:"status"`
	CreatedAt    Timestamp `json:"createdAt"`
	PaymentDate  Timestamp `json:"paymentDate"`
}

func (p Payment) RecordID() string     { return p.ID }
func (p Payment) RecordStatus() string { return p.Status }

// WithStatus returns a copy of the payment with status replaced.
func (p Payment) WithStatus(status string) Payment {
	p.Status = status
	return p
}

// EffectiveDate is PaymentDate when sent, else CreatedAt.
func (p Payment) EffectiveDate() time.Time {
	if !p.PaymentDate.IsZero() {
		return p.PaymentDate.Time
	}
	return p.CreatedAt.Time
}
