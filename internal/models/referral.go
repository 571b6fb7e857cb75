package models

// Referral is a candidate referred by an existing worker.
type Referral struct {
	ID             string    `json:"id"`
	ReferrerID     string    `json:"referrerId"`
	CandidateName  string    `json:"candidateName,omitempty"`
	CandidateEmail string    `json:"candidateEmail,omitempty"`
	Status         string    `json:"status"`
	BonusAmount    Number    `json:"bonusAmount"`
	BonusStatus    string    `json:"bonusStatus"`
	CreatedAt      Timestamp `json:"createdAt"`
}

func (r Referral) RecordID() string     { return r.ID }
func (r Referral) RecordStatus() string { return r.Status }

// WithStatus returns a copy of the referral with status replaced.
func (r Referral) WithStatus(status string) Referral {
	r.Status = status
	return r
}
