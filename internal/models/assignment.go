package models

// Assignment places a worker on a client's job.
// Older records carry the rate in HourlyRate instead of Rate.
type Assignment struct {
	ID           string    `json:"id"`
	JobID        string    `json:"jobId"`
	WorkerID     string    `json:"workerId"`
	ClientID     string    `json:"clientId"`
	Status       string    `json:"status"`
	Rate         Number    `json:"rate"`
	HourlyRate   Number    `json:"hourlyRate"`
	HoursPerWeek Number    `json:"hoursPerWeek"`
	StartDate    Timestamp `json:"startDate"`
	EndDate      Timestamp `json:"endDate"`
}

func (a Assignment) RecordID() string     { return a.ID }
func (a Assignment) RecordStatus() string { return a.Status }

// WithStatus returns a copy of the assignment with status replaced.
func (a Assignment) WithStatus(status string) Assignment {
	a.Status = status
	return a
}

// EffectiveRate returns Rate when sent, else HourlyRate.
func (a Assignment) EffectiveRate() Number {
	if a.Rate.Present() {
		return a.Rate
	}
	return a.HourlyRate
}

// UnknownAssignment is the placeholder joined in when an assignment id is not in the snapshot.
func UnknownAssignment(id string) Assignment {
	return Assignment{ID: id}
}
