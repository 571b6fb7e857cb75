package models

// Job is a position posted by a client.
// Skills and Requirements keep the order the client entered them in.
type Job struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"clientId"`
	Title        string    `json:"title"`
	Location     string    `json:"location,omitempty"`
	Status       string    `json:"status"`
	SalaryMin    Number    `json:"salaryMin"`
	SalaryMax    Number    `json:"salaryMax"`
	Positions    int       `json:"positions"`
	Skills       []string  `json:"skills,omitempty"`
	Requirements []string  `json:"requirements,omitempty"`
	CreatedAt    Timestamp `json:"createdAt"`
}

func (j Job) RecordID() string     { return j.ID }
func (j Job) RecordStatus() string { return j.Status }

// WithStatus returns a copy of the job with status replaced.
func (j Job) WithStatus(status string) Job {
	j.Status = status
	return j
}

// UnknownJob is the placeholder joined in when a job id is not in the snapshot.
func UnknownJob(id string) Job {
	return Job{ID: id, Title: "Unknown Job"}
}
