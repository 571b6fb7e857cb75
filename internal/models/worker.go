package models

import "strings"

// Worker is a person who can be assigned to jobs.
type Worker struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email,omitempty"`
	Rating        Number   `json:"rating"`
	CompletedJobs int      `json:"completedJobs"`
	Skills        []string `json:"skills,omitempty"`
	Status        string   `json:"status"`
}

func (w Worker) RecordID() string     { return w.ID }
func (w Worker) RecordStatus() string { return w.Status }

// WithStatus returns a copy of the worker with status replaced.
func (w Worker) WithStatus(status string) Worker {
	w.Status = status
	return w
}

// DisplayName joins the name fields, falling back to the email.
func (w Worker) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(w.FirstName) + " " + strings.TrimSpace(w.LastName))
	if name == "" {
		return w.Email
	}
	return name
}

// UnknownWorker is the placeholder joined in when a worker id is not in the snapshot.
func UnknownWorker(id string) Worker {
	return Worker{ID: id, FirstName: "Unknown", LastName: "Worker"}
}
