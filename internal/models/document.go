package models

// Document is a compliance document uploaded for a worker.
// ExpiryDate is zero for documents that never expire.
type Document struct {
	ID         string    `json:"id"`
	WorkerID   string    `json:"workerId"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	ExpiryDate Timestamp `json:"expiryDate"`
	UploadedAt Timestamp `json:"uploadedAt"`
}

func (d Document) RecordID() string     { return d.ID }
func (d Document) RecordStatus() string { return d.Status }

// WithStatus returns a copy of the document with status replaced.
func (d Document) WithStatus(status string) Document {
	d.Status = status
	return d
}
