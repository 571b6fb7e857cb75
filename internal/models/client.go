package models

// Client is a facility that posts jobs.
type Client struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"companyName"`
	Status       string    `json:"status"`
	Industry     string    `json:"industry,omitempty"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	CreatedAt    Timestamp `json:"createdAt"`
}

func (c Client) RecordID() string     { return c.ID }
func (c Client) RecordStatus() string { return c.Status }

// WithStatus returns a copy of the client with status replaced.
func (c Client) WithStatus(status string) Client {
	c.Status = status
	return c
}

// UnknownClient is the placeholder joined in when a client id is not in the snapshot.
func UnknownClient(id string) Client {
	return Client{ID: id, CompanyName: "Unknown Client"}
}
