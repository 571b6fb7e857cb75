// Package models defines the staffing-platform records fetched from the resource service.
package models

// Kind names a record type the engine knows how to fetch, join, and mutate.
type Kind string

const (
	KindClient     Kind = "client"
	KindWorker     Kind = "worker"
	KindJob        Kind = "job"
	KindAssignment Kind = "assignment"
	KindTimesheet  Kind = "timesheet"
	KindDocument   Kind = "document"
	KindPayment    Kind = "payment"
	KindReferral   Kind = "referral"
)

// Record is implemented by every entity held in a snapshot.
type Record interface {
	RecordID() string
	RecordStatus() string
}

// Mutable records can produce a copy of themselves with a different status.
type Mutable[T any] interface {
	Record
	WithStatus(status string) T
}

// IDs returns the ids of records in order.
func IDs[T Record](records []T) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RecordID()
	}
	return ids
}
