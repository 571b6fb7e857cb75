// Package fetch issues batches of independent collection requests against the
// resource service and assembles their outcomes into typed results.
package fetch

import (
	"github.com/raphaelgruber/staffdash/internal/gateway"
)

// Result is the outcome of fetching one collection.
// A degraded result carries the failure in Err; its Items are empty, or
// partial for fan-out fetches where only some owners failed.
type Result[T any] struct {
	Collection   gateway.Collection `json:"collection"`
	Items        []T                `json:"items"`
	Total        int                `json:"total"`
	Truncated    bool               `json:"truncated,omitempty"`
	Skipped      int                `json:"skipped,omitempty"`
	FailedOwners []string           `json:"failedOwners,omitempty"`
	Err          error              `json:"-"`
}

// Ok builds a complete result.
func Ok[T any](coll gateway.Collection, items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Collection: coll, Items: items, Total: len(items)}
}

// Failed builds an empty degraded result.
func Failed[T any](coll gateway.Collection, err error) Result[T] {
	return Result[T]{Collection: coll, Items: []T{}, Err: err}
}

// Degraded reports whether any request behind this result failed.
func (r Result[T]) Degraded() bool {
	return r.Err != nil
}

// Records returns the fetched records; never nil.
func (r Result[T]) Records() []T {
	if r.Items == nil {
		return []T{}
	}
	return r.Items
}

// Get returns the records and whether the result is complete.
func (r Result[T]) Get() ([]T, bool) {
	return r.Records(), r.Err == nil
}

// WithItems returns a copy of the result holding items.
func (r Result[T]) WithItems(items []T) Result[T] {
	r.Items = items
	return r
}

// Degradation describes one degraded collection for display.
type Degradation struct {
	Collection   gateway.Collection `json:"collection"`
	Message      string             `json:"message"`
	FailedOwners []string           `json:"failedOwners,omitempty"`
}

// Describe returns the degradation of r, if any.
func (r Result[T]) Describe() (Degradation, bool) {
	if r.Err == nil {
		return Degradation{}, false
	}
	return Degradation{Collection: r.Collection, Message: r.Err.Error(), FailedOwners: r.FailedOwners}, true
}
