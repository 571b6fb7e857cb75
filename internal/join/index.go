// Package join cross-references fetched collections by foreign key and builds
// denormalized views. Every function here is pure: the same input collections
// always produce the same output, and inputs are never modified.
package join

import (
	"github.com/raphaelgruber/staffdash/internal/models"
)

// Index looks records up by id.
// When a collection carries a duplicate id the first occurrence wins.
type Index[T models.Record] struct {
	byID map[string]T
}

// NewIndex indexes records by id.
func NewIndex[T models.Record](records []T) Index[T] {
	ix := Index[T]{byID: make(map[string]T, len(records))}
	for _, r := range records {
		id := r.RecordID()
		if id == "" {
			continue
		}
		if _, dup := ix.byID[id]; !dup {
			ix.byID[id] = r
		}
	}
	return ix
}

// Lookup returns the record with id.
func (ix Index[T]) Lookup(id string) (T, bool) {
	v, ok := ix.byID[id]
	return v, ok
}

// Len returns the number of indexed records.
func (ix Index[T]) Len() int {
	return len(ix.byID)
}

// Ref is a resolved foreign key. When the target is not in the snapshot,
// Found is false and Value holds the kind's placeholder.
type Ref[T any] struct {
	ID    string `json:"id"`
	Found bool   `json:"found"`
	Value T      `json:"value"`
}

// Resolve looks id up in ix, substituting placeholder(id) on a miss.
func Resolve[T models.Record](ix Index[T], id string, placeholder func(string) T) Ref[T] {
	if v, ok := ix.Lookup(id); ok {
		return Ref[T]{ID: id, Found: true, Value: v}
	}
	return Ref[T]{ID: id, Value: placeholder(id)}
}

// Get returns the referenced value and whether it was found.
func (r Ref[T]) Get() (T, bool) {
	return r.Value, r.Found
}
