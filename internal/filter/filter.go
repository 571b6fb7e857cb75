// Package filter selects and orders denormalized records for display.
// Filtering never modifies the input collection.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/raphaelgruber/staffdash/internal/models"
)

// All is the status wildcard.
const All = "all"

var ErrUnknownSort = errors.New("unknown sort key")

// Spec is a set of predicates combined with logical AND.
// Zero fields are inactive. From and To bound the record date inclusively.
// Sort names a key; a leading "-" sorts it descending.
type Spec struct {
	Status string    `form:"status" json:"status,omitempty"`
	Query  string    `form:"q" json:"q,omitempty"`
	From   time.Time `form:"from" time_format:"2006-01-02" json:"from,omitzero"`
	To     time.Time `form:"to" time_format:"2006-01-02" json:"to,omitzero"`
	Sort   string    `form:"sort" json:"sort,omitempty"`
}

// Fields tells the filter how to read a record type.
type Fields[T any] struct {
	Enum   models.Enum
	Status func(T) string
	Text   []func(T) string
	Date   func(T) time.Time
	Sorts  map[string]Sort[T]
}

// Apply returns the records of in matching s, in snapshot order unless s.Sort is set.
func Apply[T any](in []T, f Fields[T], s Spec) ([]T, error) {
	var cmpFn func(a, b T) int
	if key := strings.TrimSpace(s.Sort); key != "" {
		sort, ok := f.Sorts[strings.TrimPrefix(key, "-")]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownSort, key)
		}
		cmpFn = sort.Asc
		if strings.HasPrefix(key, "-") {
			cmpFn = sort.Desc
		}
	}

	preds := predicates(f, s)
	out := make([]T, 0, len(in))
next:
	for _, r := range in {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	if cmpFn != nil {
		slices.SortStableFunc(out, cmpFn)
	}
	return out, nil
}

func predicates[T any](f Fields[T], s Spec) []func(T) bool {
	var preds []func(T) bool

	if status := strings.TrimSpace(s.Status); status != "" && !strings.EqualFold(status, All) && f.Status != nil {
		preds = append(preds, statusIs(f, status))
	}

	if q := strings.ToLower(strings.TrimSpace(s.Query)); q != "" {
		preds = append(preds, func(r T) bool {
			for _, text := range f.Text {
				if strings.Contains(strings.ToLower(text(r)), q) {
					return true
				}
			}
			return false
		})
	}

	if (!s.From.IsZero() || !s.To.IsZero()) && f.Date != nil {
		preds = append(preds, func(r T) bool {
			d := f.Date(r)
			if d.IsZero() {
				return false
			}
			if !s.From.IsZero() && d.Before(s.From) {
				return false
			}
			return s.To.IsZero() || !d.After(endOfDay(s.To))
		})
	}
	return preds
}

func statusIs[T any](f Fields[T], status string) func(T) bool {
	if len(f.Enum.Values()) == 0 {
		return func(r T) bool { return strings.EqualFold(strings.TrimSpace(f.Status(r)), status) }
	}
	want := f.Enum.Bucket(status)
	return func(r T) bool { return f.Enum.Bucket(f.Status(r)) == want }
}

// endOfDay widens a date-only bound to cover the whole day.
func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
