// Package aggregate reduces snapshot records to counts, sums, rates, and
// time-bucketed series. Functions never modify their inputs.
package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/raphaelgruber/staffdash/internal/models"
)

// Buckets partitions a collection by status.
// Every declared status has an entry, plus models.StatusOther.
type Buckets struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// CountByStatus places every record in exactly one bucket of enum.
func CountByStatus[T models.Record](enum models.Enum, records []T) Buckets {
	b := Buckets{Counts: make(map[string]int, len(enum.Values())+1)}
	for _, v := range enum.Values() {
		b.Counts[v] = 0
	}
	b.Counts[models.StatusOther] = 0
	for _, r := range records {
		b.Counts[enum.Bucket(r.RecordStatus())]++
	}
	b.Total = len(records)
	return b
}

// Count returns the size of one bucket.
func (b Buckets) Count(status string) int {
	return b.Counts[status]
}

// Sum adds up every bucket. It always equals Total.
func (b Buckets) Sum() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}

// Anomaly records a value that could not be used as sent: a quantity
// coerced to zero, or a date that could not be parsed.
type Anomaly struct {
	Kind     models.Kind `json:"kind"`
	RecordID string      `json:"recordId"`
	Field    string      `json:"field"`
	Raw      string      `json:"raw"`
}

func (a Anomaly) String() string {
	if a.Field == "expiryDate" {
		return fmt.Sprintf("%s %s: %s=%q unreadable, treated as no expiry", a.Kind, a.RecordID, a.Field, a.Raw)
	}
	return fmt.Sprintf("%s %s: %s=%s coerced to 0", a.Kind, a.RecordID, a.Field, a.Raw)
}

// Field reads one quantity from a record.
type Field[T any] struct {
	Name  string
	Value func(T) models.Number
}

// quantity returns the aggregate value of f on r, appending an anomaly when coerced.
func quantity[T models.Record](kind models.Kind, r T, f Field[T], anomalies *[]Anomaly) float64 {
	n := f.Value(r)
	v, coerced := n.Quantity()
	if coerced {
		*anomalies = append(*anomalies, Anomaly{
			Kind:     kind,
			RecordID: r.RecordID(),
			Field:    f.Name,
			Raw:      strconv.FormatFloat(n.Value, 'g', -1, 64),
		})
	}
	return v
}

// Sum adds f over records. Missing values count as zero; invalid ones are
// counted as zero and reported.
func Sum[T models.Record](kind models.Kind, records []T, f Field[T]) (float64, []Anomaly) {
	var (
		total     float64
		anomalies []Anomaly
	)
	for _, r := range records {
		total += quantity(kind, r, f, &anomalies)
	}
	return total, anomalies
}

// Cost adds hours × rate over records.
func Cost[T models.Record](kind models.Kind, records []T, hours, rate Field[T]) (float64, []Anomaly) {
	var (
		total     float64
		anomalies []Anomaly
	)
	for _, r := range records {
		h := quantity(kind, r, hours, &anomalies)
		total += h * quantity(kind, r, rate, &anomalies)
	}
	return total, anomalies
}

// Rate returns num/den clamped to [0, 1]; 0 when den is not positive.
func Rate(num, den float64) float64 {
	if den <= 0 || math.IsNaN(num) || math.IsNaN(den) || num <= 0 {
		return 0
	}
	r := num / den
	if r > 1 {
		return 1
	}
	return r
}

// Where returns the records matching every predicate, in order.
func Where[T any](records []T, preds ...func(T) bool) []T {
	out := make([]T, 0, len(records))
next:
	for _, r := range records {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// StatusIs matches records whose status buckets to status in enum.
func StatusIs[T models.Record](enum models.Enum, status string) func(T) bool {
	return func(r T) bool {
		return enum.Bucket(r.RecordStatus()) == status
	}
}

// DefaultExpiryWindow is the look-ahead for ExpiringSoon.
const DefaultExpiryWindow = 30 * 24 * time.Hour

// ExpiringSoon reports whether expiry lies in (now, now+window].
// A zero expiry never expires.
func ExpiringSoon(expiry, now time.Time, window time.Duration) bool {
	if expiry.IsZero() {
		return false
	}
	return expiry.After(now) && !expiry.After(now.Add(window))
}

// Overdue reports whether expiry is before now.
func Overdue(expiry, now time.Time) bool {
	return !expiry.IsZero() && expiry.Before(now)
}
