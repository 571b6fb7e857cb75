package aggregate

import (
	"fmt"
	"slices"
	"time"

	"github.com/raphaelgruber/staffdash/internal/models"
)

// UnknownPeriod collects records without a usable date.
const UnknownPeriod = "unknown"

// Period derives a bucket key from a date.
type Period func(time.Time) string

// Monthly keys dates as "2006-01".
func Monthly(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Weekly keys dates by ISO week, as "2006-W01".
func Weekly(t time.Time) string {
	y, w := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// Point is one period of a series.
type Point struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
	Count  int     `json:"count"`
}

// Series is a list of points ordered by period, with UnknownPeriod last.
type Series []Point

// Total adds every point. It equals Sum over the same records and field.
func (s Series) Total() float64 {
	var t float64
	for _, p := range s {
		t += p.Value
	}
	return t
}

// Get returns the point for period.
func (s Series) Get(period string) (Point, bool) {
	for _, p := range s {
		if p.Period == period {
			return p, true
		}
	}
	return Point{}, false
}

// ByPeriod groups records by period(date(r)) and sums f per group.
func ByPeriod[T models.Record](kind models.Kind, records []T, date func(T) time.Time, period Period, f Field[T]) (Series, []Anomaly) {
	var anomalies []Anomaly
	idx := make(map[string]int)
	var series Series
	for _, r := range records {
		key := UnknownPeriod
		if d := date(r); !d.IsZero() {
			key = period(d)
		}
		i, ok := idx[key]
		if !ok {
			i = len(series)
			idx[key] = i
			series = append(series, Point{Period: key})
		}
		series[i].Value += quantity(kind, r, f, &anomalies)
		series[i].Count++
	}
	slices.SortFunc(series, func(a, b Point) int {
		switch {
		case a.Period == b.Period:
			return 0
		case a.Period == UnknownPeriod:
			return 1
		case b.Period == UnknownPeriod:
			return -1
		case a.Period < b.Period:
			return -1
		}
		return 1
	})
	if series == nil {
		series = Series{}
	}
	return series, anomalies
}
