package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantValid   bool
		wantValue   float64
		wantNaN     bool
		wantCoerced bool
	}{
		{"number", `12.5`, true, 12.5, false, false},
		{"numeric string", `"40"`, true, 40, false, false},
		{"null", `null`, false, 0, false, false},
		{"empty string", `""`, false, 0, false, false},
		{"negative", `-3`, true, -3, false, true},
		{"garbage string", `"twelve"`, true, 0, true, true},
		{"nan string", `"NaN"`, true, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if n.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", n.Valid, tt.wantValid)
			}
			if tt.wantNaN {
				if !math.IsNaN(n.Value) {
					t.Errorf("Value = %v, want NaN", n.Value)
				}
			} else if n.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", n.Value, tt.wantValue)
			}
			if _, coerced := n.Quantity(); coerced != tt.wantCoerced {
				t.Errorf("coerced = %v, want %v", coerced, tt.wantCoerced)
			}
		})
	}
}

func TestNumberQuantityNeverNegative(t *testing.T) {
	for _, v := range []float64{-1, math.Inf(1), math.Inf(-1), math.NaN(), 0, 7} {
		q, _ := N(v).Quantity()
		if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
			t.Errorf("Quantity(%v) = %v, want finite non-negative", v, q)
		}
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2024-03-01T10:00:00Z"`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"date only", `"2024-03-01"`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
		{"garbage", `"next tuesday"`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
			}
			if !ts.Time.Equal(tt.want) {
				t.Errorf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestTimestampKeepsUnparseableText(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"31/02/2025"`), &ts); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !ts.IsZero() || !ts.Invalid() || ts.Raw != "31/02/2025" {
		t.Errorf("got %+v, want zero time with raw text", ts)
	}

	if err := json.Unmarshal([]byte(`"2025-02-28"`), &ts); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if ts.Invalid() {
		t.Errorf("valid date reported invalid: %+v", ts)
	}

	if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if ts.Invalid() {
		t.Error("null reported invalid")
	}
}

func TestEnumBucket(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pending", AssignmentPending},
		{" Active ", AssignmentActive},
		{"COMPLETED", AssignmentCompleted},
		{"on-hold", StatusOther},
		{"", StatusOther},
	}

	for _, tt := range tests {
		if got := AssignmentStatuses.Bucket(tt.in); got != tt.want {
			t.Errorf("Bucket(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWorkerDisplayName(t *testing.T) {
	if got := UnknownWorker("w-9").DisplayName(); got != "Unknown Worker" {
		t.Errorf("UnknownWorker display name = %q", got)
	}
	w := Worker{Email: "sam@example.com"}
	if got := w.DisplayName(); got != "sam@example.com" {
		t.Errorf("display name fallback = %q", got)
	}
}
