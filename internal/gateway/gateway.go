// Package gateway provides access to the staffing platform's resource service.
package gateway

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/raphaelgruber/staffdash/internal/models"
)

// Collection is a resource collection exposed by the service.
type Collection string

const (
	Clients     Collection = "clients"
	Workers     Collection = "workers"
	Jobs        Collection = "jobs"
	Assignments Collection = "assignments"
	Timesheets  Collection = "timesheets"
	Documents   Collection = "documents"
	Payments    Collection = "payments"
	Referrals   Collection = "referrals"
)

// CollectionFor maps a record kind to its collection.
func CollectionFor(kind models.Kind) (Collection, bool) {
	switch kind {
	case models.KindClient:
		return Clients, true
	case models.KindWorker:
		return Workers, true
	case models.KindJob:
		return Jobs, true
	case models.KindAssignment:
		return Assignments, true
	case models.KindTimesheet:
		return Timesheets, true
	case models.KindDocument:
		return Documents, true
	case models.KindPayment:
		return Payments, true
	case models.KindReferral:
		return Referrals, true
	}
	return "", false
}

// Resources is the uniform list/get/create/update/delete surface of the service.
// Every call either returns the envelope's data or a *CallError.
type Resources interface {
	List(ctx context.Context, coll Collection, opts ListOptions) (Page[json.RawMessage], error)
	Get(ctx context.Context, coll Collection, id string) (json.RawMessage, error)
	Create(ctx context.Context, coll Collection, payload any) (json.RawMessage, error)
	Update(ctx context.Context, coll Collection, id string, payload any) (json.RawMessage, error)
	Delete(ctx context.Context, coll Collection, id string) error
}

// ListOptions scopes and pages a list request.
type ListOptions struct {
	Page    int
	Limit   int
	Filters map[string]string
}

// Owned returns options scoped to an owner, e.g. Owned("clientId", id, 100).
func Owned(field, id string, limit int) ListOptions {
	return ListOptions{Limit: limit, Filters: map[string]string{field: id}}
}

// Values encodes the options as query parameters.
func (o ListOptions) Values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	for k, val := range o.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Page is one page of a paginated collection.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`

	// Skipped counts items that could not be decoded into T.
	Skipped int `json:"-"`
}

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
}
