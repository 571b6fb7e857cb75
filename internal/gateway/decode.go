package gateway

import (
	"context"
	"encoding/json"
)

// ListAs fetches one page and decodes its items into T.
// Items that fail to decode are dropped and counted in Page.Skipped.
func ListAs[T any](ctx context.Context, r Resources, coll Collection, opts ListOptions) (Page[T], error) {
	raw, err := r.List(ctx, coll, opts)
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{
		Items:   make([]T, 0, len(raw.Items)),
		Total:   raw.Total,
		Page:    raw.Page,
		Limit:   raw.Limit,
		Pages:   raw.Pages,
		HasNext: raw.HasNext,
		HasPrev: raw.HasPrev,
		Skipped: raw.Skipped,
	}
	for _, item := range raw.Items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			page.Skipped++
			continue
		}
		page.Items = append(page.Items, v)
	}
	return page, nil
}

// GetAs fetches one record and decodes it into T.
func GetAs[T any](ctx context.Context, r Resources, coll Collection, id string) (T, error) {
	var v T
	raw, err := r.Get(ctx, coll, id)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &CallError{Op: "get", Collection: coll, Kind: ErrTransport, Cause: err}
	}
	return v, nil
}

// StatusPatch is the payload that moves a record to a new status.
type StatusPatch struct {
	Status string `json:"status"`
}
