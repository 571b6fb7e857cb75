// Package gatewaytest provides an in-memory gateway.Resources for tests.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/raphaelgruber/staffdash/internal/gateway"
)

// Call records one request made against the fake.
type Call struct {
	Op         string
	Collection gateway.Collection
	ID         string
	Options    gateway.ListOptions
	Payload    any
}

type failRule struct {
	field, value string
	kind         error
}

// Fake is an in-memory resource service.
// Records are stored as JSON objects in insertion order.
type Fake struct {
	mu          sync.Mutex
	records     map[gateway.Collection][]map[string]any
	failures    map[gateway.Collection][]failRule
	updateFail  map[gateway.Collection]error
	gates       map[gateway.Collection]chan struct{}
	authExpired bool
	calls       []Call
	nextID      int
}

var _ gateway.Resources = (*Fake)(nil)

// New creates an empty fake.
func New() *Fake {
	return &Fake{
		records:    make(map[gateway.Collection][]map[string]any),
		failures:   make(map[gateway.Collection][]failRule),
		updateFail: make(map[gateway.Collection]error),
		gates:      make(map[gateway.Collection]chan struct{}),
	}
}

// Seed appends records to a collection. Records are anything that marshals to a JSON object.
func (f *Fake) Seed(coll gateway.Collection, records ...any) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			panic(fmt.Sprintf("gatewaytest: marshal seed: %v", err))
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			panic(fmt.Sprintf("gatewaytest: seed must be an object: %v", err))
		}
		f.records[coll] = append(f.records[coll], m)
	}
	return f
}

// Fail makes every list and get on coll fail with a transport error.
func (f *Fake) Fail(coll gateway.Collection) *Fake {
	return f.FailWhere(coll, "", "")
}

// FailWhere makes list calls on coll fail when filter field equals value.
func (f *Fake) FailWhere(coll gateway.Collection, field, value string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[coll] = append(f.failures[coll], failRule{field: field, value: value, kind: gateway.ErrTransport})
	return f
}

// FailUpdates makes update calls on coll fail with a transport error.
func (f *Fake) FailUpdates(coll gateway.Collection) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateFail[coll] = gateway.ErrTransport
	return f
}

// ExpireAuth makes every subsequent call fail with ErrAuthExpired.
func (f *Fake) ExpireAuth() *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authExpired = true
	return f
}

// Block makes list calls on coll wait until release is called or the context ends.
func (f *Fake) Block(coll gateway.Collection) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[coll] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gates[coll] == ch {
				delete(f.gates, coll)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns the calls made so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CountCalls returns how many calls of op hit coll.
func (f *Fake) CountCalls(op string, coll gateway.Collection) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op && c.Collection == coll {
			n++
		}
	}
	return n
}

// List returns the records matching every filter, honouring page and limit.
func (f *Fake) List(ctx context.Context, coll gateway.Collection, opts gateway.ListOptions) (gateway.Page[json.RawMessage], error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Op: "list", Collection: coll, Options: opts})
	gate := f.gates[coll]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return gateway.Page[json.RawMessage]{}, &gateway.CallError{Op: "list", Collection: coll, Kind: gateway.ErrTransport, Cause: ctx.Err()}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failure(coll, "list", opts.Filters); err != nil {
		return gateway.Page[json.RawMessage]{}, err
	}

	var matched []json.RawMessage
	for _, rec := range f.records[coll] {
		if matches(rec, opts.Filters) {
			b, _ := json.Marshal(rec)
			matched = append(matched, b)
		}
	}

	page, limit := opts.Page, opts.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = len(matched)
	}
	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	pages := 1
	if limit > 0 && len(matched) > 0 {
		pages = (len(matched) + limit - 1) / limit
	}

	items := append([]json.RawMessage{}, matched[start:end]...)
	return gateway.Page[json.RawMessage]{
		Items:   items,
		Total:   len(matched),
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: end < len(matched),
		HasPrev: page > 1,
	}, nil
}

// Get returns one record by id.
func (f *Fake) Get(_ context.Context, coll gateway.Collection, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "get", Collection: coll, ID: id})

	if err := f.failure(coll, "get", nil); err != nil {
		return nil, err
	}
	if i := f.indexOf(coll, id); i >= 0 {
		return json.Marshal(f.records[coll][i])
	}
	return nil, &gateway.CallError{Op: "get", Collection: coll, Status: 404, Kind: gateway.ErrNotFound}
}

// Create appends a record, assigning an id when the payload has none.
func (f *Fake) Create(_ context.Context, coll gateway.Collection, payload any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "create", Collection: coll, Payload: payload})

	if f.authExpired {
		return nil, &gateway.CallError{Op: "create", Collection: coll, Status: 401, Kind: gateway.ErrAuthExpired}
	}
	rec, err := toMap(payload)
	if err != nil {
		return nil, &gateway.CallError{Op: "create", Collection: coll, Kind: gateway.ErrTransport, Cause: err}
	}
	if _, ok := rec["id"]; !ok {
		f.nextID++
		rec["id"] = fmt.Sprintf("%s-%d", coll, f.nextID)
	}
	f.records[coll] = append(f.records[coll], rec)
	return json.Marshal(rec)
}

// Update merges payload fields into a record.
func (f *Fake) Update(_ context.Context, coll gateway.Collection, id string, payload any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "update", Collection: coll, ID: id, Payload: payload})

	if f.authExpired {
		return nil, &gateway.CallError{Op: "update", Collection: coll, Status: 401, Kind: gateway.ErrAuthExpired}
	}
	if kind := f.updateFail[coll]; kind != nil {
		return nil, &gateway.CallError{Op: "update", Collection: coll, Status: 500, Message: "injected failure", Kind: kind}
	}
	i := f.indexOf(coll, id)
	if i < 0 {
		return nil, &gateway.CallError{Op: "update", Collection: coll, Status: 404, Kind: gateway.ErrNotFound}
	}
	patch, err := toMap(payload)
	if err != nil {
		return nil, &gateway.CallError{Op: "update", Collection: coll, Kind: gateway.ErrTransport, Cause: err}
	}
	for k, v := range patch {
		f.records[coll][i][k] = v
	}
	return json.Marshal(f.records[coll][i])
}

// Delete removes a record.
func (f *Fake) Delete(_ context.Context, coll gateway.Collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "delete", Collection: coll, ID: id})

	if f.authExpired {
		return &gateway.CallError{Op: "delete", Collection: coll, Status: 401, Kind: gateway.ErrAuthExpired}
	}
	i := f.indexOf(coll, id)
	if i < 0 {
		return &gateway.CallError{Op: "delete", Collection: coll, Status: 404, Kind: gateway.ErrNotFound}
	}
	f.records[coll] = append(f.records[coll][:i], f.records[coll][i+1:]...)
	return nil
}

// Record returns the stored record with id, decoded into a map.
func (f *Fake) Record(coll gateway.Collection, id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(coll, id)
	if i < 0 {
		return nil, false
	}
	out := make(map[string]any, len(f.records[coll][i]))
	for k, v := range f.records[coll][i] {
		out[k] = v
	}
	return out, true
}

// failure returns the injected error for a call, if any. Caller must hold mu.
func (f *Fake) failure(coll gateway.Collection, op string, filters map[string]string) error {
	if f.authExpired {
		return &gateway.CallError{Op: op, Collection: coll, Status: 401, Kind: gateway.ErrAuthExpired}
	}
	for _, rule := range f.failures[coll] {
		if rule.field == "" || filters[rule.field] == rule.value {
			return &gateway.CallError{Op: op, Collection: coll, Status: 503, Message: "injected failure", Kind: rule.kind}
		}
	}
	return nil
}

// indexOf finds a record by id. Caller must hold mu.
func (f *Fake) indexOf(coll gateway.Collection, id string) int {
	for i, rec := range f.records[coll] {
		if fmt.Sprint(rec["id"]) == id {
			return i
		}
	}
	return -1
}

func matches(rec map[string]any, filters map[string]string) bool {
	for field, want := range filters {
		if want == "" {
			continue
		}
		if fmt.Sprint(rec[field]) != want {
			return false
		}
	}
	return true
}

func toMap(payload any) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
