package reconcile

import (
	"fmt"
	"sync"
)

// Ledger tracks optimistic changes awaiting confirmation from the gateway.
type Ledger struct {
	mu      sync.Mutex
	pending map[string]Change
	order   []string
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{pending: make(map[string]Change)}
}

// Add records a pending change.
func (l *Ledger) Add(ch Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.pending[ch.Intent.ID]; !ok {
		l.order = append(l.order, ch.Intent.ID)
	}
	l.pending[ch.Intent.ID] = ch
}

// Resolve removes and returns the change for intent id, whether it was
// confirmed or is about to be rolled back.
func (l *Ledger) Resolve(id string) (Change, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.pending[id]
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrUnknownIntent, id)
	}
	delete(l.pending, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return ch, nil
}

// Pending lists unresolved changes, oldest first.
func (l *Ledger) Pending() []Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Change, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.pending[id])
	}
	return out
}

// Len returns the number of unresolved changes.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
