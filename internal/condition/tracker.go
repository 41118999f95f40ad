package condition

import (
	"sync"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

// Tracker keeps the latest status of each field for a consumer that may
// receive statuses out of order.
type Tracker struct {
	mu     sync.RWMutex
	fields map[expr.Field]Status
}

func NewTracker() *Tracker {
	return &Tracker{fields: make(map[expr.Field]Status)}
}

// Apply stores s unless a newer status for the same field is already held.
func (t *Tracker) Apply(s Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.fields[s.Field]; ok && cur.Seq > s.Seq {
		return false
	}
	t.fields[s.Field] = s
	return true
}

// Get returns the validity of field, Untested if never seen.
func (t *Tracker) Get(field expr.Field) expr.Validity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.fields[field]; ok {
		return s.Validity
	}
	return expr.Untested()
}

// AllValid reports whether every listed field holds a Valid verdict.
func (t *Tracker) AllValid(fields ...expr.Field) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, f := range fields {
		if t.fields[f].Validity.State != expr.StateValid {
			return false
		}
	}
	return true
}

// Snapshot copies the current statuses.
func (t *Tracker) Snapshot() map[expr.Field]Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[expr.Field]Status, len(t.fields))
	for k, v := range t.fields {
		out[k] = v
	}
	return out
}
