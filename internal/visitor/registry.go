// Package visitor tracks everyone currently on the premises. Records live in
// process memory for the lifetime of the server; a visitor leaves the registry
// only when their payment is finalized.
package visitor

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvoropaev/venue-till/internal/pricing"
)

// ErrNotFound is returned when no visitor with the given id is checked in.
var ErrNotFound = errors.New("visitor: not found")

// Visitor is a single check-in record. TimeOut, TimeDelta, and Price are zero
// until a checkout preview computes them; Paid is set only on finalization.
type Visitor struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	TimeIn    time.Time  `json:"time_in"`
	TimeOut   *time.Time `json:"time_out,omitempty"`
	TimeDelta float64    `json:"time_delta,omitempty"`
	Price     float64    `json:"price,omitempty"`
	Paid      float64    `json:"paid,omitempty"`
}

// Registry is the process-wide set of checked-in, unpaid visitors. It is
// deliberately a single shared map (one staffed terminal), guarded by a mutex
// because the HTTP server handles requests concurrently.
type Registry struct {
	mu       sync.Mutex
	visitors map[string]*Visitor
	now      func() time.Time
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		visitors: make(map[string]*Visitor),
		now:      time.Now,
	}
}

// WithNow allows tests to override the time provider.
func (r *Registry) WithNow(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// CheckIn records a new visitor and returns the created record.
func (r *Registry) CheckIn(name string) Visitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := &Visitor{
		ID:     uuid.NewString(),
		Name:   name,
		TimeIn: r.now(),
	}
	r.visitors[v.ID] = v
	return *v
}

// Peek returns a copy of the visitor record without modifying it.
func (r *Registry) Peek(id string) (Visitor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visitors[id]
	if !ok {
		return Visitor{}, false
	}
	return *v, true
}

// CheckoutPreview computes the charge for the visitor as of now without
// removing them. The preview may be repeated; each call recomputes from the
// current clock, so the displayed price never goes down.
func (r *Registry) CheckoutPreview(id string, hourlyRate float64) (Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visitors[id]
	if !ok {
		return Visitor{}, ErrNotFound
	}
	out := r.now()
	price, err := pricing.Quote(v.TimeIn, out, hourlyRate)
	if err != nil {
		return Visitor{}, err
	}
	v.TimeOut = &out
	v.TimeDelta = out.Sub(v.TimeIn).Seconds()
	v.Price = price
	return *v, nil
}

// FinalizeAndRemove removes the visitor from the registry, attaches the amount
// actually collected, and returns the record for the ledger. The id field is
// cleared; it has no meaning once the visitor has left.
func (r *Registry) FinalizeAndRemove(id string, paid float64) (Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visitors[id]
	if !ok {
		return Visitor{}, ErrNotFound
	}
	delete(r.visitors, id)
	departed := *v
	departed.ID = ""
	departed.Paid = paid
	return departed, nil
}

// List returns all checked-in visitors ordered by check-in time ascending.
func (r *Registry) List() []Visitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Visitor, 0, len(r.visitors))
	for _, v := range r.visitors {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeIn.Before(out[j].TimeIn) })
	return out
}

// Count reports how many visitors are currently checked in.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}
