// Package shift holds the cash accounting for one till session: opening cash,
// collected payments, outgoing discharges, and the running balance.
package shift

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nvoropaev/venue-till/internal/visitor"
)

var (
	// ErrShiftOpen is returned when opening while a shift is already open.
	ErrShiftOpen = errors.New("shift: a shift is already open")
	// ErrNoShift is returned for operations that require an open shift.
	ErrNoShift = errors.New("shift: no shift is open")
)

// Discharge is an outgoing cash event recorded during a shift.
type Discharge struct {
	Time   time.Time `json:"time"`
	Amount float64   `json:"amount"`
	Reason string    `json:"reason"`
}

// Shift is one till session's accounting period from open to close.
type Shift struct {
	OpeningCash     float64           `json:"opening_cash"`
	NominalCash     float64           `json:"nominal_cash"`
	Income          float64           `json:"income"`
	Outcome         float64           `json:"outcome"`
	Profit          float64           `json:"profit"`
	Departed        []visitor.Visitor `json:"departed_visitors"`
	Discharges      []Discharge       `json:"discharges"`
	ClosingRealCash float64           `json:"closing_real_cash"`
	User            string            `json:"user"`
	OpenedAt        time.Time         `json:"opened_at"`
	ClosedAt        time.Time         `json:"closed_at,omitempty"`
}

// Sink persists a closed shift. The ledger hands over a fully populated shift
// and treats any error as "not persisted": the shift stays open.
type Sink interface {
	SaveShift(ctx context.Context, s Shift) error
}

// Ledger is the process-wide accumulator for the one till currently staffed.
// At most one shift is open at a time.
type Ledger struct {
	mu      sync.Mutex
	open    *Shift
	closing bool
	now     func() time.Time
}

// NewLedger constructs a closed ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// WithNow allows tests to override the time provider.
func (l *Ledger) WithNow(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Open starts a new shift with the given opening cash.
func (l *Ledger) Open(openingCash float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open != nil {
		return ErrShiftOpen
	}
	l.open = &Shift{
		OpeningCash: openingCash,
		NominalCash: openingCash,
		Departed:    []visitor.Visitor{},
		Discharges:  []Discharge{},
		OpenedAt:    l.now(),
	}
	return nil
}

// IsOpen reports whether a shift is currently open.
func (l *Ledger) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open != nil
}

// Current returns a snapshot of the open shift.
func (l *Ledger) Current() (Shift, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == nil {
		return Shift{}, false
	}
	return l.snapshotLocked(), true
}

// RecordPayment appends a departed visitor and accumulates the collected
// amount. While the drawer is being counted for close no further movement is
// accepted.
func (l *Ledger) RecordPayment(v visitor.Visitor) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == nil || l.closing {
		return ErrNoShift
	}
	l.open.Departed = append(l.open.Departed, v)
	l.open.NominalCash += v.Paid
	l.open.Income += v.Paid
	l.open.Profit += v.Paid
	return nil
}

// RecordDischarge registers an outgoing cash payment. The balance may go
// negative; that is accepted business behaviour, not an error.
func (l *Ledger) RecordDischarge(amount float64, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == nil || l.closing {
		return ErrNoShift
	}
	l.open.NominalCash -= amount
	l.open.Outcome += amount
	l.open.Profit -= amount
	l.open.Discharges = append(l.open.Discharges, Discharge{
		Time:   l.now(),
		Amount: amount,
		Reason: reason,
	})
	return nil
}

// Close sets the counted real cash and owning user, persists the shift through
// the sink, and transitions to Closed. The mutex is not held across the sink
// call, so reads and other requests are never blocked on persistence I/O; the
// shift is marked as closing instead, which rejects further cash movement
// until the sink answers. If the sink fails the shift remains open and
// unmodified from the caller's perspective.
func (l *Ledger) Close(ctx context.Context, realCash float64, user string, sink Sink) (Shift, error) {
	l.mu.Lock()
	if l.open == nil || l.closing {
		l.mu.Unlock()
		return Shift{}, ErrNoShift
	}
	l.closing = true
	l.open.ClosingRealCash = realCash
	l.open.User = user
	l.open.ClosedAt = l.now()
	closed := l.snapshotLocked()
	l.mu.Unlock()

	err := sink.SaveShift(ctx, closed)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.closing = false
	if err != nil {
		l.open.ClosingRealCash = 0
		l.open.User = ""
		l.open.ClosedAt = time.Time{}
		return Shift{}, err
	}
	l.open = nil
	return closed, nil
}

func (l *Ledger) snapshotLocked() Shift {
	s := *l.open
	s.Departed = append([]visitor.Visitor(nil), l.open.Departed...)
	s.Discharges = append([]Discharge(nil), l.open.Discharges...)
	return s
}
