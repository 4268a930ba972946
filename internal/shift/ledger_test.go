package shift

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nvoropaev/venue-till/internal/visitor"
)

type sinkFunc func(ctx context.Context, s Shift) error

func (f sinkFunc) SaveShift(ctx context.Context, s Shift) error { return f(ctx, s) }

func TestOpenTwice(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Open(100); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ledger.Open(100); !errors.Is(err, ErrShiftOpen) {
		t.Fatalf("expected ErrShiftOpen, got %v", err)
	}
}

func TestOperationsRequireOpenShift(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.RecordPayment(visitor.Visitor{Paid: 10}); !errors.Is(err, ErrNoShift) {
		t.Fatalf("expected ErrNoShift, got %v", err)
	}
	if err := ledger.RecordDischarge(10, "supplies"); !errors.Is(err, ErrNoShift) {
		t.Fatalf("expected ErrNoShift, got %v", err)
	}
	if _, err := ledger.Close(context.Background(), 0, "kate", sinkFunc(func(context.Context, Shift) error { return nil })); !errors.Is(err, ErrNoShift) {
		t.Fatalf("expected ErrNoShift, got %v", err)
	}
}

func TestAccumulatorInvariants(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Open(100); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Scenario: Alice pays 10 after an hour, then 20 goes out for supplies.
	if err := ledger.RecordPayment(visitor.Visitor{Name: "Alice", Paid: 10}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	s, ok := ledger.Current()
	if !ok {
		t.Fatal("expected open shift")
	}
	if s.NominalCash != 110 || s.Income != 10 || s.Profit != 10 {
		t.Fatalf("after payment: nominal=%v income=%v profit=%v", s.NominalCash, s.Income, s.Profit)
	}

	if err := ledger.RecordDischarge(20, "supplies"); err != nil {
		t.Fatalf("discharge: %v", err)
	}
	s, _ = ledger.Current()
	if s.NominalCash != 90 || s.Outcome != 20 || s.Profit != -10 {
		t.Fatalf("after discharge: nominal=%v outcome=%v profit=%v", s.NominalCash, s.Outcome, s.Profit)
	}
	if s.Profit != s.Income-s.Outcome {
		t.Fatalf("profit invariant broken: %v != %v - %v", s.Profit, s.Income, s.Outcome)
	}
	if s.NominalCash != s.OpeningCash+s.Income-s.Outcome {
		t.Fatalf("nominal invariant broken: %v", s.NominalCash)
	}
	if len(s.Departed) != 1 || len(s.Discharges) != 1 {
		t.Fatalf("unexpected sequences: %d departed, %d discharges", len(s.Departed), len(s.Discharges))
	}
	if s.Discharges[0].Reason != "supplies" {
		t.Fatalf("unexpected reason %q", s.Discharges[0].Reason)
	}
}

func TestNominalCashMayGoNegative(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Open(10); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ledger.RecordDischarge(25, "float pickup"); err != nil {
		t.Fatalf("discharge: %v", err)
	}
	s, _ := ledger.Current()
	if s.NominalCash != -15 {
		t.Fatalf("expected -15, got %v", s.NominalCash)
	}
}

func TestCloseHandsPopulatedShiftToSink(t *testing.T) {
	ledger := NewLedger()
	closedAt := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)
	ledger.WithNow(func() time.Time { return closedAt })
	if err := ledger.Open(100); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ledger.RecordPayment(visitor.Visitor{Name: "Alice", Paid: 10}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	var saved Shift
	closed, err := ledger.Close(context.Background(), 108.5, "kate", sinkFunc(func(_ context.Context, s Shift) error {
		saved = s
		return nil
	}))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if saved.ClosingRealCash != 108.5 || saved.User != "kate" {
		t.Fatalf("sink received %+v", saved)
	}
	if !saved.ClosedAt.Equal(closedAt) {
		t.Fatalf("unexpected closed_at %v", saved.ClosedAt)
	}
	if closed.Income != 10 {
		t.Fatalf("unexpected income %v", closed.Income)
	}
	if ledger.IsOpen() {
		t.Fatal("ledger must be closed after successful persist")
	}
}

func TestCloseIsAtomicOnSinkFailure(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Open(100); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ledger.RecordPayment(visitor.Visitor{Paid: 10}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	boom := errors.New("db down")
	if _, err := ledger.Close(context.Background(), 110, "kate", sinkFunc(func(context.Context, Shift) error { return boom })); !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !ledger.IsOpen() {
		t.Fatal("shift must remain open when persistence fails")
	}
	s, _ := ledger.Current()
	if s.NominalCash != 110 || s.Income != 10 {
		t.Fatalf("totals changed on failed close: %+v", s)
	}
	if s.ClosingRealCash != 0 || s.User != "" || !s.ClosedAt.IsZero() {
		t.Fatalf("close fields leaked onto open shift: %+v", s)
	}

	// The shift is usable again: movement is accepted and a retry closes it.
	if err := ledger.RecordDischarge(5, "supplies"); err != nil {
		t.Fatalf("discharge after failed close: %v", err)
	}
	if _, err := ledger.Close(context.Background(), 105, "kate", sinkFunc(func(context.Context, Shift) error { return nil })); err != nil {
		t.Fatalf("retry close: %v", err)
	}
}

func TestCloseDoesNotBlockReadsOnSlowSink(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Open(100); err != nil {
		t.Fatalf("open: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := ledger.Close(context.Background(), 100, "kate", sinkFunc(func(context.Context, Shift) error {
			close(entered)
			<-release
			return nil
		}))
		done <- err
	}()

	<-entered
	snapshot := make(chan Shift, 1)
	go func() {
		s, _ := ledger.Current()
		snapshot <- s
	}()
	select {
	case s := <-snapshot:
		if s.OpeningCash != 100 {
			t.Fatalf("unexpected snapshot: %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("Current blocked while close awaited the persistence sink")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("close: %v", err)
	}
	if ledger.IsOpen() {
		t.Fatal("shift must be closed after the sink succeeds")
	}
}

func TestNoCashMovementWhileCloseInFlight(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Open(100); err != nil {
		t.Fatalf("open: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := ledger.Close(context.Background(), 100, "kate", sinkFunc(func(context.Context, Shift) error {
			close(entered)
			<-release
			return nil
		}))
		done <- err
	}()

	<-entered
	if err := ledger.RecordPayment(visitor.Visitor{Paid: 10}); !errors.Is(err, ErrNoShift) {
		t.Fatalf("payment during close: expected ErrNoShift, got %v", err)
	}
	if err := ledger.RecordDischarge(10, "supplies"); !errors.Is(err, ErrNoShift) {
		t.Fatalf("discharge during close: expected ErrNoShift, got %v", err)
	}
	if _, err := ledger.Close(context.Background(), 100, "kate", sinkFunc(func(context.Context, Shift) error { return nil })); !errors.Is(err, ErrNoShift) {
		t.Fatalf("second close during close: expected ErrNoShift, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Open(0); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ledger.RecordDischarge(1, "a"); err != nil {
		t.Fatalf("discharge: %v", err)
	}
	snap, _ := ledger.Current()
	snap.Discharges[0].Reason = "mutated"
	fresh, _ := ledger.Current()
	if fresh.Discharges[0].Reason != "a" {
		t.Fatal("snapshot shares backing array with ledger")
	}
}
