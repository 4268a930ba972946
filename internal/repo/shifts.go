package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nvoropaev/venue-till/internal/shift"
	"github.com/nvoropaev/venue-till/internal/visitor"
)

// ShiftRepo defines the persistence operations for closed shifts. The
// SaveShift method satisfies shift.Sink so the ledger can persist on close.
type ShiftRepo interface {
	// SaveShift inserts a closed shift with its visitor and discharge detail.
	SaveShift(ctx context.Context, s shift.Shift) error

	// List returns all persisted shifts, newest first.
	List(ctx context.Context) ([]shift.Shift, error)

	// LastClosingCash returns the real cash counted at the most recent close.
	// ok is false when no shift has ever been closed.
	LastClosingCash(ctx context.Context) (amount float64, ok bool, err error)
}

type pgShiftRepo struct {
	db db
}

// NewShiftRepo constructs a ShiftRepo backed by the provided db connection.
func NewShiftRepo(db db) ShiftRepo {
	return &pgShiftRepo{db: db}
}

func (r *pgShiftRepo) SaveShift(ctx context.Context, s shift.Shift) error {
	departed, err := json.Marshal(s.Departed)
	if err != nil {
		return fmt.Errorf("encode departed visitors: %w", err)
	}
	discharges, err := json.Marshal(s.Discharges)
	if err != nil {
		return fmt.Errorf("encode discharges: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO shifts (
			opening_cash, nominal_cash, income, outcome, profit,
			closing_real_cash, username, departed_visitors, discharges,
			opened_at, closed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.OpeningCash, s.NominalCash, s.Income, s.Outcome, s.Profit,
		s.ClosingRealCash, s.User, departed, discharges,
		s.OpenedAt, s.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("save shift: %w", err)
	}
	return nil
}

func (r *pgShiftRepo) List(ctx context.Context) ([]shift.Shift, error) {
	rows, err := r.db.Query(ctx, `
		SELECT opening_cash, nominal_cash, income, outcome, profit,
		       closing_real_cash, username, departed_visitors, discharges,
		       opened_at, closed_at
		FROM shifts
		ORDER BY closed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		var (
			s          shift.Shift
			departed   []byte
			discharges []byte
			openedAt   pgtype.Timestamptz
			closedAt   pgtype.Timestamptz
		)
		if err := rows.Scan(
			&s.OpeningCash, &s.NominalCash, &s.Income, &s.Outcome, &s.Profit,
			&s.ClosingRealCash, &s.User, &departed, &discharges,
			&openedAt, &closedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		if err := json.Unmarshal(departed, &s.Departed); err != nil {
			return nil, fmt.Errorf("decode departed visitors: %w", err)
		}
		if err := json.Unmarshal(discharges, &s.Discharges); err != nil {
			return nil, fmt.Errorf("decode discharges: %w", err)
		}
		if s.Departed == nil {
			s.Departed = []visitor.Visitor{}
		}
		if s.Discharges == nil {
			s.Discharges = []shift.Discharge{}
		}
		s.OpenedAt = timeFromPG(openedAt)
		s.ClosedAt = timeFromPG(closedAt)
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

func (r *pgShiftRepo) LastClosingCash(ctx context.Context) (float64, bool, error) {
	var amount float64
	err := r.db.QueryRow(ctx, `
		SELECT closing_real_cash
		FROM shifts
		ORDER BY closed_at DESC
		LIMIT 1`).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("last closing cash: %w", err)
	}
	return amount, true, nil
}
