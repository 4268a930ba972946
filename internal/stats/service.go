// Package stats assembles the admin statistics view over persisted shifts.
package stats

import (
	"context"
	"net/http"

	"github.com/nvoropaev/venue-till/internal/common"
	"github.com/nvoropaev/venue-till/internal/repo"
	"github.com/nvoropaev/venue-till/internal/shift"
)

// Totals aggregates cash movement across every persisted shift.
type Totals struct {
	Shifts   int     `json:"shifts"`
	Income   float64 `json:"income"`
	Outcome  float64 `json:"outcome"`
	Profit   float64 `json:"profit"`
	Visitors int     `json:"visitors"`
}

// Overview is the statistics payload: each closed shift with its full
// visitor and discharge detail, newest first, plus running totals.
type Overview struct {
	Shifts []shift.Shift `json:"shifts"`
	Totals Totals        `json:"totals"`
}

// Service reads closed shifts for the admin statistics view.
type Service struct {
	Shifts repo.ShiftRepo
}

// Overview loads every persisted shift and computes aggregate totals.
func (s Service) Overview(ctx context.Context) (Overview, error) {
	shifts, err := s.Shifts.List(ctx)
	if err != nil {
		return Overview{}, &common.AppError{
			Code:       "STATS_UNAVAILABLE",
			Message:    "could not load shift statistics",
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	}

	overview := Overview{Shifts: shifts}
	for _, sh := range shifts {
		overview.Totals.Shifts++
		overview.Totals.Income += sh.Income
		overview.Totals.Outcome += sh.Outcome
		overview.Totals.Profit += sh.Profit
		overview.Totals.Visitors += len(sh.Departed)
	}
	return overview, nil
}
