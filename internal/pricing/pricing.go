// Package pricing converts a visitor's elapsed time into a monetary charge.
package pricing

import (
	"errors"
	"math"
	"time"
)

// ErrNegativeInterval is returned when the checkout time precedes the check-in time.
var ErrNegativeInterval = errors.New("pricing: checkout precedes check-in")

// Quote computes the charge for the interval [timeIn, timeOut] at the given
// hourly rate, rounded down to the nearest half unit of currency.
func Quote(timeIn, timeOut time.Time, hourlyRate float64) (float64, error) {
	if timeOut.Before(timeIn) {
		return 0, ErrNegativeInterval
	}
	elapsed := timeOut.Sub(timeIn)
	return math.Floor(elapsed.Hours()*hourlyRate*2) / 2, nil
}
