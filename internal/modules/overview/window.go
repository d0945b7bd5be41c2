// Package overview assembles the month-by-month budget overview: actual
// category spend over a rolling window, forecast spend for future buckets,
// and a recursively predicted balance.
package overview

import (
	"github.com/mjwhite/moneta/internal/domain"
)

// BuildWindow returns the contiguous, strictly increasing sequence of
// calendar-month buckets from now-past to now+future inclusive, clipped at
// the epoch floor. Buckets before the epoch are never produced, so the
// result can be shorter than past+future+1.
func BuildWindow(past, future int, now, epoch domain.YearMonth) []domain.YearMonth {
	start := now.AddMonths(-past)
	if start.Before(epoch) {
		start = epoch
	}
	end := now.AddMonths(future)
	if end.Before(start) {
		return nil
	}

	window := make([]domain.YearMonth, 0, end.MonthsSince(start)+1)
	for ym := start; !ym.After(end); ym = ym.AddMonths(1) {
		window = append(window, ym)
	}
	return window
}

// FutureKey returns the index of the first bucket after the current month,
// i.e. the first bucket with no actual data. A window that ends on or before
// the current month has its future key past the end of the window.
func FutureKey(window []domain.YearMonth, now domain.YearMonth) int {
	if len(window) == 0 {
		return 0
	}
	return now.MonthsSince(window[0]) + 1
}
