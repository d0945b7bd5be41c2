// Package domain contains the core types shared across modules.
// It has no infrastructure dependencies beyond the decimal type used for
// fund units and prices.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// YearMonth identifies one calendar-month bucket.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// YearMonthFromTime returns the bucket containing t.
func YearMonthFromTime(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Cmp returns -1, 0 or 1 comparing ym against other chronologically.
func (ym YearMonth) Cmp(other YearMonth) int {
	switch {
	case ym.Year < other.Year:
		return -1
	case ym.Year > other.Year:
		return 1
	case ym.Month < other.Month:
		return -1
	case ym.Month > other.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether ym is strictly before other.
func (ym YearMonth) Before(other YearMonth) bool { return ym.Cmp(other) < 0 }

// After reports whether ym is strictly after other.
func (ym YearMonth) After(other YearMonth) bool { return ym.Cmp(other) > 0 }

// AddMonths returns the bucket n months after ym (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	months := ym.Year*12 + (ym.Month - 1) + n
	year := months / 12
	if months < 0 && (months%12) != 0 {
		year--
	}
	month := months - year*12 + 1
	return YearMonth{Year: year, Month: month}
}

// MonthsSince returns the number of months from other to ym.
// Positive when ym is later than other.
func (ym YearMonth) MonthsSince(other YearMonth) int {
	return (ym.Year-other.Year)*12 + ym.Month - other.Month
}

// String formats the bucket as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Date is a calendar date as entered by the user. Only the year and month
// take part in bucket arithmetic; the day is kept for display and ordering.
type Date struct {
	Year  int
	Month int
	Day   int
}

// YearMonth returns the bucket containing the date.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year, Month: d.Month}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is one buy (positive units) or sell (negative units) event on
// a fund. Cost is in minor currency units and is negative for sells.
type Transaction struct {
	Date  Date            `json:"date"`
	Units decimal.Decimal `json:"units"`
	Cost  int64           `json:"cost"`
}

// Fund is a holding with its transaction ledger. Transactions are kept in
// non-decreasing date order.
type Fund struct {
	ID           int64
	UID          int64
	Name         string
	Transactions []Transaction
}

// UnitsAt returns the cumulative units held at the end of the given bucket.
// Transactions dated after the bucket are excluded.
func (f Fund) UnitsAt(ym YearMonth) decimal.Decimal {
	units := decimal.Zero
	for _, tx := range f.Transactions {
		if !tx.Date.YearMonth().After(ym) {
			units = units.Add(tx.Units)
		}
	}
	return units
}

// CostAt returns the cumulative cost paid at the end of the given bucket.
func (f Fund) CostAt(ym YearMonth) int64 {
	var cost int64
	for _, tx := range f.Transactions {
		if !tx.Date.YearMonth().After(ym) {
			cost += tx.Cost
		}
	}
	return cost
}

// TotalUnits returns the net units over the whole ledger.
func (f Fund) TotalUnits() decimal.Decimal {
	units := decimal.Zero
	for _, tx := range f.Transactions {
		units = units.Add(tx.Units)
	}
	return units
}

// TotalCost returns the net cost over the whole ledger.
func (f Fund) TotalCost() int64 {
	var cost int64
	for _, tx := range f.Transactions {
		cost += tx.Cost
	}
	return cost
}
