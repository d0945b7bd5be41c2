package funds

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mjwhite/moneta/internal/domain"
)

// PricePoint is one price observation bucketed by the month it was scraped in.
type PricePoint struct {
	YearMonth domain.YearMonth
	Price     decimal.Decimal
}

// PriceSeries is a fund's price history in ascending chronological order.
type PriceSeries []PricePoint

// LatestAt returns the most recent price at or before the given bucket.
// The second return is false when no observation exists that early.
func (s PriceSeries) LatestAt(ym domain.YearMonth) (decimal.Decimal, bool) {
	// First index strictly after ym; the answer is the element before it.
	idx := sort.Search(len(s), func(i int) bool {
		return s[i].YearMonth.After(ym)
	})
	if idx == 0 {
		return decimal.Zero, false
	}
	return s[idx-1].Price, true
}

// ValueAt computes the value of a fund at the end of the given bucket, in
// minor currency units.
//
// Units held are summed over transactions dated at or before the bucket;
// later transactions never contribute. The price is the most recent
// observation at or before the bucket end. When no price has ever been
// scraped that early the value falls back to the cumulative cost of the same
// transactions - an approximation that neglects growth before the first
// observation, kept for continuity with historically displayed figures.
func ValueAt(f domain.Fund, ym domain.YearMonth, prices PriceSeries) int64 {
	price, ok := prices.LatestAt(ym)
	if !ok {
		return f.CostAt(ym)
	}
	units := f.UnitsAt(ym)
	return price.Mul(units).Round(0).IntPart()
}
