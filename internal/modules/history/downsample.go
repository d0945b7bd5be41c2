// Package history reduces the unbounded price-generation log to a bounded
// series of chart points.
package history

// keepIndices returns the 0-based sequence numbers to emit when reducing n
// chronological snapshots to roughly target points.
//
// period = floor(n / target), clamped to at least 1 (no downsampling when
// the input already fits). A snapshot is kept when its sequence number is a
// multiple of the period; the final snapshot is always kept so the chart
// ends on the current value exactly.
func keepIndices(n, target int) []int {
	if n <= 0 {
		return nil
	}
	if target < 1 {
		target = 1
	}

	period := n / target
	if period < 1 {
		period = 1
	}

	keep := make([]int, 0, n/period+1)
	for k := 0; k < n; k++ {
		if k%period == 0 || k == n-1 {
			keep = append(keep, k)
		}
	}
	return keep
}
