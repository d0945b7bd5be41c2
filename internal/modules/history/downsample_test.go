package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepIndicesThirtySevenOverTen(t *testing.T) {
	// 37 generations at target 10: period = 3, so multiples of 3 plus the
	// forced final anchor, which here is a multiple anyway.
	keep := keepIndices(37, 10)

	expected := []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 33, 36}
	assert.Equal(t, expected, keep)
}

func TestKeepIndicesAlwaysAnchorsLast(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 10, 11, 37, 100, 101} {
		for _, target := range []int{1, 2, 5, 10, 100} {
			keep := keepIndices(n, target)
			require.NotEmpty(t, keep, "n=%d target=%d", n, target)
			assert.Equal(t, n-1, keep[len(keep)-1], "n=%d target=%d", n, target)
		}
	}
}

func TestKeepIndicesChronological(t *testing.T) {
	for _, n := range []int{1, 9, 37, 250} {
		keep := keepIndices(n, 10)
		for i := 1; i < len(keep); i++ {
			assert.Greater(t, keep[i], keep[i-1])
		}
	}
}

func TestKeepIndicesNoDownsamplingWhenInputFits(t *testing.T) {
	keep := keepIndices(5, 10)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, keep)
}

func TestKeepIndicesExactDivisorBound(t *testing.T) {
	// 100 over 10: period = 10, multiples 0..90 plus anchor 99.
	keep := keepIndices(100, 10)
	assert.Len(t, keep, 11)
	assert.Equal(t, 99, keep[len(keep)-1])
}

func TestKeepIndicesEmptyInput(t *testing.T) {
	assert.Empty(t, keepIndices(0, 10))
}
