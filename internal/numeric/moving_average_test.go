package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		window   int
		expected []float64
	}{
		{
			name:     "nil series",
			series:   nil,
			window:   3,
			expected: nil,
		},
		{
			name:     "empty series",
			series:   []float64{},
			window:   3,
			expected: []float64{},
		},
		{
			name:     "window shrinks at the start",
			series:   []float64{10, 20, 30, 40, 50},
			window:   3,
			expected: []float64{10, 15, 20, 30, 40},
		},
		{
			name:     "window of one is identity",
			series:   []float64{3, 1, 4, 1, 5},
			window:   1,
			expected: []float64{3, 1, 4, 1, 5},
		},
		{
			name:     "window larger than series averages everything seen",
			series:   []float64{10, 20, 30},
			window:   10,
			expected: []float64{10, 15, 20},
		},
		{
			name:     "zero window treated as one",
			series:   []float64{7, 9},
			window:   0,
			expected: []float64{7, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MovingAverage(tt.series, tt.window)
			assert.Equal(t, len(tt.expected), len(result))
			for i := range tt.expected {
				assert.InDelta(t, tt.expected[i], result[i], 1e-9)
			}
		})
	}
}

func TestMovingAverageConstantSeriesIsIdempotent(t *testing.T) {
	series := []float64{42, 42, 42, 42, 42, 42}

	for _, window := range []int{1, 2, 3, 5, 10} {
		result := MovingAverage(series, window)
		for i, v := range result {
			assert.InDelta(t, 42.0, v, 1e-9, "window %d index %d", window, i)
		}
	}
}

func TestMovingAverageDoesNotMutateInput(t *testing.T) {
	series := []float64{1, 2, 3}
	MovingAverage(series, 2)
	assert.Equal(t, []float64{1, 2, 3}, series)
}
