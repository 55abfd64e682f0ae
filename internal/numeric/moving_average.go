package numeric

import "gonum.org/v1/gonum/stat"

// MovingAverage returns the sliding-window mean of series. The window shrinks
// at the left boundary rather than padding: out[0] equals series[0], out[1]
// averages the first two points, and so on until the window reaches full size.
// Pure function; the input slice is never modified.
func MovingAverage(series []float64, window int) []float64 {
	if series == nil {
		return nil
	}
	if window < 1 {
		window = 1
	}

	out := make([]float64, len(series))
	for i := range series {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = stat.Mean(series[start:i+1], nil)
	}
	return out
}
