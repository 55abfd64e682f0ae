package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyFitRecoversExactQuadratic(t *testing.T) {
	// f(x) = 2x^2 - 3x + 5, sampled without noise.
	x := []float64{0, 1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = 2*xi*xi - 3*xi + 5
	}

	coeffs := PolyFit(x, y, 2)
	require.NotNil(t, coeffs)
	require.Len(t, coeffs, 3)

	assert.InDelta(t, 5.0, coeffs[0], 1e-6)
	assert.InDelta(t, -3.0, coeffs[1], 1e-6)
	assert.InDelta(t, 2.0, coeffs[2], 1e-6)
}

func TestPolyFitLinear(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{3, 5, 7, 9} // 2x + 1

	coeffs := PolyFit(x, y, 1)
	require.NotNil(t, coeffs)

	assert.InDelta(t, 1.0, coeffs[0], 1e-6)
	assert.InDelta(t, 2.0, coeffs[1], 1e-6)
}

func TestPolyFitInsufficientData(t *testing.T) {
	tests := []struct {
		name   string
		x      []float64
		y      []float64
		degree int
	}{
		{
			name:   "fewer points than degree+1",
			x:      []float64{1, 2},
			y:      []float64{1, 4},
			degree: 2,
		},
		{
			name:   "mismatched lengths",
			x:      []float64{1, 2, 3},
			y:      []float64{1, 4},
			degree: 1,
		},
		{
			name:   "negative degree",
			x:      []float64{1, 2, 3},
			y:      []float64{1, 4, 9},
			degree: -1,
		},
		{
			name:   "empty input",
			x:      nil,
			y:      nil,
			degree: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, PolyFit(tt.x, tt.y, tt.degree))
		})
	}
}

func TestPolyFitSingularSystemFailsExplicitly(t *testing.T) {
	// All x identical: the Vandermonde columns are linearly dependent and the
	// normal equations are singular. The fit must fail rather than return
	// Inf/NaN coefficients.
	x := []float64{2, 2, 2, 2}
	y := []float64{1, 2, 3, 4}

	coeffs := PolyFit(x, y, 2)
	assert.Nil(t, coeffs)
}

func TestPolyPredict(t *testing.T) {
	tests := []struct {
		name     string
		coeffs   []float64
		x        float64
		expected float64
	}{
		{
			name:     "constant",
			coeffs:   []float64{7},
			x:        100,
			expected: 7,
		},
		{
			name:     "quadratic at zero",
			coeffs:   []float64{5, -3, 2},
			x:        0,
			expected: 5,
		},
		{
			name:     "quadratic at three",
			coeffs:   []float64{5, -3, 2},
			x:        3,
			expected: 14, // 5 - 9 + 18
		},
		{
			name:     "empty coefficients",
			coeffs:   nil,
			x:        3,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PolyPredict(tt.coeffs, tt.x), 1e-9)
		})
	}
}

func TestPolyFitPredictRoundTrip(t *testing.T) {
	// Declining completion-rate shape used by the dropout model.
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{90, 85, 60, 40, 20}

	coeffs := PolyFit(x, y, 2)
	require.NotNil(t, coeffs)

	// A degree-2 fit to a monotonically declining series must predict a
	// declining trend across the observed positions.
	prev := PolyPredict(coeffs, 1)
	for _, xi := range []float64{2, 3, 4, 5} {
		next := PolyPredict(coeffs, xi)
		assert.Less(t, next, prev, "prediction at %v should decline", xi)
		prev = next
	}
}
