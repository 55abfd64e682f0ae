package numeric

import "math"

// pivotEpsilon is the magnitude below which a pivot is treated as singular.
// Elimination stops there instead of propagating Inf/NaN coefficients.
const pivotEpsilon = 1e-12

// PolyFit fits a least-squares polynomial of the given degree to (x, y) and
// returns coefficients ordered by ascending power. It returns nil when the
// inputs are mismatched, fewer than degree+1 points are available, or the
// normal equations are singular; callers treat nil as "insufficient data".
func PolyFit(x, y []float64, degree int) []float64 {
	if degree < 0 || len(x) != len(y) || len(x) < degree+1 {
		return nil
	}

	n := degree + 1

	// Design matrix X[i][j] = x[i]^j.
	design := make([][]float64, len(x))
	for i, xi := range x {
		row := make([]float64, n)
		pow := 1.0
		for j := 0; j < n; j++ {
			row[j] = pow
			pow *= xi
		}
		design[i] = row
	}

	// Normal equations XtX*c = Xty.
	xtx := make([][]float64, n)
	xty := make([]float64, n)
	for j := 0; j < n; j++ {
		xtx[j] = make([]float64, n)
		for k := 0; k < n; k++ {
			s := 0.0
			for i := range design {
				s += design[i][j] * design[i][k]
			}
			xtx[j][k] = s
		}
		s := 0.0
		for i := range design {
			s += design[i][j] * y[i]
		}
		xty[j] = s
	}

	return gaussianSolve(xtx, xty)
}

// PolyPredict evaluates the polynomial at x using Horner's method.
// Coefficients are ordered by ascending power.
func PolyPredict(coeffs []float64, x float64) float64 {
	result := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = result*x + coeffs[i]
	}
	return result
}

// gaussianSolve solves a*x = b in place via Gaussian elimination with partial
// pivoting. The row with the largest absolute value in the current column is
// selected before eliminating, bounding numerical error. A pivot below
// pivotEpsilon after pivoting means the system is singular; the solve fails
// and returns nil.
func gaussianSolve(a [][]float64, b []float64) []float64 {
	n := len(b)

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < pivotEpsilon {
			return nil
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	// Back substitution.
	coeffs := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		s := b[row]
		for k := row + 1; k < n; k++ {
			s -= a[row][k] * coeffs[k]
		}
		coeffs[row] = s / a[row][row]
	}
	return coeffs
}
