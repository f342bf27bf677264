package geometry

// #region finite-diffs

// FiniteDiffs computes central first and second derivatives of the first n
// components of field, with boundary clamps: the first derivative at the
// two boundary indices (0 and n-1) uses a one-sided difference, and the
// second derivative is zero outside the interior (matching the spec's
// "boundary clamp at 1 and n" / "zero outside i=1, i=n", 0-indexed here).
func FiniteDiffs(field []float64, n int, h float64) (first, second []float64) {
	if n > len(field) {
		n = len(field)
	}
	first = make([]float64, n)
	second = make([]float64, n)
	if n == 0 {
		return first, second
	}
	if h == 0 {
		h = 1e-6
	}

	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			first[i] = (field[1] - field[0]) / h
		case i == n-1:
			first[i] = (field[n-1] - field[n-2]) / h
		default:
			first[i] = (field[i+1] - field[i-1]) / (2 * h)
		}

		if i == 0 || i == n-1 {
			second[i] = 0
			continue
		}
		second[i] = (field[i+1] - 2*field[i] + field[i-1]) / (h * h)
	}
	return first, second
}

// #endregion finite-diffs
