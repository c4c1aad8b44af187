package gesture

import "math"

// kahanSum accumulates float64 values with error compensation so that long
// series of small samples do not lose precision to cancellation.
type kahanSum struct {
	sum float64
	c   float64
}

func (k *kahanSum) add(v float64) {
	y := v - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

// correlate computes the Pearson correlation coefficient between two series
// of equal length. It returns NaN when the series lengths differ, when both
// series are entirely zero (no variation to correlate), or when the
// denominator is zero.
func correlate(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}

	allZero := true
	for i := range a {
		if a[i] != 0 || b[i] != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return math.NaN()
	}

	var sumA, sumB, sumAB, sqSumA, sqSumB kahanSum
	for i := range a {
		sumA.add(a[i])
		sumB.add(b[i])
		sumAB.add(a[i] * b[i])
		sqSumA.add(a[i] * a[i])
		sqSumB.add(b[i] * b[i])
	}

	n := float64(len(a))
	numerator := sumAB.sum - sumA.sum*sumB.sum/n
	denominator := math.Sqrt((sqSumA.sum - sumA.sum*sumA.sum/n) *
		(sqSumB.sum - sumB.sum*sumB.sum/n))

	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

// CorrelateAxes computes the per-axis Pearson correlation between two traces
// of equal length. Result order is X, Y, Z.
func CorrelateAxes(a, b Trace) [3]float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	ax := make([]float64, n)
	bx := make([]float64, n)
	ay := make([]float64, n)
	by := make([]float64, n)
	az := make([]float64, n)
	bz := make([]float64, n)
	for i := 0; i < n; i++ {
		ax[i], ay[i], az[i] = a[i].X, a[i].Y, a[i].Z
		bx[i], by[i], bz[i] = b[i].X, b[i].Y, b[i].Z
	}

	return [3]float64{
		correlate(ax, bx),
		correlate(ay, by),
		correlate(az, bz),
	}
}
