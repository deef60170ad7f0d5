package analysis

import "math"

// maxScore is the rubric ceiling; judge values above it are discarded.
const maxScore = 100

// round1 rounds to one decimal place, half away from zero.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// avg is the mean of values within the rubric bound, rounded to one decimal.
// Empty input yields 0.
func avg(xs []float64) float64 {
	return meanWhere(xs, func(x float64) bool { return x <= maxScore })
}

// avgNonzero is avg with zeros excluded: for sentiment a zero means "no
// signal", not "most negative".
func avgNonzero(xs []float64) float64 {
	return meanWhere(xs, func(x float64) bool { return x > 0 && x <= maxScore })
}

func meanWhere(xs []float64, keep func(float64) bool) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) || !keep(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

// percent returns part/whole as a one-decimal percentage, 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}
