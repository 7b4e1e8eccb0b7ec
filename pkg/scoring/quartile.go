package scoring

import "sort"

// quartileScores are the four possible outputs of QuartileScore, in
// ascending order of the quartile a value falls into.
var quartileScores = []float64{250, 500, 750, 1000}

// QuartileScore locates value's quartile within population (q1/q2/q3, linear
// interpolation) and returns the corresponding score from quartileScores.
// An empty population scores every value at the lowest bucket.
func QuartileScore(population []float64, value float64) float64 {
	if len(population) == 0 {
		return quartileScores[0]
	}

	sorted := make([]float64, len(population))
	copy(sorted, population)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 0.25)
	q2 := percentile(sorted, 0.50)
	q3 := percentile(sorted, 0.75)

	switch {
	case value <= q1:
		return quartileScores[0]
	case value <= q2:
		return quartileScores[1]
	case value <= q3:
		return quartileScores[2]
	default:
		return quartileScores[3]
	}
}

// percentile computes the p-th percentile (0<=p<=1) of an ascending-sorted
// slice via linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
