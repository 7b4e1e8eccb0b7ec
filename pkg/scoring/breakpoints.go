package scoring

// avgDelayBreakpoints/avgDelayScores and cumDelayBreakpoints/cumDelayScores
// implement the piecewise-constant per-credit scoring tables from spec.md
// section 4.4. Each breakpoints slice has one more entry than its paired
// scores slice: the breakpoints are ascending bin edges, and a value falls
// into the bin whose upper edge it does not exceed (falling back to the
// first score below the lowest edge and the last score above the highest).
var (
	avgDelayBreakpoints = []float64{0, 7, 15, 26, 31, 60, 90}
	avgDelayScores      = []float64{1000, 800, 600, 400, 100, 0}

	cumDelayBreakpoints = []float64{0, 20, 40, 69, 180, 250}
	cumDelayScores      = []float64{1000, 700, 400, 200, 0}
)

// fulfilledAgreementsBonus is added to a credit's score when every agreement
// on the credit was fulfilled and the credit's score is non-zero.
const fulfilledAgreementsBonus = 50

// piecewiseScore maps value through an ascending set of bin edges to its
// corresponding score, per the table semantics documented above.
func piecewiseScore(breakpoints, scores []float64, value float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	if value <= breakpoints[0] {
		return scores[0]
	}
	for i := 1; i < len(breakpoints); i++ {
		if value <= breakpoints[i] {
			return scores[i-1]
		}
	}
	return scores[len(scores)-1]
}
