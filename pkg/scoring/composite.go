package scoring

import "github.com/certen/independant-validator/pkg/relational"

// Composite weights from spec.md section 4.4: the client's raw score is a
// weighted sum of a constant initial value, the realCreditCount quartile
// (lambda), the avgCreditAmount quartile (beta), and the triangular
// weighted mean of per-credit scores (W). initial itself carries zero
// weight in the current formula but stays named for when that changes.
const (
	initialScore = 500

	weightInitial = 0.0
	weightLambda  = 0.1
	weightBeta    = 0.1
	weightW       = 0.8
)

// RawScore computes a client's composite score before the social-graph
// adjustment pass, per spec.md section 4.4. avgAmountPopulation and
// realCountPopulation are the cohort's full distributions, used to locate
// contact's own values within their quartiles. A client with any lost
// credit scores 0 regardless of its other inputs.
func RawScore(contact *relational.Contact, credits []*relational.Credit, avgAmountPopulation, realCountPopulation []float64) float64 {
	for _, c := range credits {
		if c.LostFlag {
			return 0
		}
	}

	var avgAmount float64
	if contact.AvgCreditAmount != nil {
		avgAmount = *contact.AvgCreditAmount
	}
	var realCount float64
	if contact.RealCreditCount != nil {
		realCount = float64(*contact.RealCreditCount)
	}

	beta := QuartileScore(avgAmountPopulation, avgAmount)
	lambda := QuartileScore(realCountPopulation, realCount)
	w := WeightedMean(credits)

	return weightInitial*initialScore + weightLambda*lambda + weightBeta*beta + weightW*w
}
