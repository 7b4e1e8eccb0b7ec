package scoring

import "github.com/certen/independant-validator/pkg/relational"

// CreditScore computes a single credit's score per spec.md section 4.4:
// the mean of its avgDelayDays and cumulativeDelayDays piecewise scores,
// plus a fulfilled-agreements bonus when every agreement on the credit was
// honored and the base score is non-zero (a fully-lost credit earns no
// bonus for the agreements it happened to keep).
func CreditScore(c *relational.Credit) float64 {
	sAvg := piecewiseScore(avgDelayBreakpoints, avgDelayScores, c.AvgDelayDays)
	sCum := piecewiseScore(cumDelayBreakpoints, cumDelayScores, c.CumulativeDelayDays)
	score := (sAvg + sCum) / 2

	if score > 0 && c.TotalAgreements > 0 && c.FulfilledAgreements == c.TotalAgreements {
		score += fulfilledAgreementsBonus
	}
	return score
}
