package scoring

import (
	"sort"

	"github.com/certen/independant-validator/pkg/relational"
)

// WeightedMean computes a client's raw per-credit aggregate: a triangular
// weighted mean of CreditScore over the client's credits, sorted by
// issuance date ascending and weighted 1, 2, ..., n (normalized by their
// sum) so the most recently issued credit counts most heavily. Returns 0
// for a client with no credits.
func WeightedMean(credits []*relational.Credit) float64 {
	n := len(credits)
	if n == 0 {
		return 0
	}

	sorted := make([]*relational.Credit, n)
	copy(sorted, credits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IssuanceDate.Before(sorted[j].IssuanceDate)
	})

	var weightSum float64
	for i := 1; i <= n; i++ {
		weightSum += float64(i)
	}

	var total float64
	for i, c := range sorted {
		weight := float64(i+1) / weightSum
		total += weight * CreditScore(c)
	}
	return total
}
