package scoring

import (
	"testing"
	"time"

	"github.com/certen/independant-validator/pkg/relational"
)

func TestWeightedMeanEmptyCreditsIsZero(t *testing.T) {
	if got := WeightedMean(nil); got != 0 {
		t.Errorf("expected 0 for no credits, got %v", got)
	}
}

func TestWeightedMeanWeightsLaterCreditsMoreHeavily(t *testing.T) {
	early := &relational.Credit{AvgDelayDays: 5, CumulativeDelayDays: 10, IssuanceDate: date(2026, 1, 1)}
	late := &relational.Credit{AvgDelayDays: 200, CumulativeDelayDays: 300, IssuanceDate: date(2026, 6, 1)}

	mean := WeightedMean([]*relational.Credit{early, late})
	// early scores 1000, late scores 0; weights are 1/3 and 2/3
	// respectively, so the mean is 1000/3, closer to 0 than to 1000.
	want := 1000.0 / 3
	if mean < want-1e-9 || mean > want+1e-9 {
		t.Errorf("expected the later, lower-scoring credit to dominate the mean (want %v), got %v", want, mean)
	}
}

func TestWeightedMeanIsOrderIndependentOfInputSlice(t *testing.T) {
	a := &relational.Credit{AvgDelayDays: 5, CumulativeDelayDays: 10, IssuanceDate: date(2026, 1, 1)}
	b := &relational.Credit{AvgDelayDays: 20, CumulativeDelayDays: 50, IssuanceDate: date(2026, 3, 1)}

	forward := WeightedMean([]*relational.Credit{a, b})
	reversed := WeightedMean([]*relational.Credit{b, a})
	if forward != reversed {
		t.Errorf("expected WeightedMean to sort by issuance date regardless of input order: %v vs %v", forward, reversed)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
