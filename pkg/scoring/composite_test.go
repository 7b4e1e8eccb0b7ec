package scoring

import (
	"testing"

	"github.com/certen/independant-validator/pkg/relational"
)

func TestRawScoreZeroedByAnyLostCredit(t *testing.T) {
	amount := 5000.0
	count := 3
	contact := &relational.Contact{ClientID: 1, AvgCreditAmount: &amount, RealCreditCount: &count}
	credits := []*relational.Credit{
		{AvgDelayDays: 5, CumulativeDelayDays: 10},
		{AvgDelayDays: 5, CumulativeDelayDays: 10, LostFlag: true},
	}

	if got := RawScore(contact, credits, []float64{1000, 5000, 9000}, []float64{1, 3, 5}); got != 0 {
		t.Errorf("expected a lost credit to zero the client's raw score, got %v", got)
	}
}

func TestRawScoreWeightsQuartilesAndWeightedMean(t *testing.T) {
	amount := 9000.0
	count := 5
	contact := &relational.Contact{ClientID: 1, AvgCreditAmount: &amount, RealCreditCount: &count}
	credits := []*relational.Credit{
		{AvgDelayDays: 5, CumulativeDelayDays: 10},
	}

	got := RawScore(contact, credits, []float64{1000, 5000, 9000}, []float64{1, 3, 5})
	// top quartile for both beta and lambda (1000 each), perfect credit
	// history (weighted mean 1000): 0.1*1000 + 0.1*1000 + 0.8*1000 = 1000
	if got != 1000 {
		t.Errorf("expected top-quartile, perfect-history client to score 1000, got %v", got)
	}
}

func TestRawScoreMissingPopulationValuesDefaultToZero(t *testing.T) {
	contact := &relational.Contact{ClientID: 1}
	credits := []*relational.Credit{{AvgDelayDays: 5, CumulativeDelayDays: 10}}

	got := RawScore(contact, credits, nil, nil)
	// no AvgCreditAmount/RealCreditCount recorded: beta and lambda both
	// fall to the lowest bucket (250) against an empty population.
	want := weightLambda*250 + weightBeta*250 + weightW*1000
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
