package scoring

import (
	"testing"

	"github.com/certen/independant-validator/pkg/relational"
)

func TestCreditScoreLowDelayIsMaxScore(t *testing.T) {
	c := &relational.Credit{AvgDelayDays: 5, CumulativeDelayDays: 10}
	if got := CreditScore(c); got != 1000 {
		t.Errorf("avgDelay=5 cumDelay=10: expected score 1000, got %v", got)
	}
}

func TestCreditScoreMidRangeDelay(t *testing.T) {
	c := &relational.Credit{AvgDelayDays: 20, CumulativeDelayDays: 50}
	got := CreditScore(c)
	if got <= 0 || got >= 1000 {
		t.Errorf("avgDelay=20 cumDelay=50: expected a mid-range score, got %v", got)
	}
}

func TestCreditScoreFulfilledBonusAppliesOnlyWhenAllFulfilled(t *testing.T) {
	withBonus := &relational.Credit{AvgDelayDays: 5, CumulativeDelayDays: 10, TotalAgreements: 4, FulfilledAgreements: 4}
	withoutBonus := &relational.Credit{AvgDelayDays: 5, CumulativeDelayDays: 10, TotalAgreements: 4, FulfilledAgreements: 3}

	if got := CreditScore(withBonus); got != 1050 {
		t.Errorf("expected bonus to apply, got %v", got)
	}
	if got := CreditScore(withoutBonus); got != 1000 {
		t.Errorf("expected no bonus for partial fulfillment, got %v", got)
	}
}

func TestCreditScoreBonusNeverAppliesToZeroScore(t *testing.T) {
	c := &relational.Credit{AvgDelayDays: 200, CumulativeDelayDays: 300, TotalAgreements: 1, FulfilledAgreements: 1}
	if got := CreditScore(c); got != 0 {
		t.Errorf("expected zero score with no bonus for a fully-delayed credit, got %v", got)
	}
}
