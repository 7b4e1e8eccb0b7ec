package scoring

import (
	"testing"

	"github.com/certen/independant-validator/pkg/relational"
)

func TestCohortPopulationsSkipsMissingValues(t *testing.T) {
	amount := 100.0
	count := 2
	contacts := []*relational.Contact{
		{ClientID: 1, AvgCreditAmount: &amount, RealCreditCount: &count},
		{ClientID: 2},
	}

	avgAmounts, realCounts := cohortPopulations(contacts)
	if len(avgAmounts) != 1 || avgAmounts[0] != 100.0 {
		t.Errorf("expected exactly one recorded avg amount, got %v", avgAmounts)
	}
	if len(realCounts) != 1 || realCounts[0] != 2.0 {
		t.Errorf("expected exactly one recorded real count, got %v", realCounts)
	}
}

func TestLatestInProcessDelayIgnoresSettledCredits(t *testing.T) {
	credits := []*relational.Credit{
		{Status: relational.CreditPaid, AvgDelayDays: 99, IssuanceDate: date(2026, 1, 1)},
		{Status: relational.CreditStarted, AvgDelayDays: 12, IssuanceDate: date(2026, 2, 1)},
		{Status: relational.CreditPending, AvgDelayDays: 30, IssuanceDate: date(2026, 3, 1)},
	}

	if got := latestInProcessDelay(credits); got != 30 {
		t.Errorf("expected the latest in-process credit's delay (30), got %v", got)
	}
}

func TestLatestInProcessDelayNoneInProcessIsZero(t *testing.T) {
	credits := []*relational.Credit{
		{Status: relational.CreditPaid, AvgDelayDays: 99, IssuanceDate: date(2026, 1, 1)},
	}
	if got := latestInProcessDelay(credits); got != 0 {
		t.Errorf("expected 0 with no in-process credits, got %v", got)
	}
}
