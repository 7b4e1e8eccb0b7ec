package scoring

import (
	"testing"

	"github.com/certen/independant-validator/pkg/relational"
)

func u64(v uint64) *uint64 { return &v }

func TestAdjustSocialGraphBonusForHighScoringUndelayedReferral(t *testing.T) {
	referrer := &ClientNode{ClientID: 1, RawScore: 500}
	referred := &ClientNode{ClientID: 2, ReferrerID: u64(1), RawScore: 900, HasInProcessCredit: true}

	adj := AdjustSocialGraph([]*ClientNode{referrer, referred}, DefaultSocialParams())

	if adj[1].Adj <= 0 {
		t.Errorf("expected a positive bonus for referrer 1, got %v", adj[1].Adj)
	}
	if adj[2].Adj != 0 {
		t.Errorf("expected no adjustment on the referred client itself, got %v", adj[2].Adj)
	}
}

func TestAdjustSocialGraphPenalizesDelayedReferral(t *testing.T) {
	referrer := &ClientNode{ClientID: 1, RawScore: 500}
	referred := &ClientNode{ClientID: 2, ReferrerID: u64(1), RawScore: 900, HasInProcessCredit: true, LatestInProcessDelay: 15}

	adj := AdjustSocialGraph([]*ClientNode{referrer, referred}, DefaultSocialParams())

	if adj[1].Adj >= 0 {
		t.Errorf("expected a negative adjustment for referrer 1 with a delayed referral, got %v", adj[1].Adj)
	}
}

func TestAdjustSocialGraphLostReferralZeroesReferrerAdjAndPenalizesSiblings(t *testing.T) {
	referrer := &ClientNode{ClientID: 1, RawScore: 500}
	lost := &ClientNode{ClientID: 2, ReferrerID: u64(1), RawScore: 0, HasInProcessCredit: true, LostFlag: true}
	sibling := &ClientNode{ClientID: 3, ReferrerID: u64(1), RawScore: 900, HasInProcessCredit: true}

	adj := AdjustSocialGraph([]*ClientNode{referrer, lost, sibling}, DefaultSocialParams())

	if adj[1].Adj != 0 || !adj[1].ReferidoPerdido {
		t.Errorf("expected referrer's adj zeroed and ReferidoPerdido set, got %+v", adj[1])
	}
	if !adj[1].ForceZero {
		t.Errorf("expected referrer's final score to be force-zeroed on a referred-lost, got %+v", adj[1])
	}
	if got := FinalScore(referrer.RawScore, adj[1]); got != 0 {
		t.Errorf("expected referrer's final score to be exactly 0 on a referred-lost, got %v", got)
	}
	if !adj[3].AfectadoPorRed || adj[3].Adj >= 0 {
		t.Errorf("expected sibling referral to be penalized, got %+v", adj[3])
	}
}

func TestAdjustSocialGraphSkipsIneligibleReferrerStatuses(t *testing.T) {
	for _, status := range []relational.ContactStatus{
		relational.StatusStarted, relational.StatusRejected, relational.StatusInactive,
	} {
		referrer := &ClientNode{ClientID: 1, RawScore: 500, Status: status}
		referred := &ClientNode{ClientID: 2, ReferrerID: u64(1), RawScore: 900, HasInProcessCredit: true}

		adj := AdjustSocialGraph([]*ClientNode{referrer, referred}, DefaultSocialParams())

		if adj[1].Adj != 0 {
			t.Errorf("status %s: expected no referral effects for an ineligible referrer, got adj %v", status, adj[1].Adj)
		}
	}
}

func TestAdjustSocialGraphForceZeroCascadesFromReferrer(t *testing.T) {
	lostReferrer := &ClientNode{ClientID: 1, RawScore: 500, LostFlag: true}
	referred := &ClientNode{ClientID: 2, ReferrerID: u64(1), RawScore: 900}

	adj := AdjustSocialGraph([]*ClientNode{lostReferrer, referred}, DefaultSocialParams())

	if !adj[1].ForceZero {
		t.Errorf("expected the lost client itself to force-zero")
	}
	if !adj[2].ForceZero {
		t.Errorf("expected a referral of a lost referrer to force-zero")
	}
}

func TestFinalScoreClipsToBounds(t *testing.T) {
	if got := FinalScore(900, &Adjustment{Adj: 0.5}); got != 1000 {
		t.Errorf("expected clip to 1000, got %v", got)
	}
	if got := FinalScore(500, &Adjustment{Adj: -10}); got != 0 {
		t.Errorf("expected clip to 0, got %v", got)
	}
	if got := FinalScore(500, &Adjustment{ForceZero: true, Adj: 0.9}); got != 0 {
		t.Errorf("expected ForceZero to override a positive adjustment, got %v", got)
	}
}
