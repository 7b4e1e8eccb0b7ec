package scoring

import "github.com/certen/independant-validator/pkg/relational"

// eligibleForReferralEffects reports whether a client, as a referrer, is
// in scope for the social-graph pass at all. Spec.md section 4.4 restricts
// the pass to clients whose own status is not STARTED, REJECTED, or
// INACTIVE.
func eligibleForReferralEffects(status relational.ContactStatus) bool {
	switch status {
	case relational.StatusStarted, relational.StatusRejected, relational.StatusInactive:
		return false
	default:
		return true
	}
}

// AdjustSocialGraph runs the single-pass social adjustment of spec.md
// section 4.4 / 9. For every client C eligible for referral effects (status
// not STARTED, REJECTED, or INACTIVE) with at least one referral currently
// in process, it looks at C's referred clients' in-process credits only
// (never recursing into a referral's own referrals) and:
//
//   - adds Incremento to C's adj for each non-delayed, high-scoring
//     referral (delayFraction(C) < UmbralBonus and referral.RawScore > 800)
//   - subtracts Decremento from C's adj for each referral currently delayed
//   - if any of C's in-process referrals is LOST, zeroes C's adj, force-
//     zeroes C's final score, marks C ReferidoPerdido, and penalizes every
//     other non-lost referral under C with AfectadoPenalty (AfectadoPorRed)
//
// A second pass then force-zeroes any client that is itself lost or whose
// own referrer is lost. Per the lost-credit dominance invariant (spec.md
// section 8), self-lost, referrer-lost, and any-referred-lost all force the
// adjusted score to exactly 0 — the first pass sets ForceZero for the
// referred-lost case, the second pass covers self-lost and referrer-lost.
// The whole computation reads only the raw scores captured in nodes — it
// never re-derives or propagates adjusted scores, which is what keeps this
// a single pass instead of a fixpoint over the forest.
func AdjustSocialGraph(nodes []*ClientNode, params SocialParams) map[uint64]*Adjustment {
	byID := make(map[uint64]*ClientNode, len(nodes))
	referredOf := make(map[uint64][]*ClientNode)
	for _, n := range nodes {
		byID[n.ClientID] = n
	}
	for _, n := range nodes {
		if n.ReferrerID != nil {
			referredOf[*n.ReferrerID] = append(referredOf[*n.ReferrerID], n)
		}
	}

	out := make(map[uint64]*Adjustment, len(nodes))
	for _, n := range nodes {
		out[n.ClientID] = &Adjustment{}
	}

	for _, c := range nodes {
		if !eligibleForReferralEffects(c.Status) {
			continue
		}

		var inProcess []*ClientNode
		for _, r := range referredOf[c.ClientID] {
			if r.HasInProcessCredit {
				inProcess = append(inProcess, r)
			}
		}
		if len(inProcess) == 0 {
			continue
		}

		var delayedCount int
		for _, r := range inProcess {
			if r.LatestInProcessDelay > 0 {
				delayedCount++
			}
		}
		delayFraction := float64(delayedCount) / float64(len(inProcess))

		adj := out[c.ClientID]
		for _, r := range inProcess {
			if delayFraction < params.UmbralBonus && r.RawScore > 800 {
				adj.Adj += params.Incremento
			}
			if r.LatestInProcessDelay > 0 {
				adj.Adj -= params.Decremento
			}
		}

		var anyLost bool
		for _, r := range inProcess {
			if r.LostFlag {
				anyLost = true
				break
			}
		}
		if anyLost {
			adj.Adj = 0
			adj.ReferidoPerdido = true
			adj.ForceZero = true
			for _, r := range inProcess {
				if !r.LostFlag {
					sibling := out[r.ClientID]
					sibling.Adj -= params.AfectadoPenalty
					sibling.AfectadoPorRed = true
				}
			}
		}
	}

	for _, n := range nodes {
		if n.LostFlag {
			out[n.ClientID].ForceZero = true
			continue
		}
		if n.ReferrerID != nil {
			if referrer, ok := byID[*n.ReferrerID]; ok && referrer.LostFlag {
				out[n.ClientID].ForceZero = true
			}
		}
	}

	return out
}

// clip bounds v to [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FinalScore applies an Adjustment to a client's raw score, per spec.md
// section 4.4: adjusted = clip(raw*(1+adj), 0, 1000), forced to 0 if the
// client, its referrer, or one of its in-process referrals is lost.
func FinalScore(rawScore float64, adj *Adjustment) float64 {
	if adj.ForceZero {
		return 0
	}
	return clip(rawScore*(1+adj.Adj), 0, 1000)
}
