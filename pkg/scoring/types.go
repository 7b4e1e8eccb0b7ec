package scoring

import "github.com/certen/independant-validator/pkg/relational"

// ClientNode is one client's scoring-relevant state for the social-graph
// adjustment pass. Per SPEC_FULL.md section 9, the referral forest this
// builds is an arena constructed fresh for each scoring run from
// ReferrerID — it is never persisted on the client record itself.
type ClientNode struct {
	ClientID uint64
	RecordID string
	Status   relational.ContactStatus
	// ReferrerID is this client's own referrer, or nil if unreferred.
	ReferrerID *uint64

	RawScore float64
	// LostFlag is true if any of this client's own credits is LOST.
	LostFlag bool
	// HasInProcessCredit is true if the client currently has a credit in
	// STARTED, PENDING or INACTIVE status (relational.CreditStatus.IsInProcess).
	HasInProcessCredit bool
	// LatestInProcessDelay is the avgDelayDays of the most recently issued
	// in-process credit, or 0 if there is none or it carries no delay.
	LatestInProcessDelay float64
}

// SocialParams tunes the magnitude of the social-graph adjustment. Spec.md
// names the mechanism (bonus below a delay-fraction threshold, decrement
// per delayed referral, zeroing cascades) but not the exact bonus/penalty
// magnitudes; these defaults were chosen to keep a single delayed referral
// from outweighing a referrer's own well-performing credit history, and
// are recorded as an Open Question resolution in DESIGN.md.
type SocialParams struct {
	// UmbralBonus is the delay-fraction threshold below which a referrer
	// earns a bonus for a given high-scoring, non-delayed referral.
	UmbralBonus float64
	// Incremento is added to adj per qualifying referral.
	Incremento float64
	// Decremento is subtracted from adj per delayed in-process referral.
	Decremento float64
	// AfectadoPenalty is subtracted from a non-lost referral's adj when a
	// sibling referral under the same referrer is lost.
	AfectadoPenalty float64
}

// DefaultSocialParams returns the values SPEC_FULL.md's scoring engine is
// wired with.
func DefaultSocialParams() SocialParams {
	return SocialParams{
		UmbralBonus:     0.2,
		Incremento:      0.05,
		Decremento:      0.1,
		AfectadoPenalty: 0.5,
	}
}

// Adjustment is the social-graph pass's per-client output: a relative
// adjustment factor plus the two audit flags the relational store's
// UpdateScore persists.
type Adjustment struct {
	Adj             float64
	ReferidoPerdido bool // this client (as a referrer) had a referral go LOST
	AfectadoPorRed  bool // this client was penalized by a sibling referral going LOST
	ForceZero       bool // this client, its own referrer, or one of its in-process referrals is lost
}
