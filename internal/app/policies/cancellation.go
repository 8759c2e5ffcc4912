package policies

import (
	"time"

	"staybook/internal/domain/reservation"
)

// Preset cancellation policy identifiers a listing can reference.
const (
	PolicyFlexible = "FLEXIBLE"
	PolicyModerate = "MODERATE"
	PolicyStrict   = "STRICT"
)

// CancellationTerms is the catalog entry behind a policy ID. The free
// window is expressed relative to check-in and resolved into an absolute
// deadline when the booking is requested.
type CancellationTerms struct {
	FreeWindowBeforeCheckIn   time.Duration
	PreCheckInPenaltyPercent  int
	PostCheckInPenaltyPercent int
}

// CancellationPolicies resolves a listing's policy ID into the snapshot
// frozen onto the reservation.
type CancellationPolicies struct {
	terms map[string]CancellationTerms
}

func DefaultCancellationPolicies() *CancellationPolicies {
	return &CancellationPolicies{terms: map[string]CancellationTerms{
		PolicyFlexible: {FreeWindowBeforeCheckIn: 24 * time.Hour, PreCheckInPenaltyPercent: 0, PostCheckInPenaltyPercent: 100},
		PolicyModerate: {FreeWindowBeforeCheckIn: 5 * 24 * time.Hour, PreCheckInPenaltyPercent: 50, PostCheckInPenaltyPercent: 100},
		PolicyStrict:   {FreeWindowBeforeCheckIn: 14 * 24 * time.Hour, PreCheckInPenaltyPercent: 100, PostCheckInPenaltyPercent: 100},
	}}
}

// Snapshot freezes the terms behind policyID for a stay starting at
// checkIn. Unknown or empty IDs fall back to a no-penalty snapshot.
func (c *CancellationPolicies) Snapshot(policyID string, checkIn time.Time) reservation.CancellationPolicySnapshot {
	terms, ok := c.terms[policyID]
	if !ok {
		return reservation.CancellationPolicySnapshot{}
	}
	snap := reservation.CancellationPolicySnapshot{
		PolicyID:                  policyID,
		PreCheckInPenaltyPercent:  terms.PreCheckInPenaltyPercent,
		PostCheckInPenaltyPercent: terms.PostCheckInPenaltyPercent,
	}
	if terms.FreeWindowBeforeCheckIn > 0 {
		snap.FreeCancellationUntil = checkIn.UTC().Add(-terms.FreeWindowBeforeCheckIn)
	}
	return snap
}
