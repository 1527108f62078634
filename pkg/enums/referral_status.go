package enums

import "fmt"

// ReferralStatus tracks a referral link from signup to payout.
//
// Transitions only move forward: pending -> completed -> bonus_paid.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusBonusPaid ReferralStatus = "bonus_paid"
)

var validReferralStatuses = []ReferralStatus{
	ReferralStatusPending,
	ReferralStatusCompleted,
	ReferralStatusBonusPaid,
}

// String implements fmt.Stringer.
func (s ReferralStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ReferralStatus.
func (s ReferralStatus) IsValid() bool {
	for _, candidate := range validReferralStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReferralStatus converts raw input into a ReferralStatus.
func ParseReferralStatus(value string) (ReferralStatus, error) {
	for _, candidate := range validReferralStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid referral status %q", value)
}
