package enums

import "fmt"

// WalletEntryType classifies an append-only wallet ledger entry.
//
// Every wallet balance mutation writes exactly one entry, so the entries
// reconstruct the balance history end to end.
type WalletEntryType string

const (
	WalletEntryTypePurchaseDebit  WalletEntryType = "purchase_debit"
	WalletEntryTypeRefundCredit   WalletEntryType = "refund_credit"
	WalletEntryTypeReferralBonus  WalletEntryType = "referral_bonus"
	WalletEntryTypeCashbackCredit WalletEntryType = "cashback_credit"
)

var validWalletEntryTypes = []WalletEntryType{
	WalletEntryTypePurchaseDebit,
	WalletEntryTypeRefundCredit,
	WalletEntryTypeReferralBonus,
	WalletEntryTypeCashbackCredit,
}

// String implements fmt.Stringer.
func (t WalletEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WalletEntryType.
func (t WalletEntryType) IsValid() bool {
	for _, candidate := range validWalletEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWalletEntryType converts raw input into a WalletEntryType.
func ParseWalletEntryType(value string) (WalletEntryType, error) {
	for _, candidate := range validWalletEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry type %q", value)
}
