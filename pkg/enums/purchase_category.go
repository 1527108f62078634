package enums

import "fmt"

// PurchaseCategory identifies the kind of digital good being purchased.
type PurchaseCategory string

const (
	PurchaseCategoryData        PurchaseCategory = "data"
	PurchaseCategoryAirtime     PurchaseCategory = "airtime"
	PurchaseCategoryElectricity PurchaseCategory = "electricity"
	PurchaseCategoryTV          PurchaseCategory = "tv"
)

var validPurchaseCategories = []PurchaseCategory{
	PurchaseCategoryData,
	PurchaseCategoryAirtime,
	PurchaseCategoryElectricity,
	PurchaseCategoryTV,
}

// String implements fmt.Stringer.
func (c PurchaseCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known PurchaseCategory.
func (c PurchaseCategory) IsValid() bool {
	for _, candidate := range validPurchaseCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParsePurchaseCategory converts raw input into a PurchaseCategory.
func ParsePurchaseCategory(value string) (PurchaseCategory, error) {
	for _, candidate := range validPurchaseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase category %q", value)
}
