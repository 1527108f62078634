package enums

import "fmt"

// Vendor names an external fulfillment provider.
type Vendor string

const (
	VendorVTPass      Vendor = "vtpass"
	VendorClubkonnect Vendor = "clubkonnect"
	VendorPayscribe   Vendor = "payscribe"
)

var validVendors = []Vendor{
	VendorVTPass,
	VendorClubkonnect,
	VendorPayscribe,
}

// String implements fmt.Stringer.
func (v Vendor) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Vendor.
func (v Vendor) IsValid() bool {
	for _, candidate := range validVendors {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVendor converts raw input into a Vendor.
func ParseVendor(value string) (Vendor, error) {
	for _, candidate := range validVendors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor %q", value)
}
