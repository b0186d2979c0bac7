package enums

import "fmt"

// RentalScope distinguishes rentals of tracked fleet equipment from external
// bookings that carry no equipment reference.
type RentalScope string

const (
	RentalScopeInternal RentalScope = "Internal"
	RentalScopeExternal RentalScope = "External"
)

var validRentalScopes = []RentalScope{
	RentalScopeInternal,
	RentalScopeExternal,
}

// String implements fmt.Stringer.
func (r RentalScope) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RentalScope.
func (r RentalScope) IsValid() bool {
	for _, candidate := range validRentalScopes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRentalScope converts raw input into a RentalScope.
func ParseRentalScope(value string) (RentalScope, error) {
	for _, candidate := range validRentalScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental scope %q", value)
}
