package enums

import "fmt"

// RentalStatus tracks the lifecycle of an equipment rental.
type RentalStatus string

const (
	RentalStatusReserved RentalStatus = "Reserved"
	RentalStatusActive   RentalStatus = "Active"
	RentalStatusReturned RentalStatus = "Returned"
	RentalStatusClosed   RentalStatus = "Closed"
)

var validRentalStatuses = []RentalStatus{
	RentalStatusReserved,
	RentalStatusActive,
	RentalStatusReturned,
	RentalStatusClosed,
}

// allowedRentalTransitions enumerates the legal status edges. Returned and
// Closed are terminal and never reopened.
var allowedRentalTransitions = map[RentalStatus][]RentalStatus{
	RentalStatusReserved: {RentalStatusActive, RentalStatusClosed},
	RentalStatusActive:   {RentalStatusReturned, RentalStatusClosed},
}

// String implements fmt.Stringer.
func (r RentalStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RentalStatus.
func (r RentalStatus) IsValid() bool {
	for _, candidate := range validRentalStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the rental lifecycle.
func (r RentalStatus) IsTerminal() bool {
	return r == RentalStatusReturned || r == RentalStatusClosed
}

// CanTransitionTo reports whether moving from the receiver to next is a legal
// status edge.
func (r RentalStatus) CanTransitionTo(next RentalStatus) bool {
	for _, candidate := range allowedRentalTransitions[r] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseRentalStatus converts raw input into a RentalStatus.
func ParseRentalStatus(value string) (RentalStatus, error) {
	for _, candidate := range validRentalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental status %q", value)
}
