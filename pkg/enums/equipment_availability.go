package enums

import "fmt"

// EquipmentAvailability reflects whether a fleet asset can be booked.
type EquipmentAvailability string

const (
	EquipmentAvailable   EquipmentAvailability = "Available"
	EquipmentReserved    EquipmentAvailability = "Reserved"
	EquipmentUnavailable EquipmentAvailability = "Unavailable"
)

var validEquipmentAvailabilities = []EquipmentAvailability{
	EquipmentAvailable,
	EquipmentReserved,
	EquipmentUnavailable,
}

// String implements fmt.Stringer.
func (e EquipmentAvailability) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EquipmentAvailability.
func (e EquipmentAvailability) IsValid() bool {
	for _, candidate := range validEquipmentAvailabilities {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEquipmentAvailability converts raw input into an EquipmentAvailability.
func ParseEquipmentAvailability(value string) (EquipmentAvailability, error) {
	for _, candidate := range validEquipmentAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid equipment availability %q", value)
}
