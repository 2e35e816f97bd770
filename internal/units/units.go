// Package units provides shared constants and validation for length units
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	Meters      = "m"
	Centimeters = "cm"
	Inches      = "in"
	Feet        = "ft"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Centimeters, Inches, Feet}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertLength converts a length in meters to the target units.
// All geometry is computed in meters.
func ConvertLength(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Centimeters:
		return meters * 100
	case Inches:
		return meters / 0.0254
	case Feet:
		return meters / 0.3048
	default:
		return meters // default to meters if unknown unit
	}
}

// FormatLength renders a length in meters with two decimals and the unit
// suffix, e.g. "0.25m" or "25.00cm". Unknown units fall back to meters.
func FormatLength(meters float64, targetUnits string) string {
	if !IsValid(targetUnits) {
		targetUnits = Meters
	}
	return fmt.Sprintf("%.2f%s", ConvertLength(meters, targetUnits), targetUnits)
}
