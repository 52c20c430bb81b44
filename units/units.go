package units

import (
	"fmt"
	"math"
	"strconv"
)

// PointsPerInch is the typographic point definition used by font sizes
const PointsPerInch = 72

const millimetersPerInch = 25.4

// System selects how numeric geometry arguments are written to the printer
type System int

const (
	// Imperial writes bare numbers, interpreted as inches
	Imperial System = iota
	// Metric writes numbers followed by "mm"
	Metric
	// Dot writes numbers followed by "dot"
	Dot
)

// String returns the name of the unit system
func (s System) String() string {
	switch s {
	case Imperial:
		return "imperial"
	case Metric:
		return "metric"
	case Dot:
		return "dot"
	default:
		return fmt.Sprintf("System(%d)", int(s))
	}
}

// ParseSystem converts a unit system name to its value
func ParseSystem(name string) (System, error) {
	switch name {
	case "imperial", "inch":
		return Imperial, nil
	case "metric", "mm":
		return Metric, nil
	case "dot":
		return Dot, nil
	default:
		return 0, fmt.Errorf("unknown unit system %q", name)
	}
}

// FormatNumber writes a value in its shortest decimal form (50, 19.5)
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValueWithUnit formats a geometry value for the given unit system
func ValueWithUnit(v float64, s System) string {
	switch s {
	case Metric:
		return FormatNumber(v) + " mm"
	case Dot:
		return FormatNumber(v) + " dot"
	default:
		return FormatNumber(v)
	}
}

// DotToPoint converts dots at the given dpi to whole typographic points
func DotToPoint(dots float64, dpi int) int {
	inches := dots / float64(dpi)
	return int(math.Round(inches * PointsPerInch))
}

// PointsToDots converts typographic points to dots at the given dpi
func PointsToDots(points float64, dpi int) float64 {
	return points * float64(dpi) / PointsPerInch
}

// MillimetersToDots converts millimeters to dots at the given dpi
func MillimetersToDots(mm float64, dpi int) float64 {
	return mm / millimetersPerInch * float64(dpi)
}

// InchesToDots converts inches to dots at the given dpi
func InchesToDots(inches float64, dpi int) float64 {
	return inches * float64(dpi)
}

// ToDots converts a value expressed in the unit system to dots
func ToDots(v float64, s System, dpi int) float64 {
	switch s {
	case Metric:
		return MillimetersToDots(v, dpi)
	case Imperial:
		return InchesToDots(v, dpi)
	default:
		return v
	}
}

// SizePreserveAspect picks destination dimensions for a width x height source.
// A zero desired value is unset: when only one is set the other follows the
// source aspect ratio, when neither is set the source size is kept.
func SizePreserveAspect(width, height, desiredWidth, desiredHeight int) (int, int) {
	switch {
	case desiredWidth > 0 && desiredHeight > 0:
		return desiredWidth, desiredHeight
	case desiredHeight > 0:
		scale := float64(desiredHeight) / float64(height)
		return int(math.Round(float64(width) * scale)), desiredHeight
	case desiredWidth > 0:
		scale := float64(desiredWidth) / float64(width)
		return desiredWidth, int(math.Round(float64(height) * scale))
	default:
		return width, height
	}
}
