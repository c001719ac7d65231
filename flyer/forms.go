package flyer

import (
	"math"
	"strconv"
	"strings"
)

// Fallbacks for numeric form input that does not parse. Page dimensions fall
// back to DefaultNumericFallback and layer coordinates to PositionFallback.
const (
	DefaultNumericFallback = 100.0
	PositionFallback       = 0.0
)

// LookupNumber reads a number typed into a form control. ok is false for
// anything that is not a finite number.
func LookupNumber(raw string) (v float64, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseNumber is LookupNumber with a fallback, so a layout never ends up with
// a missing field.
func ParseNumber(raw string, fallback float64) float64 {
	if v, ok := LookupNumber(raw); ok {
		return v
	}
	return fallback
}
