// Package format renders scaled quantities and durations for display.
package format

import (
	"math"
	"strconv"
	"strings"

	"kitchenops/internal/scaling"
)

// FormatQuantity rounds q to two decimals and drops trailing zeros, so 2.5 renders as
// "2.5", 2.0 as "2" and 2.256 as "2.26".
func FormatQuantity(q float64) string {
	rounded := scaling.Round2(q)
	if rounded == 0 {
		return "0"
	}
	if rounded == math.Trunc(rounded) {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	text := strconv.FormatFloat(rounded, 'f', 2, 64)
	text = strings.TrimRight(text, "0")
	return strings.TrimSuffix(text, ".")
}

// FormatQuantityUnit joins a formatted quantity with its unit label.
func FormatQuantityUnit(q float64, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return FormatQuantity(q)
	}
	return FormatQuantity(q) + " " + unit
}
