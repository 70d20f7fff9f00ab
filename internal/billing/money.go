// Package billing implements the financial computation core shared by
// quotes, invoices and vendor purchase orders: money rounding, line-item
// normalization, tax application and the totals recompute protocol.
package billing

import "math"

// Round rounds a monetary value to two decimal places, half away from zero
// at the cent boundary. Every stored amount passes through here exactly once
// per derivation step; per-line values are rounded first and the sum of
// rounded values is rounded again, never the other way around.
func Round(x float64) float64 {
	return math.Round(x*100) / 100
}
