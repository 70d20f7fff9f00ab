package billing

// DefaultGSTRate is the GST percentage used when the client omits the rate
// or sends something unparseable.
const DefaultGSTRate = 18.0

// RawTaxLine is an ad-hoc tax as submitted by the client.
type RawTaxLine struct {
	Label   string `json:"tax"`
	Percent Number `json:"percent"`
}

// TaxLine is a normalized ad-hoc tax. Only the declared percent persists;
// the computed amount is aggregated into Totals.OtherTaxAmount.
type TaxLine struct {
	Label   string  `json:"tax"`
	Percent float64 `json:"percent"`
}

// TaxResult carries the outcome of a tax pass over a taxable base.
type TaxResult struct {
	GSTRate        float64
	GSTAmount      float64
	OtherTaxes     []TaxLine
	OtherTaxAmount float64
}

// ComputeTaxes applies GST and the ad-hoc tax lines to the taxable base.
// Each ad-hoc tax value is rounded individually and the sum is rounded
// again. The GST rate defaults only when absent or unparseable; an explicit
// zero is honored and charges no GST. Invalid percents coerce to 0 rather
// than failing; this mirrors the permissive numeric contract of the rest of
// the calculator.
func ComputeTaxes(taxableAmount float64, gstApplied bool, gstRate Number, otherTaxes []RawTaxLine) TaxResult {
	res := TaxResult{GSTRate: gstRate.Or(DefaultGSTRate)}

	if gstApplied {
		res.GSTAmount = Round(taxableAmount * res.GSTRate / 100)
	}

	if len(otherTaxes) > 0 {
		res.OtherTaxes = make([]TaxLine, 0, len(otherTaxes))
	}
	var otherSum float64
	for _, raw := range otherTaxes {
		percent := raw.Percent.Or(0)
		otherSum += Round(taxableAmount * percent / 100)
		res.OtherTaxes = append(res.OtherTaxes, TaxLine{Label: raw.Label, Percent: percent})
	}
	res.OtherTaxAmount = Round(otherSum)

	return res
}
