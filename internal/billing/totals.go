package billing

// Totals is the financial block embedded in quotes and vendor purchase
// orders. All fields are derived together through Recompute; a Totals whose
// grand total disagrees with its parts is a bug, never a valid state.
type Totals struct {
	SubTotal       float64   `json:"subTotal"`
	DiscountTotal  float64   `json:"discountTotal"`
	GSTApplied     bool      `json:"isGstApplied"`
	GSTRate        float64   `json:"gstRate"`
	GSTAmount      float64   `json:"gstAmount"`
	OtherTaxes     []TaxLine `json:"otherTax,omitempty"`
	OtherTaxAmount float64   `json:"otherTaxAmount"`
	GrandTotal     float64   `json:"grandTotal"`
}

// TaxableAmount is the base on which percentage taxes are computed. It is a
// required intermediate and is not persisted separately.
func (t Totals) TaxableAmount() float64 {
	return Round(t.SubTotal - t.DiscountTotal)
}

// RecomputeInput describes a requested change to a document's financials.
// A nil Lines means the caller does not intend to change line items: the
// previous subtotal and discount total are retained and only the tax pass
// runs. A nil OtherTaxes retains the previously declared tax lines.
type RecomputeInput struct {
	Lines      *[]RawLineItem
	GSTApplied bool
	GSTRate    Number
	OtherTaxes *[]RawTaxLine
}

// Recompute derives a fully consistent Totals from the previous state and
// the requested change, along with normalized line items when lines were
// supplied. This is the only sanctioned way to change monetary fields.
func Recompute(prev Totals, in RecomputeInput) (Totals, []LineItem, error) {
	next := Totals{GSTApplied: in.GSTApplied}

	var items []LineItem
	if in.Lines != nil {
		var err error
		items, next.SubTotal, next.DiscountTotal, err = NormalizeLineItems(*in.Lines)
		if err != nil {
			return Totals{}, nil, err
		}
	} else {
		next.SubTotal = prev.SubTotal
		next.DiscountTotal = prev.DiscountTotal
	}

	taxable := next.TaxableAmount()

	rawTaxes := rawTaxLines(prev, in)
	res := ComputeTaxes(taxable, in.GSTApplied, in.GSTRate, rawTaxes)

	next.GSTRate = res.GSTRate
	next.GSTAmount = res.GSTAmount
	next.OtherTaxes = res.OtherTaxes
	next.OtherTaxAmount = res.OtherTaxAmount
	next.GrandTotal = Round(taxable + res.GSTAmount + res.OtherTaxAmount)

	return next, items, nil
}

func rawTaxLines(prev Totals, in RecomputeInput) []RawTaxLine {
	if in.OtherTaxes != nil {
		return *in.OtherTaxes
	}
	if len(prev.OtherTaxes) == 0 {
		return nil
	}
	retained := make([]RawTaxLine, 0, len(prev.OtherTaxes))
	for _, t := range prev.OtherTaxes {
		retained = append(retained, RawTaxLine{Label: t.Label, Percent: Num(t.Percent)})
	}
	return retained
}

// RecomputePO derives vendor purchase order totals. GST applies to the
// subtotal directly; vendor POs carry no per-line discount and no ad-hoc
// taxes.
func RecomputePO(rows []RawPOLineItem, gstApplied bool, gstRate Number) (Totals, []LineItem, error) {
	items, subTotal, err := NormalizePOLineItems(rows)
	if err != nil {
		return Totals{}, nil, err
	}

	next := Totals{
		SubTotal:   subTotal,
		GSTApplied: gstApplied,
		GSTRate:    gstRate.Positive(DefaultGSTRate),
	}
	if gstApplied {
		next.GSTAmount = Round(subTotal * next.GSTRate / 100)
	}
	next.GrandTotal = Round(subTotal + next.GSTAmount)

	return next, items, nil
}
