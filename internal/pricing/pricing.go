package pricing

// ItemInput represents the inputs of a single priced line.
type ItemInput struct {
	Quantity  float64
	UnitPrice float64
}

// GroupInput represents a titled group of lines inside a section.
type GroupInput struct {
	Items []ItemInput
}

// SectionInput represents a work category. A section rolls up either its
// groups or its flat items; Grouped selects which.
type SectionInput struct {
	Grouped bool
	Groups  []GroupInput
	Items   []ItemInput
}

// EstimateInput represents the whole estimate tree plus the tax rate.
type EstimateInput struct {
	Sections   []SectionInput
	PPNPercent float64
}

// SectionBreakdown holds the derived totals of one section. Groups and Items
// are indexed like the input.
type SectionBreakdown struct {
	Subtotal float64
	Groups   []float64
	Items    []float64
}

// Totals contains roll-up values of the whole estimate.
type Totals struct {
	Subtotal   float64
	PPNAmount  float64
	GrandTotal float64
}

// Result groups the full rollup output, including per-section breakdown and totals.
type Result struct {
	Sections []SectionBreakdown
	Totals   Totals
}

// ItemTotal is quantity × unit price.
func ItemTotal(item ItemInput) float64 {
	return item.Quantity * item.UnitPrice
}

// GroupSubtotal sums the item totals of a group.
func GroupSubtotal(group GroupInput) float64 {
	var sum float64
	for _, item := range group.Items {
		sum += ItemTotal(item)
	}
	return sum
}

// SectionSubtotal sums the groups of a grouped section, else its flat items.
func SectionSubtotal(section SectionInput) float64 {
	return breakdown(section).Subtotal
}

// PPNAmount applies the tax percentage to a subtotal. Negative rates count as 0.
func PPNAmount(subtotal, ppnPercent float64) float64 {
	if ppnPercent < 0 {
		ppnPercent = 0
	}
	return subtotal * ppnPercent / 100.0
}

// Calculate computes every derived total of an estimate.
func Calculate(estimate EstimateInput) Result {
	sections := make([]SectionBreakdown, len(estimate.Sections))

	var subtotal float64
	for i, section := range estimate.Sections {
		sections[i] = breakdown(section)
		subtotal += sections[i].Subtotal
	}

	ppn := PPNAmount(subtotal, estimate.PPNPercent)

	return Result{
		Sections: sections,
		Totals: Totals{
			Subtotal:   subtotal,
			PPNAmount:  ppn,
			GrandTotal: subtotal + ppn,
		},
	}
}

func breakdown(section SectionInput) SectionBreakdown {
	var out SectionBreakdown
	if section.Grouped {
		out.Groups = make([]float64, len(section.Groups))
		for i, group := range section.Groups {
			out.Groups[i] = GroupSubtotal(group)
			out.Subtotal += out.Groups[i]
		}
		return out
	}

	out.Items = make([]float64, len(section.Items))
	for i, item := range section.Items {
		out.Items[i] = ItemTotal(item)
		out.Subtotal += out.Items[i]
	}
	return out
}
