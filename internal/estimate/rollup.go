package estimate

import "github.com/Simplici0/rab/internal/pricing"

// Summary is the derived totals of an estimate at every level, keyed by id.
type Summary struct {
	Subtotal   float64
	PPNAmount  float64
	GrandTotal float64

	Sections map[string]float64
	Groups   map[string]float64
	Items    map[string]float64
}

// Summary returns the totals as of the last mutation.
func (e *Estimate) Summary() Summary {
	return e.summary
}

// Subtotal is the sum of all section subtotals.
func (e *Estimate) Subtotal() float64 { return e.summary.Subtotal }

// PPNAmount is the tax on the subtotal.
func (e *Estimate) PPNAmount() float64 { return e.summary.PPNAmount }

// GrandTotal is subtotal plus tax.
func (e *Estimate) GrandTotal() float64 { return e.summary.GrandTotal }

// SectionSubtotal returns the rolled-up total of one section.
func (e *Estimate) SectionSubtotal(sectionID string) (float64, error) {
	v, ok := e.summary.Sections[sectionID]
	if !ok {
		return 0, ErrSectionNotFound
	}
	return v, nil
}

// GroupSubtotal returns the rolled-up total of one group.
func (e *Estimate) GroupSubtotal(groupID string) (float64, error) {
	v, ok := e.summary.Groups[groupID]
	if !ok {
		return 0, ErrGroupNotFound
	}
	return v, nil
}

// Input converts the tree into the rollup's input shape.
func (e *Estimate) Input() pricing.EstimateInput {
	in := pricing.EstimateInput{
		PPNPercent: e.ppnPercent,
		Sections:   make([]pricing.SectionInput, len(e.sections)),
	}
	for i, s := range e.sections {
		switch body := s.Body().(type) {
		case *Flat:
			in.Sections[i] = pricing.SectionInput{Items: itemInputs(body.Items)}
		case *Grouped:
			groups := make([]pricing.GroupInput, len(body.Groups))
			for j, g := range body.Groups {
				groups[j] = pricing.GroupInput{Items: itemInputs(g.Items)}
			}
			in.Sections[i] = pricing.SectionInput{Grouped: true, Groups: groups}
		}
	}
	return in
}

func itemInputs(items []*LineItem) []pricing.ItemInput {
	out := make([]pricing.ItemInput, len(items))
	for i, it := range items {
		out[i] = pricing.ItemInput{Quantity: it.EffectiveQuantity(), UnitPrice: it.UnitPrice}
	}
	return out
}

// recompute refreshes every derived total. It runs at the end of each
// mutating method so readers never see stale values.
func (e *Estimate) recompute() {
	result := pricing.Calculate(e.Input())

	sum := Summary{
		Subtotal:   result.Totals.Subtotal,
		PPNAmount:  result.Totals.PPNAmount,
		GrandTotal: result.Totals.GrandTotal,
		Sections:   make(map[string]float64, len(e.sections)),
		Groups:     make(map[string]float64),
		Items:      make(map[string]float64),
	}

	for i, s := range e.sections {
		b := result.Sections[i]
		sum.Sections[s.ID] = b.Subtotal
		switch body := s.Body().(type) {
		case *Flat:
			for j, it := range body.Items {
				sum.Items[it.ID] = b.Items[j]
			}
		case *Grouped:
			for j, g := range body.Groups {
				sum.Groups[g.ID] = b.Groups[j]
				for _, it := range g.Items {
					sum.Items[it.ID] = it.LineTotal()
				}
			}
		}
	}

	e.summary = sum
}
