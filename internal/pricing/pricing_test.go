package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCalculate_FlatSectionWithPPN(t *testing.T) {
	result := Calculate(EstimateInput{
		PPNPercent: 11,
		Sections: []SectionInput{
			{Items: []ItemInput{{Quantity: 10, UnitPrice: 15000}}},
		},
	})

	nearlyEqual(t, "item total", result.Sections[0].Items[0], 150000)
	nearlyEqual(t, "section subtotal", result.Sections[0].Subtotal, 150000)
	nearlyEqual(t, "subtotal", result.Totals.Subtotal, 150000)
	nearlyEqual(t, "ppn", result.Totals.PPNAmount, 16500)
	nearlyEqual(t, "grand total", result.Totals.GrandTotal, 166500)
}

func TestCalculate_GroupedSectionsSumGroups(t *testing.T) {
	result := Calculate(EstimateInput{
		Sections: []SectionInput{
			{
				Grouped: true,
				Groups: []GroupInput{
					{Items: []ItemInput{{Quantity: 2, UnitPrice: 100}, {Quantity: 1, UnitPrice: 50}}},
					{Items: []ItemInput{{Quantity: 4, UnitPrice: 25}}},
				},
				// Ignored for grouped sections.
				Items: []ItemInput{{Quantity: 1000, UnitPrice: 1000}},
			},
			{Items: []ItemInput{{Quantity: 3, UnitPrice: 10}}},
		},
	})

	nearlyEqual(t, "group 1", result.Sections[0].Groups[0], 250)
	nearlyEqual(t, "group 2", result.Sections[0].Groups[1], 100)
	nearlyEqual(t, "section 1", result.Sections[0].Subtotal, 350)
	nearlyEqual(t, "section 2", result.Sections[1].Subtotal, 30)
	nearlyEqual(t, "subtotal", result.Totals.Subtotal, 380)
	nearlyEqual(t, "grand total without ppn", result.Totals.GrandTotal, 380)
}

func TestCalculate_GrandTotalLaw(t *testing.T) {
	tests := []struct {
		name string
		ppn  float64
	}{
		{"zero ppn", 0},
		{"standard ppn", 11},
		{"fractional ppn", 12.5},
		{"above one hundred", 150},
	}

	input := EstimateInput{Sections: []SectionInput{
		{Items: []ItemInput{{Quantity: 1.25, UnitPrice: 80000}, {Quantity: 7, UnitPrice: 1234.5}}},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input.PPNPercent = tt.ppn
			got := Calculate(input)
			want := got.Totals.Subtotal + got.Totals.Subtotal*tt.ppn/100
			if math.Abs(got.Totals.GrandTotal-want) > 0.01 {
				t.Errorf("GrandTotal = %v, want %v", got.Totals.GrandTotal, want)
			}
		})
	}
}

func TestPPNAmount_NegativeRateCountsAsZero(t *testing.T) {
	nearlyEqual(t, "ppn", PPNAmount(1000, -10), 0)
}

func TestCalculate_EmptyEstimate(t *testing.T) {
	result := Calculate(EstimateInput{PPNPercent: 11})
	nearlyEqual(t, "grand total", result.Totals.GrandTotal, 0)
	if len(result.Sections) != 0 {
		t.Fatalf("expected no sections, got %d", len(result.Sections))
	}
}

func TestSectionSubtotal_EmptyGroupedSection(t *testing.T) {
	nearlyEqual(t, "subtotal", SectionSubtotal(SectionInput{Grouped: true}), 0)
}
