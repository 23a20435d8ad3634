package recipe

// Line is a component reduced to what the rollup needs.
type Line struct {
	ID          string
	Group       Group
	Coefficient float64
	UnitPrice   float64
}

// Breakdown is the priced recipe: A, B and C per group, direct cost D,
// overhead E and final unit price F.
type Breakdown struct {
	Labor     float64 `json:"labor"`
	Material  float64 `json:"material"`
	Equipment float64 `json:"equipment"`
	Direct    float64 `json:"direct"`
	Overhead  float64 `json:"overhead"`
	UnitPrice float64 `json:"unitPrice"`

	OverheadPercent float64            `json:"overheadPercent"`
	Subtotals       map[string]float64 `json:"subtotals"`
}

// Calculate prices a list of lines with the given overhead percentage.
func Calculate(lines []Line, overheadPercent float64) Breakdown {
	if overheadPercent < 0 {
		overheadPercent = 0
	}
	b := Breakdown{
		OverheadPercent: overheadPercent,
		Subtotals:       make(map[string]float64, len(lines)),
	}
	for _, l := range lines {
		subtotal := l.Coefficient * l.UnitPrice
		b.Subtotals[l.ID] = subtotal
		switch l.Group {
		case Labor:
			b.Labor += subtotal
		case Material:
			b.Material += subtotal
		case Equipment:
			b.Equipment += subtotal
		}
	}
	b.Direct = b.Labor + b.Material + b.Equipment
	b.Overhead = b.Direct * overheadPercent / 100.0
	b.UnitPrice = b.Direct + b.Overhead
	return b
}
