package recipe

// Payload is the persisted document form of a recipe.
type Payload struct {
	OverheadPercent float64            `json:"overheadPercent"`
	Components      []ComponentPayload `json:"components"`
}

type ComponentPayload struct {
	ID                string   `json:"id"`
	Group             Group    `json:"group"`
	MasterItemID      string   `json:"masterItemId"`
	Coefficient       float64  `json:"coefficient"`
	PriceOverride     *float64 `json:"priceOverride"`
	NameSnapshot      string   `json:"nameSnapshot"`
	UnitSnapshot      string   `json:"unitSnapshot"`
	UnitPriceSnapshot float64  `json:"unitPriceSnapshot"`
}

// Payload serialises the committed baseline with the live overhead. Staged
// changes are not part of it.
func (r *Recipe) Payload() Payload {
	p := Payload{
		OverheadPercent: r.overhead,
		Components:      make([]ComponentPayload, 0, len(r.components)),
	}
	for _, c := range r.Components() {
		p.Components = append(p.Components, ComponentPayload{
			ID:                c.ID,
			Group:             c.Group,
			MasterItemID:      c.MasterItemID,
			Coefficient:       c.Coefficient,
			PriceOverride:     c.PriceOverride,
			NameSnapshot:      c.NameSnapshot,
			UnitSnapshot:      c.UnitSnapshot,
			UnitPriceSnapshot: c.UnitPriceSnapshot,
		})
	}
	return p
}
