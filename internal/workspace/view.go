package workspace

import (
	"context"
	"maps"

	"github.com/Simplici0/rab/internal/estimate"
	"github.com/Simplici0/rab/internal/recipe"
	"github.com/Simplici0/rab/internal/volume"
)

// EstimateView is the read model of an open estimate with every derived
// total filled in.
type EstimateView struct {
	ID           string            `json:"id"`
	ProjectName  string            `json:"projectName"`
	Owner        string            `json:"owner"`
	Notes        string            `json:"notes"`
	CustomFields map[string]string `json:"customFields"`
	PPNPercent   float64           `json:"ppnPercent"`
	Subtotal     float64           `json:"subtotal"`
	PPNAmount    float64           `json:"ppnAmount"`
	GrandTotal   float64           `json:"grandTotal"`
	Sections     []SectionView     `json:"sections"`
}

type SectionView struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Grouped  bool        `json:"grouped"`
	Subtotal float64     `json:"subtotal"`
	Groups   []GroupView `json:"groups,omitempty"`
	Items    []ItemView  `json:"items,omitempty"`
}

type GroupView struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Subtotal float64    `json:"subtotal"`
	Items    []ItemView `json:"items"`
}

type ItemView struct {
	ID             string      `json:"id"`
	Code           string      `json:"code"`
	Description    string      `json:"description"`
	Unit           string      `json:"unit"`
	QuantitySource string      `json:"quantitySource"`
	ManualQuantity float64     `json:"manualQuantity"`
	Quantity       float64     `json:"quantity"`
	DetailVolume   float64     `json:"detailVolume"`
	UnitPrice      float64     `json:"unitPrice"`
	LineTotal      float64     `json:"lineTotal"`
	State          string      `json:"state"`
	PriceText      *string     `json:"priceText,omitempty"`
	Details        volume.Rows `json:"details"`
}

func estimateView(e *estimate.Estimate) EstimateView {
	sum := e.Summary()
	v := EstimateView{
		ID:           e.ID,
		ProjectName:  e.Profile.ProjectName,
		Owner:        e.Profile.Owner,
		Notes:        e.Profile.Notes,
		CustomFields: maps.Clone(e.Profile.CustomFields),
		PPNPercent:   e.PPNPercent(),
		Subtotal:     sum.Subtotal,
		PPNAmount:    sum.PPNAmount,
		GrandTotal:   sum.GrandTotal,
		Sections:     make([]SectionView, 0, len(e.Sections())),
	}
	for _, s := range e.Sections() {
		sv := SectionView{ID: s.ID, Label: s.Label, Grouped: s.IsGrouped(), Subtotal: sum.Sections[s.ID]}
		for _, g := range s.Groups() {
			sv.Groups = append(sv.Groups, GroupView{
				ID:       g.ID,
				Label:    g.Label,
				Subtotal: sum.Groups[g.ID],
				Items:    itemViews(g.Items),
			})
		}
		if !s.IsGrouped() {
			sv.Items = itemViews(s.Items())
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

func itemViews(items []*estimate.LineItem) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		iv := ItemView{
			ID:             it.ID,
			Code:           it.CatalogCode,
			Description:    it.Description,
			Unit:           it.Unit,
			QuantitySource: string(it.QuantitySource),
			ManualQuantity: it.ManualQuantity,
			Quantity:       it.EffectiveQuantity(),
			DetailVolume:   it.Details.ReportedTotal(),
			UnitPrice:      it.UnitPrice,
			LineTotal:      it.LineTotal(),
			State:          string(it.State),
			Details:        it.Details.Clone(),
		}
		if it.PriceText != nil {
			text := *it.PriceText
			iv.PriceText = &text
		}
		if iv.Details == nil {
			iv.Details = volume.Rows{}
		}
		out = append(out, iv)
	}
	return out
}

// RecipeView is the read model of an open recipe: the committed breakdown
// and the live preview with staged changes merged in.
type RecipeView struct {
	ID                   string            `json:"id"`
	CatalogItemID        string            `json:"catalogItemId"`
	Persisted            bool              `json:"persisted"`
	Dirty                bool              `json:"dirty"`
	OverheadPercent      float64           `json:"overheadPercent"`
	SavedOverheadPercent float64           `json:"savedOverheadPercent"`
	Components           []ComponentView   `json:"components"`
	Committed            recipe.Breakdown  `json:"committed"`
	Preview              recipe.Breakdown  `json:"preview"`
	Failed               map[string]string `json:"failed,omitempty"`
}

type ComponentView struct {
	recipe.ComponentPayload
	EffectivePrice float64    `json:"effectivePrice"`
	Subtotal       float64    `json:"subtotal"`
	Staged         *PatchView `json:"staged,omitempty"`
}

type PatchView struct {
	Coefficient   *float64 `json:"coefficient,omitempty"`
	PriceOverride *float64 `json:"priceOverride,omitempty"`
	ClearOverride bool     `json:"clearOverride,omitempty"`
}

func recipeView(ctx context.Context, eng *recipe.Engine, r *recipe.Recipe) RecipeView {
	committed := eng.Breakdown(ctx, r)
	v := RecipeView{
		ID:                   r.ID,
		CatalogItemID:        r.CatalogItemID,
		Persisted:            r.Persisted(),
		Dirty:                r.Dirty(),
		OverheadPercent:      r.OverheadPercent(),
		SavedOverheadPercent: r.SavedOverheadPercent(),
		Committed:            committed,
		Preview:              eng.Preview(ctx, r),
	}
	payload := r.Payload()
	components := r.Components()
	v.Components = make([]ComponentView, 0, len(components))
	for i, c := range components {
		cv := ComponentView{
			ComponentPayload: payload.Components[i],
			EffectivePrice:   eng.EffectivePrice(ctx, c),
			Subtotal:         committed.Subtotals[c.ID],
		}
		if p, ok := r.Staged(c.ID); ok {
			pv := &PatchView{Coefficient: p.Coefficient}
			if p.Override.Set {
				pv.PriceOverride = p.Override.Value
				pv.ClearOverride = p.Override.Value == nil
			}
			cv.Staged = pv
		}
		v.Components = append(v.Components, cv)
	}
	return v
}
