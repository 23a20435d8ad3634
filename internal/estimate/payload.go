package estimate

import (
	"fmt"
	"maps"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/rab/internal/volume"
)

var validate = validator.New()

// Payload is the persisted form of an estimate.
type Payload struct {
	ProjectName  string            `json:"projectName" validate:"max=255"`
	Owner        string            `json:"owner" validate:"max=255"`
	PPNPercent   float64           `json:"ppnPercent" validate:"gte=0"`
	Notes        string            `json:"notes"`
	CustomFields map[string]string `json:"customFields"`
	Sections     []SectionPayload  `json:"sections" validate:"dive"`
}

type SectionPayload struct {
	Title  string         `json:"title"`
	Groups []GroupPayload `json:"groups,omitempty" validate:"dive"`
	Items  []ItemPayload  `json:"items,omitempty" validate:"dive"`
}

type GroupPayload struct {
	Title string        `json:"title"`
	Items []ItemPayload `json:"items" validate:"dive"`
}

type ItemPayload struct {
	Code           string                `json:"code"`
	Description    string                `json:"description"`
	Unit           string                `json:"unit"`
	UnitPrice      float64               `json:"unitPrice" validate:"gte=0"`
	Quantity       float64               `json:"quantity" validate:"gte=0"`
	LineTotal      float64               `json:"lineTotal"`
	QuantitySource string                `json:"quantitySource,omitempty" validate:"omitempty,oneof=MANUAL DETAIL"`
	VolumeDetails  []VolumeDetailPayload `json:"volumeDetails" validate:"dive"`
}

type VolumeDetailPayload struct {
	Label     string  `json:"label"`
	Operation string  `json:"operation" validate:"omitempty,oneof=ADD SUBTRACT"`
	Length    float64 `json:"length" validate:"gte=0"`
	Width     float64 `json:"width" validate:"gte=0"`
	Height    float64 `json:"height" validate:"gte=0"`
	Count     float64 `json:"count" validate:"gte=0"`
	Volume    float64 `json:"volume"`
}

// Validate checks field constraints and the one-shape-per-section rule.
func (p Payload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid estimate payload: %w", err)
	}
	for i, s := range p.Sections {
		if len(s.Groups) > 0 && len(s.Items) > 0 {
			return fmt.Errorf("section %d %q: %w", i, s.Title, ErrAmbiguousSection)
		}
	}
	return nil
}

// Payload serialises the tree. Derived totals are written alongside their
// inputs for readers of the stored document; they are ignored on load.
func (e *Estimate) Payload() Payload {
	p := Payload{
		ProjectName:  e.Profile.ProjectName,
		Owner:        e.Profile.Owner,
		PPNPercent:   e.ppnPercent,
		Notes:        e.Profile.Notes,
		CustomFields: maps.Clone(e.Profile.CustomFields),
		Sections:     make([]SectionPayload, 0, len(e.sections)),
	}
	for _, s := range e.sections {
		sp := SectionPayload{Title: s.Label}
		switch body := s.Body().(type) {
		case *Flat:
			sp.Items = itemPayloads(body.Items)
		case *Grouped:
			sp.Groups = make([]GroupPayload, 0, len(body.Groups))
			for _, g := range body.Groups {
				sp.Groups = append(sp.Groups, GroupPayload{Title: g.Label, Items: itemPayloads(g.Items)})
			}
		}
		p.Sections = append(p.Sections, sp)
	}
	return p
}

// FromPayload rebuilds an estimate from its persisted form with fresh ids.
func FromPayload(id string, p Payload) (*Estimate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := New(id, Profile{
		ProjectName:  p.ProjectName,
		Owner:        p.Owner,
		Notes:        p.Notes,
		CustomFields: maps.Clone(p.CustomFields),
	}, p.PPNPercent)

	for _, sp := range p.Sections {
		s := &Section{ID: e.newID(), Label: sp.Title}
		if len(sp.Groups) > 0 {
			body := &Grouped{Groups: make([]*Group, 0, len(sp.Groups))}
			for _, gp := range sp.Groups {
				body.Groups = append(body.Groups, &Group{
					ID:    e.newID(),
					Label: gp.Title,
					Items: e.itemsFromPayload(gp.Items),
				})
			}
			s.body = body
		} else {
			s.body = &Flat{Items: e.itemsFromPayload(sp.Items)}
		}
		e.sections = append(e.sections, s)
	}
	e.recompute()
	return e, nil
}

func itemPayloads(items []*LineItem) []ItemPayload {
	out := make([]ItemPayload, 0, len(items))
	for _, it := range items {
		ip := ItemPayload{
			Code:           it.CatalogCode,
			Description:    it.Description,
			Unit:           it.Unit,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.EffectiveQuantity(),
			LineTotal:      it.LineTotal(),
			QuantitySource: string(it.QuantitySource),
			VolumeDetails:  make([]VolumeDetailPayload, 0, len(it.Details)),
		}
		for _, r := range it.Details {
			ip.VolumeDetails = append(ip.VolumeDetails, VolumeDetailPayload{
				Label:     r.Label,
				Operation: string(r.Operation),
				Length:    r.Length,
				Width:     r.Width,
				Height:    r.Height,
				Count:     r.Count,
				Volume:    r.Volume(),
			})
		}
		out = append(out, ip)
	}
	return out
}

func (e *Estimate) itemsFromPayload(items []ItemPayload) []*LineItem {
	out := make([]*LineItem, 0, len(items))
	for _, ip := range items {
		it := &LineItem{
			ID:             e.newID(),
			CatalogCode:    ip.Code,
			Description:    ip.Description,
			Unit:           ip.Unit,
			UnitPrice:      ip.UnitPrice,
			ManualQuantity: ip.Quantity,
			State:          StateView,
		}
		for _, d := range ip.VolumeDetails {
			it.Details = append(it.Details, volume.Row{
				ID:        e.newID(),
				Label:     d.Label,
				Operation: volume.Operation(d.Operation),
				Length:    d.Length,
				Width:     d.Width,
				Height:    d.Height,
				Count:     d.Count,
			})
		}
		it.Details.Sanitize()

		switch QuantitySource(ip.QuantitySource) {
		case QuantityManual, QuantityDetail:
			it.QuantitySource = QuantitySource(ip.QuantitySource)
		default:
			it.QuantitySource = QuantityManual
			if len(it.Details) > 0 {
				it.QuantitySource = QuantityDetail
			}
		}
		out = append(out, it)
	}
	return out
}
