// Package estimate holds the editable RAB tree: sections, optional groups and
// priced line items, with totals kept current after every mutation.
//
// An Estimate is not safe for concurrent use. Callers serialise edits.
package estimate

import (
	"errors"

	"github.com/Simplici0/rab/internal/volume"
	"github.com/google/uuid"
)

var (
	ErrSectionNotFound  = errors.New("section not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrItemNotFound     = errors.New("line item not found")
	ErrNotEditing       = errors.New("line item is not in edit state")
	ErrAmbiguousSection = errors.New("section has both groups and items")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// QuantitySource selects where a line item's quantity comes from.
type QuantitySource string

const (
	QuantityManual QuantitySource = "MANUAL"
	QuantityDetail QuantitySource = "DETAIL"
)

// EditState is the display state of a line item.
type EditState string

const (
	StateView EditState = "VIEW"
	StateEdit EditState = "EDIT"
)

// Append as a target index places the item at the end of the destination.
const Append = -1

// LineItem is a single priced row of work.
type LineItem struct {
	ID             string
	CatalogCode    string
	Description    string
	Unit           string
	QuantitySource QuantitySource
	ManualQuantity float64
	Details        volume.Rows
	UnitPrice      float64

	State EditState
	// PriceText is the unit price as typed in EDIT state; nil when nothing
	// has been typed since the last commit.
	PriceText *string
}

// EffectiveQuantity is never negative.
func (it *LineItem) EffectiveQuantity() float64 {
	q := it.ManualQuantity
	if it.QuantitySource == QuantityDetail {
		q = it.Details.Total()
	}
	if q < 0 {
		return 0
	}
	return q
}

// LineTotal is EffectiveQuantity × UnitPrice.
func (it *LineItem) LineTotal() float64 {
	return it.EffectiveQuantity() * it.UnitPrice
}

func (it *LineItem) clone(id string) *LineItem {
	c := *it
	c.ID = id
	c.Details = it.Details.Clone()
	if it.PriceText != nil {
		text := *it.PriceText
		c.PriceText = &text
	}
	return &c
}

// Group is an optional titled tier between a section and its items.
type Group struct {
	ID    string
	Label string
	Items []*LineItem
}

// SectionBody is the content of a section: either Flat or Grouped.
type SectionBody interface {
	isSectionBody()
}

// Flat is a section that holds line items directly.
type Flat struct {
	Items []*LineItem
}

// Grouped is a section that holds groups of line items.
type Grouped struct {
	Groups []*Group
}

func (*Flat) isSectionBody()    {}
func (*Grouped) isSectionBody() {}

// Section is a work category.
type Section struct {
	ID    string
	Label string
	body  SectionBody
}

// Body returns *Flat or *Grouped.
func (s *Section) Body() SectionBody {
	if s.body == nil {
		s.body = &Flat{}
	}
	return s.body
}

// IsGrouped reports whether the section holds groups.
func (s *Section) IsGrouped() bool {
	_, ok := s.Body().(*Grouped)
	return ok
}

// Groups returns the section's groups, nil for a flat section.
func (s *Section) Groups() []*Group {
	if g, ok := s.Body().(*Grouped); ok {
		return g.Groups
	}
	return nil
}

// Items returns the section's flat items, nil for a grouped section.
func (s *Section) Items() []*LineItem {
	if f, ok := s.Body().(*Flat); ok {
		return f.Items
	}
	return nil
}

func (s *Section) group(id string) (*Group, int) {
	for i, g := range s.Groups() {
		if g.ID == id {
			return g, i
		}
	}
	return nil, -1
}

// Profile is the project metadata confirmed before editing starts.
type Profile struct {
	ProjectName  string
	Owner        string
	Notes        string
	CustomFields map[string]string
}

// Path addresses an item container: a flat section when GroupID is empty,
// otherwise a group of the section.
type Path struct {
	SectionID string
	GroupID   string
}

// SectionPath addresses a section.
func SectionPath(sectionID string) Path {
	return Path{SectionID: sectionID}
}

// GroupPath addresses a group inside a section.
func GroupPath(sectionID, groupID string) Path {
	return Path{SectionID: sectionID, GroupID: groupID}
}

// Estimate is the aggregate root of one project's cost estimate.
type Estimate struct {
	ID      string
	Profile Profile

	ppnPercent float64
	sections   []*Section
	summary    Summary
	newID      func() string
}

// New creates an empty estimate once the project profile is confirmed.
func New(id string, profile Profile, ppnPercent float64) *Estimate {
	if id == "" {
		id = uuid.NewString()
	}
	e := &Estimate{
		ID:         id,
		Profile:    profile,
		ppnPercent: volume.Clamp(ppnPercent),
		newID:      uuid.NewString,
	}
	e.recompute()
	return e
}

// PPNPercent returns the tax rate as entered.
func (e *Estimate) PPNPercent() float64 {
	return e.ppnPercent
}

// Sections returns the ordered sections.
func (e *Estimate) Sections() []*Section {
	return e.sections
}

// Section looks up a section by id.
func (e *Estimate) Section(id string) (*Section, error) {
	s, _ := e.section(id)
	if s == nil {
		return nil, ErrSectionNotFound
	}
	return s, nil
}

// Item looks up a line item anywhere in the tree and returns its container.
func (e *Estimate) Item(id string) (*LineItem, Path, error) {
	for _, s := range e.sections {
		switch body := s.Body().(type) {
		case *Flat:
			for _, it := range body.Items {
				if it.ID == id {
					return it, SectionPath(s.ID), nil
				}
			}
		case *Grouped:
			for _, g := range body.Groups {
				for _, it := range g.Items {
					if it.ID == id {
						return it, GroupPath(s.ID, g.ID), nil
					}
				}
			}
		}
	}
	return nil, Path{}, ErrItemNotFound
}

func (e *Estimate) section(id string) (*Section, int) {
	for i, s := range e.sections {
		if s.ID == id {
			return s, i
		}
	}
	return nil, -1
}
