package estimate

import (
	"context"
	"fmt"

	"github.com/Simplici0/rab/internal/volume"
)

// CatalogEntry is the reference data of a catalog work item.
type CatalogEntry struct {
	Code           string
	Description    string
	Unit           string
	ReferencePrice float64
	CategoryID     string
}

// Catalog resolves catalog codes. A miss returns false, never an error.
type Catalog interface {
	Lookup(ctx context.Context, code string) (CatalogEntry, bool)
}

// ItemDraft is the initial content of a new line item.
type ItemDraft struct {
	CatalogCode string
	Description string
	Unit        string
	Quantity    float64
	UnitPrice   float64
}

// SetProfile replaces the project metadata.
func (e *Estimate) SetProfile(p Profile) {
	e.Profile = p
}

// SetPPNPercent updates the tax rate. Negative rates are stored as 0; no
// upper bound is enforced.
func (e *Estimate) SetPPNPercent(v float64) {
	e.ppnPercent = volume.Clamp(v)
	e.recompute()
}

// AddSection appends an empty flat section.
func (e *Estimate) AddSection(label string) *Section {
	s := &Section{ID: e.newID(), Label: label, body: &Flat{}}
	e.sections = append(e.sections, s)
	e.recompute()
	return s
}

// RenameSection changes a section's label.
func (e *Estimate) RenameSection(sectionID, label string) error {
	s, _ := e.section(sectionID)
	if s == nil {
		return fmt.Errorf("rename section %s: %w", sectionID, ErrSectionNotFound)
	}
	s.Label = label
	return nil
}

// RemoveSection deletes a section and everything in it.
func (e *Estimate) RemoveSection(sectionID string) error {
	_, i := e.section(sectionID)
	if i < 0 {
		return fmt.Errorf("remove section %s: %w", sectionID, ErrSectionNotFound)
	}
	e.sections = append(e.sections[:i], e.sections[i+1:]...)
	e.recompute()
	return nil
}

// MoveSection reorders a section to index among the sections.
func (e *Estimate) MoveSection(sectionID string, index int) error {
	s, i := e.section(sectionID)
	if s == nil {
		return fmt.Errorf("move section %s: %w", sectionID, ErrSectionNotFound)
	}
	rest := append(e.sections[:i:i], e.sections[i+1:]...)
	index, err := insertIndex(index, len(rest))
	if err != nil {
		return fmt.Errorf("move section %s: %w", sectionID, err)
	}
	e.sections = insertAt(rest, index, s)
	e.recompute()
	return nil
}

// AddGroup appends a group to a section. A flat section becomes grouped; its
// existing items move into an untitled leading group so nothing is dropped.
func (e *Estimate) AddGroup(sectionID, label string) (*Group, error) {
	s, _ := e.section(sectionID)
	if s == nil {
		return nil, fmt.Errorf("add group to %s: %w", sectionID, ErrSectionNotFound)
	}
	body := e.groupedBody(s)
	g := &Group{ID: e.newID(), Label: label}
	body.Groups = append(body.Groups, g)
	e.recompute()
	return g, nil
}

// RenameGroup changes a group's label.
func (e *Estimate) RenameGroup(sectionID, groupID, label string) error {
	s, _ := e.section(sectionID)
	if s == nil {
		return fmt.Errorf("rename group %s: %w", groupID, ErrSectionNotFound)
	}
	g, _ := s.group(groupID)
	if g == nil {
		return fmt.Errorf("rename group %s: %w", groupID, ErrGroupNotFound)
	}
	g.Label = label
	return nil
}

// RemoveGroup deletes a group and its items. A section left without groups
// reverts to an empty flat section.
func (e *Estimate) RemoveGroup(sectionID, groupID string) error {
	s, _ := e.section(sectionID)
	if s == nil {
		return fmt.Errorf("remove group %s: %w", groupID, ErrSectionNotFound)
	}
	_, i := s.group(groupID)
	if i < 0 {
		return fmt.Errorf("remove group %s: %w", groupID, ErrGroupNotFound)
	}
	body := s.body.(*Grouped)
	body.Groups = append(body.Groups[:i], body.Groups[i+1:]...)
	if len(body.Groups) == 0 {
		s.body = &Flat{}
	}
	e.recompute()
	return nil
}

// MoveGroup reorders a group within its own section.
func (e *Estimate) MoveGroup(sectionID, groupID string, index int) error {
	s, _ := e.section(sectionID)
	if s == nil {
		return fmt.Errorf("move group %s: %w", groupID, ErrSectionNotFound)
	}
	g, i := s.group(groupID)
	if g == nil {
		return fmt.Errorf("move group %s: %w", groupID, ErrGroupNotFound)
	}
	body := s.body.(*Grouped)
	rest := append(body.Groups[:i:i], body.Groups[i+1:]...)
	index, err := insertIndex(index, len(rest))
	if err != nil {
		return fmt.Errorf("move group %s: %w", groupID, err)
	}
	body.Groups = insertAt(rest, index, g)
	e.recompute()
	return nil
}

// AddItem appends a manual-quantity line item to the container at path.
func (e *Estimate) AddItem(path Path, draft ItemDraft) (*LineItem, error) {
	items, err := e.destination(path)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	it := &LineItem{
		ID:             e.newID(),
		CatalogCode:    draft.CatalogCode,
		Description:    draft.Description,
		Unit:           draft.Unit,
		QuantitySource: QuantityManual,
		ManualQuantity: draft.Quantity,
		UnitPrice:      volume.Clamp(draft.UnitPrice),
		State:          StateView,
	}
	*items = append(*items, it)
	e.recompute()
	return it, nil
}

// AddCatalogItem adds a line item seeded from a catalog entry. On a miss the
// item keeps the code with no description and a zero price.
func (e *Estimate) AddCatalogItem(ctx context.Context, catalog Catalog, path Path, code string) (*LineItem, error) {
	draft := ItemDraft{CatalogCode: code}
	if entry, ok := catalog.Lookup(ctx, code); ok {
		draft.Description = entry.Description
		draft.Unit = entry.Unit
		draft.UnitPrice = entry.ReferencePrice
	}
	return e.AddItem(path, draft)
}

// RemoveItem deletes a line item from wherever it lives.
func (e *Estimate) RemoveItem(itemID string) error {
	_, path, err := e.Item(itemID)
	if err != nil {
		return fmt.Errorf("remove item %s: %w", itemID, err)
	}
	items, err := e.source(path)
	if err != nil {
		return fmt.Errorf("remove item %s: %w", itemID, err)
	}
	*items = removeItem(*items, indexOfItem(*items, itemID))
	e.recompute()
	return nil
}

// CopyItem clones an item under a new id directly after the source and puts
// the clone in EDIT state.
func (e *Estimate) CopyItem(itemID string) (*LineItem, error) {
	src, path, err := e.Item(itemID)
	if err != nil {
		return nil, fmt.Errorf("copy item %s: %w", itemID, err)
	}
	items, err := e.source(path)
	if err != nil {
		return nil, fmt.Errorf("copy item %s: %w", itemID, err)
	}
	clone := src.clone(e.newID())
	beginEdit(clone)
	*items = insertAt(*items, indexOfItem(*items, itemID)+1, clone)
	e.recompute()
	return clone, nil
}

// groupedBody returns the section's Grouped body, converting a flat section.
func (e *Estimate) groupedBody(s *Section) *Grouped {
	switch body := s.Body().(type) {
	case *Grouped:
		return body
	case *Flat:
		g := &Grouped{}
		if len(body.Items) > 0 {
			g.Groups = append(g.Groups, &Group{ID: e.newID(), Items: body.Items})
		}
		s.body = g
		return g
	}
	panic("estimate: unknown section body")
}

// source resolves a container that must already exist exactly as addressed.
func (e *Estimate) source(p Path) (*[]*LineItem, error) {
	s, _ := e.section(p.SectionID)
	if s == nil {
		return nil, ErrSectionNotFound
	}
	switch body := s.Body().(type) {
	case *Flat:
		if p.GroupID != "" {
			return nil, ErrGroupNotFound
		}
		return &body.Items, nil
	case *Grouped:
		g, _ := s.group(p.GroupID)
		if g == nil {
			return nil, ErrGroupNotFound
		}
		return &g.Items, nil
	}
	return nil, ErrSectionNotFound
}

// destination resolves a container for insertion. A grouped section
// addressed without a group resolves to its first group.
func (e *Estimate) destination(p Path) (*[]*LineItem, error) {
	s, _ := e.section(p.SectionID)
	if s == nil {
		return nil, ErrSectionNotFound
	}
	if g, ok := s.Body().(*Grouped); ok && p.GroupID == "" {
		if len(g.Groups) == 0 {
			g.Groups = append(g.Groups, &Group{ID: e.newID()})
		}
		return &g.Groups[0].Items, nil
	}
	return e.source(p)
}

func insertIndex(index, n int) (int, error) {
	if index == Append {
		return n, nil
	}
	if index < 0 || index > n {
		return 0, ErrIndexOutOfRange
	}
	return index, nil
}

func insertAt[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeItem(items []*LineItem, i int) []*LineItem {
	return append(items[:i], items[i+1:]...)
}

func indexOfItem(items []*LineItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
