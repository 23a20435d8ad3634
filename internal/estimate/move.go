package estimate

import "fmt"

// Move reparents a line item in one step: it leaves from and lands in to at
// index, counted after the item has been taken out. Append places it last.
// Nothing changes when any part of the request is invalid.
func (e *Estimate) Move(itemID string, from, to Path, index int) error {
	src, err := e.source(from)
	if err != nil {
		return fmt.Errorf("move item %s from: %w", itemID, err)
	}
	i := indexOfItem(*src, itemID)
	if i < 0 {
		return fmt.Errorf("move item %s: %w", itemID, ErrItemNotFound)
	}
	if err := e.checkDestination(to); err != nil {
		return fmt.Errorf("move item %s to: %w", itemID, err)
	}

	n := e.destinationLen(to)
	if e.sameContainer(from, to) {
		n--
	}
	index, err = insertIndex(index, n)
	if err != nil {
		return fmt.Errorf("move item %s: %w", itemID, err)
	}

	dst, err := e.destination(to)
	if err != nil {
		return fmt.Errorf("move item %s to: %w", itemID, err)
	}

	// src and dst may point at the same slice; removal is in place.
	it := (*src)[i]
	*src = removeItem(*src, i)
	*dst = insertAt(*dst, index, it)
	e.recompute()
	return nil
}

// MoveBefore reparents an item so that it sits right before beforeItemID in
// the destination, which is what dropping one item onto another does.
func (e *Estimate) MoveBefore(itemID string, from, to Path, beforeItemID string) error {
	if itemID == beforeItemID {
		return nil
	}
	dst, err := e.source(e.resolvedDestination(to))
	if err != nil {
		return fmt.Errorf("move item %s to: %w", itemID, err)
	}
	target := indexOfItem(*dst, beforeItemID)
	if target < 0 {
		return fmt.Errorf("move item %s before %s: %w", itemID, beforeItemID, ErrItemNotFound)
	}
	if e.sameContainer(from, to) {
		if i := indexOfItem(*dst, itemID); i >= 0 && i < target {
			target--
		}
	}
	return e.Move(itemID, from, to, target)
}

func (e *Estimate) checkDestination(p Path) error {
	s, _ := e.section(p.SectionID)
	if s == nil {
		return ErrSectionNotFound
	}
	if p.GroupID == "" {
		return nil
	}
	if g, _ := s.group(p.GroupID); g == nil {
		return ErrGroupNotFound
	}
	return nil
}

// resolvedDestination names the concrete container a destination path
// resolves to, without creating anything. A grouped section with no group
// yet resolves to itself.
func (e *Estimate) resolvedDestination(p Path) Path {
	if p.GroupID != "" {
		return p
	}
	s, _ := e.section(p.SectionID)
	if s == nil {
		return p
	}
	if groups := s.Groups(); len(groups) > 0 {
		return GroupPath(s.ID, groups[0].ID)
	}
	return p
}

func (e *Estimate) destinationLen(p Path) int {
	items, err := e.source(e.resolvedDestination(p))
	if err != nil {
		return 0
	}
	return len(*items)
}

func (e *Estimate) sameContainer(a, b Path) bool {
	return e.resolvedDestination(a) == e.resolvedDestination(b)
}
