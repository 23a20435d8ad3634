package estimate

import (
	"context"
	"fmt"

	"github.com/Simplici0/rab/internal/numfmt"
	"github.com/Simplici0/rab/internal/volume"
)

// ItemPatch carries line item field changes. Nil fields are left as is.
type ItemPatch struct {
	Description    *string
	Unit           *string
	QuantitySource *QuantitySource
	ManualQuantity *float64
}

// UpdateItem applies field changes to a line item.
func (e *Estimate) UpdateItem(itemID string, p ItemPatch) error {
	it, _, err := e.Item(itemID)
	if err != nil {
		return fmt.Errorf("update item %s: %w", itemID, err)
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Unit != nil {
		it.Unit = *p.Unit
	}
	if p.QuantitySource != nil {
		if *p.QuantitySource == QuantityDetail {
			it.QuantitySource = QuantityDetail
		} else {
			it.QuantitySource = QuantityManual
		}
	}
	if p.ManualQuantity != nil {
		it.ManualQuantity = *p.ManualQuantity
	}
	e.recompute()
	return nil
}

// SetManualQuantity switches the item to a typed quantity. Unreadable text
// reads as 0.
func (e *Estimate) SetManualQuantity(itemID, text string) error {
	q := numfmt.Parse(text)
	manual := QuantityManual
	return e.UpdateItem(itemID, ItemPatch{QuantitySource: &manual, ManualQuantity: &q})
}

// BeginEdit moves an item into EDIT state.
func (e *Estimate) BeginEdit(itemID string) error {
	it, _, err := e.Item(itemID)
	if err != nil {
		return fmt.Errorf("edit item %s: %w", itemID, err)
	}
	beginEdit(it)
	return nil
}

func beginEdit(it *LineItem) {
	if it.State == StateEdit {
		return
	}
	it.State = StateEdit
	it.PriceText = nil
}

// SetPriceText stages typed price text. The unit price is unchanged until
// CommitEdit.
func (e *Estimate) SetPriceText(itemID, text string) error {
	it, _, err := e.Item(itemID)
	if err != nil {
		return fmt.Errorf("stage price for %s: %w", itemID, err)
	}
	if it.State != StateEdit {
		return fmt.Errorf("stage price for %s: %w", itemID, ErrNotEditing)
	}
	it.PriceText = &text
	return nil
}

// CommitEdit parses the staged price text, returns the item to VIEW state
// and recomputes its total. Empty or unreadable text commits a price of 0;
// with nothing staged the price is kept.
func (e *Estimate) CommitEdit(itemID string) error {
	it, _, err := e.Item(itemID)
	if err != nil {
		return fmt.Errorf("commit item %s: %w", itemID, err)
	}
	if it.State != StateEdit {
		return fmt.Errorf("commit item %s: %w", itemID, ErrNotEditing)
	}
	if it.PriceText != nil {
		it.UnitPrice = numfmt.NonNegative(*it.PriceText)
	}
	it.PriceText = nil
	it.State = StateView
	e.recompute()
	return nil
}

// ChangeCode points an item at another catalog entry and takes its reference
// price. Quantity, description and unit are kept. A miss leaves the price at 0.
func (e *Estimate) ChangeCode(ctx context.Context, catalog Catalog, itemID, code string) error {
	it, _, err := e.Item(itemID)
	if err != nil {
		return fmt.Errorf("change code of %s: %w", itemID, err)
	}
	entry, ok := catalog.Lookup(ctx, code)
	it.CatalogCode = code
	it.UnitPrice = 0
	if ok {
		it.UnitPrice = volume.Clamp(entry.ReferencePrice)
	}
	it.PriceText = nil
	e.recompute()
	return nil
}

// AddDetailRow appends a zero measurement row and switches the item to
// derive its quantity from rows.
func (e *Estimate) AddDetailRow(itemID string) (volume.Row, error) {
	it, _, err := e.Item(itemID)
	if err != nil {
		return volume.Row{}, fmt.Errorf("add row to %s: %w", itemID, err)
	}
	row := it.Details.Add(e.newID())
	it.QuantitySource = QuantityDetail
	e.recompute()
	return row, nil
}

// UpdateDetailRow patches one measurement row of an item.
func (e *Estimate) UpdateDetailRow(itemID, rowID string, p volume.RowPatch) (volume.Row, error) {
	it, _, err := e.Item(itemID)
	if err != nil {
		return volume.Row{}, fmt.Errorf("update row of %s: %w", itemID, err)
	}
	row, err := it.Details.Update(rowID, p)
	if err != nil {
		return volume.Row{}, err
	}
	e.recompute()
	return row, nil
}

// RemoveDetailRow deletes one measurement row of an item.
func (e *Estimate) RemoveDetailRow(itemID, rowID string) error {
	it, _, err := e.Item(itemID)
	if err != nil {
		return fmt.Errorf("remove row of %s: %w", itemID, err)
	}
	if err := it.Details.Remove(rowID); err != nil {
		return err
	}
	e.recompute()
	return nil
}
