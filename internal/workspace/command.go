package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/rab/internal/estimate"
	"github.com/Simplici0/rab/internal/volume"
)

var validate = validator.New()

// ErrInvalidCommand is returned for a command that is malformed before it
// reaches the tree.
var ErrInvalidCommand = errors.New("invalid command")

// Op names an estimate edit.
type Op string

const (
	OpSetProfile        Op = "setProfile"
	OpSetPPN            Op = "setPPN"
	OpAddSection        Op = "addSection"
	OpRenameSection     Op = "renameSection"
	OpRemoveSection     Op = "removeSection"
	OpMoveSection       Op = "moveSection"
	OpAddGroup          Op = "addGroup"
	OpRenameGroup       Op = "renameGroup"
	OpRemoveGroup       Op = "removeGroup"
	OpMoveGroup         Op = "moveGroup"
	OpAddItem           Op = "addItem"
	OpAddCatalogItem    Op = "addCatalogItem"
	OpUpdateItem        Op = "updateItem"
	OpSetManualQuantity Op = "setManualQuantity"
	OpRemoveItem        Op = "removeItem"
	OpCopyItem          Op = "copyItem"
	OpMoveItem          Op = "moveItem"
	OpBeginEdit         Op = "beginEdit"
	OpSetPriceText      Op = "setPriceText"
	OpCommitEdit        Op = "commitEdit"
	OpChangeCode        Op = "changeCode"
	OpAddDetailRow      Op = "addDetailRow"
	OpUpdateDetailRow   Op = "updateDetailRow"
	OpRemoveDetailRow   Op = "removeDetailRow"
)

// PathInput addresses an item container.
type PathInput struct {
	SectionID string `json:"sectionId" validate:"required"`
	GroupID   string `json:"groupId"`
}

func (p PathInput) path() estimate.Path {
	return estimate.Path{SectionID: p.SectionID, GroupID: p.GroupID}
}

// ItemInput is the content of a new or edited line item.
type ItemInput struct {
	Code           string   `json:"code"`
	Description    *string  `json:"description"`
	Unit           *string  `json:"unit"`
	QuantitySource *string  `json:"quantitySource" validate:"omitempty,oneof=MANUAL DETAIL"`
	Quantity       *float64 `json:"quantity"`
	UnitPrice      *float64 `json:"unitPrice"`
}

// DimensionInput is a detail row measurement. It decodes from a JSON number
// or from typed text such as "2,5". Text that does not read as a number is 0.
type DimensionInput float64

func (d *DimensionInput) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*d = DimensionInput(volume.Dimension(text))
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("dimension %s: %w", b, err)
	}
	*d = DimensionInput(v)
	return nil
}

func (d *DimensionInput) value() *float64 {
	if d == nil {
		return nil
	}
	v := float64(*d)
	return &v
}

// RowInput carries detail row changes. Nil fields are left as is.
type RowInput struct {
	Label     *string         `json:"label"`
	Operation *string         `json:"operation" validate:"omitempty,oneof=ADD SUBTRACT"`
	Length    *DimensionInput `json:"length"`
	Width     *DimensionInput `json:"width"`
	Height    *DimensionInput `json:"height"`
	Count     *DimensionInput `json:"count"`
}

func (r RowInput) patch() volume.RowPatch {
	p := volume.RowPatch{
		Label:  r.Label,
		Length: r.Length.value(),
		Width:  r.Width.value(),
		Height: r.Height.value(),
		Count:  r.Count.value(),
	}
	if r.Operation != nil {
		op := volume.Operation(*r.Operation)
		p.Operation = &op
	}
	return p
}

// Command is one edit event. Which fields matter depends on Op.
type Command struct {
	Op           Op            `json:"op" validate:"required"`
	SectionID    string        `json:"sectionId"`
	GroupID      string        `json:"groupId"`
	ItemID       string        `json:"itemId"`
	RowID        string        `json:"rowId"`
	Label        string        `json:"label"`
	Code         string        `json:"code"`
	Text         string        `json:"text"`
	Value        *float64      `json:"value"`
	Index        *int          `json:"index"`
	From         *PathInput    `json:"from"`
	To           *PathInput    `json:"to"`
	BeforeItemID string        `json:"beforeItemId"`
	Profile      *ProfileInput `json:"profile"`
	Item         *ItemInput    `json:"item"`
	Row          *RowInput     `json:"row"`
}

// Result is the outcome of Apply: the estimate after the edit, and the id of
// the section, group, item or row the edit created, if any.
type Result struct {
	CreatedID string       `json:"createdId,omitempty"`
	Estimate  EstimateView `json:"estimate"`
}

// Validate checks the command shape before it touches a tree.
func (c Command) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	need := func(name, v string) error {
		if v == "" {
			return fmt.Errorf("%w %s: %s is required", ErrInvalidCommand, c.Op, name)
		}
		return nil
	}
	switch c.Op {
	case OpSetProfile:
		if c.Profile == nil {
			return fmt.Errorf("%w %s: profile is required", ErrInvalidCommand, c.Op)
		}
	case OpSetPPN:
		if c.Value == nil {
			return fmt.Errorf("%w %s: value is required", ErrInvalidCommand, c.Op)
		}
	case OpAddSection:
	case OpRenameSection, OpRemoveSection, OpMoveSection, OpAddGroup:
		return need("sectionId", c.SectionID)
	case OpRenameGroup, OpRemoveGroup, OpMoveGroup:
		if err := need("sectionId", c.SectionID); err != nil {
			return err
		}
		return need("groupId", c.GroupID)
	case OpAddItem, OpAddCatalogItem:
		if c.To == nil {
			return fmt.Errorf("%w %s: to is required", ErrInvalidCommand, c.Op)
		}
		if c.Op == OpAddCatalogItem {
			return need("code", c.Code)
		}
	case OpMoveItem:
		if c.To == nil {
			return fmt.Errorf("%w %s: to is required", ErrInvalidCommand, c.Op)
		}
		return need("itemId", c.ItemID)
	case OpUpdateItem:
		if c.Item == nil {
			return fmt.Errorf("%w %s: item is required", ErrInvalidCommand, c.Op)
		}
		// Prices change through setPriceText and commitEdit, codes through changeCode.
		if c.Item.UnitPrice != nil {
			return fmt.Errorf("%w %s: unitPrice cannot be updated here", ErrInvalidCommand, c.Op)
		}
		if c.Item.Code != "" {
			return fmt.Errorf("%w %s: code cannot be updated here", ErrInvalidCommand, c.Op)
		}
		return need("itemId", c.ItemID)
	case OpUpdateDetailRow:
		if c.Row == nil {
			return fmt.Errorf("%w %s: row is required", ErrInvalidCommand, c.Op)
		}
		if err := need("itemId", c.ItemID); err != nil {
			return err
		}
		return need("rowId", c.RowID)
	case OpRemoveDetailRow:
		if err := need("itemId", c.ItemID); err != nil {
			return err
		}
		return need("rowId", c.RowID)
	case OpSetManualQuantity, OpRemoveItem, OpCopyItem, OpBeginEdit,
		OpSetPriceText, OpCommitEdit, OpChangeCode, OpAddDetailRow:
		return need("itemId", c.ItemID)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, c.Op)
	}
	return nil
}

func (c Command) index() int {
	if c.Index == nil {
		return estimate.Append
	}
	return *c.Index
}

func (w *Workspace) dispatch(ctx context.Context, e *estimate.Estimate, c Command) (string, error) {
	switch c.Op {
	case OpSetProfile:
		e.SetProfile(c.Profile.profile())
		if c.Profile.PPNPercent != nil {
			e.SetPPNPercent(*c.Profile.PPNPercent)
		}
	case OpSetPPN:
		e.SetPPNPercent(*c.Value)
	case OpAddSection:
		return e.AddSection(c.Label).ID, nil
	case OpRenameSection:
		return "", e.RenameSection(c.SectionID, c.Label)
	case OpRemoveSection:
		return "", e.RemoveSection(c.SectionID)
	case OpMoveSection:
		return "", e.MoveSection(c.SectionID, c.index())
	case OpAddGroup:
		g, err := e.AddGroup(c.SectionID, c.Label)
		if err != nil {
			return "", err
		}
		return g.ID, nil
	case OpRenameGroup:
		return "", e.RenameGroup(c.SectionID, c.GroupID, c.Label)
	case OpRemoveGroup:
		return "", e.RemoveGroup(c.SectionID, c.GroupID)
	case OpMoveGroup:
		return "", e.MoveGroup(c.SectionID, c.GroupID, c.index())
	case OpAddItem:
		it, err := e.AddItem(c.To.path(), draft(c.Item))
		if err != nil {
			return "", err
		}
		return it.ID, nil
	case OpAddCatalogItem:
		it, err := e.AddCatalogItem(ctx, w.catalog, c.To.path(), c.Code)
		if err != nil {
			return "", err
		}
		return it.ID, nil
	case OpUpdateItem:
		return "", e.UpdateItem(c.ItemID, itemPatch(c.Item))
	case OpSetManualQuantity:
		return "", e.SetManualQuantity(c.ItemID, c.Text)
	case OpRemoveItem:
		return "", e.RemoveItem(c.ItemID)
	case OpCopyItem:
		it, err := e.CopyItem(c.ItemID)
		if err != nil {
			return "", err
		}
		return it.ID, nil
	case OpMoveItem:
		return "", w.moveItem(e, c)
	case OpBeginEdit:
		return "", e.BeginEdit(c.ItemID)
	case OpSetPriceText:
		return "", e.SetPriceText(c.ItemID, c.Text)
	case OpCommitEdit:
		return "", e.CommitEdit(c.ItemID)
	case OpChangeCode:
		return "", e.ChangeCode(ctx, w.catalog, c.ItemID, c.Code)
	case OpAddDetailRow:
		row, err := e.AddDetailRow(c.ItemID)
		if err != nil {
			return "", err
		}
		if c.Row != nil {
			if _, err := e.UpdateDetailRow(c.ItemID, row.ID, c.Row.patch()); err != nil {
				return "", err
			}
		}
		return row.ID, nil
	case OpUpdateDetailRow:
		_, err := e.UpdateDetailRow(c.ItemID, c.RowID, c.Row.patch())
		return "", err
	case OpRemoveDetailRow:
		return "", e.RemoveDetailRow(c.ItemID, c.RowID)
	}
	return "", nil
}

// moveItem resolves the source container from the tree when the command
// omits it.
func (w *Workspace) moveItem(e *estimate.Estimate, c Command) error {
	var from estimate.Path
	if c.From != nil {
		from = c.From.path()
	} else {
		_, p, err := e.Item(c.ItemID)
		if err != nil {
			return err
		}
		from = p
	}
	if c.BeforeItemID != "" {
		return e.MoveBefore(c.ItemID, from, c.To.path(), c.BeforeItemID)
	}
	return e.Move(c.ItemID, from, c.To.path(), c.index())
}

func draft(in *ItemInput) estimate.ItemDraft {
	if in == nil {
		return estimate.ItemDraft{}
	}
	d := estimate.ItemDraft{CatalogCode: in.Code}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Unit != nil {
		d.Unit = *in.Unit
	}
	if in.Quantity != nil {
		d.Quantity = *in.Quantity
	}
	if in.UnitPrice != nil {
		d.UnitPrice = *in.UnitPrice
	}
	return d
}

func itemPatch(in *ItemInput) estimate.ItemPatch {
	p := estimate.ItemPatch{
		Description:    in.Description,
		Unit:           in.Unit,
		ManualQuantity: in.Quantity,
	}
	if in.QuantitySource != nil {
		src := estimate.QuantitySource(*in.QuantitySource)
		p.QuantitySource = &src
	}
	return p
}
