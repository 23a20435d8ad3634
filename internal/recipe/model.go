// Package recipe composes a catalog work item's unit price (AHSP) from
// weighted labor, material and equipment components plus overhead.
package recipe

import (
	"errors"
	"slices"
)

var (
	ErrComponentNotFound = errors.New("recipe component not found")
	ErrNotStaged         = errors.New("component has no staged changes")
	ErrInvalidGroup      = errors.New("unknown component group")
)

// Group is a component category. Groups always appear in Groups order.
type Group string

const (
	Labor     Group = "LABOR"
	Material  Group = "MATERIAL"
	Equipment Group = "EQUIPMENT"
)

// Groups lists the groups in display and rollup order.
var Groups = []Group{Labor, Material, Equipment}

func (g Group) rank() int {
	return slices.Index(Groups, g)
}

// Valid reports whether g is one of the fixed groups.
func (g Group) Valid() bool {
	return g.rank() >= 0
}

// MasterItem is a labor, material or equipment price list entry.
type MasterItem struct {
	ID    string
	Name  string
	Unit  string
	Price float64
}

// Component is one weighted input of a recipe. Name, unit and price are
// snapshotted from the master item when the component is added.
type Component struct {
	ID                string
	Group             Group
	MasterItemID      string
	NameSnapshot      string
	UnitSnapshot      string
	UnitPriceSnapshot float64
	Coefficient       float64
	PriceOverride     *float64
}

func (c Component) clone() Component {
	if c.PriceOverride != nil {
		v := *c.PriceOverride
		c.PriceOverride = &v
	}
	return c
}

// OverrideChange edits a component's price override. The zero value leaves
// the override alone; Clear resets it so the master price applies again.
type OverrideChange struct {
	Set   bool
	Value *float64 `validate:"omitempty,gte=0"`
}

// SetOverride pins a component to price v.
func SetOverride(v float64) OverrideChange {
	return OverrideChange{Set: true, Value: &v}
}

// ClearOverride drops a component's override.
func ClearOverride() OverrideChange {
	return OverrideChange{Set: true}
}

// Patch is a staged change to one component. Nil or unset fields are left as
// they are.
type Patch struct {
	Coefficient *float64 `validate:"omitempty,gte=0"`
	Override    OverrideChange
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Coefficient == nil && !p.Override.Set
}

// merge layers q over p; fields set in q win.
func (p Patch) merge(q Patch) Patch {
	if q.Coefficient != nil {
		v := *q.Coefficient
		p.Coefficient = &v
	}
	if q.Override.Set {
		p.Override = OverrideChange{Set: true}
		if q.Override.Value != nil {
			v := *q.Override.Value
			p.Override.Value = &v
		}
	}
	return p
}

func (p Patch) apply(c Component) Component {
	c = c.clone()
	if p.Coefficient != nil {
		c.Coefficient = *p.Coefficient
	}
	if p.Override.Set {
		c.PriceOverride = nil
		if p.Override.Value != nil {
			v := *p.Override.Value
			c.PriceOverride = &v
		}
	}
	return c
}
