package recipe

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Record is the persisted baseline of a recipe.
type Record struct {
	ID              string
	CatalogItemID   string
	OverheadPercent float64
	Components      []Component
}

// Recipe is the unit-price aggregate of one catalog item. It owns the
// committed baseline, the live overhead and the set of staged component
// changes. A Recipe is not safe for concurrent use.
type Recipe struct {
	ID            string
	CatalogItemID string

	components    []Component
	overhead      float64
	savedOverhead float64
	pending       map[string]Patch
	persisted     bool
}

// New returns an empty recipe that has not been stored yet.
func New(catalogItemID string) *Recipe {
	return &Recipe{
		ID:            uuid.NewString(),
		CatalogItemID: catalogItemID,
		pending:       map[string]Patch{},
	}
}

// Restore rebuilds a recipe from its stored record.
func Restore(rec Record) *Recipe {
	r := &Recipe{
		ID:            rec.ID,
		CatalogItemID: rec.CatalogItemID,
		overhead:      clamp(rec.OverheadPercent),
		savedOverhead: clamp(rec.OverheadPercent),
		pending:       map[string]Patch{},
		persisted:     true,
	}
	for _, c := range rec.Components {
		r.insert(c.clone())
	}
	return r
}

// Persisted reports whether the recipe exists in the store.
func (r *Recipe) Persisted() bool { return r.persisted }

// OverheadPercent is the live overhead, saved or not.
func (r *Recipe) OverheadPercent() float64 { return r.overhead }

// SavedOverheadPercent is the overhead as last persisted.
func (r *Recipe) SavedOverheadPercent() float64 { return r.savedOverhead }

// SetOverheadPercent updates the live overhead. Negative values read as 0.
// The value is persisted by Engine.Save.
func (r *Recipe) SetOverheadPercent(v float64) {
	r.overhead = clamp(v)
}

// Components returns the committed components in group order.
func (r *Recipe) Components() []Component {
	out := make([]Component, len(r.components))
	for i, c := range r.components {
		out[i] = c.clone()
	}
	return out
}

// GroupComponents returns the committed components of one group.
func (r *Recipe) GroupComponents(g Group) []Component {
	var out []Component
	for _, c := range r.components {
		if c.Group == g {
			out = append(out, c.clone())
		}
	}
	return out
}

// Component returns one committed component.
func (r *Recipe) Component(id string) (Component, error) {
	i := r.index(id)
	if i < 0 {
		return Component{}, fmt.Errorf("component %s: %w", id, ErrComponentNotFound)
	}
	return r.components[i].clone(), nil
}

// StageUpdate records a pending change to a component without touching the
// baseline. Staging the same component again layers the new fields on top.
func (r *Recipe) StageUpdate(id string, p Patch) error {
	if r.index(id) < 0 {
		return fmt.Errorf("stage component %s: %w", id, ErrComponentNotFound)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("stage component %s: %w", id, err)
	}
	if p.IsZero() {
		return nil
	}
	r.pending[id] = r.pending[id].merge(p)
	return nil
}

// Unstage drops the pending change of one component.
func (r *Recipe) Unstage(id string) {
	delete(r.pending, id)
}

// Staged returns the pending change of a component.
func (r *Recipe) Staged(id string) (Patch, bool) {
	p, ok := r.pending[id]
	return p, ok
}

// StagedIDs lists components with pending changes in baseline order.
func (r *Recipe) StagedIDs() []string {
	var ids []string
	for _, c := range r.components {
		if _, ok := r.pending[c.ID]; ok {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Dirty reports unsaved overhead or uncommitted component changes.
func (r *Recipe) Dirty() bool {
	return r.overhead != r.savedOverhead || len(r.pending) > 0
}

// previewComponents merges staged changes over the baseline.
func (r *Recipe) previewComponents() []Component {
	out := make([]Component, len(r.components))
	for i, c := range r.components {
		if p, ok := r.pending[c.ID]; ok {
			out[i] = p.apply(c)
			continue
		}
		out[i] = c.clone()
	}
	return out
}

// insert places c after the last component of its group.
func (r *Recipe) insert(c Component) {
	at := len(r.components)
	for i, existing := range r.components {
		if existing.Group.rank() > c.Group.rank() {
			at = i
			break
		}
	}
	r.components = slices.Insert(r.components, at, c)
}

func (r *Recipe) remove(id string) {
	if i := r.index(id); i >= 0 {
		r.components = slices.Delete(r.components, i, i+1)
	}
	delete(r.pending, id)
}

func (r *Recipe) index(id string) int {
	return slices.IndexFunc(r.components, func(c Component) bool { return c.ID == id })
}

func clamp(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}
