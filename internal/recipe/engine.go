package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Simplici0/rab/internal/logger"
	"github.com/Simplici0/rab/internal/metrics"
)

var validate = validator.New()

// ErrMasterItemNotFound is returned when a component references an unknown
// master item at add time.
var ErrMasterItemNotFound = errors.New("master item not found")

// Store persists recipes and their components. Components of one group load
// back in the order they were inserted.
type Store interface {
	LoadRecipe(ctx context.Context, catalogItemID string) (Record, bool, error)
	CreateRecipe(ctx context.Context, rec Record) error
	InsertComponent(ctx context.Context, recipeID string, c Component) error
	UpdateComponent(ctx context.Context, recipeID string, c Component) error
	DeleteComponent(ctx context.Context, recipeID, componentID string) error
	SaveOverhead(ctx context.Context, recipeID string, percent float64) error
}

// MasterSource resolves master items for snapshotting.
type MasterSource interface {
	MasterItem(ctx context.Context, id string) (MasterItem, bool)
}

// PriceSource resolves the current price of a master item.
type PriceSource interface {
	CurrentPrice(ctx context.Context, masterItemID string) (float64, bool)
}

// PriceWriter stores a recipe's final unit price on its catalog item.
type PriceWriter interface {
	WriteBackPrice(ctx context.Context, catalogItemID string, price float64) error
}

// Deps are the collaborators of an Engine. Logger and Metrics may be nil.
type Deps struct {
	Store   Store
	Masters MasterSource
	Prices  PriceSource
	Writer  PriceWriter
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Engine runs the recipe operations that touch collaborators.
type Engine struct {
	store   Store
	masters MasterSource
	prices  PriceSource
	writer  PriceWriter
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewEngine(d Deps) *Engine {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:   d.Store,
		masters: d.Masters,
		prices:  d.Prices,
		writer:  d.Writer,
		log:     log,
		metrics: d.Metrics,
	}
}

// ComponentDraft describes a component to add.
type ComponentDraft struct {
	Group         Group
	MasterItemID  string   `validate:"required"`
	Coefficient   float64  `validate:"gte=0"`
	PriceOverride *float64 `validate:"omitempty,gte=0"`
}

// Open loads the recipe of a catalog item, or returns a new unsaved one when
// none exists yet.
func (e *Engine) Open(ctx context.Context, catalogItemID string) (*Recipe, error) {
	rec, found, err := e.store.LoadRecipe(ctx, catalogItemID)
	if err != nil {
		return nil, fmt.Errorf("open recipe for %s: %w", catalogItemID, err)
	}
	if !found {
		return New(catalogItemID), nil
	}
	return Restore(rec), nil
}

// AddComponent snapshots the master item and stores the new component right
// away. The recipe itself is created on its first component.
func (e *Engine) AddComponent(ctx context.Context, r *Recipe, d ComponentDraft) (Component, error) {
	if !d.Group.Valid() {
		return Component{}, fmt.Errorf("add component %q: %w", d.Group, ErrInvalidGroup)
	}
	if err := validate.Struct(d); err != nil {
		return Component{}, fmt.Errorf("add component: %w", err)
	}
	master, ok := e.masters.MasterItem(ctx, d.MasterItemID)
	if !ok {
		return Component{}, fmt.Errorf("add component %s: %w", d.MasterItemID, ErrMasterItemNotFound)
	}

	c := Component{
		ID:                uuid.NewString(),
		Group:             d.Group,
		MasterItemID:      master.ID,
		NameSnapshot:      master.Name,
		UnitSnapshot:      master.Unit,
		UnitPriceSnapshot: master.Price,
		Coefficient:       d.Coefficient,
	}
	if d.PriceOverride != nil {
		v := *d.PriceOverride
		c.PriceOverride = &v
	}

	if err := e.ensureCreated(ctx, r); err != nil {
		return Component{}, err
	}
	if err := e.store.InsertComponent(ctx, r.ID, c); err != nil {
		return Component{}, fmt.Errorf("add component: %w", err)
	}
	r.insert(c)
	return c.clone(), nil
}

// CommitOne applies a component's staged change to the baseline. On a store
// failure the change stays staged.
func (e *Engine) CommitOne(ctx context.Context, r *Recipe, id string) error {
	p, ok := r.pending[id]
	if !ok {
		return fmt.Errorf("commit component %s: %w", id, ErrNotStaged)
	}
	i := r.index(id)
	if i < 0 {
		delete(r.pending, id)
		return fmt.Errorf("commit component %s: %w", id, ErrComponentNotFound)
	}

	updated := p.apply(r.components[i])
	if err := e.store.UpdateComponent(ctx, r.ID, updated); err != nil {
		e.metrics.IncCommitFailure()
		e.log.Error(e.log.WithField(ctx, "component_id", id), "commit staged component", err)
		return fmt.Errorf("commit component %s: %w", id, err)
	}
	r.components[i] = updated
	delete(r.pending, id)
	return nil
}

// CommitAll commits every staged change one after another. It is not
// atomic: changes committed before a failure stay committed, failed ones stay
// staged and are reported in a *BatchError.
func (e *Engine) CommitAll(ctx context.Context, r *Recipe) error {
	batch := &BatchError{}
	for _, id := range r.StagedIDs() {
		if err := e.CommitOne(ctx, r, id); err != nil {
			batch.add(id, err)
		}
	}
	return batch.orNil()
}

// RemoveComponent deletes a component from the store and the baseline,
// dropping any staged change it had.
func (e *Engine) RemoveComponent(ctx context.Context, r *Recipe, id string) error {
	if r.index(id) < 0 {
		return fmt.Errorf("remove component %s: %w", id, ErrComponentNotFound)
	}
	if err := e.store.DeleteComponent(ctx, r.ID, id); err != nil {
		return fmt.Errorf("remove component %s: %w", id, err)
	}
	r.remove(id)
	return nil
}

// Save persists the live overhead.
func (e *Engine) Save(ctx context.Context, r *Recipe) error {
	if err := e.ensureCreated(ctx, r); err != nil {
		return err
	}
	if err := e.store.SaveOverhead(ctx, r.ID, r.overhead); err != nil {
		return fmt.Errorf("save recipe %s: %w", r.ID, err)
	}
	r.savedOverhead = r.overhead
	return nil
}

// Breakdown prices the committed components with the live overhead.
func (e *Engine) Breakdown(ctx context.Context, r *Recipe) Breakdown {
	return Calculate(e.lines(ctx, r.components), r.overhead)
}

// Preview prices the components with staged changes merged in.
func (e *Engine) Preview(ctx context.Context, r *Recipe) Breakdown {
	return Calculate(e.lines(ctx, r.previewComponents()), r.overhead)
}

// Recompute writes the committed final unit price F back to the catalog item
// and returns the breakdown it was taken from. With no edits in between,
// repeated calls write the same value.
func (e *Engine) Recompute(ctx context.Context, r *Recipe) (Breakdown, error) {
	b := e.Breakdown(ctx, r)
	err := e.writer.WriteBackPrice(ctx, r.CatalogItemID, b.UnitPrice)
	e.metrics.ObserveWriteBack(err)
	if err != nil {
		e.log.Error(e.log.WithCatalogItemID(ctx, r.CatalogItemID), "write back unit price", err)
		return b, fmt.Errorf("recompute recipe %s: %w", r.ID, err)
	}
	return b, nil
}

// EffectivePrice resolves a component's unit price: the override when set,
// else the current master price, else the snapshot taken at add time.
func (e *Engine) EffectivePrice(ctx context.Context, c Component) float64 {
	if c.PriceOverride != nil {
		return *c.PriceOverride
	}
	if e.prices != nil {
		if price, ok := e.prices.CurrentPrice(ctx, c.MasterItemID); ok {
			return price
		}
	}
	return c.UnitPriceSnapshot
}

func (e *Engine) lines(ctx context.Context, components []Component) []Line {
	out := make([]Line, len(components))
	for i, c := range components {
		out[i] = Line{
			ID:          c.ID,
			Group:       c.Group,
			Coefficient: c.Coefficient,
			UnitPrice:   e.EffectivePrice(ctx, c),
		}
	}
	return out
}

func (e *Engine) ensureCreated(ctx context.Context, r *Recipe) error {
	if r.persisted {
		return nil
	}
	rec := Record{ID: r.ID, CatalogItemID: r.CatalogItemID, OverheadPercent: r.savedOverhead}
	if err := e.store.CreateRecipe(ctx, rec); err != nil {
		return fmt.Errorf("create recipe for %s: %w", r.CatalogItemID, err)
	}
	r.persisted = true
	e.log.Info(e.log.WithCatalogItemID(ctx, r.CatalogItemID), "recipe created")
	return nil
}
