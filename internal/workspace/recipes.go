package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/Simplici0/rab/internal/recipe"
)

// RecipeOp names a unit-price recipe edit.
type RecipeOp string

const (
	RecipeAddComponent    RecipeOp = "addComponent"
	RecipeStageUpdate     RecipeOp = "stageUpdate"
	RecipeUnstage         RecipeOp = "unstage"
	RecipeCommitOne       RecipeOp = "commitOne"
	RecipeCommitAll       RecipeOp = "commitAll"
	RecipeRemoveComponent RecipeOp = "removeComponent"
	RecipeSetOverhead     RecipeOp = "setOverhead"
	RecipeSave            RecipeOp = "save"
	RecipeRecompute       RecipeOp = "recompute"
)

// ComponentInput is a component to add.
type ComponentInput struct {
	Group         string   `json:"group"`
	MasterItemID  string   `json:"masterItemId"`
	Coefficient   float64  `json:"coefficient"`
	PriceOverride *float64 `json:"priceOverride"`
}

// RecipeCommand is one recipe edit event.
type RecipeCommand struct {
	Op            RecipeOp        `json:"op" validate:"required,oneof=addComponent stageUpdate unstage commitOne commitAll removeComponent setOverhead save recompute"`
	ComponentID   string          `json:"componentId" validate:"required_if=Op stageUpdate,required_if=Op unstage,required_if=Op commitOne,required_if=Op removeComponent"`
	Component     *ComponentInput `json:"component" validate:"required_if=Op addComponent"`
	Coefficient   *float64        `json:"coefficient"`
	PriceOverride *float64        `json:"priceOverride"`
	ClearOverride bool            `json:"clearOverride"`
	Value         *float64        `json:"value" validate:"required_if=Op setOverhead"`
}

func (c RecipeCommand) patch() recipe.Patch {
	p := recipe.Patch{Coefficient: c.Coefficient}
	switch {
	case c.ClearOverride:
		p.Override = recipe.ClearOverride()
	case c.PriceOverride != nil:
		p.Override = recipe.SetOverride(*c.PriceOverride)
	}
	return p
}

// OpenRecipe returns the recipe of a catalog item, loading it on first use.
// A catalog item without a recipe gets an unsaved one.
func (w *Workspace) OpenRecipe(ctx context.Context, catalogItemID string) (RecipeView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, err := w.recipe(ctx, catalogItemID)
	if err != nil {
		return RecipeView{}, err
	}
	return recipeView(ctx, w.engine, r), nil
}

// CloseRecipe forgets an open recipe and its staged changes.
func (w *Workspace) CloseRecipe(catalogItemID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.recipes, catalogItemID)
}

// ApplyRecipe runs one recipe edit. A partly failed commitAll still returns
// the view, with the failures listed in Failed, together with the
// *recipe.BatchError.
func (w *Workspace) ApplyRecipe(ctx context.Context, catalogItemID string, cmd RecipeCommand) (RecipeView, error) {
	if err := validate.Struct(cmd); err != nil {
		return RecipeView{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	r, err := w.recipe(ctx, catalogItemID)
	if err != nil {
		return RecipeView{}, err
	}
	ctx = w.log.WithCatalogItemID(ctx, catalogItemID)

	err = w.dispatchRecipe(ctx, r, cmd)
	var batch *recipe.BatchError
	switch {
	case errors.As(err, &batch):
		v := recipeView(ctx, w.engine, r)
		v.Failed = make(map[string]string, len(batch.Failed()))
		for _, id := range batch.Failed() {
			v.Failed[id] = batch.Err(id).Error()
		}
		return v, err
	case err != nil:
		return RecipeView{}, fmt.Errorf("%s: %w", cmd.Op, err)
	}
	return recipeView(ctx, w.engine, r), nil
}

func (w *Workspace) dispatchRecipe(ctx context.Context, r *recipe.Recipe, c RecipeCommand) error {
	switch c.Op {
	case RecipeAddComponent:
		_, err := w.engine.AddComponent(ctx, r, recipe.ComponentDraft{
			Group:         recipe.Group(c.Component.Group),
			MasterItemID:  c.Component.MasterItemID,
			Coefficient:   c.Component.Coefficient,
			PriceOverride: c.Component.PriceOverride,
		})
		return err
	case RecipeStageUpdate:
		return r.StageUpdate(c.ComponentID, c.patch())
	case RecipeUnstage:
		r.Unstage(c.ComponentID)
	case RecipeCommitOne:
		return w.engine.CommitOne(ctx, r, c.ComponentID)
	case RecipeCommitAll:
		return w.engine.CommitAll(ctx, r)
	case RecipeRemoveComponent:
		return w.engine.RemoveComponent(ctx, r, c.ComponentID)
	case RecipeSetOverhead:
		r.SetOverheadPercent(*c.Value)
	case RecipeSave:
		return w.engine.Save(ctx, r)
	case RecipeRecompute:
		_, err := w.engine.Recompute(ctx, r)
		return err
	}
	return nil
}

func (w *Workspace) recipe(ctx context.Context, catalogItemID string) (*recipe.Recipe, error) {
	if r, ok := w.recipes[catalogItemID]; ok {
		return r, nil
	}
	r, err := w.engine.Open(ctx, catalogItemID)
	if err != nil {
		return nil, err
	}
	w.recipes[catalogItemID] = r
	return r, nil
}
