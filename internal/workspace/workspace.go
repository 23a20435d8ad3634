// Package workspace keeps the estimates and recipes that are open for editing
// and applies edit commands to them one at a time.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Simplici0/rab/internal/estimate"
	"github.com/Simplici0/rab/internal/logger"
	"github.com/Simplici0/rab/internal/recipe"
)

// ErrNotOpen is returned for an estimate id that is not open.
var ErrNotOpen = errors.New("estimate is not open")

// EstimateStore saves and loads estimate documents.
type EstimateStore interface {
	SaveEstimate(ctx context.Context, e *estimate.Estimate) error
	LoadEstimate(ctx context.Context, id string) (*estimate.Estimate, error)
}

// Options configures a Workspace. Logger may be nil.
type Options struct {
	Estimates         EstimateStore
	Catalog           estimate.Catalog
	Recipes           *recipe.Engine
	Logger            *logger.Logger
	DefaultPPNPercent float64
}

// Workspace serialises every edit behind one mutex, so an estimate's
// mutation and its rollup always complete before the next event runs. The
// open tree is the source of truth until it is saved.
type Workspace struct {
	mu sync.Mutex

	store      EstimateStore
	catalog    estimate.Catalog
	engine     *recipe.Engine
	log        *logger.Logger
	defaultPPN float64

	estimates map[string]*estimate.Estimate
	recipes   map[string]*recipe.Recipe
}

func New(opts Options) *Workspace {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Workspace{
		store:      opts.Estimates,
		catalog:    opts.Catalog,
		engine:     opts.Recipes,
		log:        log,
		defaultPPN: opts.DefaultPPNPercent,
		estimates:  map[string]*estimate.Estimate{},
		recipes:    map[string]*recipe.Recipe{},
	}
}

// ProfileInput is the project profile confirmed when an estimate is created.
type ProfileInput struct {
	ProjectName  string            `json:"projectName" validate:"max=255"`
	Owner        string            `json:"owner" validate:"max=255"`
	Notes        string            `json:"notes"`
	CustomFields map[string]string `json:"customFields"`
	PPNPercent   *float64          `json:"ppnPercent" validate:"omitempty,gte=0"`
}

func (p ProfileInput) profile() estimate.Profile {
	return estimate.Profile{
		ProjectName:  p.ProjectName,
		Owner:        p.Owner,
		Notes:        p.Notes,
		CustomFields: p.CustomFields,
	}
}

// Create opens a new, unsaved estimate.
func (w *Workspace) Create(ctx context.Context, in ProfileInput) (EstimateView, error) {
	if err := validate.Struct(in); err != nil {
		return EstimateView{}, fmt.Errorf("create estimate: %w: %w", ErrInvalidCommand, err)
	}
	ppn := w.defaultPPN
	if in.PPNPercent != nil {
		ppn = *in.PPNPercent
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	e := estimate.New("", in.profile(), ppn)
	w.estimates[e.ID] = e
	w.log.Info(w.log.WithEstimateID(ctx, e.ID), "estimate created")
	return estimateView(e), nil
}

// Open returns an open estimate, loading it from the store when needed. An
// estimate that is already open is returned as is, unsaved edits included.
func (w *Workspace) Open(ctx context.Context, id string) (EstimateView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e, ok := w.estimates[id]; ok {
		return estimateView(e), nil
	}
	e, err := w.store.LoadEstimate(ctx, id)
	if err != nil {
		return EstimateView{}, fmt.Errorf("open estimate %s: %w", id, err)
	}
	w.estimates[id] = e
	return estimateView(e), nil
}

// View returns the current state of an open estimate.
func (w *Workspace) View(id string) (EstimateView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, err := w.estimate(id)
	if err != nil {
		return EstimateView{}, err
	}
	return estimateView(e), nil
}

// Save writes an open estimate to the store. The tree stays open.
func (w *Workspace) Save(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, err := w.estimate(id)
	if err != nil {
		return err
	}
	ctx = w.log.WithEstimateID(ctx, id)
	if err := w.store.SaveEstimate(ctx, e); err != nil {
		w.log.Error(ctx, "save estimate", err)
		return fmt.Errorf("save estimate %s: %w", id, err)
	}
	w.log.Info(ctx, "estimate saved")
	return nil
}

// Discard drops an open estimate without saving.
func (w *Workspace) Discard(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.estimates[id]; !ok {
		return fmt.Errorf("discard estimate %s: %w", id, ErrNotOpen)
	}
	delete(w.estimates, id)
	return nil
}

// WriteSummary prints the text recap of an open estimate.
func (w *Workspace) WriteSummary(id string, out io.Writer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, err := w.estimate(id)
	if err != nil {
		return err
	}
	return e.WriteSummary(out)
}

// Apply runs one edit command against an open estimate. On error the tree is
// left as it was before the command.
func (w *Workspace) Apply(ctx context.Context, id string, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	e, err := w.estimate(id)
	if err != nil {
		return Result{}, err
	}
	created, err := w.dispatch(ctx, e, cmd)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", cmd.Op, err)
	}
	w.log.Debug(w.log.WithFields(ctx, map[string]any{"estimate_id": id, "op": cmd.Op}), "command applied")
	return Result{CreatedID: created, Estimate: estimateView(e)}, nil
}

func (w *Workspace) estimate(id string) (*estimate.Estimate, error) {
	e, ok := w.estimates[id]
	if !ok {
		return nil, fmt.Errorf("estimate %s: %w", id, ErrNotOpen)
	}
	return e, nil
}
