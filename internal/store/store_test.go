package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/rab/internal/db"
	"github.com/Simplici0/rab/internal/estimate"
	"github.com/Simplici0/rab/internal/migrations"
	"github.com/Simplici0/rab/internal/recipe"
	"github.com/Simplici0/rab/internal/volume"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, migrations.Up(ctx, database))

	s := New(database, nil, nil)
	require.NoError(t, s.UpsertCatalogItem(ctx, CatalogItem{ID: "cat-1", Code: "A.1", Description: "Plesteran 1:4", Unit: "m2", ReferencePrice: 68000}))
	require.NoError(t, s.UpsertCatalogItem(ctx, CatalogItem{ID: "cat-2", Code: "X2", Description: "Acian", Unit: "m2", ReferencePrice: 75000}))
	require.NoError(t, s.UpsertMasterItem(ctx, MasterItemRecord{MasterItem: recipe.MasterItem{ID: "tukang", Name: "Tukang", Unit: "OH", Price: 50000}, Kind: recipe.Labor}))
	require.NoError(t, s.UpsertMasterItem(ctx, MasterItemRecord{MasterItem: recipe.MasterItem{ID: "semen", Name: "Semen", Unit: "zak", Price: 200000}, Kind: recipe.Material}))
	return s
}

func TestLookupHitAndMiss(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry, ok := s.Lookup(ctx, "A.1")
	require.True(t, ok)
	assert.Equal(t, "Plesteran 1:4", entry.Description)
	assert.Equal(t, "m2", entry.Unit)
	assert.Equal(t, 68000.0, entry.ReferencePrice)

	_, ok = s.Lookup(ctx, "missing")
	assert.False(t, ok)
}

func TestWriteBackPriceUpdatesCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteBackPrice(ctx, "cat-1", 70500.5))
	entry, ok := s.Lookup(ctx, "A.1")
	require.True(t, ok)
	assert.Equal(t, 70500.5, entry.ReferencePrice)

	require.NoError(t, s.WriteBackPrice(ctx, "cat-1", 70500.5), "same value twice")
	assert.ErrorIs(t, s.WriteBackPrice(ctx, "nope", 1), ErrNotFound)

	items, err := s.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A.1", items[0].Code)
}

func TestEstimateSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := estimate.New("", estimate.Profile{ProjectName: "Ruko 2 lantai", Owner: "Bu Sari", CustomFields: map[string]string{"Lokasi": "Depok"}}, 11)
	sec := e.AddSection("Finishing")
	g, err := e.AddGroup(sec.ID, "Dinding")
	require.NoError(t, err)
	it, err := e.AddCatalogItem(ctx, s, estimate.GroupPath(sec.ID, g.ID), "A.1")
	require.NoError(t, err)
	row, err := e.AddDetailRow(it.ID)
	require.NoError(t, err)
	_, err = e.UpdateDetailRow(it.ID, row.ID, volume.RowPatch{Length: ptr(4.0), Width: ptr(3.0), Height: ptr(1.0), Count: ptr(2.0)})
	require.NoError(t, err)
	require.NoError(t, e.ChangeCode(ctx, s, it.ID, "X2"))

	require.NoError(t, s.SaveEstimate(ctx, e))
	loaded, err := s.LoadEstimate(ctx, e.ID)
	require.NoError(t, err)

	assert.Equal(t, e.ID, loaded.ID)
	assert.Equal(t, e.Profile, loaded.Profile)
	assert.InDelta(t, 24*75000.0, loaded.Subtotal(), 1e-6)
	assert.InDelta(t, e.GrandTotal(), loaded.GrandTotal(), 1e-6)

	e.SetPPNPercent(0)
	require.NoError(t, s.SaveEstimate(ctx, e), "last save wins")
	loaded, err = s.LoadEstimate(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, loaded.PPNAmount())

	list, err := s.ListEstimates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ruko 2 lantai", list[0].ProjectName)
	assert.InDelta(t, 1800000.0, list[0].GrandTotal, 1e-6)

	require.NoError(t, s.DeleteEstimate(ctx, e.ID))
	_, err = s.LoadEstimate(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteEstimate(ctx, e.ID), ErrNotFound)
}

func TestRecipePersistenceThroughEngine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	engine := recipe.NewEngine(recipe.Deps{Store: s, Masters: s, Prices: s, Writer: s})

	r, err := engine.Open(ctx, "cat-1")
	require.NoError(t, err)
	require.False(t, r.Persisted())

	m, err := engine.AddComponent(ctx, r, recipe.ComponentDraft{Group: recipe.Material, MasterItemID: "semen", Coefficient: 1})
	require.NoError(t, err)
	l, err := engine.AddComponent(ctx, r, recipe.ComponentDraft{Group: recipe.Labor, MasterItemID: "tukang", Coefficient: 2, PriceOverride: ptr(45000.0)})
	require.NoError(t, err)
	r.SetOverheadPercent(10)
	require.NoError(t, engine.Save(ctx, r))

	require.NoError(t, r.StageUpdate(l.ID, recipe.Patch{Override: recipe.ClearOverride()}))
	require.NoError(t, engine.CommitAll(ctx, r))

	b, err := engine.Recompute(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 330000.0, b.UnitPrice)

	entry, ok := s.Lookup(ctx, "A.1")
	require.True(t, ok)
	assert.Equal(t, 330000.0, entry.ReferencePrice)

	reopened, err := engine.Open(ctx, "cat-1")
	require.NoError(t, err)
	assert.Equal(t, r.ID, reopened.ID)
	assert.Equal(t, 10.0, reopened.OverheadPercent())
	components := reopened.Components()
	require.Len(t, components, 2)
	assert.Equal(t, l.ID, components[0].ID)
	assert.Nil(t, components[0].PriceOverride)
	assert.Equal(t, m.ID, components[1].ID)
	assert.Equal(t, "Semen", components[1].NameSnapshot)
	assert.Equal(t, 330000.0, engine.Breakdown(ctx, reopened).UnitPrice)

	require.NoError(t, engine.RemoveComponent(ctx, reopened, m.ID))
	again, err := engine.Open(ctx, "cat-1")
	require.NoError(t, err)
	assert.Len(t, again.Components(), 1)
}

func TestComponentKeepsSnapshotWhenMasterDisappears(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	engine := recipe.NewEngine(recipe.Deps{Store: s, Masters: s, Prices: s, Writer: s})

	r, err := engine.Open(ctx, "cat-2")
	require.NoError(t, err)
	c, err := engine.AddComponent(ctx, r, recipe.ComponentDraft{Group: recipe.Labor, MasterItemID: "tukang", Coefficient: 1})
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `DELETE FROM master_items WHERE id = ?`, "tukang")
	require.NoError(t, err)

	assert.Equal(t, 50000.0, engine.EffectivePrice(ctx, c))
	_, ok := s.CurrentPrice(ctx, "tukang")
	assert.False(t, ok)
}

func ptr[T any](v T) *T { return &v }
