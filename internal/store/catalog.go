package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/rab/internal/estimate"
	"github.com/Simplici0/rab/internal/recipe"
)

// CatalogItem is a standard work item with its cached reference price.
type CatalogItem struct {
	ID             string  `json:"id"`
	Code           string  `json:"code"`
	Description    string  `json:"description"`
	Unit           string  `json:"unit"`
	ReferencePrice float64 `json:"referencePrice"`
	CategoryID     string  `json:"categoryId"`
}

func (c CatalogItem) entry() estimate.CatalogEntry {
	return estimate.CatalogEntry{
		Code:           c.Code,
		Description:    c.Description,
		Unit:           c.Unit,
		ReferencePrice: c.ReferencePrice,
		CategoryID:     c.CategoryID,
	}
}

const catalogColumns = `id, code, description, unit, reference_price, category_id`

// Lookup resolves a catalog code. Query failures are logged and reported as
// a miss.
func (s *Store) Lookup(ctx context.Context, code string) (estimate.CatalogEntry, bool) {
	item, err := s.catalogItemBy(ctx, "code", code)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error(s.log.WithField(ctx, "code", code), "catalog lookup", err)
		}
		s.metrics.IncCatalogMiss()
		return estimate.CatalogEntry{}, false
	}
	return item.entry(), true
}

// CatalogItem loads a catalog item by id.
func (s *Store) CatalogItem(ctx context.Context, id string) (CatalogItem, error) {
	return s.catalogItemBy(ctx, "id", id)
}

// ListCatalog returns every catalog item ordered by code.
func (s *Store) ListCatalog(ctx context.Context) ([]CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+catalogColumns+` FROM catalog_items ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var items []CatalogItem
	for rows.Next() {
		var c CatalogItem
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.Unit, &c.ReferencePrice, &c.CategoryID); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return items, nil
}

// UpsertCatalogItem inserts or replaces a catalog item keyed by id.
func (s *Store) UpsertCatalogItem(ctx context.Context, c CatalogItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_items (id, code, description, unit, reference_price, category_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			code = excluded.code,
			description = excluded.description,
			unit = excluded.unit,
			reference_price = excluded.reference_price,
			category_id = excluded.category_id,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, c.ID, c.Code, c.Description, c.Unit, c.ReferencePrice, c.CategoryID)
	if err != nil {
		return fmt.Errorf("upsert catalog item %s: %w", c.ID, err)
	}
	return nil
}

// WriteBackPrice caches a recipe's final unit price on its catalog item.
func (s *Store) WriteBackPrice(ctx context.Context, catalogItemID string, price float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE catalog_items
		SET reference_price = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, price, catalogItemID)
	if err != nil {
		return fmt.Errorf("write back price for %s: %w", catalogItemID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("write back price for %s: %w", catalogItemID, ErrNotFound)
	}
	return nil
}

func (s *Store) catalogItemBy(ctx context.Context, column, value string) (CatalogItem, error) {
	var c CatalogItem
	err := s.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_items WHERE `+column+` = ?`, value,
	).Scan(&c.ID, &c.Code, &c.Description, &c.Unit, &c.ReferencePrice, &c.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return CatalogItem{}, fmt.Errorf("catalog item %s=%s: %w", column, value, ErrNotFound)
	}
	if err != nil {
		return CatalogItem{}, fmt.Errorf("load catalog item %s=%s: %w", column, value, err)
	}
	return c, nil
}

// MasterItemRecord is a master price list row.
type MasterItemRecord struct {
	recipe.MasterItem
	Kind recipe.Group
}

// MasterItem resolves a master item for snapshotting. Failures read as a
// miss.
func (s *Store) MasterItem(ctx context.Context, id string) (recipe.MasterItem, bool) {
	var m recipe.MasterItem
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, unit, price FROM master_items WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Unit, &m.Price)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Error(s.log.WithField(ctx, "master_item_id", id), "master item lookup", err)
		}
		return recipe.MasterItem{}, false
	}
	return m, true
}

// CurrentPrice returns a master item's live price.
func (s *Store) CurrentPrice(ctx context.Context, masterItemID string) (float64, bool) {
	m, ok := s.MasterItem(ctx, masterItemID)
	if !ok {
		return 0, false
	}
	return m.Price, true
}

// UpsertMasterItem inserts or replaces a master price list entry.
func (s *Store) UpsertMasterItem(ctx context.Context, m MasterItemRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO master_items (id, kind, name, unit, price)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			unit = excluded.unit,
			price = excluded.price,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, m.ID, string(m.Kind), m.Name, m.Unit, m.Price)
	if err != nil {
		return fmt.Errorf("upsert master item %s: %w", m.ID, err)
	}
	return nil
}
