package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/rab/internal/db"
	"github.com/Simplici0/rab/internal/recipe"
)

var _ recipe.Store = (*Store)(nil)

// LoadRecipe returns the recipe of a catalog item; found is false when the
// item has none yet.
func (s *Store) LoadRecipe(ctx context.Context, catalogItemID string) (recipe.Record, bool, error) {
	rec := recipe.Record{CatalogItemID: catalogItemID}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, overhead_percent FROM recipes WHERE catalog_item_id = ?`, catalogItemID,
	).Scan(&rec.ID, &rec.OverheadPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return recipe.Record{}, false, nil
	}
	if err != nil {
		return recipe.Record{}, false, fmt.Errorf("load recipe for %s: %w", catalogItemID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, grp, master_item_id, coefficient, price_override,
		       name_snapshot, unit_snapshot, unit_price_snapshot
		FROM recipe_components
		WHERE recipe_id = ?
		ORDER BY CASE grp WHEN 'LABOR' THEN 0 WHEN 'MATERIAL' THEN 1 ELSE 2 END, seq
	`, rec.ID)
	if err != nil {
		return recipe.Record{}, false, fmt.Errorf("load components of %s: %w", rec.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c        recipe.Component
			group    string
			override sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &group, &c.MasterItemID, &c.Coefficient, &override,
			&c.NameSnapshot, &c.UnitSnapshot, &c.UnitPriceSnapshot); err != nil {
			return recipe.Record{}, false, fmt.Errorf("scan component: %w", err)
		}
		c.Group = recipe.Group(group)
		if override.Valid {
			v := override.Float64
			c.PriceOverride = &v
		}
		rec.Components = append(rec.Components, c)
	}
	if err := rows.Err(); err != nil {
		return recipe.Record{}, false, fmt.Errorf("iterate components: %w", err)
	}
	return rec, true, nil
}

func (s *Store) CreateRecipe(ctx context.Context, rec recipe.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (id, catalog_item_id, overhead_percent) VALUES (?, ?, ?)`,
		rec.ID, rec.CatalogItemID, rec.OverheadPercent)
	if err != nil {
		return fmt.Errorf("create recipe for %s: %w", rec.CatalogItemID, err)
	}
	return nil
}

func (s *Store) InsertComponent(ctx context.Context, recipeID string, c recipe.Component) error {
	return db.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		seq, err := nextComponentSeq(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_components (
				id, recipe_id, seq, grp, master_item_id, coefficient, price_override,
				name_snapshot, unit_snapshot, unit_price_snapshot
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, recipeID, seq, string(c.Group), c.MasterItemID, c.Coefficient, nullable(c.PriceOverride),
			c.NameSnapshot, c.UnitSnapshot, c.UnitPriceSnapshot); err != nil {
			return fmt.Errorf("insert component %s: %w", c.ID, err)
		}
		return nil
	})
}

// UpdateComponent stores the editable fields of a component.
func (s *Store) UpdateComponent(ctx context.Context, recipeID string, c recipe.Component) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recipe_components
		SET coefficient = ?, price_override = ?
		WHERE id = ? AND recipe_id = ?
	`, c.Coefficient, nullable(c.PriceOverride), c.ID, recipeID)
	if err != nil {
		return fmt.Errorf("update component %s: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update component %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteComponent(ctx context.Context, recipeID, componentID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recipe_components WHERE id = ? AND recipe_id = ?`, componentID, recipeID)
	if err != nil {
		return fmt.Errorf("delete component %s: %w", componentID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete component %s: %w", componentID, ErrNotFound)
	}
	return nil
}

func (s *Store) SaveOverhead(ctx context.Context, recipeID string, percent float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET overhead_percent = ? WHERE id = ?`, percent, recipeID)
	if err != nil {
		return fmt.Errorf("save overhead of %s: %w", recipeID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save overhead of %s: %w", recipeID, ErrNotFound)
	}
	return nil
}

// nextComponentSeq keeps components of a recipe in insertion order.
func nextComponentSeq(ctx context.Context, q db.DBTX, recipeID string) (int64, error) {
	var seq int64
	if err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM recipe_components WHERE recipe_id = ?`, recipeID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next component seq: %w", err)
	}
	return seq, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
