package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/rab/internal/db"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

type catalogRow struct {
	id, code, description, unit, categoryID string
	referencePrice                          float64
}

type masterRow struct {
	id, kind, name, unit string
	price                float64
}

// Starter catalog of common building works. Reference prices are refreshed
// by recipe recomputes once recipes exist.
var catalog = []catalogRow{
	{"cat-persiapan-bouwplank", "A.2.2.1.1", "Pengukuran dan pemasangan bouwplank", "m'", "persiapan", 35000},
	{"cat-tanah-galian", "A.2.3.1.1", "Galian tanah biasa sedalam 1 m", "m3", "tanah", 95000},
	{"cat-beton-k225", "A.4.1.1.7", "Beton mutu f'c 19,3 MPa (K-225)", "m3", "beton", 1250000},
	{"cat-pasangan-bata", "A.4.4.1.9", "Pasangan bata merah 1:4", "m2", "pasangan", 185000},
}

var masters = []masterRow{
	{"mst-pekerja", "LABOR", "Pekerja", "OH", 110000},
	{"mst-tukang-batu", "LABOR", "Tukang batu", "OH", 135000},
	{"mst-semen-pc", "MATERIAL", "Semen Portland 50 kg", "zak", 72000},
	{"mst-pasir-pasang", "MATERIAL", "Pasir pasang", "m3", 285000},
	{"mst-molen", "EQUIPMENT", "Concrete mixer 0,3-0,6 m3", "jam", 95000},
}

// Run executes the startup seed in an idempotent way. Existing rows are
// never overwritten.
func Run(ctx context.Context, database *sql.DB) (Stats, error) {
	stats := Stats{}
	err := db.WithinTx(ctx, database, func(tx *sql.Tx) error {
		for _, c := range catalog {
			if err := ensureCatalogItem(ctx, tx, c, &stats); err != nil {
				return err
			}
		}
		for _, m := range masters {
			if err := ensureMasterItem(ctx, tx, m, &stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("seed: %w", err)
	}
	return stats, nil
}

func ensureCatalogItem(ctx context.Context, tx *sql.Tx, c catalogRow, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM catalog_items WHERE id = ? OR code = ? LIMIT 1)`, c.id, c.code).Scan(&exists); err != nil {
		return fmt.Errorf("check catalog item %s existence: %w", c.code, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog_items (id, code, description, unit, reference_price, category_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.id, c.code, c.description, c.unit, c.referencePrice, c.categoryID); err != nil {
		return fmt.Errorf("insert catalog item %s: %w", c.code, err)
	}
	stats.Inserts++
	return nil
}

func ensureMasterItem(ctx context.Context, tx *sql.Tx, m masterRow, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM master_items WHERE id = ? LIMIT 1)`, m.id).Scan(&exists); err != nil {
		return fmt.Errorf("check master item %s existence: %w", m.id, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO master_items (id, kind, name, unit, price)
		VALUES (?, ?, ?, ?, ?)
	`, m.id, m.kind, m.name, m.unit, m.price); err != nil {
		return fmt.Errorf("insert master item %s: %w", m.id, err)
	}
	stats.Inserts++
	return nil
}
