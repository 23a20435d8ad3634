package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Simplici0/rab/internal/db"
)

func TestUpIsRepeatable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Up(ctx, database); err != nil {
			t.Fatalf("up (run=%d): %v", i, err)
		}
	}

	v, err := Version(ctx, database)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 3 {
		t.Fatalf("expected schema version 3, got %d", v)
	}

	for _, table := range []string{"catalog_items", "master_items", "estimates", "recipes", "recipe_components"} {
		var n int
		if err := database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n); err != nil {
			t.Fatalf("query table %s: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}
