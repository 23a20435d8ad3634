// Package store persists estimates, recipes and the reference catalog in
// SQLite and serves catalog and master price lookups.
package store

import (
	"database/sql"
	"errors"

	"github.com/Simplici0/rab/internal/logger"
	"github.com/Simplici0/rab/internal/metrics"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// Store is the SQLite implementation of the estimate catalog and the recipe
// collaborators.
type Store struct {
	db      *sql.DB
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New wraps an open database. log and m may be nil.
func New(db *sql.DB, log *logger.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log, metrics: m}
}
