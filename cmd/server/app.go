package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Simplici0/rab/internal/config"
	"github.com/Simplici0/rab/internal/db"
	"github.com/Simplici0/rab/internal/logger"
	"github.com/Simplici0/rab/internal/metrics"
	"github.com/Simplici0/rab/internal/migrations"
	"github.com/Simplici0/rab/internal/recipe"
	"github.com/Simplici0/rab/internal/seed"
	"github.com/Simplici0/rab/internal/store"
	"github.com/Simplici0/rab/internal/workspace"
)

// app is the wired dependency graph shared by the subcommands.
type app struct {
	cfg       config.Config
	log       *logger.Logger
	db        *sql.DB
	registry  *prometheus.Registry
	store     *store.Store
	workspace *workspace.Workspace
}

type openOptions struct {
	migrate bool
	seed    bool
}

func openApp(ctx context.Context, cfg config.Config, log *logger.Logger, opts openOptions) (*app, error) {
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.migrate {
		if err := migrations.Up(ctx, database); err != nil {
			database.Close()
			return nil, fmt.Errorf("run database migrations: %w", err)
		}
	}
	if opts.seed {
		stats, err := seed.Run(ctx, database)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
		log.Info(log.WithField(ctx, "inserts", stats.Inserts), "seed complete")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	s := store.New(database, log, m)
	engine := recipe.NewEngine(recipe.Deps{
		Store:   s,
		Masters: s,
		Prices:  s,
		Writer:  s,
		Logger:  log,
		Metrics: m,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		db:       database,
		registry: registry,
		store:    s,
		workspace: workspace.New(workspace.Options{
			Estimates:         s,
			Catalog:           s,
			Recipes:           engine,
			Logger:            log,
			DefaultPPNPercent: cfg.DefaultPPNPercent,
		}),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
