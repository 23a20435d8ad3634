package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Simplici0/rab/internal/config"
	"github.com/Simplici0/rab/internal/logger"
	"github.com/Simplici0/rab/internal/migrations"
	"github.com/Simplici0/rab/internal/numfmt"
)

// cli carries the configuration loaded before any subcommand runs.
type cli struct {
	envFile string
	cfg     config.Config
	log     *logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "rab",
		Short:         "Construction cost estimate (RAB) service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.envFile)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = logger.New(logger.Options{
				ServiceName: "rab",
				Level:       logger.ParseLevel(cfg.LogLevel),
				Format:      cfg.LogFormat,
				Output:      cmd.ErrOrStderr(),
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newSummaryCmd(c),
		newCatalogCmd(c),
	)
	return root
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, c.cfg, c.log, openOptions{migrate: c.cfg.IsDev(), seed: c.cfg.ShouldSeed()})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr:              c.cfg.Addr(),
				Handler:           newServer(a).routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			logCtx := c.log.WithFields(ctx, map[string]any{"env": c.cfg.Env, "addr": srv.Addr})
			c.log.Info(logCtx, "starting api server")

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server stopped: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			c.log.Info(logCtx, "shutting down api server")
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), c.cfg, c.log, openOptions{migrate: true})
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := migrations.Version(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the starter catalog and master price list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), c.cfg, c.log, openOptions{migrate: true, seed: true})
			if err != nil {
				return err
			}
			return a.Close()
		},
	}
}

func newSummaryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <estimate-id>",
		Short: "Print the text recap of a saved estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), c.cfg, c.log, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.store.LoadEstimate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.WriteSummary(cmd.OutOrStdout())
		},
	}
}

func newCatalogCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List catalog items with their reference prices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), c.cfg, c.log, openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.store.ListCatalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, it := range items {
				fmt.Fprintf(out, "%-12s %-45s %-5s %s\n", it.Code, it.Description, it.Unit, numfmt.Rupiah(it.ReferencePrice))
			}
			return nil
		},
	}
}
