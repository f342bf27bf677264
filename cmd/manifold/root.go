// Command manifold is an operator inspection CLI for the geometric
// analytics engine: run detectors against stored points, compute
// coordination clusters and escalation trajectories, step the field
// evolution integrator, and inspect what's on disk. It is not the engine
// itself — internal/engine is — this is the thin wrapper an operator runs
// by hand.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/manifold-eng/manifold-core/internal/config"
	"github.com/manifold-eng/manifold-core/internal/engine"
	"github.com/manifold-eng/manifold-core/internal/logging"
	"github.com/manifold-eng/manifold-core/internal/metrics"
	"github.com/manifold-eng/manifold-core/internal/store"
)

var (
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:          "manifold",
	Short:        "manifold — geometric analytics engine operator CLI",
	SilenceUsage: true,
	Long: `manifold inspects and drives the geometric analytics engine: detect
structural-breakdown signatures on stored points, cluster cross-source
coordination, score escalation trajectories, and step the field evolution
integrator.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the manifold SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a manifold.yaml config override")
}

// Execute is called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildEngine loads config, opens the store, and wires an Engine, matching
// the flag-precedence rule: --db on the command line beats the config file.
func buildEngine() (*engine.Engine, func(), error) {
	path := configPath
	if path == "" {
		if p, err := config.ConfigPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db %s: %w", cfg.DBPath, err)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	log := slog.New(logging.NewCLIHandler(level))
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	e := engine.New(s, cfg, reg, log)
	cleanup := func() { s.Close() }
	return e, cleanup, nil
}
