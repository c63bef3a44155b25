package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/primerdb/primer/internal/assemble"
	"github.com/primerdb/primer/internal/catalog"
	"github.com/primerdb/primer/internal/config"
	"github.com/primerdb/primer/internal/example"
	"github.com/primerdb/primer/internal/memory"
	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
	"github.com/primerdb/primer/internal/source/mssql"
	"github.com/primerdb/primer/internal/source/mysql"
	"github.com/primerdb/primer/internal/source/postgres"
	"github.com/primerdb/primer/internal/source/snowflake"
	"github.com/primerdb/primer/internal/source/sqlite"
	"github.com/primerdb/primer/internal/stats"
)

// app bundles the wired components every subcommand operates on.
type app struct {
	cfg      *config.Config
	registry *source.Registry
	src      source.Source
	catalog  *catalog.Catalog
	stats    *stats.Store
	examples *example.Library
	history  *memory.HistoryStore
	errors   *memory.ErrorStore
	journal  *memory.Journal
	engine   *assemble.Engine
	logger   *slog.Logger
}

// newApp loads configuration, connects the source, and takes the initial
// schema snapshot. A failed snapshot is logged, not fatal: assembly then
// runs degraded until a refresh succeeds.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Logging)

	registry := newSourceRegistry()
	connMaxLifetime, _ := cfg.ConnMaxLifetime()
	src, err := registry.Connect("default", source.ConnectionConfig{
		Driver:          cfg.Source.Driver,
		DSN:             cfg.Source.DSN,
		SchemaName:      cfg.Source.Schema,
		PrivateKeyPath:  cfg.Source.PrivateKeyPath,
		MaxOpenConns:    cfg.Source.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Source.Pool.MaxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect source: %w", err)
	}
	if err := src.Ping(ctx); err != nil {
		registry.CloseAll()
		return nil, fmt.Errorf("ping source: %w", err)
	}

	cat := catalog.New()
	if snap, err := cat.Refresh(ctx, src); err != nil {
		logger.Warn("initial schema load failed, continuing with empty snapshot", "error", err)
	} else {
		logger.Info("schema loaded", "version", snap.Version, "tables", len(snap.Tables))
	}

	history, errs, journal, err := newMemoryStores(cfg.Memory)
	if err != nil {
		registry.CloseAll()
		return nil, err
	}

	examples, err := loadExamples(cfg.Examples)
	if err != nil {
		registry.CloseAll()
		return nil, err
	}

	statsStore := stats.New(src)

	sectionTimeout, _ := cfg.SectionTimeout()
	engine := assemble.New(assemble.Options{
		Catalog:  cat,
		Stats:    statsStore,
		Examples: examples,
		History:  history,
		Errors:   errs,
		Source:   src,
		Logger:   logger,
		Config: assemble.Config{
			Triggers:       parseTriggers(cfg.Assembly.Triggers, logger),
			SampleRows:     cfg.Assembly.SampleRows,
			ExampleLimit:   cfg.Assembly.ExampleLimit,
			BusinessRules:  cfg.Assembly.BusinessRules,
			SectionTimeout: sectionTimeout,
		},
	})

	return &app{
		cfg:      cfg,
		registry: registry,
		src:      src,
		catalog:  cat,
		stats:    statsStore,
		examples: examples,
		history:  history,
		errors:   errs,
		journal:  journal,
		engine:   engine,
		logger:   logger,
	}, nil
}

// Close releases the source connections and the journal.
func (a *app) Close() {
	a.registry.CloseAll()
	if a.journal != nil {
		a.journal.Close()
	}
}

// loadConfig reads the config file named by --config, or ./primer.yaml if
// present, falling back to defaults.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("primer.yaml"); err == nil {
			path = "primer.yaml"
		}
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	// PRIMER_DSN overrides the configured DSN, so secrets stay out of files.
	if dsn := viper.GetString("dsn"); dsn != "" {
		cfg.Source.DSN = dsn
	}
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newSourceRegistry creates a registry with all supported database drivers
// registered.
func newSourceRegistry() *source.Registry {
	registry := source.NewRegistry()
	registry.RegisterDriver("sqlite", func() source.Source { return sqlite.New() })
	registry.RegisterDriver("postgres", func() source.Source { return postgres.New() })
	registry.RegisterDriver("mysql", func() source.Source { return mysql.New() })
	registry.RegisterDriver("mssql", func() source.Source { return mssql.New() })
	registry.RegisterDriver("snowflake", func() source.Source { return snowflake.New() })
	return registry
}

// newMemoryStores builds the bounded history and error stores, journaled
// when persistence is enabled.
func newMemoryStores(cfg config.MemoryConfig) (*memory.HistoryStore, *memory.ErrorStore, *memory.Journal, error) {
	if !cfg.Persist {
		return memory.NewHistoryStore(cfg.HistoryCapacity), memory.NewErrorStore(cfg.ErrorCapacity), nil, nil
	}

	journal, err := memory.OpenJournal(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open journal: %w", err)
	}
	history, err := memory.NewJournaledHistoryStore(cfg.HistoryCapacity, journal)
	if err != nil {
		journal.Close()
		return nil, nil, nil, err
	}
	errs, err := memory.NewJournaledErrorStore(cfg.ErrorCapacity, journal)
	if err != nil {
		journal.Close()
		return nil, nil, nil, err
	}
	return history, errs, journal, nil
}

// loadExamples combines inline config entries with an optional YAML file.
// Inline entries rank first.
func loadExamples(cfg config.ExamplesConfig) (*example.Library, error) {
	entries := make([]model.ExampleEntry, 0, len(cfg.Entries))
	for i, e := range cfg.Entries {
		if e.Question == "" || e.SQL == "" {
			return nil, fmt.Errorf("examples: entry %d: question and sql are required", i+1)
		}
		entries = append(entries, model.ExampleEntry{Question: e.Question, SQL: e.SQL, Note: e.Note})
	}

	if cfg.File != "" {
		fileLib, err := example.LoadLibrary(cfg.File)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileLib.All()...)
	}
	return example.NewLibrary(entries), nil
}

// parseTriggers converts configured trigger maps to section identifiers.
// Unknown section names are logged and skipped; missing sections keep
// their default trigger sets.
func parseTriggers(raw map[string][]string, logger *slog.Logger) map[model.SectionID][]string {
	triggers := assemble.DefaultTriggers()
	for name, words := range raw {
		id, ok := model.ParseSection(name)
		if !ok {
			logger.Warn("unknown section in triggers config, skipping", "section", name)
			continue
		}
		triggers[id] = words
	}
	return triggers
}
