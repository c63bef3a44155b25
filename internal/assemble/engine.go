// Package assemble implements the context assembly engine: it gathers
// schema, relationship, statistics, example, history, and error facts
// into named sections, selects a subset for a given question with a
// deterministic trigger-word policy, and concatenates the selection in a
// fixed canonical order.
package assemble

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/primerdb/primer/internal/catalog"
	"github.com/primerdb/primer/internal/example"
	"github.com/primerdb/primer/internal/memory"
	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
	"github.com/primerdb/primer/internal/stats"
)

// Config tunes the engine. Everything here is externally supplied; the
// engine hardcodes no policy.
type Config struct {
	// Triggers maps each optional section to its trigger-word set.
	Triggers map[model.SectionID][]string
	// SampleRows is the fixed row-sample size per table.
	SampleRows int
	// ExampleLimit caps how many library entries the examples section shows.
	ExampleLimit int
	// BusinessRules is a static configured template, not derived from data.
	BusinessRules string
	// SectionTimeout bounds each externally-blocking fetch (samples,
	// statistics). Zero disables the bound.
	SectionTimeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Triggers:       DefaultTriggers(),
		SampleRows:     3,
		ExampleLimit:   5,
		SectionTimeout: 5 * time.Second,
	}
}

// Options wires the engine's collaborators. All stores are passed by
// handle, never reached as ambient globals, so tests run against fresh
// instances.
type Options struct {
	Catalog  *catalog.Catalog
	Stats    *stats.Store
	Examples *example.Library
	History  *memory.HistoryStore
	Errors   *memory.ErrorStore
	Source   source.Source
	Config   Config
	Logger   *slog.Logger
}

// Result is the outcome of one assembly: the concatenated context text
// and the identifiers of the sections that fired, in canonical order.
// Callers assert inclusion without re-parsing the text.
type Result struct {
	Text     string
	Included []model.SectionID
}

// Has reports whether the section was included.
func (r *Result) Has(id model.SectionID) bool {
	for _, s := range r.Included {
		if s == id {
			return true
		}
	}
	return false
}

// sectionCache memoizes one section's text per snapshot version.
type sectionCache struct {
	version int64
	text    string
}

// Engine composes the stores into context text.
type Engine struct {
	catalog  *catalog.Catalog
	stats    *stats.Store
	examples *example.Library
	history  *memory.HistoryStore
	errors   *memory.ErrorStore
	src      source.Source
	cfg      Config
	logger   *slog.Logger
	rules    []rule

	cacheMu  sync.Mutex
	schemaCh sectionCache
	relCh    sectionCache
}

// New creates an Engine. Missing trigger sets fall back to the defaults;
// a nil logger discards output.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg.Triggers == nil {
		cfg.Triggers = DefaultTriggers()
	}
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = 3
	}
	if cfg.ExampleLimit <= 0 {
		cfg.ExampleLimit = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		catalog:  opts.Catalog,
		stats:    opts.Stats,
		examples: opts.Examples,
		history:  opts.History,
		errors:   opts.Errors,
		src:      opts.Source,
		cfg:      cfg,
		logger:   logger,
		rules:    buildPolicy(cfg.Triggers),
	}
}

// Assemble builds the context package for a question. transient carries
// per-request error entries from the current self-correction attempt;
// they are merged with the persisted error store for formatting without
// mutating it.
//
// No data-source failure aborts assembly: degraded sections carry
// explicit markers so the consumer always receives something.
func (e *Engine) Assemble(ctx context.Context, question string, transient []model.ErrorEntry) (*Result, error) {
	snap := e.catalog.Current()

	facts := questionFacts{
		tokens:     Tokenize(question),
		haveErrors: len(transient) > 0 || e.errors.Len() > 0,
	}

	included := make(map[model.SectionID]bool, len(e.rules))
	for _, r := range e.rules {
		included[r.section] = r.include(facts)
	}

	// Sections are rendered only when selected; formatting is pure, so
	// this is observationally equivalent to building all eight up front,
	// minus the statistics scans nobody would read.
	var b strings.Builder
	result := &Result{}
	for _, id := range model.CanonicalOrder {
		if !included[id] {
			continue
		}
		body := e.render(ctx, id, snap, transient)
		b.WriteString(sectionHeader(id))
		b.WriteString(body)
		b.WriteString("\n")
		result.Included = append(result.Included, id)
	}

	result.Text = b.String()
	e.logger.Debug("context assembled",
		"question_tokens", len(facts.tokens),
		"sections", len(result.Included),
		"bytes", len(result.Text))
	return result, nil
}

func (e *Engine) render(ctx context.Context, id model.SectionID, snap *catalog.Snapshot, transient []model.ErrorEntry) string {
	switch id {
	case model.SectionSchema:
		return e.cachedSection(&e.schemaCh, snap.Version, func() string { return formatSchema(snap) })
	case model.SectionRelationships:
		return e.cachedSection(&e.relCh, snap.Version, func() string { return formatRelationships(snap) })
	case model.SectionBusiness:
		return formatBusiness(e.cfg.BusinessRules)
	case model.SectionExamples:
		return formatExamples(e.examples.TopN(e.cfg.ExampleLimit))
	case model.SectionDataSamples:
		return e.renderSamples(ctx, snap)
	case model.SectionStatistics:
		return e.renderStatistics(ctx, snap)
	case model.SectionHistory:
		return formatHistory(e.history.Recent(e.history.Capacity()))
	case model.SectionErrors:
		return formatErrors(transient, e.errors.Recent(e.errors.Capacity()))
	}
	return ""
}

// cachedSection memoizes snapshot-derived section text per version.
func (e *Engine) cachedSection(cache *sectionCache, version int64, build func() string) string {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if cache.version == version && cache.text != "" {
		return cache.text
	}
	cache.version = version
	cache.text = build()
	return cache.text
}

// renderSamples fetches a fixed-size row sample per table. A failed or
// timed-out fetch degrades to a marker for that table only.
func (e *Engine) renderSamples(ctx context.Context, snap *catalog.Snapshot) string {
	samples := make([]tableSample, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		ts := tableSample{table: t.Name}
		if e.src == nil {
			ts.marker = "samples unavailable"
		} else {
			fetchCtx, cancel := e.bound(ctx)
			sample, err := e.src.SampleRows(fetchCtx, t.Name, e.cfg.SampleRows)
			cancel()
			if err != nil {
				ts.marker = markerFor("samples", err)
				e.logger.Warn("sample fetch failed", "table", t.Name, "error", err)
			} else {
				ts.sample = sample
			}
		}
		samples = append(samples, ts)
	}
	return formatSamples(samples, e.cfg.SampleRows)
}

// renderStatistics profiles every column in the snapshot. All figures in
// one assembly come from one cache generation keyed by the snapshot
// version; a failure degrades to a per-column marker.
func (e *Engine) renderStatistics(ctx context.Context, snap *catalog.Snapshot) string {
	var stats []columnStat
	for _, t := range snap.Tables {
		for _, col := range t.Columns {
			cs := columnStat{table: t.Name, column: col.Name}
			if e.stats == nil {
				cs.marker = "statistics unavailable"
			} else {
				computeCtx, cancel := e.bound(ctx)
				stat, err := e.stats.Compute(computeCtx, t.Name, col.Name, col.Type, snap.Version)
				cancel()
				if err != nil {
					cs.marker = markerFor("statistics", err)
					e.logger.Warn("statistics compute failed",
						"table", t.Name, "column", col.Name, "error", err)
				} else {
					cs.stat = stat
				}
			}
			stats = append(stats, cs)
		}
	}
	return formatStatistics(stats)
}

func (e *Engine) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.SectionTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.cfg.SectionTimeout)
}

// markerFor maps a fetch error to stable marker text. Raw driver messages
// vary between runs and drivers, so they go to the log, not the context.
func markerFor(what string, err error) string {
	if errors.Is(err, source.ErrTimeout) {
		return what + " unavailable (timed out)"
	}
	return what + " unavailable"
}
