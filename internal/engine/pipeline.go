package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/internal/adapters/config"
	"github.com/tacticalpha/regime-engine/internal/indicators"
	"github.com/tacticalpha/regime-engine/internal/regime"
	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/sources"
	"github.com/tacticalpha/regime-engine/internal/tactical"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
	"github.com/tacticalpha/regime-engine/pkg/logger"
	"github.com/tacticalpha/regime-engine/pkg/models"
)

// Pipeline runs the full monthly cycle: load raw series, align them to
// one monthly table, derive indicators, classify the three regimes and
// compute every configured tactical model. Each run recomputes the full
// history from the current files; nothing is incremental, so a data
// revision is picked up everywhere it matters.
type Pipeline struct {
	cfg      *config.Config
	loader   *sources.Loader
	store    *tactical.Store
	selector *regime.Selector
}

// RunResult is everything one run produced
type RunResult struct {
	RunID      string
	Aligned    *timeseries.Table
	Indicators *timeseries.Table
	Audits     []sources.Audit
	Regimes    []regime.Result
	// ModelSignals is keyed by model name; iteration order comes from
	// ModelNames.
	ModelSignals map[string]scoring.SignalSeries
	ModelNames   []string
}

// New creates a pipeline from configuration
func New(cfg *config.Config) (*Pipeline, error) {
	loader, err := sources.NewLoader(cfg.Data.RawDir)
	if err != nil {
		return nil, err
	}
	store, err := tactical.NewStore(cfg.Data.ModelsDir)
	if err != nil {
		return nil, err
	}

	defs := []regime.Definition{regime.Macro(), regime.Financial(), regime.Liquidity()}
	if cfg.Engine.MinPeriods > 0 {
		for i := range defs {
			defs[i].MinPeriods = cfg.Engine.MinPeriods
		}
	}
	selector, err := regime.NewSelector(defs...)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		loader:   loader,
		store:    store,
		selector: selector,
	}, nil
}

// Store exposes the model store for callers that manage models
func (p *Pipeline) Store() *tactical.Store {
	return p.store
}

// Run executes one full cycle
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	runID := started.UTC().Format("20060102T150405Z")

	logger.Info("pipeline run starting", zap.String("run_id", runID))

	aligned, audits, err := sources.BuildTable(p.loader, sources.All())
	if err != nil {
		return nil, fmt.Errorf("align sources: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalog := indicators.Default()
	indicatorTable, err := catalog.Build(aligned)
	if err != nil {
		return nil, fmt.Errorf("build indicators: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regimes, err := p.selector.RunAll(indicatorTable)
	if err != nil {
		return nil, fmt.Errorf("classify regimes: %w", err)
	}

	names, err := p.modelNames()
	if err != nil {
		return nil, err
	}

	signals := make(map[string]scoring.SignalSeries, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		modelCfg, err := p.store.Load(name)
		if err != nil {
			return nil, err
		}
		strategy, err := tactical.Build(modelCfg, catalog)
		if err != nil {
			return nil, err
		}
		series, err := strategy.Compute(indicatorTable)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		signals[name] = series

		logger.Info("model computed",
			zap.String("model", name),
			zap.String("logic", strategy.Name()),
			zap.Int("months", series.Len()),
		)
	}

	if p.cfg.Data.OutputDir != "" {
		if err := p.writeOutputs(aligned, indicatorTable); err != nil {
			return nil, err
		}
	}

	logger.Info("pipeline run finished",
		zap.String("run_id", runID),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("regimes", len(regimes)),
		zap.Int("models", len(names)),
	)

	return &RunResult{
		RunID:        runID,
		Aligned:      aligned,
		Indicators:   indicatorTable,
		Audits:       audits,
		Regimes:      regimes,
		ModelSignals: signals,
		ModelNames:   names,
	}, nil
}

// modelNames resolves which models this run computes: the configured
// subset, or every saved model when none is configured
func (p *Pipeline) modelNames() ([]string, error) {
	saved, err := p.store.List()
	if err != nil {
		return nil, err
	}
	if len(p.cfg.Engine.Models) == 0 {
		return saved, nil
	}

	known := make(map[string]bool, len(saved))
	for _, name := range saved {
		known[name] = true
	}
	for _, name := range p.cfg.Engine.Models {
		if !known[name] {
			return nil, fmt.Errorf("configured model %q is not saved in %s", name, p.cfg.Data.ModelsDir)
		}
	}
	return p.cfg.Engine.Models, nil
}

func (p *Pipeline) writeOutputs(aligned, indicatorTable *timeseries.Table) error {
	if err := os.MkdirAll(p.cfg.Data.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for name, table := range map[string]*timeseries.Table{
		"aligned_monthly.csv": aligned,
		"indicators.csv":      indicatorTable,
	} {
		path := filepath.Join(p.cfg.Data.OutputDir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		err = sources.WriteCSV(f, table)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// FlattenObservations turns a table into persistence rows
func FlattenObservations(table *timeseries.Table) []models.AlignedObservation {
	var out []models.AlignedObservation
	for _, column := range table.Columns() {
		for _, month := range table.Index() {
			value, ok := table.Value(column, month)
			if !ok {
				continue
			}
			out = append(out, models.AlignedObservation{
				Month:  month,
				Column: column,
				Value:  value,
			})
		}
	}
	return out
}

// FlattenSignals turns one run's regimes and model signals into
// persistence rows. Regime rows carry their label and composite score;
// tactical rows carry the numeric signal only.
func (r *RunResult) FlattenSignals() []models.SignalRecord {
	var out []models.SignalRecord

	for _, reg := range r.Regimes {
		for _, p := range reg.Signals.Points() {
			record := models.SignalRecord{
				Month:  p.Date,
				Model:  "regime:" + reg.Regime,
				Signal: int8(p.Signal),
				Label:  reg.Labels[p.Signal],
			}
			if score, ok := reg.Composite.At(p.Date); ok {
				record.Score = score
				record.HasScore = true
			}
			out = append(out, record)
		}
	}

	for _, name := range r.ModelNames {
		for _, p := range r.ModelSignals[name].Points() {
			out = append(out, models.SignalRecord{
				Month:  p.Date,
				Model:  name,
				Signal: int8(p.Signal),
			})
		}
	}
	return out
}
