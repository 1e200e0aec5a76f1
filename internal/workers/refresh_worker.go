package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/internal/adapters/clickhouse"
	"github.com/tacticalpha/regime-engine/internal/adapters/redis"
	"github.com/tacticalpha/regime-engine/internal/adapters/telegram"
	"github.com/tacticalpha/regime-engine/internal/engine"
	"github.com/tacticalpha/regime-engine/internal/tactical"
	"github.com/tacticalpha/regime-engine/pkg/logger"
)

const (
	exportBatchSize = 5000
	exportFlushWait = 5 * time.Second

	lastRunKey = "engine:last_run_id"
)

// RefreshWorker periodically re-runs the pipeline and persists the
// outputs. With a lock client configured, only one pod refreshes at a
// time; the others skip the round quietly. Postgres, ClickHouse and
// Telegram are each optional: a nil dependency just disables that
// output.
type RefreshWorker struct {
	pipeline *engine.Pipeline
	repo     *tactical.Repository
	sink     *clickhouse.Repository
	locks    *redis.Client
	notifier *telegram.Notifier
	lockTTL  time.Duration
}

// NewRefreshWorker creates the scheduled refresh worker
func NewRefreshWorker(
	pipeline *engine.Pipeline,
	repo *tactical.Repository,
	sink *clickhouse.Repository,
	locks *redis.Client,
	notifier *telegram.Notifier,
) *RefreshWorker {
	return &RefreshWorker{
		pipeline: pipeline,
		repo:     repo,
		sink:     sink,
		locks:    locks,
		notifier: notifier,
		lockTTL:  30 * time.Minute,
	}
}

// Name returns worker name for logging
func (w *RefreshWorker) Name() string {
	return "pipeline_refresh"
}

// Run executes one refresh round
func (w *RefreshWorker) Run(ctx context.Context) error {
	if w.locks != nil {
		lock := redis.NewRefreshLock(w.locks.GetLockManager(), w.Name(), w.lockTTL)
		acquired, err := lock.TryAcquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire refresh lock: %w", err)
		}
		if !acquired {
			logger.Info("refresh already running elsewhere, skipping")
			return nil
		}
		defer lock.Release(ctx)
	}

	result, err := w.pipeline.Run(ctx)
	if err != nil {
		if w.notifier != nil {
			if notifyErr := w.notifier.SendRunFailure(w.Name(), err); notifyErr != nil {
				logger.Warn("failed to send failure alert", zap.Error(notifyErr))
			}
		}
		return err
	}

	changes := w.detectChanges(ctx, result)

	if w.repo != nil {
		if err := w.persist(ctx, result); err != nil {
			return err
		}
	}
	if w.sink != nil {
		w.export(ctx, result)
	}

	if w.notifier != nil && len(changes) > 0 {
		if err := w.notifier.SendRegimeChanges(changes); err != nil {
			logger.Warn("failed to send regime alert", zap.Error(err))
		}
	}

	w.recordRun(ctx, result.RunID)
	return nil
}

// recordRun caches the last completed run id so operators (and other
// pods) can see at a glance which vintage is current.
func (w *RefreshWorker) recordRun(ctx context.Context, runID string) {
	if w.locks == nil {
		return
	}
	previous, err := w.locks.Get(ctx, lastRunKey).Result()
	if err == nil && previous != "" {
		logger.Debug("superseding previous run", zap.String("previous_run_id", previous))
	}
	if err := w.locks.Set(ctx, lastRunKey, runID, 0).Err(); err != nil {
		logger.Warn("failed to record run id", zap.Error(err))
	}
}

// detectChanges compares each regime's newest classified month against
// the state persisted by the previous run. Needs Postgres; without it
// there is no previous state to compare against.
func (w *RefreshWorker) detectChanges(ctx context.Context, result *engine.RunResult) []telegram.RegimeChange {
	if w.repo == nil {
		return nil
	}

	var changes []telegram.RegimeChange
	for _, reg := range result.Regimes {
		points := reg.Signals.Points()
		if len(points) == 0 {
			continue
		}
		latest := points[len(points)-1]

		previous, err := w.repo.LatestRegime(ctx, reg.Regime)
		if err != nil {
			logger.Warn("failed to load previous regime state",
				zap.String("regime", reg.Regime),
				zap.Error(err),
			)
			continue
		}
		if previous == nil || previous.State == int16(latest.Signal) {
			continue
		}

		change := telegram.RegimeChange{
			Regime:    reg.Regime,
			Month:     latest.Date,
			FromLabel: previous.Label,
			ToLabel:   reg.Labels[latest.Signal],
		}
		if score, ok := reg.Composite.At(latest.Date); ok {
			change.Score = score
			change.HasScore = true
		}
		changes = append(changes, change)

		logger.Info("regime changed",
			zap.String("regime", reg.Regime),
			zap.String("from", change.FromLabel),
			zap.String("to", change.ToLabel),
		)
	}
	return changes
}

func (w *RefreshWorker) persist(ctx context.Context, result *engine.RunResult) error {
	for _, reg := range result.Regimes {
		rows := make([]tactical.RegimeRow, 0, reg.Signals.Len())
		for _, p := range reg.Signals.Points() {
			row := tactical.RegimeRow{
				Regime: reg.Regime,
				Month:  p.Date,
				State:  int16(p.Signal),
				Label:  reg.Labels[p.Signal],
			}
			if score, ok := reg.Composite.At(p.Date); ok {
				row.Score.Float64 = score
				row.Score.Valid = true
			}
			rows = append(rows, row)
		}
		if err := w.repo.ReplaceRegimeHistory(ctx, reg.Regime, rows); err != nil {
			return err
		}
	}

	for _, name := range result.ModelNames {
		cfg, err := w.pipeline.Store().Load(name)
		if err != nil {
			return err
		}
		if err := w.repo.UpsertModel(ctx, cfg); err != nil {
			return err
		}
		if err := w.repo.ReplaceSignalHistory(ctx, name, result.ModelSignals[name]); err != nil {
			return err
		}
	}

	logger.Info("run persisted to postgres",
		zap.Int("regimes", len(result.Regimes)),
		zap.Int("models", len(result.ModelNames)),
	)
	return nil
}

// export ships the run to the analytics sink through batch writers.
// Failures are logged inside the writers, not fatal: ClickHouse holds
// derived copies only.
func (w *RefreshWorker) export(_ context.Context, result *engine.RunResult) {
	obsWriter := clickhouse.NewObservationBatchWriter(w.sink, result.RunID, exportBatchSize, exportFlushWait)
	for _, obs := range engine.FlattenObservations(result.Aligned) {
		obsWriter.AddObservation(obs)
	}
	obsWriter.Close()

	sigWriter := clickhouse.NewSignalBatchWriter(w.sink, result.RunID, exportBatchSize, exportFlushWait)
	for _, sig := range result.FlattenSignals() {
		sigWriter.AddSignal(sig)
	}
	sigWriter.Close()
}
