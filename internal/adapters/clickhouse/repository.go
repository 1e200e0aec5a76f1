package clickhouse

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/pkg/logger"
	"github.com/tacticalpha/regime-engine/pkg/models"
)

// Repository handles ClickHouse data operations. ClickHouse is a pure
// analytics sink: every run appends its full output stamped with a run
// id, so vintages of the same month can be compared after revisions.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new ClickHouse repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveAlignedObservations saves one run's aligned monthly table cells
func (r *Repository) SaveAlignedObservations(ctx context.Context, runID string, observations []models.AlignedObservation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO aligned_observations
		(run_id, month, column_name, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		_, err = stmt.ExecContext(ctx,
			runID,
			obs.Month,
			obs.Column,
			obs.Value,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved aligned observations to ClickHouse",
		zap.String("run_id", runID),
		zap.Int("count", len(observations)),
	)

	return nil
}

// SaveSignals saves one run's classified months, tactical and regime alike
func (r *Repository) SaveSignals(ctx context.Context, runID string, signals []models.SignalRecord) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO monthly_signals
		(run_id, month, model, signal, label, score, has_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sig := range signals {
		_, err = stmt.ExecContext(ctx,
			runID,
			sig.Month,
			sig.Model,
			sig.Signal,
			sig.Label,
			sig.Score,
			sig.HasScore,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert signal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved signals to ClickHouse",
		zap.String("run_id", runID),
		zap.Int("count", len(signals)),
	)

	return nil
}
