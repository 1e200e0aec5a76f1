package tactical

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tacticalpha/regime-engine/internal/scoring"
)

// Repository handles database operations for model configs and signal
// runs. The JSON file store stays the source of truth for configs; the
// database mirror exists so runs and their outputs can be queried.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new tactical repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ModelRow mirrors one saved model config
type ModelRow struct {
	Name        string    `db:"name"`
	LogicType   string    `db:"logic_type"`
	Indicators  []string  `db:"indicators"`
	Parameters  []byte    `db:"parameters"`
	Description string    `db:"description"`
	NIndicators int       `db:"n_indicators"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// SignalRow is one classified month of one model run
type SignalRow struct {
	Model  string    `db:"model"`
	Month  time.Time `db:"month"`
	Signal int16     `db:"signal"`
}

// RegimeRow is one classified month of one regime classifier
type RegimeRow struct {
	Regime string    `db:"regime"`
	Month  time.Time `db:"month"`
	State  int16     `db:"state"`
	Label  string    `db:"label"`
	Score  sql.NullFloat64
}

// UpsertModel mirrors a model config into tactical_models
func (r *Repository) UpsertModel(ctx context.Context, cfg Config) error {
	query := `
		INSERT INTO tactical_models (name, logic_type, indicators, parameters, description, n_indicators, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			logic_type = $2,
			indicators = $3,
			parameters = $4,
			description = $5,
			n_indicators = $6,
			updated_at = $8
	`

	params := cfg.Parameters
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	_, err := r.db.ExecContext(ctx, query,
		cfg.Name,
		cfg.LogicType,
		pq.Array(cfg.Indicators),
		[]byte(params),
		cfg.Description,
		len(cfg.Indicators),
		cfg.CreatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert model %q: %w", cfg.Name, err)
	}
	return nil
}

// ListModels returns mirrored model configs ordered by name
func (r *Repository) ListModels(ctx context.Context) ([]ModelRow, error) {
	query := `
		SELECT name, logic_type, indicators, parameters, description, n_indicators, created_at, updated_at
		FROM tactical_models
		ORDER BY name
	`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var models []ModelRow
	for rows.Next() {
		var row ModelRow
		err := rows.Scan(
			&row.Name,
			&row.LogicType,
			pq.Array(&row.Indicators),
			&row.Parameters,
			&row.Description,
			&row.NIndicators,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		models = append(models, row)
	}
	return models, rows.Err()
}

// ReplaceSignalHistory replaces a model's full signal history in one
// transaction. Each run recomputes the whole series from scratch, so
// replace-all keeps the table consistent with the latest data vintage.
func (r *Repository) ReplaceSignalHistory(ctx context.Context, model string, signals scoring.SignalSeries) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM signal_history WHERE model = $1`, model); err != nil {
		return fmt.Errorf("failed to clear signal history for %q: %w", model, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO signal_history (model, month, signal)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare signal insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range signals.Points() {
		if _, err := stmt.ExecContext(ctx, model, p.Date, int16(p.Signal)); err != nil {
			return fmt.Errorf("failed to insert signal for %q at %s: %w", model, p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signal history for %q: %w", model, err)
	}
	return nil
}

// LatestSignal returns a model's most recent classified month
func (r *Repository) LatestSignal(ctx context.Context, model string) (*SignalRow, error) {
	query := `
		SELECT model, month, signal
		FROM signal_history
		WHERE model = $1
		ORDER BY month DESC
		LIMIT 1
	`

	var row SignalRow
	err := r.db.GetContext(ctx, &row, query, model)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest signal for %q: %w", model, err)
	}
	return &row, nil
}

// ReplaceRegimeHistory replaces one classifier's full regime history
func (r *Repository) ReplaceRegimeHistory(ctx context.Context, regime string, rows []RegimeRow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM regime_history WHERE regime = $1`, regime); err != nil {
		return fmt.Errorf("failed to clear regime history for %q: %w", regime, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO regime_history (regime, month, state, label, score)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare regime insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, regime, row.Month, row.State, row.Label, row.Score); err != nil {
			return fmt.Errorf("failed to insert regime row for %q at %s: %w", regime, row.Month.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit regime history for %q: %w", regime, err)
	}
	return nil
}

// LatestRegime returns a classifier's most recent classified month
func (r *Repository) LatestRegime(ctx context.Context, regime string) (*RegimeRow, error) {
	query := `
		SELECT regime, month, state, label, score
		FROM regime_history
		WHERE regime = $1
		ORDER BY month DESC
		LIMIT 1
	`

	var row RegimeRow
	err := r.db.QueryRowxContext(ctx, query, regime).
		Scan(&row.Regime, &row.Month, &row.State, &row.Label, &row.Score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest regime for %q: %w", regime, err)
	}
	return &row, nil
}
