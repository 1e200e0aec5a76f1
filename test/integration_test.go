package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/tactical"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// setupDB connects to the integration database named by
// TEST_DATABASE_URL. The schema must already be migrated.
func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func cleanTables(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, table := range []string{"signal_history", "regime_history", "tactical_models"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	db := setupDB(t)
	cleanTables(t, db)

	ctx := context.Background()
	repo := tactical.NewRepository(db)

	model := tactical.Config{
		Name:        "it_momentum",
		Indicators:  []string{"trend_momentum_6m", "credit_hy_oas_level"},
		LogicType:   tactical.LogicZScoreComposite,
		Parameters:  json.RawMessage(`{"threshold_buy": 0.5, "threshold_sell": -0.5}`),
		Description: "integration fixture",
		CreatedAt:   time.Now().UTC(),
	}

	t.Run("upsert model", func(t *testing.T) {
		if err := repo.UpsertModel(ctx, model); err != nil {
			t.Fatalf("UpsertModel failed: %v", err)
		}
		// Second upsert with a new description must not duplicate.
		model.Description = "updated"
		if err := repo.UpsertModel(ctx, model); err != nil {
			t.Fatalf("second UpsertModel failed: %v", err)
		}

		saved, err := repo.ListModels(ctx)
		if err != nil {
			t.Fatalf("ListModels failed: %v", err)
		}
		if len(saved) != 1 {
			t.Fatalf("got %d models, want 1", len(saved))
		}
		if saved[0].Description != "updated" {
			t.Errorf("description = %q, want the upserted value", saved[0].Description)
		}
	})

	jan := timeseries.MonthEnd(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	feb := timeseries.MonthEnd(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	t.Run("signal history replace", func(t *testing.T) {
		full, err := scoring.NewSignalSeries([]scoring.SignalPoint{
			{Date: jan, Signal: scoring.SignalIncrease},
			{Date: feb, Signal: scoring.SignalReduce},
		})
		if err != nil {
			t.Fatalf("NewSignalSeries failed: %v", err)
		}
		if err := repo.ReplaceSignalHistory(ctx, "it_momentum", full); err != nil {
			t.Fatalf("ReplaceSignalHistory failed: %v", err)
		}

		latest, err := repo.LatestSignal(ctx, "it_momentum")
		if err != nil {
			t.Fatalf("LatestSignal failed: %v", err)
		}
		if latest == nil || latest.Signal != -1 || !latest.Month.Equal(feb) {
			t.Errorf("latest = %+v, want february -1", latest)
		}

		// A rerun replaces the whole history, not appends.
		short, err := scoring.NewSignalSeries([]scoring.SignalPoint{
			{Date: jan, Signal: scoring.SignalIncrease},
		})
		if err != nil {
			t.Fatalf("NewSignalSeries failed: %v", err)
		}
		if err := repo.ReplaceSignalHistory(ctx, "it_momentum", short); err != nil {
			t.Fatalf("second ReplaceSignalHistory failed: %v", err)
		}
		var count int
		if err := db.Get(&count, "SELECT COUNT(*) FROM signal_history WHERE model = $1", "it_momentum"); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("history has %d rows after replace, want 1", count)
		}
	})

	t.Run("regime history replace", func(t *testing.T) {
		rows := []tactical.RegimeRow{
			{Regime: "macro", Month: jan, State: 1, Label: "expansion", Score: sql.NullFloat64{Float64: 0.8, Valid: true}},
			{Regime: "macro", Month: feb, State: 0, Label: "neutral", Score: sql.NullFloat64{Float64: 0.1, Valid: true}},
		}
		if err := repo.ReplaceRegimeHistory(ctx, "macro", rows); err != nil {
			t.Fatalf("ReplaceRegimeHistory failed: %v", err)
		}

		latest, err := repo.LatestRegime(ctx, "macro")
		if err != nil {
			t.Fatalf("LatestRegime failed: %v", err)
		}
		if latest == nil || latest.State != 0 || latest.Label != "neutral" {
			t.Errorf("latest = %+v, want february neutral", latest)
		}
		if !latest.Score.Valid || latest.Score.Float64 != 0.1 {
			t.Errorf("latest score = %+v, want 0.1", latest.Score)
		}
	})

	t.Run("latest on empty history", func(t *testing.T) {
		latest, err := repo.LatestSignal(ctx, "no_such_model")
		if err != nil {
			t.Fatalf("LatestSignal failed: %v", err)
		}
		if latest != nil {
			t.Errorf("latest = %+v, want nil for unknown model", latest)
		}
	})
}
