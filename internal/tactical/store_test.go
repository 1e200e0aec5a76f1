package tactical

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tacticalpha/regime-engine/internal/indicators"
	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

func computeSignals(t *testing.T, cfg Config, table *timeseries.Table) scoring.SignalSeries {
	t.Helper()
	strategy, err := Build(cfg, indicators.Default())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	signals, err := strategy.Compute(table)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	return signals
}

// Saving a model and loading it back must reproduce the signal series
// exactly, for every logic variant.
func TestStore_RoundTripPreservesSignals(t *testing.T) {
	table := testTable(t)

	configs := []Config{
		zscoreConfig("rt_zscore"),
		{
			Name:       "rt_weighted",
			Indicators: []string{"trend_momentum_6m", "credit_hy_oas_level"},
			LogicType:  LogicWeightedComposite,
			Parameters: json.RawMessage(`{
				"directions": {"trend_momentum_6m": 1, "credit_hy_oas_level": -1},
				"weights": {"trend_momentum_6m": 2.0, "credit_hy_oas_level": 1.0},
				"threshold_buy": 0.4,
				"threshold_sell": -0.4
			}`),
		},
		{
			Name:       "rt_threshold",
			Indicators: []string{"trend_momentum_6m", "credit_hy_oas_level"},
			LogicType:  LogicThresholdRules,
			Parameters: json.RawMessage(`{
				"thresholds": {
					"trend_momentum_6m": {"bullish": 0.5, "bearish": -0.5},
					"credit_hy_oas_level": {"bullish": 4.5, "bearish": 5.5}
				}
			}`),
		},
	}

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for _, cfg := range configs {
		cfg := cfg
		t.Run(cfg.LogicType, func(t *testing.T) {
			before := computeSignals(t, cfg, table)
			if before.Len() == 0 {
				t.Fatal("expected at least one classified month")
			}

			if err := store.Save(cfg); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			loaded, err := store.Load(cfg.Name)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.CreatedAt.IsZero() {
				t.Error("created_at should be stamped on save")
			}
			if loaded.NIndicators != len(cfg.Indicators) {
				t.Errorf("n_indicators = %d, want %d", loaded.NIndicators, len(cfg.Indicators))
			}

			after := computeSignals(t, loaded, table)
			if !before.Equal(after) {
				t.Error("signals after a save/load round trip differ from the original")
			}
		})
	}
}

func TestStore_ListAndInspect(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for _, name := range []string{"beta", "alpha"} {
		cfg := zscoreConfig(name)
		cfg.Description = "test model"
		if err := store.Save(cfg); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List = %v, want sorted [alpha beta]", names)
	}

	out, err := store.Inspect("alpha")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if out == "" {
		t.Error("Inspect output should not be empty")
	}

	if _, err := store.Load("missing"); err == nil {
		t.Error("loading a missing model should fail")
	}
}

func TestStore_RejectsMismatchedName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	cfg := zscoreConfig("declared")
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A file renamed on disk no longer matches its declared name.
	oldPath := filepath.Join(dir, "declared.json")
	newPath := filepath.Join(dir, "renamed.json")
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if _, err := store.Load("renamed"); err == nil {
		t.Error("a file whose content declares another name should fail to load")
	}
}
