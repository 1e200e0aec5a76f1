package indicators

import (
	"testing"
	"time"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()

	names := catalog.Names()
	if len(names) < 30 {
		t.Fatalf("default universe has %d indicators, expected a few dozen", len(names))
	}

	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			t.Errorf("indicator %q appears twice", name)
		}
		seen[name] = true
	}

	for _, required := range []string{
		"cycle_indpro_yoy",
		"cycle_indpro_accel",
		"cycle_unemployment_yoy_diff",
		"cycle_unemployment_3m_diff",
		"mon_yield_curve_level",
		"vol_vix_zscore_24m",
		"vol_implied_vs_realized_6m",
		"credit_hy_oas_zscore_24m",
		"credit_hy_oas_3m_change",
		"credit_riskon_riskoff_mom_6m",
		"trend_drawdown",
		"mon_real_rate",
		"mon_fedfunds_diff_12m",
		"mon_yield_curve_diff_6m",
		"infl_cpi_accel_6m",
		"infl_breakeven_3m_change",
	} {
		if !catalog.Has(required) {
			t.Errorf("universe is missing %q, which a built-in regime depends on", required)
		}
	}
}

func TestCatalog_BuildSkipsMissingInputs(t *testing.T) {
	table := timeseries.NewTable()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	// Only SPY present: trend indicators compute, everything needing
	// macro columns is skipped as a coverage gap.
	spy := monthly(t, start,
		100, 102, 101, 105, 108, 107, 110, 112, 111, 115, 118, 117,
		120, 122, 121, 125, 128, 127, 130, 132, 131, 135, 138, 137,
	)
	if err := table.AddColumn("MKT_SPY", spy); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	built, err := Default().Build(table)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !built.HasColumn("trend_momentum_1m") {
		t.Error("trend_momentum_1m should be computable from SPY alone")
	}
	if !built.HasColumn("trend_drawdown") {
		t.Error("trend_drawdown should be computable from SPY alone")
	}
	if built.HasColumn("cycle_indpro_yoy") {
		t.Error("cycle_indpro_yoy needs INDPRO and should have been skipped")
	}
	if built.HasColumn("val_equity_bond_ratio") {
		t.Error("val_equity_bond_ratio needs TLT and should have been skipped")
	}
}

func TestCatalog_BuildFailsWithNoComputableIndicator(t *testing.T) {
	table := timeseries.NewTable()
	s := monthly(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2, 3)
	if err := table.AddColumn("UNRELATED", s); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	if _, err := Default().Build(table); err == nil {
		t.Error("a table matching no indicator inputs should fail")
	}
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	noop := func(*timeseries.Table) timeseries.Series {
		s, _ := timeseries.NewSeries(nil)
		return s
	}
	defs := []Definition{
		{Name: "x", compute: noop},
		{Name: "x", compute: noop},
	}
	if _, err := NewCatalog(defs); err == nil {
		t.Error("duplicate names should be rejected")
	}

	if _, err := NewCatalog([]Definition{{Name: "y"}}); err == nil {
		t.Error("a definition without a compute function should be rejected")
	}
}
