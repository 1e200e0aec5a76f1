package indicators

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// ComputeFunc derives one indicator series from the aligned table
type ComputeFunc func(t *timeseries.Table) timeseries.Series

// Definition describes one indicator: what it reads, how far back it
// looks, and any known caveat for interpreting it.
type Definition struct {
	Name           string
	Category       string
	Inputs         []string
	LookbackMonths int
	Limitations    string
	compute        ComputeFunc
}

// Catalog is the explicit universe of indicators for a run. It is built
// once, passed into model construction and regime classification, and
// never mutated afterwards; there is no process-wide registry.
type Catalog struct {
	defs   []Definition
	byName map[string]Definition
}

// NewCatalog assembles a catalog from definitions, rejecting duplicates
func NewCatalog(defs []Definition) (*Catalog, error) {
	byName := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("indicator with empty name")
		}
		if _, dup := byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate indicator %q", def.Name)
		}
		if def.compute == nil {
			return nil, fmt.Errorf("indicator %q has no compute function", def.Name)
		}
		byName[def.Name] = def
	}
	return &Catalog{defs: defs, byName: byName}, nil
}

// Names returns indicator names in declaration order
func (c *Catalog) Names() []string {
	out := make([]string, len(c.defs))
	for i, def := range c.defs {
		out[i] = def.Name
	}
	return out
}

// Get returns a definition by name
func (c *Catalog) Get(name string) (Definition, bool) {
	def, ok := c.byName[name]
	return def, ok
}

// Has reports whether an indicator exists in the universe
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Build computes every indicator whose input columns are present in the
// aligned table and returns them as a new table on the same index. An
// indicator with missing inputs is a coverage gap, logged and skipped;
// a table yielding no indicators at all is a configuration error.
func (c *Catalog) Build(aligned *timeseries.Table) (*timeseries.Table, error) {
	out := timeseries.NewTable()

	built := 0
	for _, def := range c.defs {
		missing := ""
		for _, input := range def.Inputs {
			if !aligned.HasColumn(input) {
				missing = input
				break
			}
		}
		if missing != "" {
			logger.Warn("indicator skipped, input column absent",
				zap.String("indicator", def.Name),
				zap.String("column", missing),
			)
			continue
		}

		series := def.compute(aligned)
		if err := out.AddColumn(def.Name, series); err != nil {
			return nil, fmt.Errorf("indicator %q: %w", def.Name, err)
		}
		built++
	}

	if built == 0 {
		return nil, fmt.Errorf("no indicator could be computed: aligned table has columns %v", aligned.Columns())
	}

	logger.Info("indicator table built",
		zap.Int("indicators", built),
		zap.Int("skipped", len(c.defs)-built),
		zap.Int("months", out.Rows()),
	)

	return out, nil
}

func column(t *timeseries.Table, name string) timeseries.Series {
	s, err := t.Column(name)
	if err != nil {
		// Build checks inputs before calling compute.
		empty, _ := timeseries.NewSeries(nil)
		return empty
	}
	return s
}

// Default returns the standard indicator universe over the combined
// monthly table. Column prefixes follow the aligned table convention:
// MKT_ for market sources, MAC_ for macro sources.
func Default() *Catalog {
	defs := []Definition{}
	defs = append(defs, trendDefs()...)
	defs = append(defs, volatilityDefs()...)
	defs = append(defs, valuationDefs()...)
	defs = append(defs, cycleDefs()...)
	defs = append(defs, monetaryDefs()...)
	defs = append(defs, creditDefs()...)
	defs = append(defs, inflationDefs()...)

	catalog, err := NewCatalog(defs)
	if err != nil {
		// The default set is static; a duplicate here is a programming error.
		panic(err)
	}
	return catalog
}

func trendDefs() []Definition {
	defs := []Definition{}

	for _, months := range []int{1, 3, 6, 12} {
		m := months
		defs = append(defs, Definition{
			Name:           fmt.Sprintf("trend_momentum_%dm", m),
			Category:       "trend",
			Inputs:         []string{"MKT_SPY"},
			LookbackMonths: m,
			compute: func(t *timeseries.Table) timeseries.Series {
				return PctReturn(column(t, "MKT_SPY"), m)
			},
		})
	}

	for _, months := range []int{6, 12} {
		m := months
		defs = append(defs, Definition{
			Name:           fmt.Sprintf("trend_price_vs_ma_%dm", m),
			Category:       "trend",
			Inputs:         []string{"MKT_SPY"},
			LookbackMonths: m,
			Limitations:    "moving average runs over defined months and bridges coverage gaps",
			compute: func(t *timeseries.Table) timeseries.Series {
				return PriceVsSMA(column(t, "MKT_SPY"), m)
			},
		})
	}

	defs = append(defs,
		Definition{
			Name:     "trend_drawdown",
			Category: "trend",
			Inputs:   []string{"MKT_SPY"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return DrawdownFromPeak(column(t, "MKT_SPY"))
			},
		},
		Definition{
			Name:           "trend_momentum_accel",
			Category:       "trend",
			Inputs:         []string{"MKT_SPY"},
			LookbackMonths: 7,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(PctReturn(column(t, "MKT_SPY"), 6), 1)
			},
		},
	)

	return defs
}

func volatilityDefs() []Definition {
	return []Definition{
		{
			Name:     "vol_vix_level",
			Category: "volatility",
			Inputs:   []string{"MKT_VIX"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MKT_VIX")
			},
		},
		{
			Name:           "vol_vix_mom_change",
			Category:       "volatility",
			Inputs:         []string{"MKT_VIX"},
			LookbackMonths: 1,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(column(t, "MKT_VIX"), 1)
			},
		},
		{
			Name:           "vol_vix_zscore_24m",
			Category:       "volatility",
			Inputs:         []string{"MKT_VIX"},
			LookbackMonths: 24,
			compute: func(t *timeseries.Table) timeseries.Series {
				return RollingZScore(column(t, "MKT_VIX"), 24)
			},
		},
		{
			Name:           "vol_realized_6m",
			Category:       "volatility",
			Inputs:         []string{"MKT_SPY"},
			LookbackMonths: 7,
			compute: func(t *timeseries.Table) timeseries.Series {
				return RollingStd(PctReturn(column(t, "MKT_SPY"), 1), 6)
			},
		},
		{
			Name:           "vol_implied_vs_realized_6m",
			Category:       "volatility",
			Inputs:         []string{"MKT_VIX", "MKT_SPY"},
			LookbackMonths: 7,
			Limitations:    "mixes an implied level with trailing realized volatility; units are VIX points",
			compute: func(t *timeseries.Table) timeseries.Series {
				realized := RollingStd(PctReturn(column(t, "MKT_SPY"), 1), 6)
				annualized := scale(realized, math.Sqrt(12)*100)
				return subtract(column(t, "MKT_VIX"), annualized)
			},
		},
	}
}

func valuationDefs() []Definition {
	return []Definition{
		{
			Name:     "val_equity_bond_ratio",
			Category: "valuation",
			Inputs:   []string{"MKT_SPY", "MKT_TLT"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return Ratio(column(t, "MKT_SPY"), column(t, "MKT_TLT"))
			},
		},
		{
			Name:           "val_equity_bond_zscore_24m",
			Category:       "valuation",
			Inputs:         []string{"MKT_SPY", "MKT_TLT"},
			LookbackMonths: 24,
			compute: func(t *timeseries.Table) timeseries.Series {
				return RollingZScore(Ratio(column(t, "MKT_SPY"), column(t, "MKT_TLT")), 24)
			},
		},
		{
			Name:     "val_equity_gold_ratio",
			Category: "valuation",
			Inputs:   []string{"MKT_SPY", "MKT_GLD"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return Ratio(column(t, "MKT_SPY"), column(t, "MKT_GLD"))
			},
		},
		{
			Name:           "val_equity_gold_momentum_12m",
			Category:       "valuation",
			Inputs:         []string{"MKT_SPY", "MKT_GLD"},
			LookbackMonths: 12,
			compute: func(t *timeseries.Table) timeseries.Series {
				return PctReturn(Ratio(column(t, "MKT_SPY"), column(t, "MKT_GLD")), 12)
			},
		},
		{
			Name:     "val_real_yield_10y",
			Category: "valuation",
			Inputs:   []string{"MAC_GS10", "MAC_T10YIE"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return subtract(column(t, "MAC_GS10"), column(t, "MAC_T10YIE"))
			},
		},
	}
}

func cycleDefs() []Definition {
	return []Definition{
		{
			Name:           "cycle_indpro_yoy",
			Category:       "cycle",
			Inputs:         []string{"MAC_INDPRO"},
			LookbackMonths: 12,
			compute: func(t *timeseries.Table) timeseries.Series {
				return YoYChange(column(t, "MAC_INDPRO"))
			},
		},
		{
			Name:           "cycle_indpro_mom_6m",
			Category:       "cycle",
			Inputs:         []string{"MAC_INDPRO"},
			LookbackMonths: 6,
			compute: func(t *timeseries.Table) timeseries.Series {
				return PctReturn(column(t, "MAC_INDPRO"), 6)
			},
		},
		{
			Name:           "cycle_indpro_accel",
			Category:       "cycle",
			Inputs:         []string{"MAC_INDPRO"},
			LookbackMonths: 15,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(YoYChange(column(t, "MAC_INDPRO")), 3)
			},
		},
		{
			Name:     "cycle_unemployment_level",
			Category: "cycle",
			Inputs:   []string{"MAC_UNRATE"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MAC_UNRATE")
			},
		},
		{
			Name:           "cycle_unemployment_yoy_diff",
			Category:       "cycle",
			Inputs:         []string{"MAC_UNRATE"},
			LookbackMonths: 12,
			compute: func(t *timeseries.Table) timeseries.Series {
				return YoYDiff(column(t, "MAC_UNRATE"))
			},
		},
		{
			Name:           "cycle_unemployment_3m_diff",
			Category:       "cycle",
			Inputs:         []string{"MAC_UNRATE"},
			LookbackMonths: 3,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(column(t, "MAC_UNRATE"), 3)
			},
		},
		{
			Name:        "cycle_nber_recession",
			Category:    "cycle",
			Inputs:      []string{"MAC_USREC"},
			Limitations: "published with a long lag; ex-post validation only, never a live input",
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MAC_USREC")
			},
		},
	}
}

func monetaryDefs() []Definition {
	return []Definition{
		{
			Name:     "mon_fedfunds_level",
			Category: "monetary",
			Inputs:   []string{"MAC_FEDFUNDS"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MAC_FEDFUNDS")
			},
		},
		{
			Name:           "mon_fedfunds_diff_12m",
			Category:       "monetary",
			Inputs:         []string{"MAC_FEDFUNDS"},
			LookbackMonths: 12,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(column(t, "MAC_FEDFUNDS"), 12)
			},
		},
		{
			Name:           "mon_real_rate",
			Category:       "monetary",
			Inputs:         []string{"MAC_FEDFUNDS", "MAC_CPI"},
			LookbackMonths: 12,
			compute: func(t *timeseries.Table) timeseries.Series {
				cpiYoY := scale(YoYChange(column(t, "MAC_CPI")), 100)
				return subtract(column(t, "MAC_FEDFUNDS"), cpiYoY)
			},
		},
		{
			Name:     "mon_yield_curve_level",
			Category: "monetary",
			Inputs:   []string{"MAC_T10Y2Y"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MAC_T10Y2Y")
			},
		},
		{
			Name:           "mon_yield_curve_diff_6m",
			Category:       "monetary",
			Inputs:         []string{"MAC_T10Y2Y"},
			LookbackMonths: 6,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(column(t, "MAC_T10Y2Y"), 6)
			},
		},
		{
			Name:     "mon_gs10_level",
			Category: "monetary",
			Inputs:   []string{"MAC_GS10"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MAC_GS10")
			},
		},
	}
}

func creditDefs() []Definition {
	return []Definition{
		{
			Name:     "credit_hy_oas_level",
			Category: "credit",
			Inputs:   []string{"MAC_HY_OAS"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MAC_HY_OAS")
			},
		},
		{
			Name:           "credit_hy_oas_3m_change",
			Category:       "credit",
			Inputs:         []string{"MAC_HY_OAS"},
			LookbackMonths: 3,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(column(t, "MAC_HY_OAS"), 3)
			},
		},
		{
			Name:           "credit_hy_oas_zscore_24m",
			Category:       "credit",
			Inputs:         []string{"MAC_HY_OAS"},
			LookbackMonths: 24,
			compute: func(t *timeseries.Table) timeseries.Series {
				return RollingZScore(column(t, "MAC_HY_OAS"), 24)
			},
		},
		{
			Name:     "credit_hy_ig_ratio",
			Category: "credit",
			Inputs:   []string{"MKT_HYG", "MKT_LQD"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return Ratio(column(t, "MKT_HYG"), column(t, "MKT_LQD"))
			},
		},
		{
			Name:           "credit_hy_ig_momentum_6m",
			Category:       "credit",
			Inputs:         []string{"MKT_HYG", "MKT_LQD"},
			LookbackMonths: 6,
			compute: func(t *timeseries.Table) timeseries.Series {
				return PctReturn(Ratio(column(t, "MKT_HYG"), column(t, "MKT_LQD")), 6)
			},
		},
		{
			Name:     "credit_riskon_riskoff_ratio",
			Category: "credit",
			Inputs:   []string{"MKT_HYG", "MKT_TLT"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return Ratio(column(t, "MKT_HYG"), column(t, "MKT_TLT"))
			},
		},
		{
			Name:           "credit_riskon_riskoff_mom_6m",
			Category:       "credit",
			Inputs:         []string{"MKT_HYG", "MKT_TLT"},
			LookbackMonths: 6,
			compute: func(t *timeseries.Table) timeseries.Series {
				return PctReturn(Ratio(column(t, "MKT_HYG"), column(t, "MKT_TLT")), 6)
			},
		},
	}
}

func inflationDefs() []Definition {
	return []Definition{
		{
			Name:           "infl_cpi_yoy",
			Category:       "inflation",
			Inputs:         []string{"MAC_CPI"},
			LookbackMonths: 12,
			compute: func(t *timeseries.Table) timeseries.Series {
				return YoYChange(column(t, "MAC_CPI"))
			},
		},
		{
			Name:           "infl_cpi_mom",
			Category:       "inflation",
			Inputs:         []string{"MAC_CPI"},
			LookbackMonths: 1,
			compute: func(t *timeseries.Table) timeseries.Series {
				return PctReturn(column(t, "MAC_CPI"), 1)
			},
		},
		{
			Name:           "infl_cpi_accel_6m",
			Category:       "inflation",
			Inputs:         []string{"MAC_CPI"},
			LookbackMonths: 18,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(YoYChange(column(t, "MAC_CPI")), 6)
			},
		},
		{
			Name:     "infl_breakeven_10y",
			Category: "inflation",
			Inputs:   []string{"MAC_T10YIE"},
			compute: func(t *timeseries.Table) timeseries.Series {
				return column(t, "MAC_T10YIE")
			},
		},
		{
			Name:           "infl_breakeven_3m_change",
			Category:       "inflation",
			Inputs:         []string{"MAC_T10YIE"},
			LookbackMonths: 3,
			compute: func(t *timeseries.Table) timeseries.Series {
				return DiffMonths(column(t, "MAC_T10YIE"), 3)
			},
		},
	}
}

func scale(s timeseries.Series, factor float64) timeseries.Series {
	out := make([]timeseries.Point, 0, s.Len())
	for _, p := range s.Points() {
		out = append(out, timeseries.Point{Date: p.Date, Value: p.Value * factor})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

func subtract(a, b timeseries.Series) timeseries.Series {
	out := make([]timeseries.Point, 0, a.Len())
	for _, p := range a.Points() {
		v, ok := b.At(p.Date)
		if !ok {
			continue
		}
		out = append(out, timeseries.Point{Date: p.Date, Value: p.Value - v})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}
