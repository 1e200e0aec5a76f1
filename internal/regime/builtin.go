package regime

import "github.com/tacticalpha/regime-engine/internal/scoring"

// The three built-in classifiers answer different questions about the
// same month: where the real economy is in its cycle, how financial
// markets are pricing risk, and how loose or tight monetary conditions
// are. Their indicator sets, directions and thresholds are fixed
// methodology constants.

const (
	defaultUpperThreshold = +0.5
	defaultLowerThreshold = -0.5
	defaultMinPeriods     = 24
)

// Macro classifies the business cycle from production, labor and the
// yield curve: expansion, neutral or contraction.
func Macro() Definition {
	return Definition{
		Name:        "macro",
		Description: "business cycle phase from real activity and labor market",
		Indicators: []IndicatorDirection{
			{Name: "cycle_indpro_yoy", Direction: +1},
			{Name: "cycle_indpro_accel", Direction: +1},
			{Name: "cycle_unemployment_yoy_diff", Direction: -1},
			{Name: "cycle_unemployment_3m_diff", Direction: -1},
			{Name: "mon_yield_curve_level", Direction: +1},
		},
		Labels: map[scoring.Signal]string{
			scoring.SignalIncrease: "expansion",
			scoring.SignalHold:     "neutral",
			scoring.SignalReduce:   "contraction",
		},
		ThresholdUpper:   defaultUpperThreshold,
		ThresholdLower:   defaultLowerThreshold,
		MinPeriods:       defaultMinPeriods,
		ValidationColumn: "cycle_nber_recession",
	}
}

// Financial classifies market risk appetite from volatility, credit
// spreads and equity stress: risk_on, neutral or risk_off.
func Financial() Definition {
	return Definition{
		Name:        "financial",
		Description: "market risk appetite from volatility and credit",
		Indicators: []IndicatorDirection{
			{Name: "vol_vix_zscore_24m", Direction: -1},
			{Name: "vol_implied_vs_realized_6m", Direction: -1},
			{Name: "credit_hy_oas_zscore_24m", Direction: -1},
			{Name: "credit_hy_oas_3m_change", Direction: -1},
			{Name: "credit_riskon_riskoff_mom_6m", Direction: +1},
			{Name: "trend_drawdown", Direction: +1},
		},
		Labels: map[scoring.Signal]string{
			scoring.SignalIncrease: "risk_on",
			scoring.SignalHold:     "neutral",
			scoring.SignalReduce:   "risk_off",
		},
		ThresholdUpper: defaultUpperThreshold,
		ThresholdLower: defaultLowerThreshold,
		MinPeriods:     defaultMinPeriods,
	}
}

// Liquidity classifies monetary conditions from real rates, the curve
// and inflation pressure: accommodative, neutral or restrictive.
func Liquidity() Definition {
	return Definition{
		Name:        "liquidity",
		Description: "monetary conditions from rates and inflation",
		Indicators: []IndicatorDirection{
			{Name: "mon_real_rate", Direction: -1},
			{Name: "mon_fedfunds_diff_12m", Direction: -1},
			{Name: "mon_yield_curve_level", Direction: +1},
			{Name: "mon_yield_curve_diff_6m", Direction: +1},
			{Name: "infl_cpi_accel_6m", Direction: -1},
			{Name: "infl_breakeven_3m_change", Direction: -1},
		},
		Labels: map[scoring.Signal]string{
			scoring.SignalIncrease: "accommodative",
			scoring.SignalHold:     "neutral",
			scoring.SignalReduce:   "restrictive",
		},
		ThresholdUpper: defaultUpperThreshold,
		ThresholdLower: defaultLowerThreshold,
		MinPeriods:     defaultMinPeriods,
	}
}
