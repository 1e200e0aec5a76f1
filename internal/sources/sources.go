package sources

import "github.com/tacticalpha/regime-engine/pkg/models"

// Column prefixes in the aligned monthly table
const (
	PrefixMarket = "MKT_"
	PrefixMacro  = "MAC_"
)

// Source describes one raw input series: which file it lives in, which
// CSV column carries the value, its native frequency and how it is
// brought to monthly.
type Source struct {
	// Key is the file stem under the data directory: <Key>.csv
	Key string
	// Column is the value column in the CSV, matched case-insensitively.
	// Empty means the first non-date column, for single-series files
	// whose header carries the provider's series id.
	Column string
	// OutputName is the series name without prefix (SPY, CPI, ...)
	OutputName  string
	Prefix      string
	Frequency   models.Frequency
	Rule        models.ResampleRule
	Description string
	// LaggedPublication marks series published with a delay that makes
	// them unusable as live inputs.
	LaggedPublication bool
}

// ColumnName is the name the series carries in the aligned table
func (s Source) ColumnName() string {
	return s.Prefix + s.OutputName
}

// MarketSources lists the price and volatility files. Prices use the
// adjusted close and the month's last value; VIX is not a traded asset,
// so it uses the raw close averaged over the month.
func MarketSources() []Source {
	last := func(key, name, desc string) Source {
		return Source{
			Key:         key,
			Column:      "Adj Close",
			OutputName:  name,
			Prefix:      PrefixMarket,
			Frequency:   models.FrequencyDaily,
			Rule:        models.ResampleLast,
			Description: desc,
		}
	}
	return []Source{
		last("yf_SPY", "SPY", "S&P 500 ETF, adjusted month-end close"),
		{
			Key:         "yf_VIX",
			Column:      "Close",
			OutputName:  "VIX",
			Prefix:      PrefixMarket,
			Frequency:   models.FrequencyDaily,
			Rule:        models.ResampleMean,
			Description: "CBOE VIX, monthly mean of implied volatility",
		},
		last("yf_TLT", "TLT", "20Y+ Treasury ETF, adjusted month-end close"),
		last("yf_TIP", "TIP", "TIPS ETF, adjusted month-end close"),
		last("yf_LQD", "LQD", "IG corporate bond ETF, adjusted month-end close"),
		last("yf_HYG", "HYG", "HY corporate bond ETF, adjusted month-end close"),
		last("yf_GLD", "GLD", "gold ETF, adjusted month-end close"),
	}
}

// MacroSources lists the FRED files. Monthly series pass through with
// their stamps normalized to month-end; daily series take the month's
// last value.
func MacroSources() []Source {
	monthly := func(key, name, desc string) Source {
		return Source{
			Key:         key,
			OutputName:  name,
			Prefix:      PrefixMacro,
			Frequency:   models.FrequencyMonthly,
			Rule:        models.ResamplePassthrough,
			Description: desc,
		}
	}
	dailyLast := func(key, name, desc string) Source {
		return Source{
			Key:         key,
			OutputName:  name,
			Prefix:      PrefixMacro,
			Frequency:   models.FrequencyDaily,
			Rule:        models.ResampleLast,
			Description: desc,
		}
	}
	usrec := monthly("fred_USREC", "USREC", "NBER recession flag, monthly, long publication lag")
	usrec.LaggedPublication = true

	return []Source{
		monthly("fred_CPIAUCSL", "CPI", "consumer price index level"),
		monthly("fred_UNRATE", "UNRATE", "U-3 unemployment rate"),
		monthly("fred_FEDFUNDS", "FEDFUNDS", "fed funds effective rate, monthly average"),
		dailyLast("fred_DFF", "DFF", "fed funds effective rate, daily"),
		dailyLast("fred_T10Y2Y", "T10Y2Y", "10y-2y treasury spread"),
		monthly("fred_GS10", "GS10", "10y treasury constant maturity rate"),
		monthly("fred_GS2", "GS2", "2y treasury constant maturity rate"),
		monthly("fred_INDPRO", "INDPRO", "industrial production index"),
		usrec,
		dailyLast("fred_T10YIE", "T10YIE", "10y breakeven inflation rate"),
		dailyLast("fred_BAMLH0A0HYM2", "HY_OAS", "ICE BofA US high yield OAS"),
	}
}

// All returns market then macro sources
func All() []Source {
	return append(MarketSources(), MacroSources()...)
}
