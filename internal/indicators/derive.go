package indicators

import (
	"math"
	"time"

	"github.com/cinar/indicator"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// Derivation helpers shared by the catalog. All of them look strictly
// backwards: a derived value at month t only reads observations at or
// before t. Lags are calendar lags, so a month with a missing base value
// k months back is absent rather than silently reusing a nearer one.

func valueMonthsBack(s timeseries.Series, p timeseries.Point, months int) (float64, bool) {
	// Anchored on the first of the month: subtracting months from a
	// month-end date with AddDate normalizes day overflow (Mar 31 minus
	// one month is "Feb 31", which Go rolls forward into March).
	y, m, _ := p.Date.Date()
	target := timeseries.MonthEnd(time.Date(y, m-time.Month(months), 1, 0, 0, 0, 0, time.UTC))
	return s.At(target)
}

// PctReturn computes the fractional change against the value `months`
// calendar months earlier
func PctReturn(s timeseries.Series, months int) timeseries.Series {
	out := make([]timeseries.Point, 0, s.Len())
	for _, p := range s.Points() {
		prev, ok := valueMonthsBack(s, p, months)
		if !ok || prev == 0 {
			continue
		}
		out = append(out, timeseries.Point{Date: p.Date, Value: (p.Value - prev) / prev})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

// DiffMonths computes the arithmetic change against the value `months`
// calendar months earlier
func DiffMonths(s timeseries.Series, months int) timeseries.Series {
	out := make([]timeseries.Point, 0, s.Len())
	for _, p := range s.Points() {
		prev, ok := valueMonthsBack(s, p, months)
		if !ok {
			continue
		}
		out = append(out, timeseries.Point{Date: p.Date, Value: p.Value - prev})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

// YoYChange is the 12-month fractional change
func YoYChange(s timeseries.Series) timeseries.Series {
	return PctReturn(s, 12)
}

// YoYDiff is the 12-month arithmetic change, used for series already
// expressed in percentage points (unemployment rate)
func YoYDiff(s timeseries.Series) timeseries.Series {
	return DiffMonths(s, 12)
}

func trailingWindow(s timeseries.Series, p timeseries.Point, window int) ([]float64, bool) {
	values := make([]float64, 0, window)
	for k := window - 1; k >= 1; k-- {
		v, ok := valueMonthsBack(s, p, k)
		if !ok {
			return nil, false
		}
		values = append(values, v)
	}
	values = append(values, p.Value)
	return values, true
}

// RollingMean is the trailing mean over the last `window` calendar
// months, absent unless the window is fully populated
func RollingMean(s timeseries.Series, window int) timeseries.Series {
	out := make([]timeseries.Point, 0, s.Len())
	for _, p := range s.Points() {
		values, ok := trailingWindow(s, p, window)
		if !ok {
			continue
		}
		out = append(out, timeseries.Point{Date: p.Date, Value: mean(values)})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

// RollingStd is the trailing sample standard deviation over the last
// `window` calendar months
func RollingStd(s timeseries.Series, window int) timeseries.Series {
	out := make([]timeseries.Point, 0, s.Len())
	for _, p := range s.Points() {
		values, ok := trailingWindow(s, p, window)
		if !ok {
			continue
		}
		std := sampleStd(values)
		out = append(out, timeseries.Point{Date: p.Date, Value: std})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

// RollingZScore standardizes each point against its own trailing window.
// Zero dispersion yields absence, matching the expanding normalizer.
func RollingZScore(s timeseries.Series, window int) timeseries.Series {
	out := make([]timeseries.Point, 0, s.Len())
	for _, p := range s.Points() {
		values, ok := trailingWindow(s, p, window)
		if !ok {
			continue
		}
		std := sampleStd(values)
		if std == 0 {
			continue
		}
		out = append(out, timeseries.Point{Date: p.Date, Value: (p.Value - mean(values)) / std})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

// DrawdownFromPeak is the fractional distance from the running maximum,
// zero at new highs and negative below them
func DrawdownFromPeak(s timeseries.Series) timeseries.Series {
	out := make([]timeseries.Point, 0, s.Len())
	peak := math.Inf(-1)
	for _, p := range s.Points() {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		out = append(out, timeseries.Point{Date: p.Date, Value: p.Value/peak - 1})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

// Ratio divides two series month by month, defined only where both are
func Ratio(a, b timeseries.Series) timeseries.Series {
	out := make([]timeseries.Point, 0, a.Len())
	for _, p := range a.Points() {
		denom, ok := b.At(p.Date)
		if !ok || denom == 0 {
			continue
		}
		out = append(out, timeseries.Point{Date: p.Date, Value: p.Value / denom})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

// PriceVsSMA divides each value by its trailing simple moving average.
// The SMA at position i covers positions i-period+1..i of the defined
// points, so it never looks forward.
func PriceVsSMA(s timeseries.Series, period int) timeseries.Series {
	points := s.Points()
	if len(points) < period {
		empty, _ := timeseries.NewSeries(nil)
		return empty
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	sma := indicator.Sma(period, values)

	out := make([]timeseries.Point, 0, len(points))
	for i := period - 1; i < len(points); i++ {
		if sma[i] == 0 {
			continue
		}
		out = append(out, timeseries.Point{Date: points[i].Date, Value: values[i] / sma[i]})
	}
	series, _ := timeseries.NewSeries(out)
	return series
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
