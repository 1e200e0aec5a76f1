package timeseries

import "math"

// DefaultMinPeriods is the minimum history required before an expanding
// statistic is emitted. 24 months keeps early estimates stable and is a
// fixed convention, not a tuned parameter.
const DefaultMinPeriods = 24

// ExpandingZScore standardizes a series point-in-time: the z-score at
// month t uses the mean and sample standard deviation of all defined
// observations up to and including t, never later ones. Appending future
// observations therefore can never change an already-emitted value.
//
// A point is absent in the result when the raw value is absent, when
// fewer than minPeriods observations have accumulated, or when the
// history so far is constant (zero variance).
func ExpandingZScore(s Series, minPeriods int) Series {
	if minPeriods <= 0 {
		minPeriods = DefaultMinPeriods
	}

	// Welford accumulation in chronological order.
	var (
		count int
		mean  float64
		m2    float64
	)

	out := make([]Point, 0, s.Len())
	for _, p := range s.Points() {
		count++
		delta := p.Value - mean
		mean += delta / float64(count)
		m2 += delta * (p.Value - mean)

		if count < minPeriods {
			continue
		}

		variance := m2 / float64(count-1)
		std := math.Sqrt(variance)
		if std == 0 || math.IsNaN(std) {
			continue
		}

		out = append(out, Point{Date: p.Date, Value: (p.Value - mean) / std})
	}

	series, _ := NewSeries(out)
	return series
}
