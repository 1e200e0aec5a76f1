package timeseries

import (
	"fmt"

	"github.com/tacticalpha/regime-engine/pkg/models"
)

// Resample converts a raw (daily or irregular) series to one value per
// calendar month, stamped to the month end.
//
// Only observations inside the month contribute to its value; windows are
// closed within the calendar month and never centered, so a month's value
// can never depend on later data. A month without observations simply has
// no entry in the result.
func Resample(raw models.RawSeries, rule models.ResampleRule) (Series, error) {
	switch rule {
	case models.ResampleLast:
		return resampleLast(raw)
	case models.ResampleMean:
		return resampleMean(raw)
	case models.ResamplePassthrough:
		return restampMonthly(raw)
	default:
		return Series{}, fmt.Errorf("unsupported resample rule %q", rule)
	}
}

func resampleLast(raw models.RawSeries) (Series, error) {
	// Observations are ordered, so the last write per month wins.
	byMonth := make(map[int64]Point)
	for _, obs := range raw.Observations {
		me := MonthEnd(obs.Date)
		byMonth[me.Unix()] = Point{Date: me, Value: models.ToFloat64(obs.Value)}
	}
	return seriesFromMonthMap(byMonth)
}

func resampleMean(raw models.RawSeries) (Series, error) {
	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[int64]*acc)
	months := make(map[int64]Point)
	for _, obs := range raw.Observations {
		me := MonthEnd(obs.Date)
		key := me.Unix()
		a, ok := sums[key]
		if !ok {
			a = &acc{}
			sums[key] = a
			months[key] = Point{Date: me}
		}
		a.sum += models.ToFloat64(obs.Value)
		a.count++
	}
	byMonth := make(map[int64]Point, len(sums))
	for key, a := range sums {
		byMonth[key] = Point{Date: months[key].Date, Value: a.sum / float64(a.count)}
	}
	return seriesFromMonthMap(byMonth)
}

// restampMonthly handles series that are already monthly: values are kept
// untouched and only the label moves to the month end. Two observations
// falling in the same month indicate a malformed source.
func restampMonthly(raw models.RawSeries) (Series, error) {
	byMonth := make(map[int64]Point)
	for _, obs := range raw.Observations {
		me := MonthEnd(obs.Date)
		key := me.Unix()
		if _, dup := byMonth[key]; dup {
			return Series{}, fmt.Errorf("series %q: two observations in month %s for a monthly source",
				raw.Name, me.Format("2006-01"))
		}
		byMonth[key] = Point{Date: me, Value: models.ToFloat64(obs.Value)}
	}
	return seriesFromMonthMap(byMonth)
}

func seriesFromMonthMap(byMonth map[int64]Point) (Series, error) {
	points := make([]Point, 0, len(byMonth))
	for _, p := range byMonth {
		points = append(points, p)
	}
	return NewSeries(points)
}
