package timeseries

import (
	"fmt"
	"sort"
	"time"
)

// Point is a single dated value of a monthly series
type Point struct {
	Date  time.Time
	Value float64
}

// Series is an ordered time series with strictly increasing timestamps.
// A missing month is represented by the absence of a point, never by a
// sentinel value.
type Series struct {
	points []Point
}

// MonthEnd normalizes a timestamp to the last day of its calendar month
// (UTC midnight). Values keep their original month; only the label moves.
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// NewSeries builds a series from points, sorting by date and rejecting
// duplicate timestamps
func NewSeries(points []Point) (Series, error) {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for i := 1; i < len(sorted); i++ {
		if !sorted[i].Date.After(sorted[i-1].Date) {
			return Series{}, fmt.Errorf("duplicate timestamp %s in series", sorted[i].Date.Format("2006-01-02"))
		}
	}

	return Series{points: sorted}, nil
}

// Append adds a point after the current last timestamp
func (s *Series) Append(date time.Time, value float64) error {
	if n := len(s.points); n > 0 && !date.After(s.points[n-1].Date) {
		return fmt.Errorf("timestamp %s is not after last point %s",
			date.Format("2006-01-02"), s.points[n-1].Date.Format("2006-01-02"))
	}
	s.points = append(s.points, Point{Date: date, Value: value})
	return nil
}

// Len returns the number of defined points
func (s Series) Len() int {
	return len(s.points)
}

// At returns the value at an exact timestamp
func (s Series) At(date time.Time) (float64, bool) {
	i := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Date.Before(date)
	})
	if i < len(s.points) && s.points[i].Date.Equal(date) {
		return s.points[i].Value, true
	}
	return 0, false
}

// Points returns a copy of the defined points in chronological order
func (s Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Dates returns the defined timestamps in chronological order
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		out[i] = p.Date
	}
	return out
}

// First returns the earliest point
func (s Series) First() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// Last returns the latest point
func (s Series) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// TruncateAfter returns a copy with every point after the cutoff removed.
// Used by tests to verify that future data never leaks backwards.
func (s Series) TruncateAfter(cutoff time.Time) Series {
	i := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(cutoff)
	})
	out := make([]Point, i)
	copy(out, s.points[:i])
	return Series{points: out}
}
