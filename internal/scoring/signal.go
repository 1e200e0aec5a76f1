package scoring

import (
	"fmt"
	"sort"
	"time"
)

// Signal is a discrete monthly stance: reduce, hold or increase exposure.
// The same three states encode regime labels downstream.
type Signal int8

const (
	SignalReduce   Signal = -1
	SignalHold     Signal = 0
	SignalIncrease Signal = +1
)

// Valid reports whether the value is one of the three allowed states
func (s Signal) Valid() bool {
	return s == SignalReduce || s == SignalHold || s == SignalIncrease
}

// SignalPoint is one classified month
type SignalPoint struct {
	Date   time.Time
	Signal Signal
}

// SignalSeries is an ordered discrete series. A month the classifier could
// not evaluate is absent, never coerced to hold.
type SignalSeries struct {
	points []SignalPoint
}

// NewSignalSeries builds a signal series, sorting by date and rejecting
// duplicates and out-of-range values
func NewSignalSeries(points []SignalPoint) (SignalSeries, error) {
	sorted := make([]SignalPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for i, p := range sorted {
		if !p.Signal.Valid() {
			return SignalSeries{}, fmt.Errorf("invalid signal value %d at %s", p.Signal, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !p.Date.After(sorted[i-1].Date) {
			return SignalSeries{}, fmt.Errorf("duplicate timestamp %s in signal series", p.Date.Format("2006-01-02"))
		}
	}

	return SignalSeries{points: sorted}, nil
}

// Len returns the number of classified months
func (s SignalSeries) Len() int {
	return len(s.points)
}

// At returns the signal for an exact month
func (s SignalSeries) At(date time.Time) (Signal, bool) {
	i := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Date.Before(date)
	})
	if i < len(s.points) && s.points[i].Date.Equal(date) {
		return s.points[i].Signal, true
	}
	return 0, false
}

// Points returns a copy of the classified months in chronological order
func (s SignalSeries) Points() []SignalPoint {
	out := make([]SignalPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Counts tallies classified months per state
func (s SignalSeries) Counts() map[Signal]int {
	counts := make(map[Signal]int, 3)
	for _, p := range s.points {
		counts[p.Signal]++
	}
	return counts
}

// Equal reports whether two signal series are identical month for month
func (s SignalSeries) Equal(other SignalSeries) bool {
	if len(s.points) != len(other.points) {
		return false
	}
	for i := range s.points {
		if !s.points[i].Date.Equal(other.points[i].Date) || s.points[i].Signal != other.points[i].Signal {
			return false
		}
	}
	return true
}
