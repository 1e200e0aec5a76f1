package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

func monthEnd(year int, month time.Month) time.Time {
	return timeseries.MonthEnd(time.Date(year, month, 15, 0, 0, 0, 0, time.UTC))
}

func seriesOf(t *testing.T, values map[time.Time]float64) timeseries.Series {
	t.Helper()
	points := make([]timeseries.Point, 0, len(values))
	for date, value := range values {
		points = append(points, timeseries.Point{Date: date, Value: value})
	}
	s, err := timeseries.NewSeries(points)
	if err != nil {
		t.Fatalf("NewSeries failed: %v", err)
	}
	return s
}

func TestComposite_EqualWeight(t *testing.T) {
	jan := monthEnd(2024, time.January)
	index := []time.Time{jan}

	inputs := []Input{
		{Name: "a", Z: seriesOf(t, map[time.Time]float64{jan: 1.0}), Direction: 1},
		{Name: "b", Z: seriesOf(t, map[time.Time]float64{jan: 2.0}), Direction: -1},
	}

	composite, err := Composite(index, inputs)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	got, ok := composite.At(jan)
	if !ok {
		t.Fatal("composite should be defined")
	}
	if math.Abs(got-(-0.5)) > 1e-12 {
		t.Errorf("composite = %v, want (1 - 2)/2 = -0.5", got)
	}
}

func TestComposite_AbsentInputsLeaveDenominator(t *testing.T) {
	jan := monthEnd(2024, time.January)
	feb := monthEnd(2024, time.February)
	index := []time.Time{jan, feb}

	inputs := []Input{
		{Name: "a", Z: seriesOf(t, map[time.Time]float64{jan: 2.0, feb: 2.0}), Direction: 1},
		{Name: "b", Z: seriesOf(t, map[time.Time]float64{jan: 0.0}), Direction: 1},
	}

	composite, err := Composite(index, inputs)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	// January averages both; February averages only the available one,
	// so the score is not dragged toward zero by the gap.
	if got, _ := composite.At(jan); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("january = %v, want 1.0", got)
	}
	if got, _ := composite.At(feb); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("february = %v, want 2.0 over the single available input", got)
	}
}

func TestComposite_AllAbsentMonthIsAbsent(t *testing.T) {
	jan := monthEnd(2024, time.January)
	feb := monthEnd(2024, time.February)

	inputs := []Input{
		{Name: "a", Z: seriesOf(t, map[time.Time]float64{jan: 1.0}), Direction: 1},
	}

	composite, err := Composite([]time.Time{jan, feb}, inputs)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if _, ok := composite.At(feb); ok {
		t.Error("a month where every input is absent must be absent")
	}
}

func TestComposite_DirectionInvariance(t *testing.T) {
	jan := monthEnd(2024, time.January)
	feb := monthEnd(2024, time.February)
	index := []time.Time{jan, feb}

	z := map[time.Time]float64{jan: 0.7, feb: -1.3}
	negated := map[time.Time]float64{jan: -0.7, feb: 1.3}

	plus, err := Composite(index, []Input{{Name: "x", Z: seriesOf(t, z), Direction: 1}})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	minus, err := Composite(index, []Input{{Name: "x", Z: seriesOf(t, negated), Direction: -1}})
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	// Negating a series and flipping its direction is a no-op.
	for _, month := range index {
		a, _ := plus.At(month)
		b, _ := minus.At(month)
		if math.Abs(a-b) > 1e-12 {
			t.Errorf("composites diverge at %s: %v vs %v", month.Format("2006-01"), a, b)
		}
	}
}

func TestComposite_WeightedMean(t *testing.T) {
	jan := monthEnd(2024, time.January)

	inputs := []Input{
		{Name: "a", Z: seriesOf(t, map[time.Time]float64{jan: 1.0}), Direction: 1, Weight: 3},
		{Name: "b", Z: seriesOf(t, map[time.Time]float64{jan: -1.0}), Direction: 1, Weight: 1},
	}

	composite, err := Composite([]time.Time{jan}, inputs)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	got, _ := composite.At(jan)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("weighted composite = %v, want (3 - 1)/4 = 0.5", got)
	}
}

func TestComposite_ZeroWeightDefaultsToOne(t *testing.T) {
	jan := monthEnd(2024, time.January)

	inputs := []Input{
		{Name: "a", Z: seriesOf(t, map[time.Time]float64{jan: 1.0}), Direction: 1, Weight: 2},
		{Name: "b", Z: seriesOf(t, map[time.Time]float64{jan: -1.0}), Direction: 1},
	}

	composite, err := Composite([]time.Time{jan}, inputs)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	got, _ := composite.At(jan)
	if math.Abs(got-(1.0/3.0)) > 1e-12 {
		t.Errorf("composite = %v, want (2 - 1)/3 with the unset weight counted as 1", got)
	}
}

func TestComposite_RejectsBadInputs(t *testing.T) {
	jan := monthEnd(2024, time.January)
	s := seriesOf(t, map[time.Time]float64{jan: 1.0})

	if _, err := Composite([]time.Time{jan}, nil); err == nil {
		t.Error("empty input list should be rejected")
	}
	if _, err := Composite([]time.Time{jan}, []Input{{Name: "x", Z: s, Direction: 0}}); err == nil {
		t.Error("direction 0 should be rejected")
	}
	if _, err := Composite([]time.Time{jan}, []Input{{Name: "x", Z: s, Direction: 1, Weight: -1}}); err == nil {
		t.Error("negative weight should be rejected")
	}
}

func TestClassify_StrictThresholds(t *testing.T) {
	months := make([]time.Time, 5)
	for i := range months {
		months[i] = monthEnd(2024, time.Month(i+1))
	}

	composite := seriesOf(t, map[time.Time]float64{
		months[0]: 0.51,
		months[1]: 0.5, // exactly on the buy threshold
		months[2]: 0.0,
		months[3]: -0.5, // exactly on the sell threshold
		months[4]: -0.51,
	})

	signals, err := Classify(composite, 0.5, -0.5)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	want := []Signal{SignalIncrease, SignalHold, SignalHold, SignalHold, SignalReduce}
	for i, month := range months {
		got, ok := signals.At(month)
		if !ok {
			t.Fatalf("signal at %s missing", month.Format("2006-01"))
		}
		if got != want[i] {
			t.Errorf("signal at %s = %d, want %d", month.Format("2006-01"), got, want[i])
		}
	}
}

func TestClassify_RejectsInvertedThresholds(t *testing.T) {
	composite := seriesOf(t, map[time.Time]float64{monthEnd(2024, time.January): 0})
	if _, err := Classify(composite, -0.5, 0.5); err == nil {
		t.Error("buy threshold below sell threshold should be rejected")
	}
}
