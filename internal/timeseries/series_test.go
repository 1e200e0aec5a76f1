package timeseries

import (
	"math"
	"testing"
	"time"
)

func monthEnd(year int, month time.Month) time.Time {
	return MonthEnd(time.Date(year, month, 15, 0, 0, 0, 0, time.UTC))
}

func mustSeries(t *testing.T, points []Point) Series {
	t.Helper()
	s, err := NewSeries(points)
	if err != nil {
		t.Fatalf("NewSeries failed: %v", err)
	}
	return s
}

// monthlySeries builds n consecutive month-end points starting at the
// given month, with values from the generator
func monthlySeries(t *testing.T, start time.Time, n int, value func(i int) float64) Series {
	t.Helper()
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		date := MonthEnd(start.AddDate(0, i, 0))
		points = append(points, Point{Date: date, Value: value(i)})
	}
	return mustSeries(t, points)
}

func TestMonthEnd(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC), time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := MonthEnd(c.in); !got.Equal(c.want) {
			t.Errorf("MonthEnd(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestNewSeries_SortsAndRejectsDuplicates(t *testing.T) {
	a := monthEnd(2024, time.March)
	b := monthEnd(2024, time.January)

	s := mustSeries(t, []Point{{Date: a, Value: 3}, {Date: b, Value: 1}})
	points := s.Points()
	if !points[0].Date.Equal(b) || !points[1].Date.Equal(a) {
		t.Error("points should be sorted chronologically")
	}

	_, err := NewSeries([]Point{{Date: a, Value: 1}, {Date: a, Value: 2}})
	if err == nil {
		t.Error("duplicate timestamps should be rejected")
	}
}

func TestSeries_At(t *testing.T) {
	s := monthlySeries(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 3, func(i int) float64 {
		return float64(i + 1)
	})

	if v, ok := s.At(monthEnd(2024, time.February)); !ok || v != 2 {
		t.Errorf("At(feb) = %v, %v; want 2, true", v, ok)
	}
	if _, ok := s.At(monthEnd(2024, time.May)); ok {
		t.Error("missing month should report absent")
	}
}

func TestSeries_TruncateAfter(t *testing.T) {
	s := monthlySeries(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 6, func(i int) float64 {
		return float64(i)
	})

	cut := s.TruncateAfter(monthEnd(2024, time.March))
	if cut.Len() != 3 {
		t.Fatalf("truncated length = %d, want 3", cut.Len())
	}
	if _, ok := cut.At(monthEnd(2024, time.April)); ok {
		t.Error("truncated series should not contain later months")
	}
}

func TestExpandingZScore_WarmupAndDeterminism(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthlySeries(t, start, 40, func(i int) float64 {
		return float64(i%7) + 0.1*float64(i)
	})

	z := ExpandingZScore(s, DefaultMinPeriods)

	// The first defined z-score is at the 24th observation: exactly 23
	// leading months are absent.
	points := s.Points()
	for i := 0; i < DefaultMinPeriods-1; i++ {
		if _, ok := z.At(points[i].Date); ok {
			t.Errorf("z-score at observation %d should be absent during warm-up", i)
		}
	}
	if _, ok := z.At(points[DefaultMinPeriods-1].Date); !ok {
		t.Fatalf("z-score at observation %d should be defined", DefaultMinPeriods-1)
	}

	// Feeding only data up to t must reproduce the value at t exactly:
	// later observations never reach back.
	for _, idx := range []int{24, 30, 39} {
		cutoff := points[idx].Date
		zTrunc := ExpandingZScore(s.TruncateAfter(cutoff), DefaultMinPeriods)

		full, okFull := z.At(cutoff)
		trunc, okTrunc := zTrunc.At(cutoff)
		if okFull != okTrunc {
			t.Fatalf("presence mismatch at %s", cutoff.Format("2006-01-02"))
		}
		if full != trunc {
			t.Errorf("z at %s changed with future data: %v vs %v", cutoff.Format("2006-01-02"), full, trunc)
		}
	}
}

func TestExpandingZScore_Values(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{1, 2, 3, 4}
	s := monthlySeries(t, start, len(values), func(i int) float64 { return values[i] })

	z := ExpandingZScore(s, 3)

	// At the third observation: mean=2, sample std=1, z=(3-2)/1.
	got, ok := z.At(monthEnd(2020, time.March))
	if !ok {
		t.Fatal("z at third observation should be defined")
	}
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("z = %v, want 1.0", got)
	}

	// At the fourth: mean=2.5, std=sqrt(5/3).
	got, ok = z.At(monthEnd(2020, time.April))
	if !ok {
		t.Fatal("z at fourth observation should be defined")
	}
	want := 1.5 / math.Sqrt(5.0/3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("z = %v, want %v", got, want)
	}
}

func TestExpandingZScore_ConstantThenStep(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := monthlySeries(t, start, 30, func(i int) float64 {
		if i < 25 {
			return 5.0
		}
		return 6.0
	})

	z := ExpandingZScore(s, 24)

	// Zero dispersion over the constant stretch: absent, not zero or inf.
	for i := 23; i < 25; i++ {
		date := MonthEnd(start.AddDate(0, i, 0))
		if _, ok := z.At(date); ok {
			t.Errorf("z over constant history (observation %d) should be absent", i)
		}
	}

	// Once the step arrives the std is positive and the score defined.
	stepDate := MonthEnd(start.AddDate(0, 25, 0))
	got, ok := z.At(stepDate)
	if !ok {
		t.Fatal("z at the step month should be defined")
	}
	if got <= 0 || math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("z at the step month = %v, want a positive finite value", got)
	}
}
