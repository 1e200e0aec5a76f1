package scoring

import (
	"fmt"
	"time"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// Input is one normalized indicator feeding the composite: its z-score
// series, a direction sign and an optional weight.
//
// Direction maps the indicator's raw scale onto a shared convention:
// after multiplying by it, a positive contribution always means
// favorable conditions and a negative one unfavorable, whatever the
// indicator's native semantics.
type Input struct {
	Name      string
	Z         timeseries.Series
	Direction int
	Weight    float64
}

func (in Input) validate() error {
	if in.Direction != 1 && in.Direction != -1 {
		return fmt.Errorf("indicator %q: direction must be +1 or -1, got %d", in.Name, in.Direction)
	}
	if in.Weight < 0 {
		return fmt.Errorf("indicator %q: weight must not be negative, got %v", in.Name, in.Weight)
	}
	return nil
}

// Composite combines directed, weighted z-scores into one scalar per
// month. At each month only indicators with a defined value participate:
// they are excluded from both numerator and denominator, so coverage can
// degrade gracefully without dragging the score toward zero. A month
// where every indicator is absent is absent in the result.
//
// A zero weight means "default", i.e. 1.0; with all weights defaulted
// this is the plain equally-weighted composite.
func Composite(index []time.Time, inputs []Input) (timeseries.Series, error) {
	if len(inputs) == 0 {
		return timeseries.Series{}, fmt.Errorf("composite requires at least one indicator")
	}
	for _, in := range inputs {
		if err := in.validate(); err != nil {
			return timeseries.Series{}, err
		}
	}

	points := make([]timeseries.Point, 0, len(index))
	for _, month := range index {
		var sum, weightSum float64
		for _, in := range inputs {
			z, ok := in.Z.At(month)
			if !ok {
				continue
			}
			w := in.Weight
			if w == 0 {
				w = 1.0
			}
			sum += w * float64(in.Direction) * z
			weightSum += w
		}
		if weightSum == 0 {
			continue
		}
		points = append(points, timeseries.Point{Date: month, Value: sum / weightSum})
	}

	return timeseries.NewSeries(points)
}

// Classify maps a composite series to discrete signals using fixed
// symmetric cutoffs. The comparison is strict: a composite exactly on a
// threshold stays neutral. Absent composite months stay absent. Each
// month is classified independently; there is no persistence between
// consecutive months.
func Classify(composite timeseries.Series, thresholdBuy, thresholdSell float64) (SignalSeries, error) {
	if thresholdBuy <= thresholdSell {
		return SignalSeries{}, fmt.Errorf("threshold_buy (%v) must be above threshold_sell (%v)", thresholdBuy, thresholdSell)
	}

	points := make([]SignalPoint, 0, composite.Len())
	for _, p := range composite.Points() {
		signal := SignalHold
		switch {
		case p.Value > thresholdBuy:
			signal = SignalIncrease
		case p.Value < thresholdSell:
			signal = SignalReduce
		}
		points = append(points, SignalPoint{Date: p.Date, Signal: signal})
	}

	return NewSignalSeries(points)
}
