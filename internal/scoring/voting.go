package scoring

import (
	"fmt"
	"time"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// VoteRule holds the two cutoffs a raw indicator value is compared
// against. With bullish above bearish the usual reading applies: above
// bullish votes bullish, below bearish votes bearish. Declaring bullish
// below bearish inverts the comparison, so "lower is better" indicators
// such as VIX work without preprocessing.
type VoteRule struct {
	Bullish float64 `json:"bullish"`
	Bearish float64 `json:"bearish"`
}

// Voter is one raw indicator participating in a majority vote
type Voter struct {
	Name string
	Raw  timeseries.Series
	Rule VoteRule
}

func (v Voter) vote(value float64) Signal {
	if v.Rule.Bullish > v.Rule.Bearish {
		switch {
		case value > v.Rule.Bullish:
			return SignalIncrease
		case value < v.Rule.Bearish:
			return SignalReduce
		}
		return SignalHold
	}
	// Inverted scale: low readings are favorable.
	switch {
	case value < v.Rule.Bullish:
		return SignalIncrease
	case value > v.Rule.Bearish:
		return SignalReduce
	}
	return SignalHold
}

// MajorityVote combines per-indicator threshold votes into one discrete
// series. A side wins a month only with strictly more than half of the
// votes cast by indicators that have data that month; ties and split
// fields stay neutral. A month with no votes at all is absent.
func MajorityVote(index []time.Time, voters []Voter) (SignalSeries, error) {
	if len(voters) == 0 {
		return SignalSeries{}, fmt.Errorf("majority vote requires at least one indicator")
	}
	for _, v := range voters {
		if v.Rule.Bullish == v.Rule.Bearish {
			return SignalSeries{}, fmt.Errorf("indicator %q: bullish and bearish cutoffs must differ", v.Name)
		}
	}

	points := make([]SignalPoint, 0, len(index))
	for _, month := range index {
		var cast, bullish, bearish int
		for _, v := range voters {
			value, ok := v.Raw.At(month)
			if !ok {
				continue
			}
			cast++
			switch v.vote(value) {
			case SignalIncrease:
				bullish++
			case SignalReduce:
				bearish++
			}
		}
		if cast == 0 {
			continue
		}

		signal := SignalHold
		if 2*bullish > cast {
			signal = SignalIncrease
		} else if 2*bearish > cast {
			signal = SignalReduce
		}
		points = append(points, SignalPoint{Date: month, Signal: signal})
	}

	return NewSignalSeries(points)
}
