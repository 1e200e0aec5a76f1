package regime

import (
	"fmt"

	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// IndicatorDirection pairs an indicator name with its reading: +1 means
// a high value is favorable for this regime, -1 means unfavorable.
type IndicatorDirection struct {
	Name      string
	Direction int
}

// Definition is one fixed regime classifier: an explicit, ordered set
// of indicators with directions, symmetric composite thresholds and
// the labels for the three resulting states. The built-in definitions
// carry constants that are part of the methodology and are never tuned
// at runtime.
type Definition struct {
	Name        string
	Description string
	Indicators  []IndicatorDirection
	Labels      map[scoring.Signal]string
	// Composite above ThresholdUpper maps to +1, below ThresholdLower
	// to -1, in between to 0.
	ThresholdUpper float64
	ThresholdLower float64
	MinPeriods     int
	// ValidationColumn, when set, names a reference series carried
	// alongside the output for ex-post comparison. It is never an
	// input to the classification.
	ValidationColumn string
}

// Validate checks the definition's internal consistency
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("regime definition without a name")
	}
	if len(d.Indicators) == 0 {
		return fmt.Errorf("regime %q: no indicators declared", d.Name)
	}

	seen := make(map[string]bool, len(d.Indicators))
	for _, ind := range d.Indicators {
		if ind.Direction != 1 && ind.Direction != -1 {
			return fmt.Errorf("regime %q: direction for %q must be +1 or -1, got %d", d.Name, ind.Name, ind.Direction)
		}
		if seen[ind.Name] {
			return fmt.Errorf("regime %q: indicator %q listed twice", d.Name, ind.Name)
		}
		seen[ind.Name] = true
	}

	if d.ThresholdUpper <= d.ThresholdLower {
		return fmt.Errorf("regime %q: upper threshold (%v) must be above lower (%v)", d.Name, d.ThresholdUpper, d.ThresholdLower)
	}
	if d.MinPeriods < 2 {
		return fmt.Errorf("regime %q: min periods must be at least 2, got %d", d.Name, d.MinPeriods)
	}
	for _, state := range []scoring.Signal{scoring.SignalReduce, scoring.SignalHold, scoring.SignalIncrease} {
		if d.Labels[state] == "" {
			return fmt.Errorf("regime %q: missing label for state %d", d.Name, state)
		}
	}
	return nil
}

// Label maps a classified state to this regime's vocabulary
func (d Definition) Label(state scoring.Signal) string {
	return d.Labels[state]
}

// Result is one classifier's full output over the table's index
type Result struct {
	Regime string
	// Labels carries the definition's state vocabulary so consumers can
	// render signals without the definition in hand.
	Labels map[scoring.Signal]string
	// Composite is the directed mean z-score per month; months below
	// the warm-up or with no available indicator are absent.
	Composite timeseries.Series
	Signals   scoring.SignalSeries
	// Validation carries the reference series when the definition
	// declares one and the table has it.
	Validation timeseries.Series
	// Used and Missing record which declared indicators the table
	// actually provided.
	Used    []string
	Missing []string
}
