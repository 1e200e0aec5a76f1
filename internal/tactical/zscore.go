package tactical

import (
	"encoding/json"
	"fmt"

	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// LogicZScoreComposite normalizes each indicator with a point-in-time
// expanding z-score, averages the directed scores equally and applies
// symmetric thresholds.
const LogicZScoreComposite = "zscore_composite"

func init() {
	Register(LogicZScoreComposite, newZScoreComposite)
}

// compositeParams is the parameter shape shared by the equal-weight and
// weighted composite variants. Weights is ignored by the equal-weight
// variant and required by the weighted one.
type compositeParams struct {
	Directions    map[string]int     `json:"directions"`
	Weights       map[string]float64 `json:"weights,omitempty"`
	ThresholdBuy  float64            `json:"threshold_buy"`
	ThresholdSell float64            `json:"threshold_sell"`
	MinPeriods    int                `json:"min_periods,omitempty"`
}

func parseCompositeParams(cfg Config) (compositeParams, error) {
	var params compositeParams
	if err := json.Unmarshal(cfg.Parameters, &params); err != nil {
		return compositeParams{}, fmt.Errorf("parameters: %w", err)
	}

	keys := make(map[string]bool, len(params.Directions))
	for name, dir := range params.Directions {
		keys[name] = true
		if dir != 1 && dir != -1 {
			return compositeParams{}, fmt.Errorf("direction for %q must be +1 or -1, got %d", name, dir)
		}
	}
	if err := paramKeysMatch("direction", keys, cfg.Indicators); err != nil {
		return compositeParams{}, err
	}

	if params.ThresholdBuy <= params.ThresholdSell {
		return compositeParams{}, fmt.Errorf("threshold_buy (%v) must be above threshold_sell (%v)",
			params.ThresholdBuy, params.ThresholdSell)
	}
	if params.MinPeriods < 0 {
		return compositeParams{}, fmt.Errorf("min_periods must not be negative, got %d", params.MinPeriods)
	}
	if params.MinPeriods == 0 {
		params.MinPeriods = timeseries.DefaultMinPeriods
	}
	return params, nil
}

// compositeStrategy runs the shared z-score -> directed composite ->
// threshold pipeline. weighted selects whether the per-indicator
// weights participate.
type compositeStrategy struct {
	logicType  string
	indicators []string
	params     compositeParams
	weighted   bool
}

func newZScoreComposite(cfg Config) (Strategy, error) {
	params, err := parseCompositeParams(cfg)
	if err != nil {
		return nil, err
	}
	if len(params.Weights) != 0 {
		return nil, fmt.Errorf("weights are not accepted by %s, use %s", LogicZScoreComposite, LogicWeightedComposite)
	}
	return &compositeStrategy{
		logicType:  LogicZScoreComposite,
		indicators: cfg.Indicators,
		params:     params,
	}, nil
}

func (s *compositeStrategy) Name() string {
	return s.logicType
}

func (s *compositeStrategy) Compute(table *timeseries.Table) (scoring.SignalSeries, error) {
	columns, err := indicatorColumns(table, s.indicators)
	if err != nil {
		return scoring.SignalSeries{}, err
	}

	inputs := make([]scoring.Input, 0, len(s.indicators))
	for _, name := range s.indicators {
		input := scoring.Input{
			Name:      name,
			Z:         timeseries.ExpandingZScore(columns[name], s.params.MinPeriods),
			Direction: s.params.Directions[name],
		}
		if s.weighted {
			input.Weight = s.params.Weights[name]
		}
		inputs = append(inputs, input)
	}

	composite, err := scoring.Composite(table.Index(), inputs)
	if err != nil {
		return scoring.SignalSeries{}, err
	}
	return scoring.Classify(composite, s.params.ThresholdBuy, s.params.ThresholdSell)
}
