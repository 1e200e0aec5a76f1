package tactical

import "fmt"

// LogicWeightedComposite is the z-score composite with explicit
// per-indicator weights. At each month the directed scores of the
// indicators that have data are averaged with their weights, and the
// divisor is the sum of those same weights, so a missing indicator
// drops out of the average entirely instead of shrinking it toward
// zero.
const LogicWeightedComposite = "weighted_composite"

func init() {
	Register(LogicWeightedComposite, newWeightedComposite)
}

func newWeightedComposite(cfg Config) (Strategy, error) {
	params, err := parseCompositeParams(cfg)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(params.Weights))
	for name, weight := range params.Weights {
		keys[name] = true
		if weight <= 0 {
			return nil, fmt.Errorf("weight for %q must be positive, got %v", name, weight)
		}
	}
	if err := paramKeysMatch("weight", keys, cfg.Indicators); err != nil {
		return nil, err
	}

	return &compositeStrategy{
		logicType:  LogicWeightedComposite,
		indicators: cfg.Indicators,
		params:     params,
		weighted:   true,
	}, nil
}
