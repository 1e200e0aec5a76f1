package tactical

import (
	"encoding/json"
	"fmt"

	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// LogicThresholdRules votes each indicator's raw value against fixed
// bullish/bearish cutoffs and takes the majority. No normalization, no
// warm-up: a model is live from its first month with any data.
const LogicThresholdRules = "threshold_rules"

func init() {
	Register(LogicThresholdRules, newThresholdRules)
}

type thresholdParams struct {
	Thresholds map[string]scoring.VoteRule `json:"thresholds"`
}

type thresholdStrategy struct {
	indicators []string
	rules      map[string]scoring.VoteRule
}

func newThresholdRules(cfg Config) (Strategy, error) {
	var params thresholdParams
	if err := json.Unmarshal(cfg.Parameters, &params); err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}

	keys := make(map[string]bool, len(params.Thresholds))
	for name, rule := range params.Thresholds {
		keys[name] = true
		if rule.Bullish == rule.Bearish {
			return nil, fmt.Errorf("thresholds for %q: bullish and bearish cutoffs must differ", name)
		}
	}
	if err := paramKeysMatch("thresholds", keys, cfg.Indicators); err != nil {
		return nil, err
	}

	return &thresholdStrategy{
		indicators: cfg.Indicators,
		rules:      params.Thresholds,
	}, nil
}

func (s *thresholdStrategy) Name() string {
	return LogicThresholdRules
}

func (s *thresholdStrategy) Compute(table *timeseries.Table) (scoring.SignalSeries, error) {
	columns, err := indicatorColumns(table, s.indicators)
	if err != nil {
		return scoring.SignalSeries{}, err
	}

	voters := make([]scoring.Voter, 0, len(s.indicators))
	for _, name := range s.indicators {
		voters = append(voters, scoring.Voter{
			Name: name,
			Raw:  columns[name],
			Rule: s.rules[name],
		})
	}

	return scoring.MajorityVote(table.Index(), voters)
}
