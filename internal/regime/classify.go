package regime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// Classify runs the definition against an indicator table. Declared
// indicators missing from the table degrade coverage: they are logged
// and excluded, and classification proceeds on the rest. A table with
// none of the declared indicators is an error.
func (d Definition) Classify(table *timeseries.Table) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}

	var used, missing []string
	inputs := make([]scoring.Input, 0, len(d.Indicators))
	for _, ind := range d.Indicators {
		raw, err := table.Column(ind.Name)
		if err != nil {
			missing = append(missing, ind.Name)
			continue
		}
		used = append(used, ind.Name)
		inputs = append(inputs, scoring.Input{
			Name:      ind.Name,
			Z:         timeseries.ExpandingZScore(raw, d.MinPeriods),
			Direction: ind.Direction,
		})
	}

	if len(missing) > 0 {
		logger.Warn("regime running with partial coverage",
			zap.String("regime", d.Name),
			zap.Strings("missing", missing),
			zap.Int("used", len(used)),
		)
	}
	if len(inputs) == 0 {
		return Result{}, fmt.Errorf("regime %q: none of the declared indicators are present in the table", d.Name)
	}

	composite, err := scoring.Composite(table.Index(), inputs)
	if err != nil {
		return Result{}, fmt.Errorf("regime %q: %w", d.Name, err)
	}
	signals, err := scoring.Classify(composite, d.ThresholdUpper, d.ThresholdLower)
	if err != nil {
		return Result{}, fmt.Errorf("regime %q: %w", d.Name, err)
	}

	result := Result{
		Regime:    d.Name,
		Labels:    d.Labels,
		Composite: composite,
		Signals:   signals,
		Used:      used,
		Missing:   missing,
	}

	if d.ValidationColumn != "" {
		if validation, err := table.Column(d.ValidationColumn); err == nil {
			result.Validation = validation
		}
	}

	logger.Info("regime classified",
		zap.String("regime", d.Name),
		zap.Int("months", signals.Len()),
	)
	return result, nil
}
