package tactical

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tacticalpha/regime-engine/internal/indicators"
	"github.com/tacticalpha/regime-engine/internal/scoring"
	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// Config is the persisted description of one tactical model: which
// indicators it reads, which logic variant interprets them, and the
// variant's parameters as raw JSON so each variant owns its own shape.
type Config struct {
	Name        string          `json:"name"`
	Indicators  []string        `json:"indicators"`
	LogicType   string          `json:"logic_type"`
	Parameters  json.RawMessage `json:"parameters"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	NIndicators int             `json:"n_indicators"`
}

// Strategy turns an indicator table into a discrete monthly signal
// series. Implementations must be deterministic: the same table and
// the same config always produce the same series.
type Strategy interface {
	// Name returns the logic variant key this strategy was built from
	Name() string
	// Compute produces the signal series over the table's month index
	Compute(table *timeseries.Table) (scoring.SignalSeries, error)
}

// BuilderFunc constructs a strategy from a validated config. The
// indicator list in cfg has already been checked against the catalog;
// the builder only needs to validate its own parameter shape.
type BuilderFunc func(cfg Config) (Strategy, error)

var builders = map[string]BuilderFunc{}

// Register adds a logic variant under a key. Called from init in each
// variant file; registering the same key twice is a programming error.
func Register(logicType string, builder BuilderFunc) {
	if _, dup := builders[logicType]; dup {
		panic(fmt.Sprintf("tactical: logic type %q registered twice", logicType))
	}
	builders[logicType] = builder
}

// LogicTypes returns the registered variant keys, sorted
func LogicTypes() []string {
	keys := make([]string, 0, len(builders))
	for k := range builders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Build validates a config against the indicator universe and
// constructs the strategy for its logic type. Any defect in the config
// is an error here, before a single month is computed.
func Build(cfg Config, catalog *indicators.Catalog) (Strategy, error) {
	if err := validateConfig(cfg, catalog); err != nil {
		return nil, fmt.Errorf("model %q: %w", cfg.Name, err)
	}

	builder, ok := builders[cfg.LogicType]
	if !ok {
		return nil, fmt.Errorf("model %q: unknown logic type %q, have %v", cfg.Name, cfg.LogicType, LogicTypes())
	}

	strategy, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", cfg.Name, err)
	}
	return strategy, nil
}

func validateConfig(cfg Config, catalog *indicators.Catalog) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("name is empty")
	}
	if strings.ContainsAny(cfg.Name, " \t/") {
		return fmt.Errorf("name %q must not contain spaces or slashes", cfg.Name)
	}
	if len(cfg.Indicators) == 0 {
		return fmt.Errorf("indicator list is empty")
	}

	seen := make(map[string]bool, len(cfg.Indicators))
	for _, name := range cfg.Indicators {
		if seen[name] {
			return fmt.Errorf("indicator %q listed twice", name)
		}
		seen[name] = true
		if catalog != nil && !catalog.Has(name) {
			return fmt.Errorf("indicator %q not in the universe", name)
		}
	}

	if cfg.NIndicators != 0 && cfg.NIndicators != len(cfg.Indicators) {
		return fmt.Errorf("n_indicators is %d but %d indicators are listed", cfg.NIndicators, len(cfg.Indicators))
	}
	return nil
}

// paramKeysMatch checks that a per-indicator parameter map covers
// exactly the declared indicators, no more and no fewer
func paramKeysMatch(what string, keys map[string]bool, declared []string) error {
	for _, name := range declared {
		if !keys[name] {
			return fmt.Errorf("%s missing for indicator %q", what, name)
		}
	}
	if len(keys) != len(declared) {
		for key := range keys {
			found := false
			for _, name := range declared {
				if key == name {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%s given for %q which is not in the indicator list", what, key)
			}
		}
	}
	return nil
}

func indicatorColumns(table *timeseries.Table, names []string) (map[string]timeseries.Series, error) {
	out := make(map[string]timeseries.Series, len(names))
	for _, name := range names {
		series, err := table.Column(name)
		if err != nil {
			return nil, fmt.Errorf("indicator %q missing from the computed table", name)
		}
		out[name] = series
	}
	return out, nil
}
