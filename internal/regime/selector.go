package regime

import (
	"fmt"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
)

// Selector dispatches classification by regime name. It is built
// explicitly per run with the definitions it should know about; there
// is no package-level registry to mutate.
type Selector struct {
	order []string
	defs  map[string]Definition
}

// NewSelector builds a selector over the given definitions, preserving
// their order for RunAll
func NewSelector(defs ...Definition) (*Selector, error) {
	s := &Selector{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.defs[def.Name]; dup {
			return nil, fmt.Errorf("regime %q registered twice", def.Name)
		}
		s.order = append(s.order, def.Name)
		s.defs[def.Name] = def
	}
	if len(s.order) == 0 {
		return nil, fmt.Errorf("selector needs at least one regime definition")
	}
	return s, nil
}

// DefaultSelector carries the three built-in classifiers
func DefaultSelector() *Selector {
	s, err := NewSelector(Macro(), Financial(), Liquidity())
	if err != nil {
		// Built-in definitions are static; failing here is a programming error.
		panic(err)
	}
	return s
}

// Names returns the known regime names in registration order
func (s *Selector) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns a definition by name
func (s *Selector) Get(name string) (Definition, error) {
	def, ok := s.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown regime %q, have %v", name, s.order)
	}
	return def, nil
}

// Run classifies one regime against the indicator table
func (s *Selector) Run(name string, table *timeseries.Table) (Result, error) {
	def, err := s.Get(name)
	if err != nil {
		return Result{}, err
	}
	return def.Classify(table)
}

// RunAll classifies every known regime, in registration order. Any
// single failure aborts the run: a half-classified month must not reach
// persistence.
func (s *Selector) RunAll(table *timeseries.Table) ([]Result, error) {
	results := make([]Result, 0, len(s.order))
	for _, name := range s.order {
		result, err := s.defs[name].Classify(table)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
