package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the native publication frequency of a raw series
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyMonthly Frequency = "monthly"
)

// ResampleRule describes how a raw series is aggregated to one value
// per calendar month
type ResampleRule string

const (
	// ResampleLast takes the chronologically last observation of the month.
	// Standard for prices and rates.
	ResampleLast ResampleRule = "last"
	// ResampleMean takes the arithmetic mean of all observations within
	// the month. Used for regime-level indicators such as VIX.
	ResampleMean ResampleRule = "mean"
	// ResamplePassthrough keeps already-monthly values untouched and only
	// re-stamps the date to the month-end convention.
	ResamplePassthrough ResampleRule = "passthrough"
)

// Observation is a single dated value of a raw series
type Observation struct {
	Date  time.Time
	Value decimal.Decimal
}

// RawSeries is an ordered raw time series as loaded from a provider file
type RawSeries struct {
	Name         string
	Observations []Observation
}

// AlignedObservation is one cell of the aligned monthly table, flattened
// for persistence
type AlignedObservation struct {
	Month  time.Time
	Column string
	Value  float64
}

// SignalRecord is one classified month of a model run, flattened for
// persistence
type SignalRecord struct {
	Month    time.Time
	Model    string
	Signal   int8
	Label    string
	Score    float64
	HasScore bool
}

// NewDecimal creates decimal from float64
func NewDecimal(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
