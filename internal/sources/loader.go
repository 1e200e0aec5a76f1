package sources

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/pkg/logger"
	"github.com/tacticalpha/regime-engine/pkg/models"
)

// Audit summarizes what the loader found in one file. It exists so a
// run leaves a record of the raw material it worked from: row counts,
// coverage range, duplicates dropped and the typical spacing between
// observations.
type Audit struct {
	Source        string
	Rows          int
	Dropped       int
	Start         time.Time
	End           time.Time
	MedianSpacing time.Duration
}

// Loader reads raw series from CSV files in a directory
type Loader struct {
	dir string
}

// NewLoader creates a loader over a data directory
func NewLoader(dir string) (*Loader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path %s is not a directory", dir)
	}
	return &Loader{dir: dir}, nil
}

// Load reads one source file into a raw series. Rows with an empty or
// unparsable value are skipped (providers emit blanks for unpublished
// days); rows repeating an already-seen date are dropped keep-first and
// counted in the audit. The result is sorted ascending.
func (l *Loader) Load(src Source) (models.RawSeries, Audit, error) {
	path := filepath.Join(l.dir, src.Key+".csv")
	f, err := os.Open(path)
	if err != nil {
		return models.RawSeries{}, Audit{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return models.RawSeries{}, Audit{}, fmt.Errorf("read header of %s: %w", path, err)
	}

	dateCol, valueCol := -1, -1
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		if dateCol < 0 && strings.EqualFold(trimmed, "date") {
			dateCol = i
		}
		if valueCol < 0 && src.Column != "" && strings.EqualFold(trimmed, src.Column) {
			valueCol = i
		}
	}
	if dateCol < 0 {
		return models.RawSeries{}, Audit{}, fmt.Errorf("%s: no date column in header %v", path, header)
	}
	if valueCol < 0 && src.Column == "" {
		// Single-series files carry the value in the first non-date
		// column, whatever the provider named it.
		for i := range header {
			if i != dateCol {
				valueCol = i
				break
			}
		}
	}
	if valueCol < 0 {
		return models.RawSeries{}, Audit{}, fmt.Errorf("%s: no %q column in header %v", path, src.Column, header)
	}

	seen := make(map[time.Time]bool)
	var observations []models.Observation
	dropped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.RawSeries{}, Audit{}, fmt.Errorf("read %s: %w", path, err)
		}
		if len(record) <= dateCol || len(record) <= valueCol {
			continue
		}

		date, err := parseDate(record[dateCol])
		if err != nil {
			return models.RawSeries{}, Audit{}, fmt.Errorf("%s: %w", path, err)
		}
		// Keep-first applies to the date itself, not to the first usable
		// value: a blank first row still shadows later rows for its date.
		if seen[date] {
			dropped++
			continue
		}
		seen[date] = true

		raw := strings.TrimSpace(record[valueCol])
		if raw == "" || raw == "." {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}

		observations = append(observations, models.Observation{Date: date, Value: value})
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})

	audit := buildAudit(src.ColumnName(), observations, dropped)
	logger.Debug("source loaded",
		zap.String("source", src.Key),
		zap.Int("rows", audit.Rows),
		zap.Int("duplicates_dropped", audit.Dropped),
	)

	return models.RawSeries{Name: src.ColumnName(), Observations: observations}, audit, nil
}

func parseDate(field string) (time.Time, error) {
	trimmed := strings.TrimSpace(field)
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", field)
}

func buildAudit(name string, observations []models.Observation, dropped int) Audit {
	audit := Audit{Source: name, Rows: len(observations), Dropped: dropped}
	if len(observations) == 0 {
		return audit
	}

	audit.Start = observations[0].Date
	audit.End = observations[len(observations)-1].Date

	if len(observations) > 1 {
		spacings := make([]time.Duration, 0, len(observations)-1)
		for i := 1; i < len(observations); i++ {
			spacings = append(spacings, observations[i].Date.Sub(observations[i-1].Date))
		}
		sort.Slice(spacings, func(i, j int) bool { return spacings[i] < spacings[j] })
		audit.MedianSpacing = spacings[len(spacings)/2]
	}
	return audit
}
