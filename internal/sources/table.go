package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// BuildTable loads every source, resamples it to monthly and merges the
// results into one table over the outer union of months. A missing
// source file, or one that loads but contains no usable observations,
// is a coverage gap: logged and skipped, its column simply absent. An
// empty source list is a configuration error, as is a run where
// nothing loads at all.
func BuildTable(loader *Loader, srcs []Source) (*timeseries.Table, []Audit, error) {
	if len(srcs) == 0 {
		return nil, nil, fmt.Errorf("no sources configured")
	}

	table := timeseries.NewTable()
	audits := make([]Audit, 0, len(srcs))

	for _, src := range srcs {
		raw, audit, err := loader.Load(src)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("source file missing, column will be absent",
				zap.String("source", src.Key),
				zap.String("column", src.ColumnName()),
			)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.Key, err)
		}
		audits = append(audits, audit)

		if len(raw.Observations) == 0 {
			logger.Warn("source has no usable observations, column will be absent",
				zap.String("source", src.Key),
				zap.String("column", src.ColumnName()),
			)
			continue
		}

		monthly, err := timeseries.Resample(raw, src.Rule)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.Key, err)
		}
		if err := table.AddColumn(src.ColumnName(), monthly); err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.Key, err)
		}
	}

	if len(table.Columns()) == 0 {
		return nil, nil, fmt.Errorf("no source produced any data")
	}

	logger.Info("aligned table built",
		zap.Int("columns", len(table.Columns())),
		zap.Int("months", table.Rows()),
	)
	return table, audits, nil
}

// WriteCSV renders a table as CSV with a date column and one column per
// series. Absent cells are empty, never zero-filled.
func WriteCSV(w io.Writer, table *timeseries.Table) error {
	writer := csv.NewWriter(w)

	columns := table.Columns()
	header := append([]string{"date"}, columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, month := range table.Index() {
		row := make([]string, 0, len(header))
		row = append(row, month.Format("2006-01-02"))
		for _, col := range columns {
			value, ok := table.Value(col, month)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(value, 'g', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", month.Format("2006-01-02"), err)
		}
	}

	writer.Flush()
	return writer.Error()
}
