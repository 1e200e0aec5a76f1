package timeseries

import (
	"fmt"
	"sort"
	"time"
)

// Table is an aligned monthly dataset: a shared month-end index and a set
// of named sparse columns. The index is the outer union of every column's
// months, so a month present in any source appears as a row even when all
// other columns are absent for it.
type Table struct {
	index   []time.Time
	columns []string
	data    map[string]map[time.Time]float64
}

// NewTable creates an empty aligned table
func NewTable() *Table {
	return &Table{
		data: make(map[string]map[time.Time]float64),
	}
}

// AddColumn merges a monthly series into the table under the given name.
// Every timestamp must already follow the month-end convention.
func (t *Table) AddColumn(name string, s Series) error {
	if name == "" {
		return fmt.Errorf("column name must not be empty")
	}
	if _, exists := t.data[name]; exists {
		return fmt.Errorf("column %q already present", name)
	}

	values := make(map[time.Time]float64, s.Len())
	for _, p := range s.Points() {
		if !p.Date.Equal(MonthEnd(p.Date)) {
			return fmt.Errorf("column %q: timestamp %s is not a month end",
				name, p.Date.Format("2006-01-02"))
		}
		values[p.Date] = p.Value
	}

	t.columns = append(t.columns, name)
	t.data[name] = values
	t.extendIndex(values)
	return nil
}

func (t *Table) extendIndex(values map[time.Time]float64) {
	known := make(map[time.Time]struct{}, len(t.index))
	for _, d := range t.index {
		known[d] = struct{}{}
	}
	grew := false
	for d := range values {
		if _, ok := known[d]; !ok {
			t.index = append(t.index, d)
			known[d] = struct{}{}
			grew = true
		}
	}
	if grew {
		sort.Slice(t.index, func(i, j int) bool { return t.index[i].Before(t.index[j]) })
	}
}

// Index returns the shared month-end index in chronological order
func (t *Table) Index() []time.Time {
	out := make([]time.Time, len(t.index))
	copy(out, t.index)
	return out
}

// Columns returns column names in insertion order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether a column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Value returns the cell for a column and month, with ok=false for an
// absent cell
func (t *Table) Value(column string, month time.Time) (float64, bool) {
	col, ok := t.data[column]
	if !ok {
		return 0, false
	}
	v, ok := col[month]
	return v, ok
}

// Column extracts one column as a series of its defined points
func (t *Table) Column(name string) (Series, error) {
	col, ok := t.data[name]
	if !ok {
		return Series{}, fmt.Errorf("unknown column %q", name)
	}
	points := make([]Point, 0, len(col))
	for d, v := range col {
		points = append(points, Point{Date: d, Value: v})
	}
	return NewSeries(points)
}

// Rows returns the number of months in the index
func (t *Table) Rows() int {
	return len(t.index)
}
