package sources

import (
	"strings"
	"testing"
	"time"

	"github.com/tacticalpha/regime-engine/internal/timeseries"
	"github.com/tacticalpha/regime-engine/pkg/models"
)

func TestBuildTable(t *testing.T) {
	dir := t.TempDir()

	writeFixture(t, dir, "yf_SPY",
		"Date,Adj Close\n"+
			"2024-01-02,470.0\n"+
			"2024-01-31,482.5\n"+
			"2024-02-01,485.0\n"+
			"2024-02-29,500.25\n")
	writeFixture(t, dir, "fred_UNRATE",
		"DATE,UNRATE\n"+
			"2024-01-01,3.7\n"+
			"2024-02-01,3.9\n")
	// Loads cleanly but every value is a placeholder: coverage gap.
	writeFixture(t, dir, "fred_T10Y2Y",
		"DATE,T10Y2Y\n"+
			"2024-01-02,.\n"+
			"2024-01-03,.\n")

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	srcs := []Source{
		{Key: "yf_SPY", Column: "Adj Close", OutputName: "SPY", Prefix: PrefixMarket, Rule: models.ResampleLast},
		{Key: "fred_UNRATE", OutputName: "UNRATE", Prefix: PrefixMacro, Rule: models.ResamplePassthrough},
		{Key: "fred_T10Y2Y", OutputName: "T10Y2Y", Prefix: PrefixMacro, Rule: models.ResampleLast},
	}

	table, audits, err := BuildTable(loader, srcs)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	if len(audits) != 3 {
		t.Errorf("got %d audits, want one per source", len(audits))
	}

	columns := table.Columns()
	if len(columns) != 2 {
		t.Fatalf("columns = %v, want the two sources with data", columns)
	}
	if table.HasColumn("MAC_T10Y2Y") {
		t.Error("a source with no usable observations must not produce a column")
	}

	jan := timeseries.MonthEnd(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	spy, ok := table.Value("MKT_SPY", jan)
	if !ok || spy != 482.5 {
		t.Errorf("MKT_SPY jan = %v (%v), want month-end close 482.5", spy, ok)
	}
	unrate, ok := table.Value("MAC_UNRATE", jan)
	if !ok || unrate != 3.7 {
		t.Errorf("MAC_UNRATE jan = %v (%v), want 3.7", unrate, ok)
	}
}

func TestBuildTable_Failures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "fred_T10Y2Y", "DATE,T10Y2Y\n2024-01-02,.\n")

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	if _, _, err := BuildTable(loader, nil); err == nil {
		t.Error("empty source list should fail")
	}

	onlyGaps := []Source{{Key: "fred_T10Y2Y", OutputName: "T10Y2Y", Prefix: PrefixMacro, Rule: models.ResampleLast}}
	if _, _, err := BuildTable(loader, onlyGaps); err == nil {
		t.Error("a run where no source produces data should fail")
	}

	missing := []Source{{Key: "yf_SPY", Column: "Adj Close", OutputName: "SPY", Prefix: PrefixMarket, Rule: models.ResampleLast}}
	if _, _, err := BuildTable(loader, missing); err == nil {
		t.Error("a run where every file is missing loads nothing and should fail")
	}
}

func TestBuildTable_MissingFileIsCoverageGap(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "yf_SPY",
		"Date,Adj Close\n2024-01-31,482.5\n")

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	srcs := []Source{
		{Key: "yf_SPY", Column: "Adj Close", OutputName: "SPY", Prefix: PrefixMarket, Rule: models.ResampleLast},
		{Key: "yf_TLT", Column: "Adj Close", OutputName: "TLT", Prefix: PrefixMarket, Rule: models.ResampleLast},
	}
	table, _, err := BuildTable(loader, srcs)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	if !table.HasColumn("MKT_SPY") || table.HasColumn("MKT_TLT") {
		t.Errorf("columns = %v, want SPY present and the missing TLT skipped", table.Columns())
	}
}

func TestWriteCSV_AbsentCellsAreEmpty(t *testing.T) {
	table := timeseries.NewTable()
	jan := timeseries.MonthEnd(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	feb := timeseries.MonthEnd(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	a, err := timeseries.NewSeries([]timeseries.Point{{Date: jan, Value: 1.5}, {Date: feb, Value: 2.5}})
	if err != nil {
		t.Fatalf("NewSeries failed: %v", err)
	}
	b, err := timeseries.NewSeries([]timeseries.Point{{Date: feb, Value: -3}})
	if err != nil {
		t.Fatalf("NewSeries failed: %v", err)
	}
	if err := table.AddColumn("A", a); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}
	if err := table.AddColumn("B", b); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, table); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus two months:\n%s", len(lines), sb.String())
	}
	if lines[0] != "date,A,B" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-01-31,1.5," {
		t.Errorf("january row = %q, want empty cell for absent B", lines[1])
	}
	if lines[2] != "2024-02-29,2.5,-3" {
		t.Errorf("february row = %q", lines[2])
	}
}

func TestSourceDefinitions(t *testing.T) {
	all := All()
	if len(all) != 18 {
		t.Errorf("got %d sources, want 18", len(all))
	}

	seen := map[string]bool{}
	for _, src := range all {
		if src.Key == "" || src.OutputName == "" {
			t.Errorf("source %+v has an empty key or output name", src)
		}
		name := src.ColumnName()
		if seen[name] {
			t.Errorf("column %q defined twice", name)
		}
		seen[name] = true
		if !strings.HasPrefix(name, PrefixMarket) && !strings.HasPrefix(name, PrefixMacro) {
			t.Errorf("column %q carries no known prefix", name)
		}
	}

	for _, src := range all {
		if src.OutputName == "USREC" && !src.LaggedPublication {
			t.Error("USREC must be flagged as lagged publication")
		}
		if src.OutputName == "VIX" && src.Rule != models.ResampleMean {
			t.Error("VIX must resample by monthly mean")
		}
	}
}
