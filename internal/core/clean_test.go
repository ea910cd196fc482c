package core

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestRepairYear(t *testing.T) {
	tests := []struct {
		name         string
		input        pgtype.Int4
		want         int // 0 means missing
		wantRepaired bool
	}{
		{name: "valid year", input: Int4(2021), want: 2021},
		{name: "lower bound", input: Int4(2000), want: 2000},
		{name: "upper bound", input: Int4(2100), want: 2100},
		{name: "truncated year", input: Int4(202), want: 2020, wantRepaired: true},
		{name: "truncated out of range", input: Int4(150)},
		{name: "two digits", input: Int4(21)},
		{name: "too old", input: Int4(1999)},
		{name: "far future", input: Int4(2101)},
		{name: "missing", input: pgtype.Int4{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repaired := RepairYear(tt.input)
			assertInt4(t, "year", got, tt.want)
			if repaired != tt.wantRepaired {
				t.Errorf("repaired = %v, want %v", repaired, tt.wantRepaired)
			}
		})
	}
}

func TestValidMonth(t *testing.T) {
	for m, want := range map[int32]bool{0: false, 1: true, 6: true, 12: true, 13: false} {
		got := ValidMonth(pgtype.Int4{Int32: m, Valid: true})
		if got.Valid != want {
			t.Errorf("ValidMonth(%d).Valid = %v, want %v", m, got.Valid, want)
		}
	}
	if ValidMonth(pgtype.Int4{}).Valid {
		t.Error("missing month should stay missing")
	}
}

func cleanFixture() ([]Equipment, []FactRow, []MaintenanceDetail) {
	fact := func(id int, eq string, year, month pgtype.Int4, tonnage float64) FactRow {
		return FactRow{
			EquipmentID: id,
			PeriodKey:   PeriodKey{Equipment: eq, Year: year, Month: month},
			Tonnage:     tonnage,
			Orders:      1,
		}
	}
	dim := []Equipment{{1, "A"}, {2, "B"}, {3, "C"}, {4, ""}}
	facts := []FactRow{
		fact(1, "A", Int4(2021), Int4(3), 100),   // kept
		fact(1, "A", Int4(202), Int4(4), 50),     // kept after year repair
		fact(2, "B", Int4(2021), Int4(13), 10),   // month invalid, dropped
		fact(2, "B", pgtype.Int4{}, Int4(1), 10), // missing year, dropped
		fact(3, "C", Int4(2021), Int4(3), 0),     // no tonnage, dropped
		fact(3, "C", Int4(2021), Int4(4), -5),    // negative tonnage, dropped
		fact(4, "", Int4(2021), Int4(3), 20),     // blank key, dropped
		fact(1, "A", Int4(1850), Int4(5), 70),    // year invalid, dropped
	}
	detail := []MaintenanceDetail{
		{Equipment: "A", Year: Int4(2021), Month: Int4(3)},
		{Equipment: "B", Year: Int4(2021), Month: Int4(1)},
		{Equipment: "C", Year: Int4(2021), Month: Int4(3)},
	}
	return dim, facts, detail
}

func TestClean(t *testing.T) {
	dim, facts, detail := cleanFixture()

	out := Clean(dim, facts, detail)

	if len(out.Facts) != 2 {
		t.Fatalf("kept %d facts, want 2: %+v", len(out.Facts), out.Facts)
	}
	repaired := out.Facts[1]
	if repaired.Year != 2020 || repaired.Month != 4 {
		t.Errorf("repaired row = %d-%d, want 2020-4", repaired.Year, repaired.Month)
	}
	if !repaired.Period.Equal(time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("period = %v, want 2020-04-01", repaired.Period)
	}

	for _, f := range out.Facts {
		if f.Year < MinYear || f.Year > MaxYear || f.Month < 1 || f.Month > 12 || f.Tonnage <= 0 || f.Equipment == "" {
			t.Errorf("row violates cleaning contract: %+v", f)
		}
	}

	if len(out.Dimension) != 1 || out.Dimension[0] != (Equipment{ID: 1, Key: "A"}) {
		t.Errorf("dimension = %+v, want only A with id 1", out.Dimension)
	}
	if len(out.Detail) != 1 || out.Detail[0].Equipment != "A" {
		t.Errorf("detail = %+v, want only A", out.Detail)
	}
}

func TestClean_Report(t *testing.T) {
	dim, facts, detail := cleanFixture()

	r := Clean(dim, facts, detail).Report

	if r.InputRows != 8 || r.OutputRows != 2 || r.Dropped() != 6 {
		t.Errorf("rows in=%d out=%d dropped=%d", r.InputRows, r.OutputRows, r.Dropped())
	}
	wantRepairs := map[string]int{RuleYearRepaired: 1, RuleYearInvalid: 1, RuleMonthInvalid: 1}
	for rule, n := range wantRepairs {
		if r.Repairs[rule] != n {
			t.Errorf("repairs[%s] = %d, want %d", rule, r.Repairs[rule], n)
		}
	}
	wantDrops := map[string]int{RuleMissingPeriod: 3, RuleNoTonnage: 2, RuleBlankEquipment: 1}
	for rule, n := range wantDrops {
		if r.Drops[rule] != n {
			t.Errorf("drops[%s] = %d, want %d", rule, r.Drops[rule], n)
		}
	}
	if r.DimensionRows != 1 || r.DetailRows != 1 || r.DetailDropped != 2 {
		t.Errorf("dimension=%d detail=%d detailDropped=%d", r.DimensionRows, r.DetailRows, r.DetailDropped)
	}
}

func TestClean_Empty(t *testing.T) {
	out := Clean(nil, nil, nil)
	if len(out.Facts) != 0 || len(out.Dimension) != 0 || len(out.Detail) != 0 {
		t.Errorf("expected empty output, got %+v", out)
	}
	if out.Report.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0", out.Report.Dropped())
	}
}
