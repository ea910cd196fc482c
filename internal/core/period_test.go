package core

import (
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestSplitMonthYear(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantMonth int // 0 means missing
		wantYear  int // 0 means missing
	}{
		{name: "dotted", input: "03.2021", wantMonth: 3, wantYear: 2021},
		{name: "slashed", input: "3/2021", wantMonth: 3, wantYear: 2021},
		{name: "year dash month", input: "2021-03", wantMonth: 3, wantYear: 2021},
		{name: "spanish name", input: "Marzo 2021", wantMonth: 3, wantYear: 2021},
		{name: "english name", input: "march 2021", wantMonth: 3, wantYear: 2021},
		{name: "abbreviation", input: "Ene 2022", wantMonth: 1, wantYear: 2022},
		{name: "full date day first", input: "15/03/2021", wantMonth: 3, wantYear: 2021},
		{name: "iso date", input: "2021-03-15", wantMonth: 3, wantYear: 2021},
		{name: "time value", input: time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), wantMonth: 3, wantYear: 2021},
		{name: "month name only", input: "mar", wantMonth: 3},
		{name: "month number only", input: "12", wantMonth: 12},
		{name: "numeric month", input: 4.0, wantMonth: 4},
		{name: "out of range month passes through", input: "13", wantMonth: 13},

		{name: "unknown text", input: "xyz"},
		{name: "nil", input: nil},
		{name: "empty", input: "   "},
		{name: "nan", input: math.NaN()},
		{name: "invalid date value", input: pgtype.Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month, year := SplitMonthYear(tt.input)
			assertInt4(t, "month", month, tt.wantMonth)
			assertInt4(t, "year", year, tt.wantYear)
		})
	}
}

func TestLookupMonthName(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"enero", 1, true},
		{"SEPT", 9, true},
		{" Dic ", 12, true},
		{"august", 8, true},
		{"abr", 4, true},
		{"month", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := LookupMonthName(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("LookupMonthName(%q) = %d, %v; want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestWholeDays(t *testing.T) {
	day := func(y, m, d int) pgtype.Date {
		return pgtype.Date{Time: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), Valid: true}
	}

	tests := []struct {
		name      string
		start     pgtype.Date
		end       pgtype.Date
		wantValid bool
		want      float64
	}{
		{name: "two days", start: day(2021, 3, 1), end: day(2021, 3, 3), wantValid: true, want: 2},
		{name: "same day", start: day(2021, 3, 1), end: day(2021, 3, 1), wantValid: true, want: 0},
		{name: "across month", start: day(2021, 2, 27), end: day(2021, 3, 2), wantValid: true, want: 3},
		{name: "end before start", start: day(2021, 3, 3), end: day(2021, 3, 1), wantValid: true, want: -2},
		{name: "missing start", start: pgtype.Date{}, end: day(2021, 3, 1)},
		{name: "missing end", start: day(2021, 3, 1), end: pgtype.Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WholeDays(tt.start, tt.end)
			if got.Valid != tt.wantValid {
				t.Fatalf("WholeDays().Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Float64 != tt.want {
				t.Errorf("WholeDays() = %v, want %v", got.Float64, tt.want)
			}
		})
	}
}

func TestPeriodStart(t *testing.T) {
	got := PeriodStart(2021, 3)
	want := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("PeriodStart(2021, 3) = %v, want %v", got, want)
	}
}

// assertInt4 checks a nullable int against want, where 0 means missing.
func assertInt4(t *testing.T, field string, got pgtype.Int4, want int) {
	t.Helper()
	if want == 0 {
		if got.Valid {
			t.Errorf("%s = %d, want missing", field, got.Int32)
		}
		return
	}
	if !got.Valid {
		t.Errorf("%s missing, want %d", field, want)
		return
	}
	if int(got.Int32) != want {
		t.Errorf("%s = %d, want %d", field, got.Int32, want)
	}
}
