package core

import (
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// CoerceDate Tests
// ----------------------------------------------------------------------------

func TestCoerceDate(t *testing.T) {
	march15 := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		input     any
		wantValid bool
		want      time.Time
	}{
		// Valid: text dates
		{name: "day first", input: "15/03/2021", wantValid: true, want: march15},
		{name: "month first fallback", input: "03/15/2021", wantValid: true, want: march15},
		{name: "iso", input: "2021-03-15", wantValid: true, want: march15},
		{name: "iso with time", input: "2021-03-15 08:30:00", wantValid: true, want: march15},
		{name: "rfc3339", input: "2021-03-15T08:30:00Z", wantValid: true, want: march15},
		{name: "dashes day first", input: "15-03-2021", wantValid: true, want: march15},
		{name: "single digit fields", input: "5/3/2021", wantValid: true, want: time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "two digit year", input: "15/03/21", wantValid: true, want: march15},
		{name: "formula wrapped", input: `="15/03/2021"`, wantValid: true, want: march15},
		{name: "ambiguous reads day first", input: "03/04/2021", wantValid: true, want: time.Date(2021, 4, 3, 0, 0, 0, 0, time.UTC)},

		// Valid: typed cells
		{name: "time value truncated", input: time.Date(2021, 3, 15, 23, 59, 0, 0, time.UTC), wantValid: true, want: march15},
		{name: "pgtype date", input: pgtype.Date{Time: march15, Valid: true}, wantValid: true, want: march15},

		// Invalid
		{name: "nil", input: nil},
		{name: "empty", input: ""},
		{name: "garbage", input: "not a date"},
		{name: "bare year", input: "2021"},
		{name: "impossible date", input: "31/02/2021"},
		{name: "numeric cell", input: 44270.0},
		{name: "zero time", input: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceDate(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("CoerceDate(%v).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && !got.Time.Equal(tt.want) {
				t.Errorf("CoerceDate(%v) = %v, want %v", tt.input, got.Time, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToNumber / ToInt Tests
// ----------------------------------------------------------------------------

func TestToNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		want      float64
	}{
		{name: "float", input: 12.5, wantValid: true, want: 12.5},
		{name: "int", input: 7, wantValid: true, want: 7},
		{name: "text integer", input: "1000", wantValid: true, want: 1000},
		{name: "thousands separator", input: "1,234.5", wantValid: true, want: 1234.5},
		{name: "currency", input: "$ 99.90", wantValid: true, want: 99.9},
		{name: "accounting negative", input: "(12.5)", wantValid: true, want: -12.5},
		{name: "scientific", input: "1e3", wantValid: true, want: 1000},
		{name: "padded", input: "  42 ", wantValid: true, want: 42},

		{name: "nil", input: nil},
		{name: "empty", input: ""},
		{name: "text", input: "abc"},
		{name: "nan", input: math.NaN()},
		{name: "infinity", input: math.Inf(1)},
		{name: "date", input: time.Now()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumber(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToNumber(%v).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && math.Abs(got.Float64-tt.want) > 1e-9 {
				t.Errorf("ToNumber(%v) = %v, want %v", tt.input, got.Float64, tt.want)
			}
		})
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
		want      int32
	}{
		{name: "text", input: "2021", wantValid: true, want: 2021},
		{name: "integral float", input: 2021.0, wantValid: true, want: 2021},
		{name: "separator", input: "2,021", wantValid: true, want: 2021},
		{name: "int4 passthrough", input: Int4(3), wantValid: true, want: 3},

		{name: "fraction", input: 3.5},
		{name: "text", input: "x"},
		{name: "overflow", input: 1e12},
		{name: "nil", input: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToInt(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToInt(%v).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Int32 != tt.want {
				t.Errorf("ToInt(%v) = %d, want %d", tt.input, got.Int32, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  abc  ", "abc"},
		{`="00123"`, "00123"},
		{"=SUM(A1)", "SUM(A1)"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
