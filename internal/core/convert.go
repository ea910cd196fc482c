package core

// convert.go provides type conversion functions for raw spreadsheet cells.
//
// These functions handle the messy reality of hand-maintained workbooks:
//   - Multiple date formats (ISO, day-first, month-first, 2-digit years)
//   - Thousand separators and currency symbols in numbers
//   - Accounting format for negatives "(123.45)"
//   - Common spreadsheet artifacts (formula prefixes, stray quotes)
//
// All converters return pgtype values with Valid=false for empty/invalid
// input. They never panic or return errors; a cell that cannot be read is
// simply missing.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts grouped by field order. Go's "1" and "2" verbs accept one or
// two digits, so "5/3/2021" and "05/03/2021" share a layout.
var (
	isoDateLayouts = []string{
		"2006-1-2", "2006/1/2", "2006.1.2", "20060102",
	}
	dayFirstLayouts = []string{
		"2/1/2006", "2-1-2006", "2.1.2006",
		"2 Jan 2006", "2-Jan-2006", "2 January 2006",
	}
	monthFirstLayouts = []string{
		"1/2/2006", "1-2-2006", "1.2.2006",
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006",
	}
	dayFirstShortLayouts   = []string{"2/1/06", "2-1-06", "2.1.06"}
	monthFirstShortLayouts = []string{"1/2/06", "1-2-06", "1.2.06"}

	// timeSuffixes are appended to every date layout; exported workbooks
	// often carry a midnight time component.
	timeSuffixes = []string{"", " 15:04:05", " 15:04", "T15:04:05", "T15:04:05Z07:00"}
)

// CoerceDate converts a cell to a date, reading ambiguous text day-first and
// falling back to month-first ("15/03/2021" and "03/15/2021" are both March
// 15th). time.Time cells pass through. Unparseable values are missing.
func CoerceDate(v any) pgtype.Date {
	return coerceDate(v, true)
}

func coerceDate(v any, dayFirst bool) pgtype.Date {
	switch x := v.(type) {
	case nil:
		return pgtype.Date{Valid: false}
	case time.Time:
		if x.IsZero() {
			return pgtype.Date{Valid: false}
		}
		return pgtype.Date{Time: truncateDay(x), Valid: true}
	case pgtype.Date:
		return x
	case string:
		t, ok := parseDate(x, dayFirst)
		if !ok {
			return pgtype.Date{Valid: false}
		}
		return pgtype.Date{Time: t, Valid: true}
	default:
		return pgtype.Date{Valid: false}
	}
}

// parseDate tries ISO layouts, then the preferred field order, then the other
// one, and finally 2-digit year layouts in the same order.
func parseDate(s string, dayFirst bool) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	first, second := dayFirstLayouts, monthFirstLayouts
	firstShort, secondShort := dayFirstShortLayouts, monthFirstShortLayouts
	if !dayFirst {
		first, second = second, first
		firstShort, secondShort = secondShort, firstShort
	}

	for _, group := range [][]string{isoDateLayouts, first, second} {
		if t, ok := tryLayouts(s, group); ok {
			return t, true
		}
	}

	// 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, group := range [][]string{firstShort, secondShort} {
		if t, ok := tryLayouts(s, group); ok {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return truncateDay(t), true
	}
	return time.Time{}, false
}

func tryLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		for _, suffix := range timeSuffixes {
			t, err := time.Parse(layout+suffix, s)
			if err == nil {
				return truncateDay(t), true
			}
		}
	}
	return time.Time{}, false
}

// truncateDay drops the time of day and normalizes to UTC.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToNumber converts a cell to a float.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
// NaN and infinities are treated as missing.
func ToNumber(v any) pgtype.Float8 {
	var f float64
	switch x := v.(type) {
	case nil:
		return pgtype.Float8{Valid: false}
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case pgtype.Float8:
		return x
	case string:
		return parseNumber(x)
	default:
		return pgtype.Float8{Valid: false}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

func parseNumber(s string) pgtype.Float8 {
	s = CleanCell(s)
	if s == "" {
		return pgtype.Float8{Valid: false}
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Float8{Valid: false}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ToInt converts a cell to an integer. Only integral values fit: "2021",
// 2021.0 and "2,021" are valid, 3.5 is missing.
func ToInt(v any) pgtype.Int4 {
	if i, ok := v.(pgtype.Int4); ok {
		return i
	}
	n := ToNumber(v)
	if !n.Valid || n.Float64 != math.Trunc(n.Float64) {
		return pgtype.Int4{Valid: false}
	}
	if n.Float64 > math.MaxInt32 || n.Float64 < math.MinInt32 {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(n.Float64), Valid: true}
}

// Int4 wraps a known integer as a valid pgtype.Int4.
func Int4(i int) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(i), Valid: true}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
