package core

// period.go extracts (month, year) pairs from free-form period cells.
//
// Maintenance exports describe the period of an order in many ways: full dates,
// "03.2021", "03/2021", "2021-03", "Marzo 2021" or just "mar". SplitMonthYear
// applies a fixed list of rules and stops at the first one that matches.

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// monthName maps one spelling to its month number.
type monthName struct {
	name  string
	month int
}

// monthNames is the bilingual month table, consulted top to bottom.
var monthNames = []monthName{
	{"enero", 1}, {"ene", 1}, {"january", 1}, {"jan", 1},
	{"febrero", 2}, {"feb", 2}, {"february", 2},
	{"marzo", 3}, {"mar", 3}, {"march", 3},
	{"abril", 4}, {"abr", 4}, {"apr", 4}, {"april", 4},
	{"mayo", 5}, {"may", 5},
	{"junio", 6}, {"jun", 6}, {"june", 6},
	{"julio", 7}, {"jul", 7}, {"july", 7},
	{"agosto", 8}, {"ago", 8}, {"aug", 8}, {"august", 8},
	{"septiembre", 9}, {"sept", 9}, {"sep", 9}, {"september", 9},
	{"octubre", 10}, {"oct", 10}, {"october", 10},
	{"noviembre", 11}, {"nov", 11}, {"november", 11},
	{"diciembre", 12}, {"dic", 12}, {"dec", 12}, {"december", 12},
}

var (
	monthDotYearRegex  = regexp.MustCompile(`^\d{1,2}[./]\d{4}$`)
	yearDashMonthRegex = regexp.MustCompile(`^\d{4}-\d{1,2}$`)
	monthWordYearRegex = regexp.MustCompile(`^([A-Za-zñÑáéíóúÁÉÍÓÚ]+)\s+(\d{4})$`)
	missingInt4        = pgtype.Int4{Valid: false}
)

// LookupMonthName returns the month number for a Spanish or English month
// name or abbreviation, case-insensitively.
func LookupMonthName(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range monthNames {
		if m.name == s {
			return m.month, true
		}
	}
	return 0, false
}

// parseMonthToken resolves a month name, falling back to a numeric month.
func parseMonthToken(s string) pgtype.Int4 {
	if m, ok := LookupMonthName(s); ok {
		return Int4(m)
	}
	return ToInt(s)
}

// SplitMonthYear extracts the month and year of a period cell. Rules, first
// match wins:
//  1. a full date ("15/03/2021", "2021-03-15")
//  2. "M.YYYY" or "M/YYYY"
//  3. "YYYY-M"
//  4. "<month name> YYYY"
//  5. a bare month name or number (year missing)
//
// Components that cannot be resolved are missing.
func SplitMonthYear(v any) (month, year pgtype.Int4) {
	switch x := v.(type) {
	case nil:
		return missingInt4, missingInt4
	case time.Time:
		if x.IsZero() {
			return missingInt4, missingInt4
		}
		return Int4(int(x.Month())), Int4(x.Year())
	case pgtype.Date:
		if !x.Valid {
			return missingInt4, missingInt4
		}
		return Int4(int(x.Time.Month())), Int4(x.Time.Year())
	case float64:
		if math.IsNaN(x) {
			return missingInt4, missingInt4
		}
	}

	s := CleanCell(CellText(v))
	if s == "" {
		return missingInt4, missingInt4
	}

	if t, ok := parseDate(s, false); ok {
		return Int4(int(t.Month())), Int4(t.Year())
	}

	if monthDotYearRegex.MatchString(s) {
		sep := "."
		if strings.Contains(s, "/") {
			sep = "/"
		}
		m, y, _ := strings.Cut(s, sep)
		return ToInt(m), ToInt(y)
	}

	if yearDashMonthRegex.MatchString(s) {
		y, m, _ := strings.Cut(s, "-")
		return ToInt(m), ToInt(y)
	}

	if parts := monthWordYearRegex.FindStringSubmatch(s); parts != nil {
		return parseMonthToken(parts[1]), ToInt(parts[2])
	}

	return parseMonthToken(s), missingInt4
}

// PeriodStart returns the first day of the month in UTC.
func PeriodStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// WholeDays returns end - start in whole days, rounding toward negative
// infinity. Missing when either date is missing.
func WholeDays(start, end pgtype.Date) pgtype.Float8 {
	if !start.Valid || !end.Valid {
		return pgtype.Float8{Valid: false}
	}
	days := math.Floor(end.Time.Sub(start.Time).Hours() / 24)
	return pgtype.Float8{Float64: days, Valid: true}
}
