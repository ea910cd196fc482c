package core

// clean.go enforces the reporting contract on fused fact rows.
//
// Rules run in a fixed order and each one either repairs a value or drops the
// whole row, never both:
//
//  1. Year repair: [100, 1000) is a truncated year and is multiplied by 10
//     ("202" becomes 2020); [2000, 2100] passes; anything else is missing.
//  2. Month outside [1, 12] is missing.
//  3. Rows with a missing year or month are dropped.
//  4. Rows without positive tonnage are dropped.
//  5. Rows with a blank equipment key are dropped.
//  6. Survivors get a period date (first day of the month).
//  7. The dimension and maintenance detail are restricted to surviving keys.
//
// Drops are expected data-quality attrition, reported as counts in
// CleaningReport rather than as errors.

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Valid year range after repair.
const (
	MinYear = 2000
	MaxYear = 2100
)

// Cleaning rule identifiers used in reports and metrics.
const (
	RuleYearRepaired   = "year_repaired"
	RuleYearInvalid    = "year_invalid"
	RuleMonthInvalid   = "month_invalid"
	RuleMissingPeriod  = "missing_period"
	RuleNoTonnage      = "no_tonnage"
	RuleBlankEquipment = "blank_equipment"
)

// CleaningReport counts what each rule did to the fused table.
type CleaningReport struct {
	InputRows     int            `json:"input_rows"`
	OutputRows    int            `json:"output_rows"`
	Repairs       map[string]int `json:"repairs"`
	Drops         map[string]int `json:"drops"`
	DimensionRows int            `json:"dimension_rows"`
	DetailRows    int            `json:"detail_rows"`
	DetailDropped int            `json:"detail_dropped"`
}

// Dropped returns the total number of fact rows removed.
func (r CleaningReport) Dropped() int {
	return r.InputRows - r.OutputRows
}

// CleanOutput is the result of the cleaning stage.
type CleanOutput struct {
	Facts     []CleanFact
	Dimension []Equipment
	Detail    []MaintenanceDetail
	Report    CleaningReport
}

// RepairYear applies the truncated-year heuristic. The second return value is
// true when the value was changed rather than passed through.
func RepairYear(y pgtype.Int4) (pgtype.Int4, bool) {
	if !y.Valid {
		return pgtype.Int4{Valid: false}, false
	}
	v := int(y.Int32)
	switch {
	case v >= MinYear && v <= MaxYear:
		return y, false
	case v >= 100 && v < 1000:
		fixed := v * 10
		if fixed < MinYear || fixed > MaxYear {
			return pgtype.Int4{Valid: false}, false
		}
		return Int4(fixed), true
	default:
		return pgtype.Int4{Valid: false}, false
	}
}

// ValidMonth returns m when it lies in [1, 12] and missing otherwise.
func ValidMonth(m pgtype.Int4) pgtype.Int4 {
	if !m.Valid || m.Int32 < 1 || m.Int32 > 12 {
		return pgtype.Int4{Valid: false}
	}
	return m
}

// Clean applies the cleaning rules to facts and restricts dim and detail to
// the equipment keys that survive. Inputs are not modified.
func Clean(dim []Equipment, facts []FactRow, detail []MaintenanceDetail) CleanOutput {
	report := CleaningReport{
		InputRows: len(facts),
		Repairs:   make(map[string]int),
		Drops:     make(map[string]int),
	}

	kept := make([]CleanFact, 0, len(facts))
	valid := make(map[string]struct{})

	for _, f := range facts {
		year, repaired := RepairYear(f.Year)
		if repaired {
			report.Repairs[RuleYearRepaired]++
		}
		if f.Year.Valid && !year.Valid {
			report.Repairs[RuleYearInvalid]++
		}

		month := ValidMonth(f.Month)
		if f.Month.Valid && !month.Valid {
			report.Repairs[RuleMonthInvalid]++
		}

		if !year.Valid || !month.Valid {
			report.Drops[RuleMissingPeriod]++
			continue
		}
		if !(f.Tonnage > 0) {
			report.Drops[RuleNoTonnage]++
			continue
		}
		if strings.TrimSpace(f.Equipment) == "" {
			report.Drops[RuleBlankEquipment]++
			continue
		}

		y, m := int(year.Int32), int(month.Int32)
		kept = append(kept, CleanFact{
			EquipmentID:      f.EquipmentID,
			Equipment:        f.Equipment,
			Year:             y,
			Month:            m,
			Period:           PeriodStart(y, m),
			Tonnage:          f.Tonnage,
			OperationRecords: f.OperationRecords,
			Orders:           f.Orders,
			PMM1:             f.PMM1,
			PMM2:             f.PMM2,
			MeanDuration:     f.MeanDuration,
		})
		valid[f.Equipment] = struct{}{}
	}

	var outDim []Equipment
	for _, e := range dim {
		if _, ok := valid[e.Key]; ok {
			outDim = append(outDim, e)
		}
	}

	var outDetail []MaintenanceDetail
	for _, d := range detail {
		if _, ok := valid[d.Equipment]; ok {
			outDetail = append(outDetail, d)
		}
	}

	report.OutputRows = len(kept)
	report.DimensionRows = len(outDim)
	report.DetailRows = len(outDetail)
	report.DetailDropped = len(detail) - len(outDetail)

	return CleanOutput{
		Facts:     kept,
		Dimension: outDim,
		Detail:    outDetail,
		Report:    report,
	}
}
