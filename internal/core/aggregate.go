package core

// aggregate.go reduces each raw source to one row per (equipment, year, month).
//
// Preparation resolves column roles once per table and normalizes every row
// (key, period, measures). Aggregation is a single fold per group; rows with
// a missing key component form their own group instead of being dropped, so
// the cleaning stage can account for them explicitly.

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

type period struct {
	year  pgtype.Int4
	month pgtype.Int4
}

// PrepareOperations normalizes the operations log. The returned ColumnMap
// records the header chosen for each role.
func PrepareOperations(t Table) ([]OperationRecord, ColumnMap) {
	cols := ColumnMap{
		RoleOperationsEquipment.Name: RoleOperationsEquipment.Resolve(t.Columns),
		RoleOperationsDate.Name:      RoleOperationsDate.Resolve(t.Columns),
		RoleTonnage.Name:             RoleTonnage.Resolve(t.Columns),
	}
	keyCol := cols[RoleOperationsEquipment.Name]
	tonCol := cols[RoleTonnage.Name]
	// Operations exports without a movement date still carry mes/ano
	// columns, so the month/year fallback applies to this source as well.
	periods := resolvePeriods(t, cols[RoleOperationsDate.Name], cols)

	records := make([]OperationRecord, len(t.Rows))
	for i, row := range t.Rows {
		raw := cellOrNil(row, keyCol)
		rec := OperationRecord{
			PeriodKey: PeriodKey{
				Equipment: CanonicalizeEquipment(raw),
				Year:      periods[i].year,
				Month:     periods[i].month,
			},
			RawEquipment: CellText(raw),
		}
		if tonCol != "" {
			rec.Tonnage = ToNumber(row[tonCol])
		}
		records[i] = rec
	}
	return records, cols
}

// PrepareMaintenance normalizes the maintenance log into order details.
// Duration is end minus start in whole days when both date columns resolve,
// otherwise a duration column is read as a number.
func PrepareMaintenance(t Table) ([]MaintenanceDetail, ColumnMap) {
	cols := ColumnMap{
		RoleMaintenanceEquipment.Name: RoleMaintenanceEquipment.Resolve(t.Columns),
		"date":                        ResolveDateColumn(t.Columns),
		RoleOrderClass.Name:           RoleOrderClass.Resolve(t.Columns),
		RoleOrderStart.Name:           RoleOrderStart.Resolve(t.Columns),
		RoleOrderEnd.Name:             RoleOrderEnd.Resolve(t.Columns),
	}
	keyCol := cols[RoleMaintenanceEquipment.Name]
	classCol := cols[RoleOrderClass.Name]
	startCol := cols[RoleOrderStart.Name]
	endCol := cols[RoleOrderEnd.Name]

	durCol := ""
	if startCol == "" || endCol == "" {
		durCol = RoleOrderDuration.Resolve(t.Columns)
		cols[RoleOrderDuration.Name] = durCol
	}

	periods := resolvePeriods(t, cols["date"], cols)

	details := make([]MaintenanceDetail, len(t.Rows))
	for i, row := range t.Rows {
		d := MaintenanceDetail{
			Equipment: CanonicalizeEquipment(cellOrNil(row, keyCol)),
			Year:      periods[i].year,
			Month:     periods[i].month,
		}
		if classCol != "" {
			d.Class = normalizeClass(row[classCol])
		}
		switch {
		case startCol != "" && endCol != "":
			d.Days = WholeDays(CoerceDate(row[startCol]), CoerceDate(row[endCol]))
		case durCol != "":
			d.Days = ToNumber(row[durCol])
		}
		details[i] = d
	}
	return details, cols
}

// resolvePeriods reads year and month from the date column. When the table
// has no date column, or no row yields a date, it falls back to the month
// column (through SplitMonthYear) and the year column, which takes precedence
// for the year.
func resolvePeriods(t Table, dateCol string, cols ColumnMap) []period {
	out := make([]period, len(t.Rows))

	if dateCol != "" {
		found := false
		for i, row := range t.Rows {
			d := CoerceDate(row[dateCol])
			if !d.Valid {
				continue
			}
			out[i] = period{year: Int4(d.Time.Year()), month: Int4(int(d.Time.Month()))}
			found = true
		}
		if found {
			return out
		}
	}

	monthCol := RoleMonth.Resolve(t.Columns)
	yearCol := RoleYear.Resolve(t.Columns)
	cols[RoleMonth.Name] = monthCol
	cols[RoleYear.Name] = yearCol

	if monthCol != "" {
		for i, row := range t.Rows {
			m, y := SplitMonthYear(row[monthCol])
			out[i] = period{year: y, month: m}
		}
	}
	if yearCol != "" {
		for i, row := range t.Rows {
			out[i].year = ToInt(row[yearCol])
		}
	}
	return out
}

// normalizeClass uppercases and trims an order class. Blank cells are missing.
func normalizeClass(v any) pgtype.Text {
	s := strings.ToUpper(strings.TrimSpace(CellText(v)))
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// isClass reports whether a normalized class equals want exactly.
func isClass(c pgtype.Text, want string) bool {
	return c.Valid && strings.ToUpper(strings.TrimSpace(c.String)) == want
}

func cellOrNil(row Row, col string) any {
	if col == "" {
		return nil
	}
	return row[col]
}

// AggregateOperations sums tonnage and counts rows per period key.
// Missing tonnage contributes nothing to the sum.
func AggregateOperations(records []OperationRecord) []OperationsAggregate {
	index := make(map[PeriodKey]int)
	var out []OperationsAggregate

	for _, rec := range records {
		key := rec.PeriodKey.normalize()
		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, OperationsAggregate{PeriodKey: key})
		}
		agg := &out[pos]
		agg.Records++
		if rec.Tonnage.Valid {
			agg.Tonnage += rec.Tonnage.Float64
		}
	}

	slices.SortFunc(out, func(a, b OperationsAggregate) int {
		return ComparePeriodKeys(a.PeriodKey, b.PeriodKey)
	})
	return out
}

// maintenanceAcc carries the per-group fold state.
type maintenanceAcc struct {
	agg     MaintenanceAggregate
	daysSum float64
	daysN   int
}

// AggregateMaintenance counts orders, PMM1 and PMM2 orders, and averages the
// non-missing durations per period key.
func AggregateMaintenance(details []MaintenanceDetail) []MaintenanceAggregate {
	index := make(map[PeriodKey]int)
	var accs []maintenanceAcc

	for _, d := range details {
		key := d.Key().normalize()
		pos, ok := index[key]
		if !ok {
			pos = len(accs)
			index[key] = pos
			accs = append(accs, maintenanceAcc{agg: MaintenanceAggregate{PeriodKey: key}})
		}
		acc := &accs[pos]
		acc.agg.Orders++
		if isClass(d.Class, ClassPMM1) {
			acc.agg.PMM1++
		}
		if isClass(d.Class, ClassPMM2) {
			acc.agg.PMM2++
		}
		if d.Days.Valid {
			acc.daysSum += d.Days.Float64
			acc.daysN++
		}
	}

	out := make([]MaintenanceAggregate, len(accs))
	for i, acc := range accs {
		out[i] = acc.agg
		if acc.daysN > 0 {
			out[i].MeanDuration = pgtype.Float8{Float64: acc.daysSum / float64(acc.daysN), Valid: true}
		}
	}

	slices.SortFunc(out, func(a, b MaintenanceAggregate) int {
		return ComparePeriodKeys(a.PeriodKey, b.PeriodKey)
	})
	return out
}

// ComparePeriodKeys orders keys by equipment, year, then month, with missing
// years and months after present ones.
func ComparePeriodKeys(a, b PeriodKey) int {
	if c := strings.Compare(a.Equipment, b.Equipment); c != 0 {
		return c
	}
	if c := compareInt4(a.Year, b.Year); c != 0 {
		return c
	}
	return compareInt4(a.Month, b.Month)
}

func compareInt4(a, b pgtype.Int4) int {
	switch {
	case a.Valid && b.Valid:
		return cmp.Compare(a.Int32, b.Int32)
	case a.Valid:
		return -1
	case b.Valid:
		return 1
	default:
		return 0
	}
}
