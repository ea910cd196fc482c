package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Origin columns appended to every raw row by the extraction step.
const (
	ColOriginSheet = "__origen_hoja__"
	ColOriginFile  = "__origen_file__"
)

// Output table names shared by exports and the store.
const (
	TableDimension         = "dim_equipos"
	TableFacts             = "fct_mes_equipo"
	TableCleanFacts        = "fct_mes_equipo_clean"
	TableMaintenanceDetail = "mantenimiento_detalle"
	TableModelDataset      = "ml_equipo_mes_clean"
)

// PMM order classes counted during maintenance aggregation.
const (
	ClassPMM1 = "PMM1"
	ClassPMM2 = "PMM2"
)

// Row is one untyped raw record keyed by normalized column name.
type Row map[string]any

// Table is a raw source table. Columns lists normalized header names in
// first-seen order; rows may omit any column.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Empty reports whether the table carries no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// PeriodKey is the grouping key shared by both sources.
// Missing year or month is a valid key component.
type PeriodKey struct {
	Equipment string
	Year      pgtype.Int4
	Month     pgtype.Int4
}

// normalize zeroes the payload of missing components so equal keys compare
// equal as map keys.
func (k PeriodKey) normalize() PeriodKey {
	if !k.Year.Valid {
		k.Year = pgtype.Int4{}
	}
	if !k.Month.Valid {
		k.Month = pgtype.Int4{}
	}
	return k
}

// OperationRecord is one operations row after key and period normalization.
type OperationRecord struct {
	PeriodKey
	RawEquipment string
	Tonnage      pgtype.Float8
}

// OperationsAggregate is one (equipment, year, month) group of the operations log.
type OperationsAggregate struct {
	PeriodKey
	Tonnage float64 // Sum of non-missing tonnage
	Records int     // Rows in the group
}

// MaintenanceDetail is one maintenance order after normalization.
// It is exported as-is (filtered to surviving equipment) after cleaning.
type MaintenanceDetail struct {
	Equipment string
	Year      pgtype.Int4
	Month     pgtype.Int4
	Class     pgtype.Text
	Days      pgtype.Float8
}

// Key returns the grouping key of the order.
func (d MaintenanceDetail) Key() PeriodKey {
	return PeriodKey{Equipment: d.Equipment, Year: d.Year, Month: d.Month}
}

// MaintenanceAggregate is one (equipment, year, month) group of the maintenance log.
type MaintenanceAggregate struct {
	PeriodKey
	Orders       int
	PMM1         int
	PMM2         int
	MeanDuration pgtype.Float8 // Missing when no order in the group has a duration
}

// FactRow is one fused (equipment, year, month) record.
type FactRow struct {
	EquipmentID int
	PeriodKey
	Tonnage          float64
	OperationRecords int
	Orders           int
	PMM1             int
	PMM2             int
	MeanDuration     pgtype.Float8
}

// Equipment is one row of the equipment dimension.
type Equipment struct {
	ID  int
	Key string
}

// CleanFact is a fact row that satisfied every cleaning rule.
type CleanFact struct {
	EquipmentID      int
	Equipment        string
	Year             int
	Month            int
	Period           time.Time // First day of the month, UTC
	Tonnage          float64
	OperationRecords int
	Orders           int
	PMM1             int
	PMM2             int
	MeanDuration     pgtype.Float8
}

// ColumnMap records which raw header was resolved for each role.
// An empty value means the role was not found and the feature is all-missing.
type ColumnMap map[string]string

// Result is the full output of one [Transform] call.
type Result struct {
	Dimension  []Equipment
	Facts      []FactRow
	CleanFacts []CleanFact
	Detail     []MaintenanceDetail
	Report     CleaningReport

	OperationsRows  int
	MaintenanceRows int
	OperationsCols  ColumnMap
	MaintenanceCols ColumnMap
}
