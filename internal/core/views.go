package core

// views.go flattens engine output into named, column-ordered tables for the
// export, store and HTTP layers. Missing values become nil cells.

import "github.com/jackc/pgx/v5/pgtype"

// View is a format-agnostic tabular snapshot.
type View struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// DimensionColumns is the column order of the equipment dimension.
var DimensionColumns = []string{"equipo", "equipo_id"}

// FactColumns is the column order of the fused fact table.
var FactColumns = []string{
	"equipo_id", "equipo", "year", "month", "toneladas_total", "dias_registros",
	"om_total", "om_pmm1", "om_pmm2", "dias_om_prom",
}

// CleanFactColumns adds the period date to FactColumns.
var CleanFactColumns = append(append([]string{}, FactColumns...), "periodo")

// DetailColumns is the column order of the maintenance detail table.
var DetailColumns = []string{"equipo", "year", "month", "clase", "dias_om"}

// DimensionView renders the equipment dimension.
func DimensionView(dim []Equipment) View {
	v := View{Name: TableDimension, Columns: DimensionColumns, Rows: make([][]any, len(dim))}
	for i, e := range dim {
		v.Rows[i] = []any{e.Key, e.ID}
	}
	return v
}

// FactsView renders the fused (pre-clean) fact table.
func FactsView(facts []FactRow) View {
	v := View{Name: TableFacts, Columns: FactColumns, Rows: make([][]any, len(facts))}
	for i, f := range facts {
		v.Rows[i] = []any{
			f.EquipmentID, f.Equipment, int4Cell(f.Year), int4Cell(f.Month),
			f.Tonnage, f.OperationRecords, f.Orders, f.PMM1, f.PMM2, float8Cell(f.MeanDuration),
		}
	}
	return v
}

// CleanFactsView renders the cleaned fact table.
func CleanFactsView(facts []CleanFact) View {
	v := View{Name: TableCleanFacts, Columns: CleanFactColumns, Rows: make([][]any, len(facts))}
	for i, f := range facts {
		v.Rows[i] = []any{
			f.EquipmentID, f.Equipment, f.Year, f.Month,
			f.Tonnage, f.OperationRecords, f.Orders, f.PMM1, f.PMM2, float8Cell(f.MeanDuration),
			f.Period,
		}
	}
	return v
}

// DetailView renders the maintenance detail table.
func DetailView(detail []MaintenanceDetail) View {
	v := View{Name: TableMaintenanceDetail, Columns: DetailColumns, Rows: make([][]any, len(detail))}
	for i, d := range detail {
		v.Rows[i] = []any{d.Equipment, int4Cell(d.Year), int4Cell(d.Month), textCell(d.Class), float8Cell(d.Days)}
	}
	return v
}

// Views returns every output table of the result in export order.
func (r *Result) Views() []View {
	return []View{
		DimensionView(r.Dimension),
		FactsView(r.Facts),
		CleanFactsView(r.CleanFacts),
		DetailView(r.Detail),
	}
}

// View returns one output table by name.
func (r *Result) View(name string) (View, bool) {
	for _, v := range r.Views() {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}

func int4Cell(v pgtype.Int4) any {
	if !v.Valid {
		return nil
	}
	return int(v.Int32)
}

func float8Cell(v pgtype.Float8) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func textCell(v pgtype.Text) any {
	if !v.Valid {
		return nil
	}
	return v.String
}
