package schema

import (
	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/modeling"
)

// RunsTable holds one row per persisted run.
var RunsTable = TableSpec{
	Name: "fleet_runs",
	Fields: []FieldSpec{
		{Name: "id", Type: FieldUUID},
		{Name: "started_at", Type: FieldTimestamp},
		{Name: "finished_at", Type: FieldTimestamp},
		{Name: "operations_file", Type: FieldText},
		{Name: "maintenance_file", Type: FieldText},
		{Name: "operations_rows", Type: FieldInt},
		{Name: "maintenance_rows", Type: FieldInt},
		{Name: "clean_rows", Type: FieldInt},
		{Name: "report", Type: FieldJSON},
		{Name: "evaluation", Type: FieldJSON, Nullable: true},
	},
}

var factFields = []FieldSpec{
	{Name: "equipo_id", Type: FieldInt},
	{Name: "equipo", Type: FieldText},
	{Name: "year", Type: FieldInt, Nullable: true},
	{Name: "month", Type: FieldInt, Nullable: true},
	{Name: "toneladas_total", Type: FieldNumeric},
	{Name: "dias_registros", Type: FieldInt},
	{Name: "om_total", Type: FieldInt},
	{Name: "om_pmm1", Type: FieldInt},
	{Name: "om_pmm2", Type: FieldInt},
	{Name: "dias_om_prom", Type: FieldNumeric, Nullable: true},
}

// cleanFields tightens the period columns and adds the period date.
func cleanFields() []FieldSpec {
	fields := make([]FieldSpec, 0, len(factFields)+1)
	for _, f := range factFields {
		if f.Name == "year" || f.Name == "month" {
			f.Nullable = false
		}
		fields = append(fields, f)
	}
	return append(fields, FieldSpec{Name: "periodo", Type: FieldDate})
}

func datasetFields() []FieldSpec {
	fields := append(cleanFields(), FieldSpec{Name: modeling.LabelColumn, Type: FieldInt})
	for _, name := range modeling.FeatureNames[:5] {
		fields = append(fields, FieldSpec{Name: name, Type: FieldNumeric})
	}
	return fields
}

// Outputs lists the output tables in export order.
var Outputs = []TableSpec{
	{
		Name: core.TableDimension,
		Fields: []FieldSpec{
			{Name: "equipo", Type: FieldText},
			{Name: "equipo_id", Type: FieldInt},
		},
	},
	{Name: core.TableFacts, Fields: factFields},
	{Name: core.TableCleanFacts, Fields: cleanFields()},
	{
		Name: core.TableMaintenanceDetail,
		Fields: []FieldSpec{
			{Name: "equipo", Type: FieldText},
			{Name: "year", Type: FieldInt, Nullable: true},
			{Name: "month", Type: FieldInt, Nullable: true},
			{Name: "clase", Type: FieldText, Nullable: true},
			{Name: "dias_om", Type: FieldNumeric, Nullable: true},
		},
	},
	{Name: core.TableModelDataset, Fields: datasetFields()},
}

// Lookup returns the output table spec with the given name.
func Lookup(name string) (TableSpec, bool) {
	for _, t := range Outputs {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}
