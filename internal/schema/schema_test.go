package schema

import (
	"slices"
	"strings"
	"testing"

	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/modeling"
)

func TestOutputs_MatchViewColumns(t *testing.T) {
	want := map[string][]string{
		core.TableDimension:         core.DimensionColumns,
		core.TableFacts:             core.FactColumns,
		core.TableCleanFacts:        core.CleanFactColumns,
		core.TableMaintenanceDetail: core.DetailColumns,
		core.TableModelDataset:      modeling.DatasetColumns,
	}

	if len(Outputs) != len(want) {
		t.Fatalf("got %d output tables, want %d", len(Outputs), len(want))
	}
	for name, cols := range want {
		spec, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}
		if !slices.Equal(spec.Columns(), cols) {
			t.Errorf("%s columns = %v, want %v", name, spec.Columns(), cols)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup should fail for an unknown table")
	}
}

func TestCreateSQL(t *testing.T) {
	tests := []struct {
		name    string
		spec    TableSpec
		want    []string
		notWant []string
	}{
		{
			name: "output table",
			spec: Outputs[1],
			want: []string{
				"CREATE TABLE IF NOT EXISTS fct_mes_equipo",
				"run_id UUID NOT NULL REFERENCES fleet_runs(id) ON DELETE CASCADE",
				"year INTEGER,",
				"toneladas_total DOUBLE PRECISION NOT NULL",
				"dias_om_prom DOUBLE PRECISION\n",
			},
		},
		{
			name:    "runs table",
			spec:    RunsTable,
			want:    []string{"id UUID NOT NULL", "report JSONB NOT NULL", "evaluation JSONB", "PRIMARY KEY (id)"},
			notWant: []string{"run_id"},
		},
		{
			name: "clean table tightens periods",
			spec: Outputs[2],
			want: []string{"year INTEGER NOT NULL", "month INTEGER NOT NULL", "periodo DATE NOT NULL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := tt.spec.CreateSQL()
			for _, w := range tt.want {
				if !strings.Contains(sql, w) {
					t.Errorf("CreateSQL() missing %q:\n%s", w, sql)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(sql, w) {
					t.Errorf("CreateSQL() should not contain %q:\n%s", w, sql)
				}
			}
		})
	}
}

func TestCleanFields_DoesNotAliasFacts(t *testing.T) {
	for _, f := range factFields {
		if (f.Name == "year" || f.Name == "month") && !f.Nullable {
			t.Errorf("fact field %s lost its nullability", f.Name)
		}
	}
}
