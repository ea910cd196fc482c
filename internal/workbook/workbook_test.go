package workbook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fleetfact/internal/core"
)

type testSheet struct {
	name string
	rows [][]any
}

// buildWorkbook renders sheets into an in-memory .xlsx.
func buildWorkbook(t *testing.T, sheets ...testSheet) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range s.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				t.Fatalf("write row: %v", err)
			}
		}
	}

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestRead(t *testing.T) {
	march15 := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	buf := buildWorkbook(t,
		testSheet{name: "Enero", rows: [][]any{
			{"Equipo", "Fecha", "Peso Neto (Kg)", "", "Equipo"},
			{"Tracto 12", march15, 1000, "x", "dup"},
			{},
			{"00123", nil, 2.5},
		}},
		testSheet{name: "Febrero", rows: [][]any{
			{"EQUIPO", "Clase"},
			{"TM-5", "PMM1"},
		}},
		testSheet{name: "Vacia", rows: [][]any{
			{"Equipo"},
		}},
	)

	table, err := Read(context.Background(), buf, "ops.xlsx")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	wantCols := []string{
		"equipo", "fecha", "peso_neto_kg", "unnamed_3", "equipo_2", "clase",
		core.ColOriginSheet, core.ColOriginFile,
	}
	if !slices.Equal(table.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", table.Columns, wantCols)
	}
	if table.Name != "ops.xlsx" {
		t.Errorf("Name = %q", table.Name)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}

	first := table.Rows[0]
	if got, ok := first["fecha"].(time.Time); !ok || !got.Equal(march15) {
		t.Errorf("fecha = %#v, want %v", first["fecha"], march15)
	}
	if first["peso_neto_kg"] != 1000.0 {
		t.Errorf("peso_neto_kg = %#v, want 1000.0", first["peso_neto_kg"])
	}
	if first["equipo"] != "Tracto 12" || first["equipo_2"] != "dup" || first["unnamed_3"] != "x" {
		t.Errorf("text cells = %v", first)
	}
	if first[core.ColOriginSheet] != "Enero" || first[core.ColOriginFile] != "ops.xlsx" {
		t.Errorf("origin = %v / %v", first[core.ColOriginSheet], first[core.ColOriginFile])
	}

	second := table.Rows[1]
	if second["equipo"] != "00123" {
		t.Errorf("text that looks numeric should stay text, got %#v", second["equipo"])
	}
	if second["fecha"] != nil {
		t.Errorf("blank cell should be nil, got %#v", second["fecha"])
	}

	third := table.Rows[2]
	if third["clase"] != "PMM1" || third[core.ColOriginSheet] != "Febrero" {
		t.Errorf("second sheet row = %v", third)
	}
}

func TestRead_InvalidWorkbook(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader("not a zip"), "broken.xlsx")
	if err == nil {
		t.Fatal("expected error for invalid workbook")
	}
	if code := core.MapError(err).Code; code != "FILE002" {
		t.Errorf("error code = %s, want FILE002 (err: %v)", code, err)
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("error = %v, want ErrFileNotFound", err)
	}
	if !errors.Is(err, core.ErrMissingSource) {
		t.Errorf("error = %v, want it to wrap ErrMissingSource", err)
	}
	if code := core.MapError(err).Code; code != "SRC002" {
		t.Errorf("error code = %s, want SRC002", code)
	}
}

func TestReadFile(t *testing.T) {
	buf := buildWorkbook(t, testSheet{name: "Datos", rows: [][]any{
		{"Equipo", "Mes"},
		{"AB-1", "03.2021"},
	}})
	path := filepath.Join(t.TempDir(), "mnt.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0]["mes"] != "03.2021" {
		t.Errorf("rows = %v", table.Rows)
	}
	if table.Rows[0][core.ColOriginFile] != "mnt.xlsx" {
		t.Errorf("origin file = %v, want base name", table.Rows[0][core.ColOriginFile])
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	period := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	view := core.View{
		Name:    core.TableCleanFacts,
		Columns: []string{"equipo", "equipo_id", "dias_om_prom", "periodo"},
		Rows: [][]any{
			{"TRACTO", 1, 2.0, period},
			{"TM12", 2, nil, period},
		},
	}

	buf := new(bytes.Buffer)
	if err := Write(buf, view); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	table, err := Read(context.Background(), buf, "out.xlsx")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	row := table.Rows[0]
	if row["equipo"] != "TRACTO" || row["equipo_id"] != 1.0 || row["dias_om_prom"] != 2.0 {
		t.Errorf("row = %v", row)
	}
	if got, ok := row["periodo"].(time.Time); !ok || !got.Equal(period) {
		t.Errorf("periodo = %#v, want %v", row["periodo"], period)
	}
	if table.Rows[1]["dias_om_prom"] != nil {
		t.Errorf("missing value should round trip as blank, got %#v", table.Rows[1]["dias_om_prom"])
	}
	if table.Rows[0][core.ColOriginSheet] != core.TableCleanFacts {
		t.Errorf("sheet name = %v", table.Rows[0][core.ColOriginSheet])
	}
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	views := []core.View{
		{Name: core.TableDimension, Columns: core.DimensionColumns, Rows: [][]any{{"TRACTO", 1}}},
		{Name: core.TableMaintenanceDetail, Columns: core.DetailColumns},
	}

	paths, err := Export(context.Background(), dir, views)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := []string{filepath.Join(dir, core.TableDimension+".xlsx")}
	if !slices.Equal(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	if _, err := os.Stat(want[0]); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestHeaderNames(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		width int
		want  []string
	}{
		{
			name:  "normalized",
			raw:   []string{"Fecha de Movimiento", "Peso Neto"},
			width: 2,
			want:  []string{"fecha_de_movimiento", "peso_neto"},
		},
		{
			name:  "blank and trailing columns",
			raw:   []string{"a", "  "},
			width: 3,
			want:  []string{"a", "unnamed_1", "unnamed_2"},
		},
		{
			name:  "duplicates",
			raw:   []string{"Equipo", "equipo", "EQUIPO", "equipo_2"},
			width: 4,
			want:  []string{"equipo", "equipo_2", "equipo_3", "equipo_2_2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderNames(tt.raw, tt.width); !slices.Equal(got, tt.want) {
				t.Errorf("HeaderNames() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"dd/mm/yyyy", true},
		{"mmm-yy", true},
		{"[$-409]mmmm yyyy", true},
		{"yyyy-mm-dd hh:mm", true},
		{"h:mm:ss", false},
		{"[h]:mm", false},
		{"[Red]#,##0.00", false},
		{"#,##0.00", false},
		{`0.0 "days"`, false},
		{"General", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := IsDateFormat(tt.code); got != tt.want {
				t.Errorf("IsDateFormat(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
