package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/modeling"
)

// Run is one finished pipeline run kept in the registry.
type Run struct {
	ID              uuid.UUID
	StartedAt       time.Time
	FinishedAt      time.Time
	OperationsFile  string
	MaintenanceFile string

	Result     *core.Result
	Dataset    modeling.Dataset
	Evaluation *modeling.Evaluation // nil when training was skipped
	ModelNote  string               // Why training was skipped

	Exported   []string // Paths of written workbooks
	StoredRows int64    // Output rows copied to the database
}

// Views returns every output table of the run, including the model dataset.
func (r *Run) Views() []core.View {
	return append(r.Result.Views(), r.Dataset.View())
}

// View returns one output table by name.
func (r *Run) View(name string) (core.View, bool) {
	for _, v := range r.Views() {
		if v.Name == name {
			return v, true
		}
	}
	return core.View{}, false
}

// TableSummary is the name and row count of one output table.
type TableSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Summary is the JSON shape of a run returned by the API.
type Summary struct {
	ID              string               `json:"id"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	DurationMS      int64                `json:"duration_ms"`
	OperationsFile  string               `json:"operations_file"`
	MaintenanceFile string               `json:"maintenance_file"`
	OperationsRows  int                  `json:"operations_rows"`
	MaintenanceRows int                  `json:"maintenance_rows"`
	OperationsCols  core.ColumnMap       `json:"operations_columns"`
	MaintenanceCols core.ColumnMap       `json:"maintenance_columns"`
	Tables          []TableSummary       `json:"tables"`
	Report          core.CleaningReport  `json:"report"`
	Quality         core.QualityCounts   `json:"quality"`
	Evaluation      *modeling.Evaluation `json:"evaluation,omitempty"`
	ModelNote       string               `json:"model_note,omitempty"`
	Exported        []string             `json:"exported,omitempty"`
	StoredRows      int64                `json:"stored_rows"`
}

// Summary renders r for the API and the dashboard.
func (r *Run) Summary() Summary {
	views := r.Views()
	tables := make([]TableSummary, len(views))
	for i, v := range views {
		tables[i] = TableSummary{Name: v.Name, Rows: len(v.Rows)}
	}

	return Summary{
		ID:              r.ID.String(),
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		DurationMS:      r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		OperationsFile:  r.OperationsFile,
		MaintenanceFile: r.MaintenanceFile,
		OperationsRows:  r.Result.OperationsRows,
		MaintenanceRows: r.Result.MaintenanceRows,
		OperationsCols:  r.Result.OperationsCols,
		MaintenanceCols: r.Result.MaintenanceCols,
		Tables:          tables,
		Report:          r.Result.Report,
		Quality:         r.Result.Quality(),
		Evaluation:      r.Evaluation,
		ModelNote:       r.ModelNote,
		Exported:        r.Exported,
		StoredRows:      r.StoredRows,
	}
}
