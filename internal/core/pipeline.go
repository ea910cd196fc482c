package core

import (
	"errors"
	"fmt"
)

// ErrMissingSource is returned when a required source table is absent or has
// no rows. The pipeline cannot run without both sources.
var ErrMissingSource = errors.New("missing source table")

// Source names used in errors and logs.
const (
	SourceOperations  = "operations"
	SourceMaintenance = "maintenance"
)

// Transform runs the full engine on the operations and maintenance tables:
// column resolution, row normalization, per-source aggregation, fusion with
// the equipment dimension, and cleaning. It is deterministic and does not
// modify its inputs.
func Transform(ops, mnt Table) (*Result, error) {
	if ops.Empty() {
		return nil, fmt.Errorf("%s: %w", SourceOperations, ErrMissingSource)
	}
	if mnt.Empty() {
		return nil, fmt.Errorf("%s: %w", SourceMaintenance, ErrMissingSource)
	}

	opRecords, opCols := PrepareOperations(ops)
	details, mntCols := PrepareMaintenance(mnt)

	fused := Fuse(AggregateOperations(opRecords), AggregateMaintenance(details))
	dim, facts := BuildDimension(fused)

	cleaned := Clean(dim, facts, details)

	return &Result{
		Dimension:       cleaned.Dimension,
		Facts:           facts,
		CleanFacts:      cleaned.Facts,
		Detail:          cleaned.Detail,
		Report:          cleaned.Report,
		OperationsRows:  len(ops.Rows),
		MaintenanceRows: len(mnt.Rows),
		OperationsCols:  opCols,
		MaintenanceCols: mntCols,
	}, nil
}

// QualityCounts summarizes activity in the cleaned fact table.
type QualityCounts struct {
	RowsWithOrders  int `json:"rows_with_orders"`
	RowsWithTonnage int `json:"rows_with_tonnage"`
}

// Quality counts cleaned rows with at least one order and with tonnage.
func (r *Result) Quality() QualityCounts {
	var q QualityCounts
	for _, f := range r.CleanFacts {
		if f.Orders > 0 {
			q.RowsWithOrders++
		}
		if f.Tonnage > 0 {
			q.RowsWithTonnage++
		}
	}
	return q
}
