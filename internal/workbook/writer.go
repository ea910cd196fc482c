package workbook

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/logging"
)

// dateNumFmt is the built-in short date number format.
const dateNumFmt = 14

// Export writes every non-empty view to dir/<name>.xlsx and returns the
// written paths in view order.
func Export(ctx context.Context, dir string, views []core.View) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	logger := logging.WithFields(ctx, "dir", dir)
	var paths []string
	for _, v := range views {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		if len(v.Rows) == 0 {
			logger.Debug("skipping empty table", "table", v.Name)
			continue
		}
		path := filepath.Join(dir, v.Name+".xlsx")
		if err := WriteFile(path, v); err != nil {
			return paths, err
		}
		logger.Info("table exported", "table", v.Name, "rows", len(v.Rows), "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteFile writes one view to a new workbook at path.
func WriteFile(path string, v core.View) error {
	f, err := build(v)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Write streams one view as an .xlsx workbook to w.
func Write(w io.Writer, v core.View) error {
	f, err := build(v)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", v.Name, err)
	}
	return nil
}

// build renders v into a single-sheet workbook named after the view.
// Columns holding dates get a date number format.
func build(v core.View) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := v.Name
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet %s: %w", sheet, err)
	}

	header := make([]any, len(v.Columns))
	for i, c := range v.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range v.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := styleDateColumns(f, sheet, v); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func styleDateColumns(f *excelize.File, sheet string, v core.View) error {
	styleID := -1
	for c := range v.Columns {
		if !isDateColumn(v, c) {
			continue
		}
		if styleID < 0 {
			id, err := f.NewStyle(&excelize.Style{NumFmt: dateNumFmt})
			if err != nil {
				return fmt.Errorf("create date style: %w", err)
			}
			styleID = id
		}
		top, _ := excelize.CoordinatesToCellName(c+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(c+1, len(v.Rows)+1)
		if err := f.SetCellStyle(sheet, top, bottom, styleID); err != nil {
			return fmt.Errorf("style column %s: %w", v.Columns[c], err)
		}
	}
	return nil
}

// isDateColumn reports whether the first non-nil cell of column c is a time.
func isDateColumn(v core.View, c int) bool {
	for _, row := range v.Rows {
		if c >= len(row) || row[c] == nil {
			continue
		}
		_, ok := row[c].(time.Time)
		return ok
	}
	return false
}
