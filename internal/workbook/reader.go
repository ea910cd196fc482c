// Package workbook moves tabular data in and out of Excel workbooks.
//
// Reading flattens every sheet of a source workbook into one core.Table with
// normalized headers and origin tags. Writing renders core views as one
// workbook per table.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/logging"
)

// ErrFileNotFound is returned by ReadFile when the path does not exist.
// It wraps core.ErrMissingSource.
var ErrFileNotFound = fmt.Errorf("source file not found: %w", core.ErrMissingSource)

// ReadFile reads every sheet of the workbook at path.
func ReadFile(ctx context.Context, path string) (core.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Table{}, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return core.Table{}, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return core.Table{}, fmt.Errorf("invalid workbook %s: %w", path, err)
	}
	defer f.Close()

	return readWorkbook(ctx, f, filepath.Base(path))
}

// Read reads every sheet of a workbook streamed from r. name is recorded in
// the origin file column.
func Read(ctx context.Context, r io.Reader, name string) (core.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return core.Table{}, fmt.Errorf("invalid workbook %s: %w", name, err)
	}
	defer f.Close()

	return readWorkbook(ctx, f, name)
}

// readWorkbook concatenates all readable sheets. Columns are the union of the
// sheet headers in first-seen order, followed by the origin columns.
// Sheets that cannot be read are logged and skipped.
func readWorkbook(ctx context.Context, f *excelize.File, name string) (core.Table, error) {
	logger := logging.WithFields(ctx, "file", name)

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	table := core.Table{Name: name}
	seen := make(map[string]struct{})
	addColumn := func(col string) {
		if _, ok := seen[col]; ok {
			return
		}
		seen[col] = struct{}{}
		table.Columns = append(table.Columns, col)
	}

	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return core.Table{}, err
		}

		s := &sheetReader{f: f, sheet: sheet, date1904: date1904, dateStyles: make(map[int]bool)}
		headers, rows, err := s.read()
		if err != nil {
			logger.Warn("skipping unreadable sheet", "sheet", sheet, "error", err)
			continue
		}
		if len(rows) == 0 {
			logger.Debug("skipping sheet without data rows", "sheet", sheet)
			continue
		}

		for _, h := range headers {
			addColumn(h)
		}
		for _, row := range rows {
			row[core.ColOriginSheet] = sheet
			row[core.ColOriginFile] = name
			table.Rows = append(table.Rows, row)
		}
		logger.Debug("sheet read", "sheet", sheet, "rows", len(rows), "columns", len(headers))
	}

	if len(table.Rows) > 0 {
		addColumn(core.ColOriginSheet)
		addColumn(core.ColOriginFile)
	}
	return table, nil
}

type sheetReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool // style id -> has a date number format
}

// read returns the normalized headers and the non-blank data rows of the
// sheet. The first row is the header.
func (s *sheetReader) read() ([]string, []core.Row, error) {
	raw, err := s.f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 {
		return nil, nil, nil
	}

	width := 0
	for _, r := range raw {
		width = max(width, len(r))
	}
	headers := HeaderNames(raw[0], width)

	var rows []core.Row
	for r := 1; r < len(raw); r++ {
		row := make(core.Row, len(headers))
		blank := true
		for c, h := range headers {
			var v any
			if c < len(raw[r]) {
				v = s.cell(c+1, r+1, raw[r][c])
			}
			if v != nil {
				blank = false
			}
			row[h] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return headers, rows, nil
}

// cell types a raw cell value. String cells stay text, numeric cells become
// float64, and numeric cells with a date number format become time.Time.
// Blank cells are nil.
func (s *sheetReader) cell(col, row int, raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}

	typ, _ := s.f.GetCellType(s.sheet, axis)
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if s.isDateCell(axis) {
		if t, err := excelize.ExcelDateToTime(n, s.date1904); err == nil {
			return t
		}
	}
	return n
}

func (s *sheetReader) isDateCell(axis string) bool {
	id, err := s.f.GetCellStyle(s.sheet, axis)
	if err != nil || id == 0 {
		return false
	}
	if isDate, ok := s.dateStyles[id]; ok {
		return isDate
	}
	style, err := s.f.GetStyle(id)
	isDate := err == nil && isDateStyle(style)
	s.dateStyles[id] = isDate
	return isDate
}

// HeaderNames normalizes a header row to width column names. Blank headers
// become "unnamed_<index>" and repeated names get a "_2", "_3", ... suffix.
func HeaderNames(raw []string, width int) []string {
	width = max(width, len(raw))
	names := make([]string, width)
	used := make(map[string]struct{}, width)

	for i := range width {
		name := ""
		if i < len(raw) {
			name = core.NormalizeHeader(raw[i])
		}
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		if _, dup := used[name]; dup {
			base := name
			for n := 2; ; n++ {
				name = fmt.Sprintf("%s_%d", base, n)
				if _, taken := used[name]; !taken {
					break
				}
			}
		}
		used[name] = struct{}{}
		names[i] = name
	}
	return names
}
