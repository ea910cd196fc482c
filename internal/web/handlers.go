package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fleetfact/internal/service"
	"github.com/JonMunkholm/fleetfact/internal/web/templates"
	"github.com/JonMunkholm/fleetfact/internal/workbook"
)

// Multipart field names of the two workbooks.
const (
	FieldOperations  = "operations"
	FieldMaintenance = "maintenance"
)

// Default and maximum page size of the table endpoint.
const (
	defaultPageSize = 500
	maxPageSize     = 10000
)

// multipartMemory is the part of a form kept in memory; the rest spills to disk.
const multipartMemory = 32 << 20

var errUnknownTable = errors.New("unknown table")

// xlsxContentType is the MIME type of .xlsx downloads.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleDashboard renders the run history page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Dashboard(templates.DashboardData{
		Runs:    s.service.List(),
		Limiter: s.service.Limiter().Status(),
		Stored:  s.stored,
	}).Render(r.Context(), w)
}

// handleHealth reports liveness and run slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   s.service.Limiter().Status(),
	})
}

// handleCreateRun runs the pipeline on two uploaded workbooks and returns the
// run summary.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Run.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("file too large: limit %d bytes", tooLarge.Limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("invalid workbook form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	ops, opsHeader, err := formFile(r, FieldOperations)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer ops.Close()

	mnt, mntHeader, err := formFile(r, FieldMaintenance)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer mnt.Close()

	run, err := s.service.RunUploads(r.Context(),
		service.Upload{Name: opsHeader.Filename, Data: ops},
		service.Upload{Name: mntHeader.Filename, Data: mnt},
	)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, run.Summary())
}

func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("no file provided for %q: %w", field, err)
	}
	return file, header, nil
}

// handleListRuns returns the kept runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.List())
}

// handleGetRun returns one run summary.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run.Summary())
}

// handleDeleteRun drops a run with its exports and stored rows.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "runID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TablePage is one page of an output table.
type TablePage struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}

// handleRunTable returns a page of one output table as JSON.
func (s *Server) handleRunTable(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	name := chi.URLParam(r, "table")
	v, ok := run.View(name)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", errUnknownTable, name))
		return
	}

	limit := min(parseIntParam(r, "limit", defaultPageSize), maxPageSize)
	offset := min(parseIntParam(r, "offset", 0), len(v.Rows))
	end := min(offset+limit, len(v.Rows))

	writeJSON(w, http.StatusOK, TablePage{
		Name:    v.Name,
		Columns: v.Columns,
		Rows:    v.Rows[offset:end],
		Total:   len(v.Rows),
		Offset:  offset,
		Limit:   limit,
	})
}

// handleRunExport streams one output table as an .xlsx download.
func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	name := chi.URLParam(r, "table")
	v, ok := run.View(name)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", errUnknownTable, name))
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", v.Name, run.ID.String()[:8])
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := workbook.Write(w, v); err != nil {
		s.respondError(w, r, err)
	}
}

// parseIntParam parses a non-negative integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}
