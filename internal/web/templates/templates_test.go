package templates

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/modeling"
	"github.com/JonMunkholm/fleetfact/internal/service"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return sb.String()
}

func TestDashboard_Empty(t *testing.T) {
	html := render(t, Dashboard(DashboardData{
		Limiter: service.LimiterStatus{Available: 2, MaxConcurrent: 2},
		Stored:  true,
	}))

	for _, want := range []string{
		"<!doctype html>",
		"<title>Fleet facts</title>",
		"Run slots: 2 of 2 free",
		"database sink enabled",
		`action="/api/runs"`,
		"No runs yet.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboard_Runs(t *testing.T) {
	id := "0b5c7d1e-1111-2222-3333-444455556666"
	runs := []service.Summary{
		{
			ID:              id,
			StartedAt:       time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
			OperationsFile:  "ops <2024>.xlsx",
			OperationsRows:  12,
			MaintenanceFile: "mnt.xlsx",
			MaintenanceRows: 4,
			Report:          core.CleaningReport{InputRows: 10, OutputRows: 7},
			Evaluation:      &modeling.Evaluation{Accuracy: 0.75},
			Tables:          []service.TableSummary{{Name: core.TableDimension, Rows: 3}},
		},
		{ID: "short", ModelNote: "training labels have fewer than two classes"},
	}

	html := render(t, Dashboard(DashboardData{Runs: runs}))

	for _, want := range []string{
		`href="/api/runs/` + id + `"`,
		">0b5c7d1e</a>",
		"2024-05-01 08:30:00",
		"ops &lt;2024&gt;.xlsx (12)",
		"mnt.xlsx (4)",
		"<td>7</td><td>3</td>",
		"0.750",
		`href="/api/runs/` + id + `/export/` + core.TableDimension + `"`,
		"fewer than two classes",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(html, "No runs yet") {
		t.Error("dashboard with runs should not show the empty message")
	}
	if strings.Contains(html, "database sink enabled") {
		t.Error("sink note shown without a database")
	}
}

func TestErrorAlert(t *testing.T) {
	html := render(t, ErrorAlert("Run <missing>", "Upload again", "RUN002"))

	for _, want := range []string{
		`role="alert"`,
		"Run &lt;missing&gt;",
		"<p>Upload again</p>",
		"Code: RUN002",
		`<a href="/">Back to dashboard</a>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("error page missing %q", want)
		}
	}

	if html := render(t, ErrorAlert("Oops", "", "ERR000")); strings.Contains(html, "<p></p>") {
		t.Error("empty action should not render a paragraph")
	}
}
