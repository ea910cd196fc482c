// Package templates holds the HTML components of the web UI.
//
// Components are written in .templ files; the *_templ.go files are generated
// with `templ generate` and must not be edited by hand.
package templates

import (
	"fmt"
	"net/url"

	"github.com/JonMunkholm/fleetfact/internal/service"
)

// DashboardData is everything the dashboard page renders.
type DashboardData struct {
	Runs    []service.Summary
	Limiter service.LimiterStatus
	Stored  bool // A database sink is configured
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func slotsText(s service.LimiterStatus) string {
	return fmt.Sprintf("Run slots: %d of %d free", s.Available, s.MaxConcurrent)
}

// accuracyText is the test accuracy, or the reason no model was trained.
func accuracyText(run service.Summary) string {
	if run.Evaluation != nil {
		return fmt.Sprintf("%.3f", run.Evaluation.Accuracy)
	}
	return run.ModelNote
}

func runURL(id string) string {
	return "/api/runs/" + url.PathEscape(id)
}

func exportURL(id, table string) string {
	return runURL(id) + "/export/" + url.PathEscape(table)
}
