package telegraph

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
)

// Sidebar colors by severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// alertSeverity maps an alert grade to a chat severity.
func alertSeverity(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "error"
	case models.SeverityMedium:
		return "warning"
	default:
		return "info"
	}
}

// statusOrder is the display order of train statuses.
var statusOrder = []models.TrainStatus{
	models.StatusOnTime,
	models.StatusDelayed,
	models.StatusApproaching,
	models.StatusDeparting,
	models.StatusStopped,
	models.StatusSiding,
}

// FormatEvent renders an engine event for chat. It reports false for events
// that are not posted.
func FormatEvent(ev engine.Event, prefix string) (FormattedEvent, bool) {
	switch ev.Kind {
	case engine.EventAlertRaised:
		if ev.Alert != nil {
			return FormatAlert(*ev.Alert, prefix), true
		}
		return FormatAlert(models.Alert{ID: ev.AdvisoryID, Message: ev.Message, Severity: ev.Severity}, prefix), true
	case engine.EventRecommendationRaised:
		if ev.Recommendation != nil {
			return FormatRecommendation(*ev.Recommendation, prefix), true
		}
		return FormatRecommendation(models.Recommendation{ID: ev.AdvisoryID, Title: ev.Message}, prefix), true
	}
	return FormattedEvent{}, false
}

// FormatAlert formats a safety alert with its suggested actions as chat
// commands.
func FormatAlert(a models.Alert, prefix string) FormattedEvent {
	severity := alertSeverity(a.Severity)
	grade := string(a.Severity)
	if grade == "" {
		grade = "Unrated"
	}

	fields := []Field{
		{Name: "Severity", Value: grade, Short: true},
	}
	if !a.ExpiresAt.IsZero() {
		fields = append(fields, Field{Name: "Expires", Value: a.ExpiresAt.Format(time.TimeOnly), Short: true})
	}
	if hints := actionHints(a.SuggestedActions, prefix); hints != "" {
		fields = append(fields, Field{Name: "Suggested", Value: hints})
	}

	return FormattedEvent{
		Title:    fmt.Sprintf("%s alert", grade),
		Body:     a.Message,
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}

// FormatRecommendation formats an efficiency recommendation.
func FormatRecommendation(r models.Recommendation, prefix string) FormattedEvent {
	var fields []Field
	if !r.ExpiresAt.IsZero() {
		fields = append(fields, Field{Name: "Expires", Value: r.ExpiresAt.Format(time.TimeOnly), Short: true})
	}
	if hints := actionHints(r.Actions, prefix); hints != "" {
		fields = append(fields, Field{Name: "Options", Value: hints})
	}

	title := r.Title
	if title == "" {
		title = "Recommendation"
	}
	return FormattedEvent{
		Title:    title,
		Body:     r.Reason,
		Severity: "info",
		Color:    ColorInfo,
		Fields:   fields,
	}
}

// FormatDigest summarizes the corridor: trains by status and the advisories
// still live at now.
func FormatDigest(corridor string, w *models.World, now time.Time) FormattedEvent {
	if w == nil {
		w = &models.World{}
	}
	counts := w.StatusCounts()

	var lines []string
	lines = append(lines, fmt.Sprintf("**Trains**: %d on the section", len(w.Trains)))
	var parts []string
	for _, s := range statusOrder {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) > 0 {
		lines = append(lines, strings.Join(parts, ", "))
	}

	alerts, high := 0, 0
	for _, a := range w.Alerts {
		if a.Expired(now) {
			continue
		}
		alerts++
		if a.Severity == models.SeverityHigh {
			high++
		}
	}
	recs := 0
	for _, r := range w.Recommendations {
		if !r.Expired(now) {
			recs++
		}
	}
	lines = append(lines, fmt.Sprintf("**Advisories**: %d alerts (%d high), %d recommendations", alerts, high, recs))

	severity := "info"
	if high > 0 {
		severity = "warning"
	}
	return FormattedEvent{
		Title:    fmt.Sprintf("%s digest", corridor),
		Body:     strings.Join(lines, "\n"),
		Severity: severity,
		Color:    severityColor(severity),
		Fields: []Field{
			{Name: "Trains", Value: fmt.Sprintf("%d", len(w.Trains)), Short: true},
			{Name: "Stopped", Value: fmt.Sprintf("%d", counts[models.StatusStopped]), Short: true},
			{Name: "Alerts", Value: fmt.Sprintf("%d", alerts), Short: true},
			{Name: "Recommendations", Value: fmt.Sprintf("%d", recs), Short: true},
		},
	}
}

// formatTrainTable lists trains as a fixed-width table.
func formatTrainTable(trains []models.Train) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Trains** (%d)\n", len(trains)))
	b.WriteString(fmt.Sprintf("%-10s %-12s %-10s %6s %6s  %-14s %s\n",
		"CODE", "STATUS", "DIRECTION", "KM", "KM/H", "LOCATION", "NEXT"))
	for _, t := range trains {
		b.WriteString(fmt.Sprintf("%-10s %-12s %-10s %6.1f %6.0f  %-14s %s\n",
			t.Label(), t.Status, t.Direction, t.Progress, t.Speed, t.CurrentLocation, t.NextStop))
	}
	return b.String()
}

// formatAdvisories lists live alerts and recommendations with their ids and
// seconds remaining.
func formatAdvisories(w *models.World, now time.Time, prefix string) string {
	var b strings.Builder
	n := 0
	for _, a := range w.Alerts {
		if a.Expired(now) {
			continue
		}
		n++
		b.WriteString(fmt.Sprintf("[%s] %s (%s, %s left)\n", a.Severity, a.Message, a.ID, secondsLeft(a.ExpiresAt, now)))
		if hints := actionHints(a.SuggestedActions, prefix); hints != "" {
			b.WriteString(indent(hints))
		}
	}
	for _, r := range w.Recommendations {
		if r.Expired(now) {
			continue
		}
		n++
		b.WriteString(fmt.Sprintf("[Rec] %s: %s (%s, %s left)\n", r.Title, r.Reason, r.ID, secondsLeft(r.ExpiresAt, now)))
		if hints := actionHints(r.Actions, prefix); hints != "" {
			b.WriteString(indent(hints))
		}
	}
	if n == 0 {
		return "No active alerts or recommendations."
	}
	return fmt.Sprintf("**Advisories** (%d)\n", n) + b.String()
}

func secondsLeft(expires, now time.Time) string {
	return expires.Sub(now).Round(time.Second).String()
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString("    " + line + "\n")
	}
	return b.String()
}

// actionHints renders actions as the chat commands that perform them, one
// per line.
func actionHints(actions []models.Action, prefix string) string {
	var lines []string
	for _, a := range actions {
		cmd := commandFor(a, prefix)
		if cmd == "" {
			continue
		}
		if a.DisplayText != "" {
			lines = append(lines, fmt.Sprintf("%s: `%s`", a.DisplayText, cmd))
		} else {
			lines = append(lines, fmt.Sprintf("`%s`", cmd))
		}
	}
	return strings.Join(lines, "\n")
}

// commandFor returns the chat command equivalent to an action, or "" for
// commands chat cannot express.
func commandFor(a models.Action, prefix string) string {
	parts := []string{prefix}
	switch a.Command {
	case models.CmdHold:
		parts = append(parts, "hold", a.TrainID)
		if a.StationName != "" {
			parts = append(parts, a.StationName)
		}
	case models.CmdProceed:
		parts = append(parts, "proceed", a.TrainID)
	case models.CmdMoveToSiding:
		parts = append(parts, "siding", a.TrainID, a.StationName)
	case models.CmdAssignPlatform:
		parts = append(parts, "platform", a.TrainID, a.StationName, fmt.Sprintf("%d", a.Platform))
	case models.CmdIncreaseSpeed:
		parts = append(parts, "faster", a.TrainID)
	case models.CmdDecreaseSpeed:
		parts = append(parts, "slower", a.TrainID)
	default:
		return ""
	}
	return strings.Join(parts, " ")
}
