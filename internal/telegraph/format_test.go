package telegraph

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestFormatAlert(t *testing.T) {
	e := FormatAlert(models.Alert{
		ID:        "alert-1",
		Message:   "Departure conflict for B at Vindhyachal. Path is blocked.",
		Severity:  models.SeverityHigh,
		ExpiresAt: t0.Add(2 * time.Minute),
		SuggestedActions: []models.Action{
			{DisplayText: "Hold B at Vindhyachal", Command: models.CmdHold, TrainID: "B", StationName: "Vindhyachal"},
			{DisplayText: "Move B to siding", Command: models.CmdMoveToSiding, TrainID: "B", StationName: "Vindhyachal"},
		},
	}, "!rs")

	if e.Title != "High alert" {
		t.Errorf("title = %q", e.Title)
	}
	if e.Severity != "error" || e.Color != ColorError {
		t.Errorf("severity = %q color = %q", e.Severity, e.Color)
	}
	if !strings.Contains(e.Body, "Path is blocked") {
		t.Errorf("body = %q", e.Body)
	}
	if len(e.Fields) != 3 {
		t.Fatalf("fields = %+v", e.Fields)
	}
	if e.Fields[1].Value != "08:02:00" {
		t.Errorf("expires = %q", e.Fields[1].Value)
	}
	want := "Hold B at Vindhyachal: `!rs hold B Vindhyachal`\nMove B to siding: `!rs siding B Vindhyachal`"
	if e.Fields[2].Value != want {
		t.Errorf("suggested = %q, want %q", e.Fields[2].Value, want)
	}
}

func TestAlertSeverityColors(t *testing.T) {
	tests := []struct {
		severity models.Severity
		color    string
	}{
		{models.SeverityHigh, ColorError},
		{models.SeverityMedium, ColorWarning},
		{models.SeverityLow, ColorInfo},
		{"", ColorInfo},
	}
	for _, tt := range tests {
		if got := FormatAlert(models.Alert{Severity: tt.severity}, "!rs").Color; got != tt.color {
			t.Errorf("%q: color = %q, want %q", tt.severity, got, tt.color)
		}
	}
}

func TestFormatRecommendation(t *testing.T) {
	e := FormatRecommendation(models.Recommendation{
		Title:   "Platform for A at Chunar",
		Reason:  "A is approaching Chunar.",
		Actions: []models.Action{{Command: models.CmdAssignPlatform, TrainID: "A", StationName: "Chunar", Platform: 2}},
	}, "!rs")
	if e.Title != "Platform for A at Chunar" || e.Body != "A is approaching Chunar." {
		t.Errorf("event = %+v", e)
	}
	if e.Color != ColorInfo {
		t.Errorf("color = %q", e.Color)
	}
	if len(e.Fields) != 1 || e.Fields[0].Value != "`!rs platform A Chunar 2`" {
		t.Errorf("fields = %+v", e.Fields)
	}
}

func TestFormatEvent(t *testing.T) {
	alert := models.Alert{ID: "a", Message: "blocked", Severity: models.SeverityMedium}
	rec := models.Recommendation{ID: "r", Title: "Slow down"}

	tests := []struct {
		name  string
		ev    engine.Event
		ok    bool
		title string
	}{
		{"alert", engine.Event{Kind: engine.EventAlertRaised, Alert: &alert}, true, "Medium alert"},
		{"alert without payload", engine.Event{Kind: engine.EventAlertRaised, Severity: models.SeverityLow, Message: "x"}, true, "Low alert"},
		{"recommendation", engine.Event{Kind: engine.EventRecommendationRaised, Recommendation: &rec}, true, "Slow down"},
		{"release", engine.Event{Kind: engine.EventTrainReleased}, false, ""},
		{"command", engine.Event{Kind: engine.EventCommandApplied}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatEvent(tt.ev, "!rs")
			if ok != tt.ok || got.Title != tt.title {
				t.Errorf("FormatEvent = %q, %v; want %q, %v", got.Title, ok, tt.title, tt.ok)
			}
		})
	}
}

func TestFormatDigest(t *testing.T) {
	w := &models.World{
		Trains: []models.Train{
			{Code: "A", Status: models.StatusOnTime},
			{Code: "B", Status: models.StatusStopped},
			{Code: "C", Status: models.StatusStopped},
		},
		Alerts: []models.Alert{
			{Severity: models.SeverityHigh, ExpiresAt: t0.Add(time.Minute)},
			{Severity: models.SeverityLow, ExpiresAt: t0.Add(-time.Minute)},
		},
		Recommendations: []models.Recommendation{{ExpiresAt: t0.Add(time.Minute)}},
	}
	e := FormatDigest("Ganga-Yamuna Corridor", w, t0)

	if e.Title != "Ganga-Yamuna Corridor digest" {
		t.Errorf("title = %q", e.Title)
	}
	for _, want := range []string{"3 on the section", "1 On Time, 2 Stopped", "1 alerts (1 high), 1 recommendations"} {
		if !strings.Contains(e.Body, want) {
			t.Errorf("body missing %q:\n%s", want, e.Body)
		}
	}
	if e.Severity != "warning" {
		t.Errorf("severity = %q, want warning with a high alert live", e.Severity)
	}

	empty := FormatDigest("X", nil, t0)
	if empty.Severity != "info" || !strings.Contains(empty.Body, "0 alerts") {
		t.Errorf("empty digest = %+v", empty)
	}
}

func TestCommandFor(t *testing.T) {
	tests := []struct {
		action models.Action
		want   string
	}{
		{models.Action{Command: models.CmdHold, TrainID: "B"}, "!rs hold B"},
		{models.Action{Command: models.CmdHold, TrainID: "B", StationName: "Mirzapur"}, "!rs hold B Mirzapur"},
		{models.Action{Command: models.CmdProceed, TrainID: "B"}, "!rs proceed B"},
		{models.Action{Command: models.CmdIncreaseSpeed, TrainID: "B"}, "!rs faster B"},
		{models.Action{Command: models.CmdDecreaseSpeed, TrainID: "B"}, "!rs slower B"},
		{models.Action{Command: "TELEPORT", TrainID: "B"}, ""},
	}
	for _, tt := range tests {
		if got := commandFor(tt.action, "!rs"); got != tt.want {
			t.Errorf("commandFor(%+v) = %q, want %q", tt.action, got, tt.want)
		}
	}
}
