package telegraph

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
)

func testEngine() *engine.Engine {
	return engine.New(engine.Opts{
		Clock: func() time.Time { return t0 },
		World: &models.World{
			Stations: []models.Station{
				{ID: "MZP", Name: "Mirzapur", Position: 65, PlatformTracks: 2},
				{ID: "CAR", Name: "Chunar", Position: 95, HasSiding: true, PlatformTracks: 2},
			},
			Trains: []models.Train{
				{ID: "A-1", Code: "A", Type: models.TypeExpress, Status: models.StatusOnTime, Direction: models.Eastbound, Progress: 50, Speed: 110, Track: models.TrackMain, CurrentLocation: models.InTransit, NextStop: "Mirzapur"},
				{ID: "B-1", Code: "B", Type: models.TypeLocal, Status: models.StatusStopped, Direction: models.Eastbound, Progress: 65, Track: "platform-1", CurrentLocation: "Mirzapur", NextStop: "Chunar"},
			},
			Alerts: []models.Alert{
				{ID: "alert-1", Message: "Crossing conflict", Severity: models.SeverityHigh, ExpiresAt: t0.Add(90 * time.Second),
					SuggestedActions: []models.Action{{Command: models.CmdHold, TrainID: "A", StationName: "Mirzapur"}}},
				{ID: "alert-old", Message: "Stale", ExpiresAt: t0.Add(-time.Second)},
			},
		},
	})
}

func newTestHandler(t *testing.T, e *engine.Engine) *CommandHandler {
	t.Helper()
	ch, err := NewCommandHandler(CommandHandlerOpts{Corridor: e, Now: func() time.Time { return t0 }})
	if err != nil {
		t.Fatalf("NewCommandHandler: %v", err)
	}
	return ch
}

func trainByCode(t *testing.T, e *engine.Engine, code string) models.Train {
	t.Helper()
	w, _ := e.Snapshot()
	for _, tr := range w.Trains {
		if tr.Code == code {
			return tr
		}
	}
	t.Fatalf("train %s not found", code)
	return models.Train{}
}

func TestNewCommandHandler_NilCorridor(t *testing.T) {
	if _, err := NewCommandHandler(CommandHandlerOpts{}); err == nil {
		t.Fatal("expected error for nil corridor")
	}
}

func TestNewCommandHandler_DefaultPrefix(t *testing.T) {
	ch := newTestHandler(t, testEngine())
	if ch.Prefix() != "!rs" {
		t.Errorf("Prefix = %q, want !rs", ch.Prefix())
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"!rs", nil},
		{"!rs ", nil},
		{"!rs status", []string{"status"}},
		{"!rs  hold A Mirzapur", []string{"hold", "A", "Mirzapur"}},
		{"  !rs platform A Chunar 2 ", []string{"platform", "A", "Chunar", "2"}},
	}
	for _, tt := range tests {
		got := parseCommand("!rs", tt.input)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || (tt.want == nil) != (got == nil) {
			t.Errorf("parseCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExecute_Help(t *testing.T) {
	ch := newTestHandler(t, testEngine())
	for _, input := range []string{"!rs", "!rs help"} {
		if got := ch.Execute(input); !strings.Contains(got, "Corridor Commands") {
			t.Errorf("Execute(%q) = %q", input, got)
		}
	}
	got := ch.Execute("!rs derail A")
	if !strings.Contains(got, "Unknown command: `derail`") || !strings.Contains(got, "Corridor Commands") {
		t.Errorf("unknown = %q", got)
	}
}

func TestExecute_Status(t *testing.T) {
	ch := newTestHandler(t, testEngine())
	got := ch.Execute("!rs status")
	for _, want := range []string{"**Trains** (2)", "On Time", "Mirzapur", "v0"} {
		if !strings.Contains(got, want) {
			t.Errorf("status missing %q:\n%s", want, got)
		}
	}

	empty := engine.New(engine.Opts{})
	if got := newTestHandler(t, empty).Execute("!rs status"); got != "No trains on the section (v0)." {
		t.Errorf("empty status = %q", got)
	}
}

func TestExecute_Alerts(t *testing.T) {
	ch := newTestHandler(t, testEngine())
	got := ch.Execute("!rs alerts")
	if !strings.Contains(got, "**Advisories** (1)") {
		t.Errorf("alerts = %q", got)
	}
	if !strings.Contains(got, "[High] Crossing conflict (alert-1, 1m30s left)") {
		t.Errorf("alerts = %q", got)
	}
	if !strings.Contains(got, "`!rs hold A Mirzapur`") {
		t.Errorf("alerts missing action hint: %q", got)
	}
	if strings.Contains(got, "Stale") {
		t.Error("expired alert listed")
	}
}

func TestExecute_Hold(t *testing.T) {
	e := testEngine()
	ch := newTestHandler(t, e)

	got := ch.Execute("!rs hold A Mirzapur")
	if got != "Applied HOLD to A-1." {
		t.Errorf("reply = %q", got)
	}
	a := trainByCode(t, e, "A")
	if a.Status != models.StatusStopped || a.Progress != 65 || a.CurrentLocation != "Mirzapur" {
		t.Errorf("train = %+v", a)
	}

	// The alert that suggested this action is untouched: chat commands are direct.
	w, _ := e.Snapshot()
	if len(w.Alerts) != 2 {
		t.Errorf("alerts = %d, want 2", len(w.Alerts))
	}
}

func TestExecute_Proceed(t *testing.T) {
	e := testEngine()
	ch := newTestHandler(t, e)
	if got := ch.Execute("!rs proceed B"); got != "Applied PROCEED to B-1." {
		t.Errorf("reply = %q", got)
	}
	b := trainByCode(t, e, "B")
	if b.Status != models.StatusOnTime || b.Track != models.TrackMain || b.Speed <= 0 {
		t.Errorf("train = %+v", b)
	}
}

func TestExecute_Siding(t *testing.T) {
	e := testEngine()
	ch := newTestHandler(t, e)

	if got := ch.Execute("!rs siding A Mirzapur"); !strings.HasPrefix(got, "Rejected MOVE_SIDING A: station has no siding") {
		t.Errorf("reply = %q", got)
	}
	if got := ch.Execute("!rs siding A Chunar"); got != "Applied MOVE_SIDING to A-1." {
		t.Errorf("reply = %q", got)
	}
	if a := trainByCode(t, e, "A"); a.Status != models.StatusSiding || a.Track != models.TrackSiding {
		t.Errorf("train = %+v", a)
	}
}

func TestExecute_Platform(t *testing.T) {
	e := testEngine()
	ch := newTestHandler(t, e)

	tests := []struct {
		input string
		want  string
	}{
		{"!rs platform A Mirzapur", "Usage:"},
		{"!rs platform A Mirzapur two", "Usage:"},
		{"!rs platform A Mirzapur 1", "Rejected ASSIGN_PLATFORM A: platform is occupied"},
		{"!rs platform A Mirzapur 3", "Rejected ASSIGN_PLATFORM A: station has no such platform"},
		{"!rs platform Z Mirzapur 2", "Rejected ASSIGN_PLATFORM Z: train not found"},
		{"!rs platform A Mirzapur 2", "Applied ASSIGN_PLATFORM to A-1."},
	}
	for _, tt := range tests {
		if got := ch.Execute(tt.input); !strings.HasPrefix(got, tt.want) {
			t.Errorf("Execute(%q) = %q, want prefix %q", tt.input, got, tt.want)
		}
	}
	if a := trainByCode(t, e, "A"); a.Track != "platform-2" || a.DepartureTime == nil {
		t.Errorf("train = %+v", a)
	}
}

func TestExecute_Speed(t *testing.T) {
	e := testEngine()
	ch := newTestHandler(t, e)
	before := trainByCode(t, e, "A").Speed

	if got := ch.Execute("!rs slower A"); got != "Applied DECREASE_SPEED to A-1." {
		t.Errorf("reply = %q", got)
	}
	if after := trainByCode(t, e, "A").Speed; after >= before {
		t.Errorf("speed %v -> %v, want decrease", before, after)
	}
	if got := ch.Execute("!rs faster B"); !strings.HasPrefix(got, "Rejected INCREASE_SPEED B") {
		t.Errorf("stopped train: reply = %q", got)
	}
	if got := ch.Execute("!rs faster"); !strings.HasPrefix(got, "Usage:") {
		t.Errorf("no train: reply = %q", got)
	}
}
