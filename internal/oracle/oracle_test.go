package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/railsection/internal/models"
)

type fakeRunner struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeRunner) Run(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

const llmReply = `{
  "trains": [
    {"id": "T12345", "name": "Vande Bharat", "type": "Express", "priority": 1, "status": "On Time",
     "currentLocation": "In Transit", "nextStop": "Mirzapur", "progress": 40, "track": "main",
     "direction": "Eastbound", "speed": 110}
  ],
  "stations": [
    {"id": "MZP", "name": "Mirzapur", "position": 65, "hasSiding": false, "platformTracks": 2}
  ],
  "recommendations": [],
  "alerts": [
    {"id": "a1", "message": "Crossing conflict", "severity": "High",
     "suggestedActions": [{"displayText": "Hold T12345", "command": "HOLD", "trainId": "T12345", "stationName": "Mirzapur"}]}
  ]
}`

func TestOracle_Snapshot(t *testing.T) {
	r := &fakeRunner{reply: llmReply}
	o := New(Opts{Runner: r, Corridor: "Test Corridor"})

	w, err := o.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(w.Trains) != 1 || w.Trains[0].ID != "T12345" {
		t.Errorf("trains = %+v", w.Trains)
	}
	if len(w.Alerts) != 1 || w.Alerts[0].SuggestedActions[0].Command != models.CmdHold {
		t.Errorf("alerts = %+v", w.Alerts)
	}
	if len(r.prompts) != 1 || !strings.Contains(r.prompts[0], "'Test Corridor'") {
		t.Errorf("prompt does not name the corridor: %q", r.prompts)
	}
}

func TestOracle_SnapshotStripsFences(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"json fence", "```json\n" + llmReply + "\n```"},
		{"bare fence", "```\n" + llmReply + "\n```\n"},
		{"leading whitespace", "\n\n  " + llmReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(Opts{Runner: &fakeRunner{reply: tt.reply}})
			w, err := o.Snapshot(context.Background())
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if len(w.Trains) != 1 {
				t.Errorf("trains = %d, want 1", len(w.Trains))
			}
		})
	}
}

func TestOracle_SnapshotErrors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		want   string
	}{
		{"runner failure", &fakeRunner{err: errors.New("exit status 1")}, "oracle: generate"},
		{"not json", &fakeRunner{reply: "Sorry, I cannot help with that."}, "oracle: decode snapshot"},
		{"empty", &fakeRunner{reply: "```\n```"}, "empty reply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Opts{Runner: tt.runner}).Snapshot(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestOracle_WhatIf(t *testing.T) {
	r := &fakeRunner{reply: "  Simulation Result:\n- T12345 arrives 4 minutes late\n"}
	o := New(Opts{Runner: r})
	w := &models.World{
		Trains: []models.Train{{ID: "T12345-abcd", Code: "T12345", Status: models.StatusDelayed, Progress: 42, Priority: 1, Speed: 90}},
		Alerts: []models.Alert{{ID: "x", Message: "Crossing conflict at Mirzapur"}},
	}

	got, err := o.WhatIf(context.Background(), w, "  Hold T12345 at Mirzapur ")
	if err != nil {
		t.Fatalf("WhatIf: %v", err)
	}
	if got != "Simulation Result:\n- T12345 arrives 4 minutes late" {
		t.Errorf("reply = %q", got)
	}

	prompt := r.prompts[0]
	for _, want := range []string{
		`"Hold T12345 at Mirzapur"`,
		`{"id":"T12345-abcd","status":"Delayed","progress":42,"priority":1}`,
		`["Crossing conflict at Mirzapur"]`,
		`"Simulation Result:"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %s:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "speed") {
		t.Error("prompt leaks fields outside the projection")
	}
}

func TestOracle_WhatIfEmptyScenario(t *testing.T) {
	r := &fakeRunner{reply: "unused"}
	_, err := New(Opts{Runner: r}).WhatIf(context.Background(), &models.World{}, "   ")
	if !errors.Is(err, ErrEmptyScenario) {
		t.Errorf("err = %v, want ErrEmptyScenario", err)
	}
	if len(r.prompts) != 0 {
		t.Error("runner called for empty scenario")
	}
}

func TestProject_NilWorld(t *testing.T) {
	data, err := json.Marshal(Project(nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"trains":[],"alerts":[]}` {
		t.Errorf("projection = %s", data)
	}
}

func TestCommandRunner_Run(t *testing.T) {
	r := CommandRunner{Command: "echo", Args: []string{"-n"}, Timeout: 5 * time.Second}
	out, err := r.Run(context.Background(), "hello corridor")
	if err != nil {
		t.Skipf("echo not available: %v", err)
	}
	if out != "hello corridor" {
		t.Errorf("out = %q, want %q", out, "hello corridor")
	}
}

func TestCommandRunner_MissingBinary(t *testing.T) {
	r := CommandRunner{Command: filepath.Join(t.TempDir(), "no-such-llm")}
	_, err := r.Run(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "oracle: run") {
		t.Errorf("err = %v, want oracle: run error", err)
	}
}

func TestFileSource_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "corridor.yaml")
	yamlDoc := `
stations:
  - {id: PRYJ, name: Prayagraj, position: 5, hasSiding: false, platformTracks: 2}
  - {id: CAR, name: Chunar, position: 95, hasSiding: true, platformTracks: 3}
trains:
  - id: F100
    name: Goods Hauler
    type: Freight
    status: Stopped
    currentLocation: Prayagraj
    track: platform-1
    direction: Eastbound
    progress: 5
    departureTime: 2025-03-01T08:00:30Z
`
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(dir, "corridor.json")
	if err := os.WriteFile(jsonPath, []byte(llmReply), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := FileSource{Path: yamlPath}.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if len(w.Stations) != 2 || !w.Stations[1].HasSiding {
		t.Errorf("stations = %+v", w.Stations)
	}
	if len(w.Trains) != 1 || w.Trains[0].DepartureTime == nil {
		t.Fatalf("trains = %+v", w.Trains)
	}
	if want := time.Date(2025, 3, 1, 8, 0, 30, 0, time.UTC); !w.Trains[0].DepartureTime.Equal(want) {
		t.Errorf("departure = %v, want %v", w.Trains[0].DepartureTime, want)
	}

	w, err = FileSource{Path: jsonPath}.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(w.Trains) != 1 || w.Trains[0].Speed != 110 {
		t.Errorf("trains = %+v", w.Trains)
	}
}

func TestFileSource_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := (FileSource{Path: filepath.Join(dir, "missing.yaml")}).Snapshot(context.Background()); err == nil || !strings.Contains(err.Error(), "oracle: read") {
		t.Errorf("missing: err = %v", err)
	}
	if _, err := (FileSource{Path: bad}).Snapshot(context.Background()); err == nil || !strings.Contains(err.Error(), "oracle: decode") {
		t.Errorf("bad: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (FileSource{Path: bad}).Snapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
}

type staticSource struct {
	w   *models.World
	err error
}

func (s staticSource) Snapshot(context.Context) (*models.World, error) { return s.w, s.err }

func TestBootstrap(t *testing.T) {
	raw := &models.World{Trains: []models.Train{{ID: "T1", Speed: 50}}}
	w, err := Bootstrap(context.Background(), staticSource{w: raw}, AdmitOpts{NewSuffix: func() string { return "x" }})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if w.Trains[0].ID != "T1-x" {
		t.Errorf("train id = %q, want T1-x", w.Trains[0].ID)
	}

	boom := errors.New("boom")
	if _, err := Bootstrap(context.Background(), staticSource{err: boom}, AdmitOpts{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
