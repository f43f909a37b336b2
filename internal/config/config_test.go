package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
)

const fullYAML = `
corridor:
  name: Prayagraj-Chunar

simulation:
  tick_interval: 100ms
  sweep_schedule: "@every 2s"
  approach_threshold: 12
  arrival_threshold: 4
  conflict_window: 8
  dwell_time: 45s
  advisory_lifetime: 3m
  release_speed: 25
  speed_step: 5
  min_speed: 15

classes:
  Express:
    cruise: 100
  Mail:
    cruise: 70
    max: 90

routes:
  Vande Bharat Express:
    - Prayagraj
    - Vindhyachal
    - Mirzapur
    - Chunar

snapshot:
  path: testdata/corridor.yaml

oracle:
  command: /usr/local/bin/claude
  args: ["--model", "fast", "-p"]
  timeout: 30s

dashboard:
  port: 9090

journal:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  database: railsection

telegraph:
  platform: slack
  channel: C0123
  digest: "*/15 * * * *"
  slack:
    bot_token: xoxb-file
    app_token: xapp-file
`

const minimalYAML = `
corridor:
  name: test
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Corridor.Name != "Prayagraj-Chunar" {
		t.Errorf("Corridor.Name = %q", cfg.Corridor.Name)
	}
	if cfg.Simulation.TickInterval != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", cfg.Simulation.TickInterval)
	}
	if cfg.Simulation.DwellTime != 45*time.Second {
		t.Errorf("DwellTime = %v, want 45s", cfg.Simulation.DwellTime)
	}
	if cfg.Simulation.AdvisoryLifetime != 3*time.Minute {
		t.Errorf("AdvisoryLifetime = %v, want 3m", cfg.Simulation.AdvisoryLifetime)
	}
	if got := cfg.Routes["Vande Bharat Express"]; len(got) != 4 || got[3] != "Chunar" {
		t.Errorf("Routes = %v", cfg.Routes)
	}
	if cfg.Snapshot.Path != "testdata/corridor.yaml" {
		t.Errorf("Snapshot.Path = %q", cfg.Snapshot.Path)
	}
	if cfg.Oracle.Command != "/usr/local/bin/claude" || len(cfg.Oracle.Args) != 3 {
		t.Errorf("Oracle = %+v", cfg.Oracle)
	}
	if cfg.Oracle.Timeout != 30*time.Second {
		t.Errorf("Oracle.Timeout = %v, want 30s", cfg.Oracle.Timeout)
	}
	if cfg.Dashboard.Port != 9090 {
		t.Errorf("Dashboard.Port = %d, want 9090", cfg.Dashboard.Port)
	}
	if cfg.Journal.Driver != "mysql" || cfg.Journal.Host != "10.0.0.5" || cfg.Journal.Port != 3307 {
		t.Errorf("Journal = %+v", cfg.Journal)
	}
	if cfg.Journal.User != "root" {
		t.Errorf("Journal.User = %q, want root default", cfg.Journal.User)
	}
	if cfg.Telegraph.Platform != "slack" || cfg.Telegraph.Channel != "C0123" {
		t.Errorf("Telegraph = %+v", cfg.Telegraph)
	}
	if cfg.Telegraph.Prefix != "!rs" {
		t.Errorf("Telegraph.Prefix = %q, want !rs", cfg.Telegraph.Prefix)
	}
}

func TestParse_MinimalConfigDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Simulation.SweepSchedule != engine.DefaultSweepSchedule {
		t.Errorf("SweepSchedule = %q, want default", cfg.Simulation.SweepSchedule)
	}
	if cfg.Oracle.Command != "claude" {
		t.Errorf("Oracle.Command = %q, want claude", cfg.Oracle.Command)
	}
	if len(cfg.Oracle.Args) != 1 || cfg.Oracle.Args[0] != "-p" {
		t.Errorf("Oracle.Args = %v, want [-p]", cfg.Oracle.Args)
	}
	if cfg.Oracle.Timeout != 2*time.Minute {
		t.Errorf("Oracle.Timeout = %v, want 2m", cfg.Oracle.Timeout)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Dashboard.Port = %d, want 8080", cfg.Dashboard.Port)
	}
	if cfg.Journal.Driver != "sqlite" || cfg.Journal.Path != "railsection.db" {
		t.Errorf("Journal = %+v, want sqlite railsection.db", cfg.Journal)
	}
	if cfg.Telegraph.Platform != "" {
		t.Errorf("Telegraph.Platform = %q, want empty", cfg.Telegraph.Platform)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Corridor.Name != "railsection" {
		t.Errorf("Corridor.Name = %q, want railsection", cfg.Corridor.Name)
	}
}

func TestParse_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("RAILSECTION_SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("RAILSECTION_SLACK_APP_TOKEN", "xapp-env")
	t.Setenv("RAILSECTION_JOURNAL_DSN", "user:pw@tcp(db:3306)/rs")

	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegraph.Slack.BotToken != "xoxb-env" {
		t.Errorf("BotToken = %q, want env value", cfg.Telegraph.Slack.BotToken)
	}
	if cfg.Telegraph.Slack.AppToken != "xapp-env" {
		t.Errorf("AppToken = %q, want env value", cfg.Telegraph.Slack.AppToken)
	}
	if cfg.Journal.DSN != "user:pw@tcp(db:3306)/rs" {
		t.Errorf("Journal.DSN = %q, want env value", cfg.Journal.DSN)
	}
}

func TestParse_DiscordTokenFromEnv(t *testing.T) {
	t.Setenv("RAILSECTION_DISCORD_BOT_TOKEN", "discord-env")
	cfg, err := Parse([]byte(`
telegraph:
  platform: discord
  channel: "123456"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegraph.Discord.BotToken != "discord-env" {
		t.Errorf("Discord.BotToken = %q", cfg.Telegraph.Discord.BotToken)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad journal driver",
			yaml: "journal:\n  driver: postgres\n",
			want: "journal.driver must be one of [sqlite mysql]",
		},
		{
			name: "bad telegraph platform",
			yaml: "telegraph:\n  platform: irc\n  channel: x\n",
			want: "telegraph.platform must be one of [slack discord]",
		},
		{
			name: "negative threshold",
			yaml: "simulation:\n  conflict_window: -1\n",
			want: "simulation.conflict_window must be gte 0",
		},
		{
			name: "port out of range",
			yaml: "dashboard:\n  port: 70000\n",
			want: "dashboard.port must be lte 65535",
		},
		{
			name: "bad sweep schedule",
			yaml: "simulation:\n  sweep_schedule: sometimes\n",
			want: "simulation.sweep_schedule",
		},
		{
			name: "arrival beyond approach",
			yaml: "simulation:\n  approach_threshold: 5\n  arrival_threshold: 10\n",
			want: "arrival_threshold must not exceed approach_threshold",
		},
		{
			name: "cruise above max",
			yaml: "classes:\n  Local:\n    cruise: 90\n    max: 70\n",
			want: "classes.Local.cruise exceeds max",
		},
		{
			name: "empty route",
			yaml: "routes:\n  Ghost: []\n",
			want: "routes[Ghost] is required",
		},
		{
			name: "mysql without database",
			yaml: "journal:\n  driver: mysql\n",
			want: "journal.database or journal.dsn is required",
		},
		{
			name: "slack without tokens",
			yaml: "telegraph:\n  platform: slack\n  channel: C1\n",
			want: "telegraph.slack requires bot_token and app_token",
		},
		{
			name: "platform without channel",
			yaml: "telegraph:\n  platform: discord\n  discord:\n    bot_token: t\n",
			want: "telegraph.channel is required",
		},
		{
			name: "bad digest",
			yaml: "telegraph:\n  digest: \"every day\"\n",
			want: "telegraph.digest",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), "config: validation failed:") {
				t.Errorf("error %q lacks validation prefix", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParse_MultipleErrorsJoined(t *testing.T) {
	_, err := Parse([]byte("journal:\n  driver: x\ndashboard:\n  port: -1\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("errors not joined: %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("corridor: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("err = %v, want config: parse error", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "railsection.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Corridor.Name != "test" {
		t.Errorf("Corridor.Name = %q, want test", cfg.Corridor.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config: read") {
		t.Errorf("err = %v, want config: read error", err)
	}
}

func TestEngineParams(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := cfg.EngineParams()

	if p.TickInterval != 100*time.Millisecond || p.SweepSchedule != "@every 2s" {
		t.Errorf("cadence = %v / %q", p.TickInterval, p.SweepSchedule)
	}
	if p.ConflictWindow != 8 || p.ReleaseSpeed != 25 || p.MinSpeed != 15 {
		t.Errorf("rules = %+v", p)
	}
	if got := p.Cruise(models.TypeExpress); got != 100 {
		t.Errorf("Express cruise = %v, want 100", got)
	}
	if got := p.MaxSpeed(models.TypeExpress); got != 140 {
		t.Errorf("Express max = %v, want default 140", got)
	}
	if got := p.Cruise("Mail"); got != 70 {
		t.Errorf("Mail cruise = %v, want 70", got)
	}
	if got := p.MaxSpeed("Mail"); got != 90 {
		t.Errorf("Mail max = %v, want 90", got)
	}
	if got := p.Cruise(models.TypeFreight); got != 60 {
		t.Errorf("Freight cruise = %v, want default 60", got)
	}
}

func TestEngineParams_UnsetUsesEngineDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := engine.New(engine.Opts{Params: cfg.EngineParams()})
	p := e.Params()
	if p.DwellTime != engine.DefaultDwellTime || p.ApproachThreshold != engine.DefaultApproachThreshold {
		t.Errorf("params = %+v, want engine defaults", p)
	}
}
