package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/railsection/internal/config"
	"github.com/zulandar/railsection/internal/db"
	"github.com/zulandar/railsection/internal/models"
	"github.com/zulandar/railsection/internal/oracle"
)

func newCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check configuration and prerequisites",
		Long: "Runs diagnostic checks before rs run: config, snapshot source, route table, " +
			"journal database and chat bridge settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to railsection config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runCheck(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Railsection Check")
	fmt.Fprintln(out, "=================")

	var results []checkResult

	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	if cfg != nil {
		source, world := checkSource(cmd.Context(), cfg)
		results = append(results, source)
		results = append(results, checkRoutes(cfg, world))
		results = append(results, checkJournal(cfg))
		results = append(results, checkTelegraph(cfg))
	} else {
		for _, name := range []string{"Snapshot source", "Routes", "Journal", "Telegraph"} {
			results = append(results, checkResult{name, "FAIL", "skipped (no config)"})
		}
	}

	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

// checkSource loads the snapshot file, or looks for the oracle command when
// no file is configured. The admitted world is returned when one was read.
func checkSource(ctx context.Context, cfg *config.Config) (checkResult, *models.World) {
	if cfg.Snapshot.Path != "" {
		w, err := newBootstrapper(cfg, oracle.FileSource{Path: cfg.Snapshot.Path})(ctx)
		if err != nil {
			return checkResult{"Snapshot source", "FAIL", err.Error()}, nil
		}
		if len(w.Stations) == 0 {
			return checkResult{"Snapshot source", "WARN", fmt.Sprintf("%s has no stations", cfg.Snapshot.Path)}, w
		}
		return checkResult{"Snapshot source", "PASS", fmt.Sprintf("%s: %d trains, %d stations",
			cfg.Snapshot.Path, len(w.Trains), len(w.Stations))}, w
	}

	path, err := exec.LookPath(cfg.Oracle.Command)
	if err != nil {
		return checkResult{"Snapshot source", "FAIL", fmt.Sprintf("oracle command %q not found in PATH", cfg.Oracle.Command)}, nil
	}
	return checkResult{"Snapshot source", "PASS", fmt.Sprintf("oracle %s", path)}, nil
}

// checkRoutes reports route entries naming stations the snapshot does not
// have. Without a snapshot only the table size is reported.
func checkRoutes(cfg *config.Config, w *models.World) checkResult {
	routes := routeTable(cfg)
	if w == nil {
		return checkResult{"Routes", "PASS", fmt.Sprintf("%d services (stations not verified)", len(routes))}
	}

	var unknown []string
	for service, stops := range routes {
		for _, stop := range stops {
			if _, ok := w.Station(stop); !ok {
				unknown = append(unknown, fmt.Sprintf("%s→%s", service, stop))
			}
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return checkResult{"Routes", "WARN", "unknown stations: " + strings.Join(unknown, ", ")}
	}
	return checkResult{"Routes", "PASS", fmt.Sprintf("%d services", len(routes))}
}

func checkJournal(cfg *config.Config) checkResult {
	gormDB, err := db.Open(cfg.Journal)
	if err != nil {
		return checkResult{"Journal", "FAIL", err.Error()}
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return checkResult{"Journal", "FAIL", fmt.Sprintf("get sql.DB: %v", err)}
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		return checkResult{"Journal", "FAIL", fmt.Sprintf("ping failed: %v", err)}
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return checkResult{"Journal", "FAIL", err.Error()}
	}
	return checkResult{"Journal", "PASS", fmt.Sprintf("%s ready", cfg.Journal.Driver)}
}

func checkTelegraph(cfg *config.Config) checkResult {
	if cfg.Telegraph.Platform == "" {
		return checkResult{"Telegraph", "WARN", "disabled (no telegraph.platform)"}
	}
	if _, err := createAdapter(cfg); err != nil {
		return checkResult{"Telegraph", "FAIL", err.Error()}
	}
	detail := fmt.Sprintf("%s, channel %s", cfg.Telegraph.Platform, cfg.Telegraph.Channel)
	if cfg.Telegraph.Digest != "" {
		detail += ", digest " + cfg.Telegraph.Digest
	}
	return checkResult{"Telegraph", "PASS", detail}
}
