package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/railsection/internal/config"
	"github.com/zulandar/railsection/internal/dashboard"
	"gopkg.in/yaml.v3"
)

func newSnapshotCmd() *cobra.Command {
	var (
		server     string
		watch      bool
		asJSON     bool
		generate   bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the corridor state",
		Long: "Prints the current corridor state of a running server: trains, stations with their platform " +
			"occupancy, and live advisories. With --generate, asks the configured source for a fresh raw " +
			"snapshot instead and prints it as YAML, suitable for snapshot.path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generate {
				return runSnapshotGenerate(cmd, configPath)
			}
			return runSnapshot(cmd, server, watch, asJSON)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "dashboard address of a running rs")
	cmd.Flags().BoolVar(&watch, "watch", false, "auto-refresh every 2 seconds")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw state document")
	cmd.Flags().BoolVar(&generate, "generate", false, "generate a raw snapshot from the configured source")
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to railsection config file (with --generate)")
	return cmd
}

func runSnapshot(cmd *cobra.Command, server string, watch, asJSON bool) error {
	out := cmd.OutOrStdout()
	client := newAPIClient(server, 10*time.Second)
	tty := isTerminal(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		var view dashboard.StateView
		if err := client.do(ctx, http.MethodGet, "/api/state", nil, &view); err != nil {
			return err
		}

		if watch && tty {
			// Clear screen.
			fmt.Fprint(out, "\033[2J\033[H")
		}
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(view); err != nil {
				return err
			}
		} else {
			printState(out, view, tty)
		}

		if !watch {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func runSnapshotGenerate(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	src := snapshotSource(cfg, newOracle(cfg))

	raw, err := src.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}
