package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/railsection/internal/config"
	"github.com/zulandar/railsection/internal/dashboard"
	"github.com/zulandar/railsection/internal/db"
	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/journal"
	"github.com/zulandar/railsection/internal/models"
	"github.com/zulandar/railsection/internal/oracle"
	"github.com/zulandar/railsection/internal/telegraph"
	discordadapter "github.com/zulandar/railsection/internal/telegraph/discord"
	slackadapter "github.com/zulandar/railsection/internal/telegraph/slack"
)

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		port        int
		noTelegraph bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the corridor simulation",
		Long: "Bootstraps the corridor from the configured snapshot source, then runs the engine, " +
			"the dashboard API, the event journal and, when configured, the Telegraph chat bridge.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, configPath, port, noTelegraph)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to railsection config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "dashboard port (overrides config)")
	cmd.Flags().BoolVar(&noTelegraph, "no-telegraph", false, "do not start the chat bridge")
	return cmd
}

func runRun(cmd *cobra.Command, configPath string, port int, noTelegraph bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.Dashboard.Port = port
	}
	out := cmd.OutOrStdout()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	llm := newOracle(cfg)
	bootstrap := newBootstrapper(cfg, snapshotSource(cfg, llm))

	fmt.Fprintf(out, "Bootstrapping %s from %s...\n", cfg.Corridor.Name, describeSource(cfg))
	world, err := bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	printAdmitted(out, world)

	gormDB, err := db.Open(cfg.Journal)
	if err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	eng := engine.New(engine.Opts{Params: cfg.EngineParams(), World: world})

	var daemon *telegraph.Daemon
	if cfg.Telegraph.Platform != "" && !noTelegraph {
		adapter, err := createAdapter(cfg)
		if err != nil {
			return err
		}
		daemon, err = telegraph.NewDaemon(telegraph.DaemonOpts{
			Feed:     eng,
			Adapter:  adapter,
			Corridor: cfg.Corridor.Name,
			Channel:  cfg.Telegraph.Channel,
			Prefix:   cfg.Telegraph.Prefix,
			Digest:   cfg.Telegraph.Digest,
			Out:      out,
		})
		if err != nil {
			return err
		}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	launch := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancel()
			}
		}()
	}

	launch(func() error { return eng.Run(ctx, out) })
	launch(func() error { return journal.NewRecorder(gormDB).Run(ctx, eng) })
	launch(func() error {
		return dashboard.Start(ctx, dashboard.StartOpts{
			Engine:    eng,
			Bootstrap: bootstrap,
			Oracle:    llm,
			DB:        gormDB,
			Port:      cfg.Dashboard.Port,
			Out:       out,
		})
	})
	if daemon != nil {
		launch(func() error { return daemon.Run(ctx) })
	}

	<-ctx.Done()
	fmt.Fprintf(out, "\nShutting down...\n")
	wg.Wait()
	return errors.Join(errs...)
}

// newOracle builds the LLM-backed oracle used for bootstrap and what-if.
func newOracle(cfg *config.Config) *oracle.Oracle {
	return oracle.New(oracle.Opts{
		Runner: oracle.CommandRunner{
			Command: cfg.Oracle.Command,
			Args:    cfg.Oracle.Args,
			Timeout: cfg.Oracle.Timeout,
		},
		Corridor: cfg.Corridor.Name,
	})
}

// snapshotSource picks the snapshot file when one is configured, the oracle
// otherwise.
func snapshotSource(cfg *config.Config, llm *oracle.Oracle) oracle.Source {
	if cfg.Snapshot.Path != "" {
		return oracle.FileSource{Path: cfg.Snapshot.Path}
	}
	return llm
}

func describeSource(cfg *config.Config) string {
	if cfg.Snapshot.Path != "" {
		return cfg.Snapshot.Path
	}
	return cfg.Oracle.Command
}

// routeTable returns the default routes with the configured ones layered on
// top.
func routeTable(cfg *config.Config) map[string][]string {
	routes := oracle.DefaultRoutes()
	maps.Copy(routes, cfg.Routes)
	return routes
}

// newBootstrapper returns a function producing a freshly admitted world.
func newBootstrapper(cfg *config.Config, src oracle.Source) func(ctx context.Context) (*models.World, error) {
	routes := routeTable(cfg)
	return func(ctx context.Context) (*models.World, error) {
		return oracle.Bootstrap(ctx, src, oracle.AdmitOpts{Routes: routes})
	}
}

func printAdmitted(out io.Writer, w *models.World) {
	fmt.Fprintf(out, "Admitted %d trains, %d stations, %d alerts, %d recommendations\n",
		len(w.Trains), len(w.Stations), len(w.Alerts), len(w.Recommendations))
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (telegraph.Adapter, error) {
	switch cfg.Telegraph.Platform {
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Telegraph.Slack.AppToken,
			BotToken:  cfg.Telegraph.Slack.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Telegraph.Discord.BotToken,
			ChannelID: cfg.Telegraph.Channel,
		})
	default:
		return nil, fmt.Errorf("telegraph: unsupported platform %q", cfg.Telegraph.Platform)
	}
}
