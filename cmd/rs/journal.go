package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/railsection/internal/config"
	"github.com/zulandar/railsection/internal/db"
	"github.com/zulandar/railsection/internal/journal"
	"github.com/zulandar/railsection/internal/models"
)

func newJournalCmd() *cobra.Command {
	var (
		configPath string
		kind       string
		train      string
		since      time.Duration
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded engine events",
		Long: "Reads the event journal written by rs run: releases, exits, raised and expired advisories, " +
			"and applied commands, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := journal.Filters{Kind: kind, TrainID: train, Limit: limit}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}
			return runJournal(cmd, configPath, f)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to railsection config file")
	cmd.Flags().StringVar(&kind, "kind", "", "only events of this kind (e.g. alert_raised)")
	cmd.Flags().StringVar(&train, "train", "", "only events for this train id or code")
	cmd.Flags().DurationVar(&since, "since", 0, "only events newer than this (e.g. 10m)")
	cmd.Flags().IntVarP(&limit, "limit", "n", journal.DefaultLimit, "maximum number of events")
	return cmd
}

func runJournal(cmd *cobra.Command, configPath string, f journal.Filters) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
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

	entries, err := journal.List(gormDB, f)
	if err != nil {
		return err
	}
	printJournal(cmd.OutOrStdout(), entries)
	return nil
}

func printJournal(out io.Writer, entries []models.JournalEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No journal entries.")
		return
	}
	width := terminalWidth(out)
	color := isTerminal(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tTRAIN\tSTATION\tMESSAGE")
	for _, e := range entries {
		train, station := e.TrainID, e.Station
		if train == "" {
			train = "-"
		}
		if station == "" {
			station = "-"
		}
		msg := e.Message
		if width > 0 {
			msg = truncate(msg, max(20, width-60))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			paint(e.Kind, severityColor(models.Severity(e.Severity)), color),
			train, station, msg)
	}
	w.Flush()
}
