package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	defaultConfigPath = "railsection.yaml"
	defaultServer     = "http://localhost:8080"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rs",
		Short: "Railsection: single-line corridor simulation and arbitration",
		Long: "Railsection simulates traffic on a single-line rail corridor, arbitrates departures, " +
			"offers platform assignments and applies controller commands.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newSnapshotCmd())
	cmd.AddCommand(newActCmd())
	cmd.AddCommand(newWhatIfCmd())
	cmd.AddCommand(newJournalCmd())
	cmd.AddCommand(newCheckCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rs %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
