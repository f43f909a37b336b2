package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newWhatIfCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "whatif <scenario>",
		Short: "Ask the oracle to assess a proposed action",
		Long: "Sends a free-text scenario to a running rs, which asks the oracle to assess it against " +
			"the current corridor state, and prints the answer.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhatIf(cmd, server, timeout, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "dashboard address of a running rs")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "how long to wait for the oracle")
	return cmd
}

func runWhatIf(cmd *cobra.Command, server string, timeout time.Duration, scenario string) error {
	scenario = strings.TrimSpace(scenario)
	if scenario == "" {
		return fmt.Errorf("scenario is required")
	}

	client := newAPIClient(server, timeout)
	var reply struct {
		Result string `json:"result"`
	}
	if err := client.do(cmd.Context(), http.MethodPost, "/api/whatif", map[string]string{"scenario": scenario}, &reply); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply.Result)
	return nil
}
