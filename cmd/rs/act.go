package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
)

// commandAliases maps the short verbs accepted by `rs act` to commands.
var commandAliases = map[string]models.Command{
	"hold":     models.CmdHold,
	"proceed":  models.CmdProceed,
	"siding":   models.CmdMoveToSiding,
	"platform": models.CmdAssignPlatform,
	"faster":   models.CmdIncreaseSpeed,
	"slower":   models.CmdDecreaseSpeed,
}

func newActCmd() *cobra.Command {
	var (
		server   string
		station  string
		platform int
		source   string
		sourceID string
	)

	cmd := &cobra.Command{
		Use:   "act <command> <train>",
		Short: "Apply a controller command to a running server",
		Long: "Sends an operator action to a running rs. The command is one of hold, proceed, siding, " +
			"platform, faster, slower, or the upper-case command name. Use --source and --source-id to " +
			"apply an alert's or recommendation's suggestion, which consumes that advisory.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := buildAction(args[0], args[1], station, platform)
			if err != nil {
				return err
			}
			return runAct(cmd, server, action, engine.Source(source), sourceID)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", defaultServer, "dashboard address of a running rs")
	cmd.Flags().StringVar(&station, "station", "", "station name (siding, platform, hold)")
	cmd.Flags().IntVar(&platform, "platform", 0, "platform number (platform)")
	cmd.Flags().StringVar(&source, "source", string(engine.SourceDirect), "origin of the action: alert, rec or direct")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "id of the alert or recommendation being applied")
	return cmd
}

// buildAction resolves a verb or command name into an Action.
func buildAction(verb, train, station string, platform int) (models.Action, error) {
	command, ok := commandAliases[strings.ToLower(verb)]
	if !ok {
		command = models.Command(strings.ToUpper(verb))
	}
	if !command.Valid() {
		return models.Action{}, fmt.Errorf("unknown command %q", verb)
	}
	if platform < 0 {
		return models.Action{}, fmt.Errorf("platform must not be negative")
	}
	return models.Action{
		Command:     command,
		TrainID:     train,
		StationName: station,
		Platform:    platform,
	}, nil
}

func runAct(cmd *cobra.Command, server string, action models.Action, source engine.Source, sourceID string) error {
	if !source.Valid() {
		return fmt.Errorf("unknown source %q", source)
	}
	client := newAPIClient(server, 10*time.Second)

	body := map[string]any{
		"action":   action,
		"source":   source,
		"sourceId": sourceID,
	}
	var res engine.Result
	err := client.do(cmd.Context(), http.MethodPost, "/api/actions", body, &res, http.StatusNotFound, http.StatusConflict)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Applied {
		fmt.Fprintf(out, "Rejected %s %s: %s\n", action.Command, action.TrainID, res.Reason)
		return fmt.Errorf("action rejected")
	}
	fmt.Fprintf(out, "Applied %s to %s.\n", action.Command, res.TrainID)
	return nil
}
