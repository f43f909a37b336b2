package telegraph

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
)

// DefaultPrefix is the chat command prefix.
const DefaultPrefix = "!rs"

// Corridor is the part of the engine the chat bridge reads and commands.
type Corridor interface {
	Snapshot() (*models.World, uint64)
	Apply(action models.Action, source engine.Source, sourceID string) engine.Result
}

// CommandHandler executes "!rs" commands. Commands that change the corridor
// go through the engine as direct controller actions.
type CommandHandler struct {
	corridor Corridor
	prefix   string
	now      func() time.Time
}

// CommandHandlerOpts holds parameters for creating a CommandHandler.
type CommandHandlerOpts struct {
	Corridor Corridor
	Prefix   string           // defaults to DefaultPrefix
	Now      func() time.Time // defaults to time.Now
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(opts CommandHandlerOpts) (*CommandHandler, error) {
	if opts.Corridor == nil {
		return nil, fmt.Errorf("telegraph: command handler: corridor is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &CommandHandler{corridor: opts.Corridor, prefix: prefix, now: now}, nil
}

// Prefix returns the command prefix this handler answers to.
func (ch *CommandHandler) Prefix() string { return ch.prefix }

// Execute parses and runs a command and returns the reply text.
func (ch *CommandHandler) Execute(text string) string {
	args := parseCommand(ch.prefix, text)
	if len(args) == 0 {
		return ch.helpText()
	}

	switch args[0] {
	case "status":
		return ch.cmdStatus()
	case "alerts":
		return ch.cmdAlerts()
	case "hold":
		return ch.cmdHold(args[1:])
	case "proceed":
		return ch.cmdSimple(models.CmdProceed, "proceed", args[1:])
	case "siding":
		return ch.cmdSiding(args[1:])
	case "platform":
		return ch.cmdPlatform(args[1:])
	case "faster":
		return ch.cmdSimple(models.CmdIncreaseSpeed, "faster", args[1:])
	case "slower":
		return ch.cmdSimple(models.CmdDecreaseSpeed, "slower", args[1:])
	case "help":
		return ch.helpText()
	default:
		return fmt.Sprintf("Unknown command: `%s`\n\n%s", args[0], ch.helpText())
	}
}

// parseCommand strips the prefix and splits the remaining text.
func parseCommand(prefix, text string) []string {
	text = strings.TrimSpace(text)
	if text == prefix {
		return nil
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, prefix+" "))
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

func (ch *CommandHandler) cmdStatus() string {
	w, version := ch.corridor.Snapshot()
	if len(w.Trains) == 0 {
		return fmt.Sprintf("No trains on the section (v%d).", version)
	}
	return formatTrainTable(w.Trains) + fmt.Sprintf("v%d", version)
}

func (ch *CommandHandler) cmdAlerts() string {
	w, _ := ch.corridor.Snapshot()
	return formatAdvisories(w, ch.now(), ch.prefix)
}

func (ch *CommandHandler) cmdHold(args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Usage: `%s hold <train> [station]`", ch.prefix)
	}
	return ch.apply(models.Action{
		Command:     models.CmdHold,
		TrainID:     args[0],
		StationName: strings.Join(args[1:], " "),
	})
}

func (ch *CommandHandler) cmdSimple(cmd models.Command, name string, args []string) string {
	if len(args) != 1 {
		return fmt.Sprintf("Usage: `%s %s <train>`", ch.prefix, name)
	}
	return ch.apply(models.Action{Command: cmd, TrainID: args[0]})
}

func (ch *CommandHandler) cmdSiding(args []string) string {
	if len(args) < 2 {
		return fmt.Sprintf("Usage: `%s siding <train> <station>`", ch.prefix)
	}
	return ch.apply(models.Action{
		Command:     models.CmdMoveToSiding,
		TrainID:     args[0],
		StationName: strings.Join(args[1:], " "),
	})
}

func (ch *CommandHandler) cmdPlatform(args []string) string {
	usage := fmt.Sprintf("Usage: `%s platform <train> <station> <number>`", ch.prefix)
	if len(args) < 3 {
		return usage
	}
	n, err := strconv.Atoi(args[len(args)-1])
	if err != nil || n < 1 {
		return usage
	}
	return ch.apply(models.Action{
		Command:     models.CmdAssignPlatform,
		TrainID:     args[0],
		StationName: strings.Join(args[1:len(args)-1], " "),
		Platform:    n,
	})
}

func (ch *CommandHandler) apply(a models.Action) string {
	res := ch.corridor.Apply(a, engine.SourceDirect, "")
	if !res.Applied {
		return fmt.Sprintf("Rejected %s %s: %s", a.Command, a.TrainID, res.Reason)
	}
	return fmt.Sprintf("Applied %s to %s.", a.Command, res.TrainID)
}

func (ch *CommandHandler) helpText() string {
	p := ch.prefix
	return "**Corridor Commands**\n" +
		"`" + p + " status` Trains on the section\n" +
		"`" + p + " alerts` Live alerts and recommendations\n" +
		"`" + p + " hold <train> [station]` Stop a train\n" +
		"`" + p + " proceed <train>` Release a train at cruise speed\n" +
		"`" + p + " siding <train> <station>` Move a train into a siding\n" +
		"`" + p + " platform <train> <station> <n>` Assign a platform\n" +
		"`" + p + " faster <train>` / `" + p + " slower <train>` Adjust speed\n" +
		"`" + p + " help` This message"
}
