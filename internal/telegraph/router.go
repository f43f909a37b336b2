package telegraph

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
)

// Router decides which inbound chat messages are commands and answers them
// in the same channel and thread.
type Router struct {
	cmdHandler *CommandHandler
	adapter    Adapter
	botUserID  string
	out        io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	CmdHandler *CommandHandler
	Adapter    Adapter
	BotUserID  string    // messages from this user are ignored
	Out        io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.CmdHandler == nil {
		return nil, fmt.Errorf("telegraph: router: command handler is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: router: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		cmdHandler: opts.CmdHandler,
		adapter:    opts.Adapter,
		botUserID:  opts.BotUserID,
		out:        out,
	}, nil
}

// Handle routes one inbound message. The bot's own messages are dropped;
// "!rs ..." and "@bot <command>" run a command; everything else is ignored.
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.botUserID != "" && msg.UserID == r.botUserID {
		return
	}

	text := strings.TrimSpace(msg.Text)
	prefix := r.cmdHandler.Prefix()

	switch {
	case isCommand(prefix, text):
	case mentionCommand(text) != "":
		text = prefix + " " + mentionCommand(text)
	default:
		return
	}

	fmt.Fprintf(r.out, "telegraph: %s [ch=%s] %q\n", msg.UserName, msg.ChannelID, truncate(text, 80))
	reply := r.cmdHandler.Execute(text)
	if err := r.adapter.Send(ctx, OutboundMessage{
		ChannelID: msg.ChannelID,
		ThreadID:  msg.ThreadID,
		Text:      reply,
	}); err != nil {
		log.Printf("telegraph: router: send reply: %v", err)
	}
}

// truncate returns s cut to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func isCommand(prefix, text string) bool {
	return text == prefix || strings.HasPrefix(text, prefix+" ")
}

// mentionRe matches Discord (<@ID>, <@!ID>) and Slack (<@U123>) mentions.
var mentionRe = regexp.MustCompile(`<@!?[A-Za-z0-9]+>`)

// knownCommands are the first words accepted after a bare @mention.
var knownCommands = map[string]bool{
	"status":   true,
	"alerts":   true,
	"hold":     true,
	"proceed":  true,
	"siding":   true,
	"platform": true,
	"faster":   true,
	"slower":   true,
	"help":     true,
}

// mentionCommand returns the command text of "@bot <command> ..." messages,
// or "" if the message does not start with a mention and a known command.
func mentionCommand(text string) string {
	loc := mentionRe.FindStringIndex(text)
	if loc == nil || loc[0] != 0 {
		return ""
	}
	rest := strings.TrimSpace(text[loc[1]:])
	fields := strings.Fields(rest)
	if len(fields) == 0 || !knownCommands[fields[0]] {
		return ""
	}
	return rest
}
