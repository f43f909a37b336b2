package telegraph

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/zulandar/railsection/internal/engine"
)

// Feed is a Corridor that also publishes committed updates.
type Feed interface {
	Corridor
	Subscribe(buffer int) (<-chan engine.Update, func())
}

// Daemon is the chat bridge process. It posts advisories raised by the
// engine, sends scheduled digests and answers commands.
type Daemon struct {
	feed     Feed
	adapter  Adapter
	corridor string
	channel  string
	prefix   string
	digest   string
	now      func() time.Time
	out      io.Writer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Feed    Feed
	Adapter Adapter
	// Corridor names the section in digest titles.
	Corridor string
	// Channel receives advisories and digests. Empty means the adapter's
	// default channel.
	Channel string
	Prefix  string
	// Digest is a cron schedule for corridor summaries. Empty disables them.
	Digest string
	Now    func() time.Time // defaults to time.Now
	Out    io.Writer        // defaults to os.Stdout
}

// NewDaemon creates a Daemon.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Feed == nil {
		return nil, fmt.Errorf("telegraph: feed is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: adapter is required")
	}
	d := &Daemon{
		feed:     opts.Feed,
		adapter:  opts.Adapter,
		corridor: opts.Corridor,
		channel:  opts.Channel,
		prefix:   opts.Prefix,
		digest:   opts.Digest,
		now:      opts.Now,
		out:      opts.Out,
	}
	if d.corridor == "" {
		d.corridor = "Corridor"
	}
	if d.prefix == "" {
		d.prefix = DefaultPrefix
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.out == nil {
		d.out = os.Stdout
	}
	return d, nil
}

// Run connects the adapter and blocks until ctx is cancelled or the
// adapter's inbound channel closes.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Telegraph connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("telegraph: connect: %w", err)
	}

	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	cmdHandler, err := NewCommandHandler(CommandHandlerOpts{
		Corridor: d.feed,
		Prefix:   d.prefix,
		Now:      d.now,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: build command handler: %w", err)
	}
	router, err := NewRouter(RouterOpts{
		CmdHandler: cmdHandler,
		Adapter:    d.adapter,
		BotUserID:  botUserID,
		Out:        d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: build router: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: listen: %w", err)
	}

	updates, unsubscribe := d.feed.Subscribe(64)
	defer unsubscribe()
	go d.dispatchUpdates(ctx, updates)
	go d.runDigestScheduler(ctx)

	fmt.Fprintf(d.out, "Telegraph online\n")
	if err := d.adapter.Send(ctx, OutboundMessage{
		ChannelID: d.channel,
		Text:      fmt.Sprintf("%s telegraph online. Type `%s help` for commands.", d.corridor, d.prefix),
	}); err != nil {
		log.Printf("telegraph: send online message: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Telegraph shutting down...\n")
			if err := d.adapter.Send(context.Background(), OutboundMessage{
				ChannelID: d.channel,
				Text:      "Telegraph shutting down",
			}); err != nil {
				log.Printf("telegraph: send shutdown message: %v", err)
			}
			if err := d.adapter.Close(); err != nil {
				log.Printf("telegraph: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "Telegraph stopped\n")
			return nil

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "Telegraph inbound channel closed\n")
				return nil
			}
			router.Handle(ctx, msg)
		}
	}
}

// dispatchUpdates posts the advisories raised in each committed update.
func (d *Daemon) dispatchUpdates(ctx context.Context, updates <-chan engine.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			d.postEvents(ctx, u.Events)
		}
	}
}

// postEvents sends the postable events of one update as a single message.
func (d *Daemon) postEvents(ctx context.Context, events []engine.Event) {
	var formatted []FormattedEvent
	for _, ev := range events {
		if f, ok := FormatEvent(ev, d.prefix); ok {
			formatted = append(formatted, f)
		}
	}
	if len(formatted) == 0 {
		return
	}
	if err := d.adapter.Send(ctx, OutboundMessage{
		ChannelID: d.channel,
		Events:    formatted,
	}); err != nil {
		log.Printf("telegraph: send %d events: %v", len(formatted), err)
	}
}

// runDigestScheduler posts a digest each time the cron schedule fires. It
// returns immediately when no schedule is configured.
func (d *Daemon) runDigestScheduler(ctx context.Context) {
	if d.digest == "" {
		return
	}
	wait := nextCronDuration(d.digest, time.Now())
	if wait <= 0 {
		log.Printf("telegraph: digest schedule %q never fires", d.digest)
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.fireDigest(ctx)
			if wait := nextCronDuration(d.digest, time.Now()); wait > 0 {
				timer.Reset(wait)
			}
		}
	}
}

// fireDigest builds and sends one corridor digest.
func (d *Daemon) fireDigest(ctx context.Context) {
	w, _ := d.feed.Snapshot()
	if err := d.adapter.Send(ctx, OutboundMessage{
		ChannelID: d.channel,
		Events:    []FormattedEvent{FormatDigest(d.corridor, w, d.now())},
	}); err != nil {
		log.Printf("telegraph: send digest: %v", err)
	}
}
