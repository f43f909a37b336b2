// Package telegraph bridges the corridor engine to chat platforms. It posts
// alerts, recommendations and scheduled digests, and accepts controller
// commands prefixed with "!rs".
package telegraph

import (
	"context"
	"time"
)

// Adapter is implemented once per chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages. The channel is closed
	// when the adapter is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close shuts down the connection.
	Close() error
}

// InboundMessage is a chat message received from the platform.
type InboundMessage struct {
	Platform  string // "slack" or "discord"
	ChannelID string
	ThreadID  string // empty for top-level messages
	UserID    string
	UserName  string
	Text      string
	Timestamp time.Time
}

// OutboundMessage is a chat message to post. An empty ChannelID means the
// adapter's default channel.
type OutboundMessage struct {
	ChannelID string
	ThreadID  string
	Text      string
	Events    []FormattedEvent
}

// FormattedEvent is a corridor event rendered as a chat attachment.
type FormattedEvent struct {
	Title    string
	Body     string
	Severity string // "info", "warning", "error", "success"
	Color    string // sidebar color, e.g. "#e53935"
	Fields   []Field
}

// Field is a key-value pair shown in an attachment.
type Field struct {
	Name  string
	Value string
	Short bool // render side-by-side with a neighbouring field
}

// BotUserIDer is implemented by adapters that know the bot's own user id,
// so the router can drop the bot's own messages.
type BotUserIDer interface {
	BotUserID() string
}
