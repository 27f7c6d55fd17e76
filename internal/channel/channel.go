// Package channel hosts the chat surfaces the assistant listens on.
// Each channel turns platform messages into bus inbound messages and
// delivers outbound replies; it knows nothing about the pipeline.
package channel

import (
	"context"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/bus"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
	Send(msg bus.OutboundMessage) error
}

// BaseChannel carries the name, the bus handle and the sender
// allow-list shared by every channel implementation.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom map[string]bool
}

func NewBaseChannel(name string, b *bus.MessageBus, allowFrom []string) BaseChannel {
	allowed := make(map[string]bool, len(allowFrom))
	for _, id := range allowFrom {
		allowed[id] = true
	}
	return BaseChannel{name: name, bus: b, allowFrom: allowed}
}

func (c *BaseChannel) Name() string { return c.name }

// IsAllowed reports whether a sender may use this channel. An empty
// allow-list admits everyone.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	return c.allowFrom[senderID]
}

func (c *BaseChannel) publish(senderID, chatID, content string) {
	c.bus.PublishInbound(bus.InboundMessage{
		Channel:   c.name,
		SenderID:  senderID,
		ChatID:    chatID,
		Content:   content,
		Timestamp: time.Now(),
	})
}
