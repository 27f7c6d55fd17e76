// Package bus decouples chat channels from the pipeline: channels push
// inbound utterances onto the bus, the gateway consumes them, and
// replies travel back through per-channel outbound subscriptions.
package bus

import (
	"log"
	"sync"
	"time"
)

type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Content   string
	Timestamp time.Time
}

func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}

type MessageBus struct {
	inbound chan InboundMessage

	mu       sync.RWMutex
	outbound map[string]func(OutboundMessage)
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 100
	}
	return &MessageBus{
		inbound:  make(chan InboundMessage, bufSize),
		outbound: make(map[string]func(OutboundMessage)),
	}
}

func (b *MessageBus) PublishInbound(msg InboundMessage) {
	select {
	case b.inbound <- msg:
	default:
		log.Printf("[bus] inbound queue full, dropping message from %s", msg.Channel)
	}
}

func (b *MessageBus) Inbound() <-chan InboundMessage {
	return b.inbound
}

func (b *MessageBus) SubscribeOutbound(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outbound[channel] = fn
}

func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.mu.RLock()
	fn := b.outbound[msg.Channel]
	b.mu.RUnlock()
	if fn == nil {
		log.Printf("[bus] no outbound subscriber for channel %s", msg.Channel)
		return
	}
	fn(msg)
}

// Channels returns the names with outbound subscribers, for broadcast
// surfaces like the daily digest.
func (b *MessageBus) Channels() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.outbound))
	for name := range b.outbound {
		names = append(names, name)
	}
	return names
}
