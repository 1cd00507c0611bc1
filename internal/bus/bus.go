package bus

import (
	"context"
	"log"
	"sync"
)

// MessageBus decouples chat channels from the agent loop. Channels push user
// messages to Inbound; the gateway pushes replies to Outbound, and
// DispatchOutbound routes each reply to the subscriber registered for its
// channel name.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string]func(OutboundMessage)
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 1
	}
	return &MessageBus{
		Inbound:     make(chan InboundMessage, bufSize),
		Outbound:    make(chan OutboundMessage, bufSize),
		subscribers: make(map[string]func(OutboundMessage)),
	}
}

// SubscribeOutbound registers the delivery callback for one channel name.
// Registering the same name again replaces the previous subscriber.
func (b *MessageBus) SubscribeOutbound(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = fn
}

// DispatchOutbound delivers outbound messages until ctx is cancelled.
// Messages for unknown channels are dropped with a log line.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn, ok := b.subscribers[msg.Channel]
			b.mu.RUnlock()
			if !ok {
				log.Printf("[bus] no subscriber for channel %s, dropping message", msg.Channel)
				continue
			}
			fn(msg)
		case <-ctx.Done():
			return
		}
	}
}
