package channel

import (
	"context"

	"github.com/stellarlinkco/boardclaw/internal/bus"
)

// Channel is one chat surface the gateway can receive user messages from and
// deliver agent replies to.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}

// BaseChannel carries the pieces every channel shares: its name, the message
// bus and an optional sender allow-list.
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

func (b BaseChannel) Name() string {
	return b.name
}

// IsAllowed reports whether a sender may talk to the agent. An empty
// allow-list admits everyone.
func (b BaseChannel) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	return b.allowFrom[senderID]
}

func (b BaseChannel) Bus() *bus.MessageBus {
	return b.bus
}
