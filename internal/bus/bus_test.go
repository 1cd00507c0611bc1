package bus

import (
	"context"
	"testing"
	"time"
)

func TestSessionKey(t *testing.T) {
	m := &InboundMessage{Channel: "telegram", ChatID: "42"}
	if m.SessionKey() != "telegram:42" {
		t.Errorf("SessionKey = %q, want telegram:42", m.SessionKey())
	}
}

func TestDispatchOutbound_RoutesToSubscriber(t *testing.T) {
	b := NewMessageBus(4)
	got := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("telegram", func(msg OutboundMessage) {
		got <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{Channel: "telegram", ChatID: "1", Content: "hi"}

	select {
	case msg := <-got:
		if msg.Content != "hi" {
			t.Errorf("content = %q, want hi", msg.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestDispatchOutbound_DropsUnknownChannel(t *testing.T) {
	b := NewMessageBus(4)
	got := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("telegram", func(msg OutboundMessage) {
		got <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{Channel: "nope", Content: "lost"}
	b.Outbound <- OutboundMessage{Channel: "telegram", Content: "kept"}

	select {
	case msg := <-got:
		if msg.Content != "kept" {
			t.Errorf("content = %q, want kept", msg.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestNewMessageBus_MinimumBuffer(t *testing.T) {
	b := NewMessageBus(0)
	if cap(b.Inbound) != 1 || cap(b.Outbound) != 1 {
		t.Errorf("buffer caps = %d/%d, want 1/1", cap(b.Inbound), cap(b.Outbound))
	}
}
