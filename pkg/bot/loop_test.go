package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

type staticCaps struct{}

func (staticCaps) MediaCapabilities(string) media.Capabilities {
	return media.Capabilities{}
}

func TestLoopRepliesThroughBusAndDropsRedeliveries(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	fx := newFixture(t, nil)
	loop := NewLoop(mb, fx.handler, staticCaps{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	msg := bus.InboundMessage{Channel: "telegram", ChatID: "42", MessageID: "7", Content: "ping"}
	require.NoError(t, mb.PublishInbound(ctx, msg))
	require.NoError(t, mb.PublishInbound(ctx, msg))
	require.NoError(t, mb.PublishInbound(ctx, bus.InboundMessage{Channel: "telegram", ChatID: "42", MessageID: "8", Content: "ping"}))

	for range 2 {
		out, ok := mb.SubscribeOutbound(ctx)
		require.True(t, ok)
		assert.Equal(t, "telegram", out.Channel)
		assert.Equal(t, "42", out.ChatID)
		assert.Equal(t, "pong", out.Content)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer waitCancel()
	_, ok := mb.SubscribeOutbound(waitCtx)
	assert.False(t, ok, "redelivered message must not be answered twice")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestBusTransportDocument(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	tr := BusTransport{Bus: mb, Channel: "whatsapp"}

	require.NoError(t, tr.SendDocument(context.Background(), "c", "/tmp/x.json", "cap"))
	out, ok := mb.SubscribeOutbound(context.Background())
	require.True(t, ok)
	require.NotNil(t, out.Document)
	assert.Equal(t, "cap", out.Document.Caption)
	assert.Empty(t, out.Content)
}
