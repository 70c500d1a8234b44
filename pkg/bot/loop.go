package bot

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

const (
	dedupeSize = 4096
	dedupeTTL  = 10 * time.Minute
)

// CapabilitySource returns the media capabilities of a named channel.
type CapabilitySource interface {
	MediaCapabilities(channel string) media.Capabilities
}

// BusTransport replies through the outbound side of the message bus.
type BusTransport struct {
	Bus     *bus.MessageBus
	Channel string
}

func (t BusTransport) SendText(ctx context.Context, chatID, text string) error {
	return t.Bus.PublishOutbound(ctx, bus.OutboundMessage{Channel: t.Channel, ChatID: chatID, Content: text})
}

func (t BusTransport) SendDocument(ctx context.Context, chatID, path, caption string) error {
	return t.Bus.PublishOutbound(ctx, bus.OutboundMessage{
		Channel:  t.Channel,
		ChatID:   chatID,
		Document: &bus.OutboundDocument{Path: path, Caption: caption},
	})
}

// Loop feeds inbound bus messages to a Handler, one goroutine per event.
type Loop struct {
	bus     *bus.MessageBus
	handler *Handler
	caps    CapabilitySource
	seen    *expirable.LRU[string, struct{}]
	wg      sync.WaitGroup
}

func NewLoop(mb *bus.MessageBus, handler *Handler, caps CapabilitySource) *Loop {
	return &Loop{
		bus:     mb,
		handler: handler,
		caps:    caps,
		seen:    expirable.NewLRU[string, struct{}](dedupeSize, nil, dedupeTTL),
	}
}

// Run blocks until ctx is done or the bus is closed, then waits for
// in-flight events.
func (l *Loop) Run(ctx context.Context) error {
	logger.InfoC("bot", "Extraction loop started")
	defer logger.InfoC("bot", "Extraction loop stopped")

	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			l.wg.Wait()
			return ctx.Err()
		}
		if l.duplicate(msg) {
			logger.DebugCF("bot", "Dropping redelivered message", map[string]any{
				"channel":    msg.Channel,
				"message_id": msg.MessageID,
			})
			continue
		}

		l.wg.Add(1)
		go func(msg bus.InboundMessage) {
			defer l.wg.Done()
			l.handler.Handle(ctx, l.session(msg.Channel), Event{
				Channel:   msg.Channel,
				ChatID:    msg.ChatID,
				SenderID:  msg.SenderID,
				MessageID: msg.MessageID,
				Text:      msg.Content,
				Quoted:    msg.Quoted,
			})
		}(msg)
	}
}

func (l *Loop) session(channel string) Session {
	s := Session{Transport: BusTransport{Bus: l.bus, Channel: channel}}
	if l.caps != nil {
		s.Media = l.caps.MediaCapabilities(channel)
	}
	return s
}

// duplicate reports whether the message id was already seen recently.
// Messages without an id are never treated as duplicates.
func (l *Loop) duplicate(msg bus.InboundMessage) bool {
	if msg.MessageID == "" {
		return false
	}
	key := msg.Channel + ":" + msg.ChatID + ":" + msg.MessageID
	if l.seen.Contains(key) {
		return true
	}
	l.seen.Add(key, struct{}{})
	return false
}
