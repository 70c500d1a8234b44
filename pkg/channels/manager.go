package channels

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

var ErrUnknownChannel = errors.New("unknown channel")

// Manager owns the enabled channels and routes outbound messages to them.
type Manager struct {
	bus      *bus.MessageBus
	mu       sync.RWMutex
	channels map[string]Channel
	wg       sync.WaitGroup
}

func NewManager(mb *bus.MessageBus) *Manager {
	return &Manager{bus: mb, channels: make(map[string]Channel)}
}

func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

func (m *Manager) Get(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// EnabledChannels returns the registered channel names.
func (m *Manager) EnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}

// MediaCapabilities exposes what a channel can do with quoted media.
func (m *Manager) MediaCapabilities(name string) media.Capabilities {
	ch, ok := m.Get(name)
	if !ok {
		return media.Capabilities{}
	}
	var caps media.Capabilities
	if d, ok := ch.(media.Downloader); ok {
		caps.Downloader = d
	}
	if d, ok := ch.(media.Decoder); ok {
		caps.Decoder = d
	}
	return caps
}

// StartAll starts every channel and the outbound dispatcher. A channel
// that fails to start is logged and skipped.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.channels) == 0 {
		return errors.New("no channels enabled")
	}
	started := 0
	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			logger.ErrorCF("channels", "Channel failed to start", map[string]any{"channel": name, "error": err.Error()})
			continue
		}
		started++
		logger.InfoCF("channels", "Channel started", map[string]any{"channel": name})
	}
	if started == 0 {
		return errors.New("no channel could be started")
	}

	m.wg.Add(1)
	go m.dispatchOutbound(ctx)
	return nil
}

func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, ch := range m.channels {
		if !ch.IsRunning() {
			continue
		}
		if err := ch.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Channel stop failed", map[string]any{"channel": name, "error": err.Error()})
		}
	}
	m.wg.Wait()
}

// Send delivers msg to its channel directly.
func (m *Manager) Send(ctx context.Context, msg bus.OutboundMessage) error {
	ch, ok := m.Get(msg.Channel)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, msg.Channel)
	}
	return ch.Send(ctx, msg)
}

func (m *Manager) dispatchOutbound(ctx context.Context) {
	defer m.wg.Done()
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		if err := m.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Outbound delivery failed", map[string]any{
				"channel": msg.Channel,
				"chat_id": msg.ChatID,
				"error":   err.Error(),
			})
		}
	}
}
