// Package channels connects chat transports to the message bus.
package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
	IsAllowed(senderID string) bool
}

type BaseChannel struct {
	bus       *bus.MessageBus
	running   atomic.Bool
	name      string
	allowList []string
}

func NewBaseChannel(name string, mb *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		bus:       mb,
		name:      name,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) SetRunning(running bool) {
	c.running.Store(running)
}

// IsAllowed matches senderID against the allow list. An empty list allows
// everyone. Both sides may use the compound "id|username" form and allow
// list entries may carry a leading "@".
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	idPart, userPart := splitCompound(senderID)

	for _, allowed := range c.allowList {
		trimmed := strings.TrimPrefix(allowed, "@")
		allowedID, allowedUser := splitCompound(trimmed)

		if senderID == allowed ||
			idPart == allowed ||
			senderID == trimmed ||
			idPart == trimmed ||
			idPart == allowedID ||
			(allowedUser != "" && senderID == allowedUser) ||
			(userPart != "" && (userPart == allowed || userPart == trimmed || userPart == allowedUser)) {
			return true
		}
	}
	return false
}

func splitCompound(s string) (id, user string) {
	if idx := strings.Index(s, "|"); idx > 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

// HandleMessage publishes an inbound message unless the sender is not
// allowed.
func (c *BaseChannel) HandleMessage(
	ctx context.Context,
	peer bus.Peer,
	messageID, senderID, chatID, content string,
	quoted *media.Message,
	metadata map[string]string,
) {
	if !c.IsAllowed(senderID) {
		logger.DebugCF("channels", "Sender not allowed", map[string]any{
			"channel":   c.name,
			"sender_id": senderID,
		})
		return
	}

	msg := bus.InboundMessage{
		Channel:    c.name,
		SenderID:   senderID,
		ChatID:     chatID,
		Content:    content,
		Peer:       peer,
		MessageID:  messageID,
		MediaScope: BuildMediaScope(c.name, chatID, messageID),
		Quoted:     quoted,
		Metadata:   metadata,
	}

	if err := c.bus.PublishInbound(ctx, msg); err != nil {
		logger.WarnCF("channels", "Inbound message dropped", map[string]any{
			"channel": c.name,
			"error":   err.Error(),
		})
	}
}

// BuildMediaScope constructs a key grouping the temp files of one event.
func BuildMediaScope(channel, chatID, messageID string) string {
	id := messageID
	if id == "" {
		id = uuid.New().String()
	}
	return channel + ":" + chatID + ":" + id
}
