package channels

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

func TestBaseChannelIsAllowed(t *testing.T) {
	tests := []struct {
		name      string
		allowList []string
		senderID  string
		want      bool
	}{
		{"empty allowlist allows all", nil, "anyone", true},
		{"compound sender matches numeric allowlist", []string{"123456"}, "123456|alice", true},
		{"compound sender matches username allowlist", []string{"@alice"}, "123456|alice", true},
		{"numeric sender matches legacy compound allowlist", []string{"123456|alice"}, "123456", true},
		{"non matching sender is denied", []string{"123456"}, "654321|bob", false},
		{"phone number exact match", []string{"628123"}, "628123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := NewBaseChannel("test", nil, tt.allowList)
			assert.Equal(t, tt.want, ch.IsAllowed(tt.senderID))
		})
	}
}

func TestHandleMessagePublishesQuotedMedia(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	ch := NewBaseChannel("whatsapp", mb, nil)

	quoted := &media.Message{ImageMessage: media.Payload{"URL": "https://example.com/a.jpg"}}
	ch.HandleMessage(context.Background(), bus.Peer{Kind: "direct", ID: "u1"}, "m1", "u1", "c1", "ktp", quoted, nil)

	msg, ok := mb.ConsumeInbound(context.Background())
	require.True(t, ok)
	assert.Equal(t, "whatsapp", msg.Channel)
	assert.Equal(t, "ktp", msg.Content)
	assert.Equal(t, "whatsapp:c1:m1", msg.MediaScope)
	require.NotNil(t, msg.Quoted)
	assert.Equal(t, "https://example.com/a.jpg", msg.Quoted.ImageMessage.String("URL"))
}

func TestHandleMessageDropsDisallowedSender(t *testing.T) {
	mb := bus.NewMessageBusSize(1)
	defer mb.Close()
	ch := NewBaseChannel("whatsapp", mb, []string{"allowed"})

	ch.HandleMessage(context.Background(), bus.Peer{}, "m1", "stranger", "c1", "ktp", nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := mb.ConsumeInbound(ctx)
	assert.False(t, ok)
}

func TestBuildMediaScopeGeneratesIDWhenMissing(t *testing.T) {
	scope := BuildMediaScope("telegram", "42", "")
	assert.True(t, strings.HasPrefix(scope, "telegram:42:"))
	assert.Greater(t, len(scope), len("telegram:42:"))
}
