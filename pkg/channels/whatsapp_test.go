package channels

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/config"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

// fakeBridge greets with one inbound message, answers download requests
// and records every other frame it receives.
func fakeBridge(t *testing.T, received chan<- bridgeFrame) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(bridgeFrame{
			Type:    frameMessage,
			ID:      "wamid-1",
			From:    "628123",
			Chat:    "628123@s.whatsapp.net",
			Content: "ktp",
			Quoted:  &media.Message{ImageMessage: media.Payload{"mimetype": "image/png"}},
		})

		for {
			var f bridgeFrame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Type == frameDownload {
				_ = conn.WriteJSON(bridgeFrame{
					Type:      frameDownloadResult,
					RequestID: f.RequestID,
					Data:      base64.StdEncoding.EncodeToString([]byte("image-bytes")),
				})
				continue
			}
			received <- f
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestWhatsAppChannelRoundTrip(t *testing.T) {
	received := make(chan bridgeFrame, 4)
	srv := fakeBridge(t, received)
	defer srv.Close()

	mb := bus.NewMessageBus()
	defer mb.Close()
	ch, err := NewWhatsAppChannel(config.WhatsAppConfig{BridgeURL: wsURL(srv)}, mb)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.Start(ctx))

	in, ok := mb.ConsumeInbound(ctx)
	require.True(t, ok)
	assert.Equal(t, "whatsapp", in.Channel)
	assert.Equal(t, "wamid-1", in.MessageID)
	assert.Equal(t, "ktp", in.Content)
	assert.Equal(t, media.KindImage, media.Classify(in.Quoted).Kind)

	data, err := ch.DownloadAny(ctx, in.Quoted.ImageOnly())
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)

	require.NoError(t, ch.Send(ctx, bus.OutboundMessage{ChatID: in.ChatID, Content: "✅ ok"}))
	text := <-received
	assert.Equal(t, frameMessage, text.Type)
	assert.Equal(t, in.ChatID, text.To)
	assert.Equal(t, "✅ ok", text.Content)

	path := filepath.Join(t.TempDir(), "ktp_Budi.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nik":"1"}`), 0o600))
	require.NoError(t, ch.Send(ctx, bus.OutboundMessage{
		ChatID:   in.ChatID,
		Document: &bus.OutboundDocument{Path: path, Caption: "Hasil"},
	}))
	doc := <-received
	assert.Equal(t, frameDocument, doc.Type)
	assert.Equal(t, "ktp_Budi.json", doc.FileName)
	assert.Equal(t, "Hasil", doc.Caption)
	assert.Contains(t, doc.MimeType, "application/json")
	raw, err := base64.StdEncoding.DecodeString(doc.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nik":"1"}`, string(raw))

	require.NoError(t, ch.Stop(ctx))
	assert.False(t, ch.IsRunning())
	_, err = ch.DownloadAny(ctx, in.Quoted)
	assert.Error(t, err)
}

func TestWhatsAppChannelDecodesInlineMedia(t *testing.T) {
	ch, err := NewWhatsAppChannel(config.WhatsAppConfig{BridgeURL: "ws://127.0.0.1:1"}, bus.NewMessageBus())
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	f, err := ch.DecodeMedia(context.Background(), &media.Message{ImageMessage: media.Payload{
		"data": base64.StdEncoding.EncodeToString(png),
	}})
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MimeType)

	_, err = ch.DecodeMedia(context.Background(), &media.Message{ImageMessage: media.Payload{}})
	assert.ErrorIs(t, err, media.ErrNotMedia)
}

func TestNewWhatsAppChannelRequiresBridgeURL(t *testing.T) {
	_, err := NewWhatsAppChannel(config.WhatsAppConfig{}, bus.NewMessageBus())
	assert.Error(t, err)
}

func TestWhatsAppChannelSurvivesDuplicateDownloadResults(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var f bridgeFrame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Type != frameDownload {
				continue
			}
			for range 3 {
				_ = conn.WriteJSON(bridgeFrame{
					Type:      frameDownloadResult,
					RequestID: f.RequestID,
					Data:      base64.StdEncoding.EncodeToString([]byte("image-bytes")),
				})
			}
			_ = conn.WriteJSON(bridgeFrame{Type: frameMessage, ID: "wamid-2", From: "628123", Chat: "628123", Content: "kk"})
		}
	}))
	defer srv.Close()

	mb := bus.NewMessageBus()
	defer mb.Close()
	ch, err := NewWhatsAppChannel(config.WhatsAppConfig{BridgeURL: wsURL(srv)}, mb)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.Start(ctx))

	img := &media.Message{ImageMessage: media.Payload{"mimetype": "image/png"}}
	for range 2 {
		data, err := ch.DownloadAny(ctx, img)
		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes"), data)

		in, ok := mb.ConsumeInbound(ctx)
		require.True(t, ok)
		assert.Equal(t, "wamid-2", in.MessageID)
	}

	require.NoError(t, ch.Stop(ctx))
}
