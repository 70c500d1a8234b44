package channels

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/config"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

// Frame types exchanged with the WhatsApp bridge.
const (
	frameMessage        = "message"
	frameDocument       = "document"
	frameDownload       = "download"
	frameDownloadResult = "download_result"
)

var errBridgeClosed = errors.New("whatsapp bridge connection closed")

// bridgeFrame is the JSON envelope spoken over the bridge websocket.
type bridgeFrame struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	From      string         `json:"from,omitempty"`
	Chat      string         `json:"chat,omitempty"`
	To        string         `json:"to,omitempty"`
	Content   string         `json:"content,omitempty"`
	IsGroup   bool           `json:"is_group,omitempty"`
	Quoted    *media.Message `json:"quoted,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Message   *media.Message `json:"message,omitempty"`
	Data      string         `json:"data,omitempty"`
	FileName  string         `json:"file_name,omitempty"`
	MimeType  string         `json:"mimetype,omitempty"`
	Caption   string         `json:"caption,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// WhatsAppChannel talks to a WhatsApp bridge process over a websocket. The
// bridge owns the WhatsApp session; this side only exchanges frames.
type WhatsAppChannel struct {
	*BaseChannel
	media.InlineDecoder

	url    string
	dialer *websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan bridgeFrame

	done chan struct{}
}

func NewWhatsAppChannel(cfg config.WhatsAppConfig, mb *bus.MessageBus) (*WhatsAppChannel, error) {
	if cfg.BridgeURL == "" {
		return nil, errors.New("whatsapp bridge_url is required")
	}
	return &WhatsAppChannel{
		BaseChannel: NewBaseChannel("whatsapp", mb, cfg.AllowFrom),
		url:         cfg.BridgeURL,
		dialer:      websocket.DefaultDialer,
		pending:     make(map[string]chan bridgeFrame),
	}, nil
}

func (c *WhatsAppChannel) Start(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial whatsapp bridge: %w", err)
	}
	c.conn = conn
	c.done = make(chan struct{})
	c.SetRunning(true)

	go c.readLoop(ctx)
	logger.InfoCF("whatsapp", "Connected to bridge", map[string]any{"url": c.url})
	return nil
}

func (c *WhatsAppChannel) Stop(context.Context) error {
	c.SetRunning(false)
	if c.conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *WhatsAppChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if msg.Document != nil {
		data, err := os.ReadFile(msg.Document.Path)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		return c.write(bridgeFrame{
			Type:     frameDocument,
			To:       msg.ChatID,
			Data:     base64.StdEncoding.EncodeToString(data),
			FileName: filepath.Base(msg.Document.Path),
			MimeType: mimetype.Detect(data).String(),
			Caption:  msg.Document.Caption,
		})
	}
	return c.write(bridgeFrame{Type: frameMessage, To: msg.ChatID, Content: msg.Content})
}

// DownloadAny asks the bridge to download the media in msg.
func (c *WhatsAppChannel) DownloadAny(ctx context.Context, msg *media.Message) ([]byte, error) {
	id := uuid.NewString()
	result := make(chan bridgeFrame, 1)

	c.pendingMu.Lock()
	c.pending[id] = result
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.write(bridgeFrame{Type: frameDownload, RequestID: id, Message: msg}); err != nil {
		return nil, err
	}

	select {
	case f, ok := <-result:
		if !ok {
			return nil, errBridgeClosed
		}
		if f.Error != "" {
			return nil, fmt.Errorf("bridge download: %s", f.Error)
		}
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return nil, fmt.Errorf("decode bridge download: %w", err)
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *WhatsAppChannel) write(f bridgeFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil || !c.IsRunning() {
		return errBridgeClosed
	}
	return c.conn.WriteJSON(f)
}

func (c *WhatsAppChannel) readLoop(ctx context.Context) {
	defer close(c.done)
	defer c.failPending()

	for {
		var f bridgeFrame
		if err := c.conn.ReadJSON(&f); err != nil {
			if c.IsRunning() {
				logger.ErrorCF("whatsapp", "Bridge read failed", map[string]any{"error": err.Error()})
			}
			c.SetRunning(false)
			return
		}

		switch f.Type {
		case frameMessage:
			peer := bus.Peer{Kind: "direct", ID: f.From}
			if f.IsGroup {
				peer = bus.Peer{Kind: "group", ID: f.Chat}
			}
			c.HandleMessage(ctx, peer, f.ID, f.From, f.Chat, f.Content, f.Quoted, nil)
		case frameDownloadResult:
			c.pendingMu.Lock()
			ch, ok := c.pending[f.RequestID]
			delete(c.pending, f.RequestID)
			c.pendingMu.Unlock()
			if !ok {
				logger.DebugCF("whatsapp", "Dropping unmatched download result", map[string]any{"request_id": f.RequestID})
				continue
			}
			select {
			case ch <- f:
			default:
			}
		default:
			logger.DebugCF("whatsapp", "Ignoring bridge frame", map[string]any{"type": f.Type})
		}
	}
}

func (c *WhatsAppChannel) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
