package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/config"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

const maxTelegramFileBytes = 20 << 20

// TelegramChannel receives updates by long polling and downloads quoted
// media through the Bot API file endpoint.
type TelegramChannel struct {
	*BaseChannel
	bot    *telego.Bot
	client *http.Client

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTelegramChannel(cfg config.TelegramConfig, mb *bus.MessageBus) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", mb, cfg.AllowFrom),
		bot:         bot,
		client:      &http.Client{Timeout: media.URLFetchTimeout},
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	pollCtx, cancel := context.WithCancel(ctx)
	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{Timeout: 30})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}
	c.cancel = cancel
	c.SetRunning(true)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for update := range updates {
			if update.Message != nil {
				c.handleUpdate(pollCtx, update.Message)
			}
		}
	}()
	return nil
}

func (c *TelegramChannel) Stop(context.Context) error {
	c.SetRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	id, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", msg.ChatID, err)
	}
	chat := tu.ID(id)

	if msg.Document != nil {
		f, err := os.Open(msg.Document.Path)
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer f.Close()
		_, err = c.bot.SendDocument(ctx, tu.Document(chat, tu.File(f)).WithCaption(msg.Document.Caption))
		return err
	}
	_, err = c.bot.SendMessage(ctx, tu.Message(chat, msg.Content))
	return err
}

// DownloadAny fetches the file referenced by the first populated payload.
func (c *TelegramChannel) DownloadAny(ctx context.Context, msg *media.Message) ([]byte, error) {
	ref := media.Classify(msg)
	fileID := ref.Payload().String("fileId")
	if fileID == "" {
		return nil, errors.New("message has no telegram file id")
	}

	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bot.FileDownloadURL(file.FilePath), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxTelegramFileBytes))
}

func (c *TelegramChannel) handleUpdate(ctx context.Context, m *telego.Message) {
	if m.From == nil {
		return
	}
	senderID := strconv.FormatInt(m.From.ID, 10)
	if m.From.Username != "" {
		senderID += "|" + m.From.Username
	}
	chatID := strconv.FormatInt(m.Chat.ID, 10)

	peer := bus.Peer{Kind: "direct", ID: senderID}
	if m.Chat.Type != telego.ChatTypePrivate {
		peer = bus.Peer{Kind: "group", ID: chatID}
	}

	content := m.Text
	if content == "" {
		content = m.Caption
	}

	logger.DebugCF("telegram", "Received message", map[string]any{
		"chat_id":   chatID,
		"sender_id": senderID,
		"has_reply": m.ReplyToMessage != nil,
	})

	c.HandleMessage(ctx, peer, strconv.Itoa(m.MessageID), senderID, chatID, content, quotedMedia(m.ReplyToMessage), nil)
}

// quotedMedia maps the media of a replied-to Telegram message onto the
// transport-neutral envelope. Image documents count as images.
func quotedMedia(m *telego.Message) *media.Message {
	if m == nil {
		return nil
	}
	switch {
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]
		return &media.Message{ImageMessage: media.Payload{
			"fileId":     p.FileID,
			"mimetype":   media.DefaultMimeType,
			"width":      p.Width,
			"height":     p.Height,
			"fileLength": p.FileSize,
		}}
	case m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/"):
		return &media.Message{ImageMessage: documentPayload(m.Document)}
	case m.Video != nil:
		return &media.Message{VideoMessage: media.Payload{"fileId": m.Video.FileID, "mimetype": m.Video.MimeType}}
	case m.Audio != nil:
		return &media.Message{AudioMessage: media.Payload{"fileId": m.Audio.FileID, "mimetype": m.Audio.MimeType}}
	case m.Voice != nil:
		return &media.Message{AudioMessage: media.Payload{"fileId": m.Voice.FileID, "mimetype": m.Voice.MimeType}}
	case m.Document != nil:
		return &media.Message{DocumentMessage: documentPayload(m.Document)}
	default:
		return &media.Message{}
	}
}

func documentPayload(d *telego.Document) media.Payload {
	return media.Payload{
		"fileId":     d.FileID,
		"mimetype":   d.MimeType,
		"fileName":   d.FileName,
		"fileLength": d.FileSize,
	}
}
