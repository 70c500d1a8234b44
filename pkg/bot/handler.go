// Package bot runs the extraction pipeline for chat commands: classify the
// quoted message, resolve the image, call the backend, reply with the
// rendered result and an optional export file.
package bot

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/tinyland-inc/dokbot/pkg/export"
	"github.com/tinyland-inc/dokbot/pkg/extractor"
	"github.com/tinyland-inc/dokbot/pkg/format"
	"github.com/tinyland-inc/dokbot/pkg/history"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/media"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

const DownloadFailed = "❌ Gagal mengunduh gambar"

// Transport delivers replies. Both calls are fire-and-forget from the
// pipeline's point of view; errors are only logged.
type Transport interface {
	SendText(ctx context.Context, chatID, text string) error
	SendDocument(ctx context.Context, chatID, path, caption string) error
}

// Extractor is the backend client used by the handler.
type Extractor interface {
	Extract(ctx context.Context, docType extractor.DocumentType, data []byte, mimeType, fileName string) *extractor.Result
}

// Recorder stores extraction history.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Session is what one event may use of its transport.
type Session struct {
	Transport Transport
	Media     media.Capabilities
}

// Event is an inbound chat message.
type Event struct {
	Channel   string
	ChatID    string
	SenderID  string
	MessageID string
	Text      string
	Quoted    *media.Message
}

type Handler struct {
	resolver *media.Resolver
	client   Extractor
	exporter *export.Builder
	recorder Recorder
	cleanup  *workdir.Dir
}

type HandlerOption func(*Handler)

// WithRecorder records every extraction attempt.
func WithRecorder(r Recorder) HandlerOption {
	return func(h *Handler) { h.recorder = r }
}

// WithDownloadCleanup removes resolved images from dir once the backend
// has answered.
func WithDownloadCleanup(dir *workdir.Dir) HandlerOption {
	return func(h *Handler) { h.cleanup = dir }
}

func NewHandler(resolver *media.Resolver, client Extractor, exporter *export.Builder, opts ...HandlerOption) *Handler {
	h := &Handler{resolver: resolver, client: client, exporter: exporter}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one event. It never panics and never returns an error:
// every failure becomes a chat reply and a log line.
func (h *Handler) Handle(ctx context.Context, s Session, ev Event) {
	cmd := ParseCommand(ev.Text)
	if cmd.Kind == CommandNone {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			logger.ErrorCF("bot", "Command panicked", map[string]any{
				"stage":         "handle",
				"document_type": string(cmd.DocType),
				"error":         fmt.Sprint(p),
			})
			h.reply(ctx, s, ev.ChatID, fmt.Sprintf("❌ Error saat memproses %s: %v", commandLabel(cmd), p))
		}
	}()

	switch cmd.Kind {
	case CommandPing:
		h.reply(ctx, s, ev.ChatID, "pong")
	case CommandHelp:
		h.reply(ctx, s, ev.ChatID, HelpText)
	case CommandDebug:
		h.reply(ctx, s, ev.ChatID, debugText(ev))
	case CommandExtract:
		h.extract(ctx, s, ev, cmd)
	}
}

func (h *Handler) extract(ctx context.Context, s Session, ev Event, cmd Command) {
	label := cmd.DocType.Label()
	fields := map[string]any{
		"channel":       ev.Channel,
		"chat_id":       ev.ChatID,
		"document_type": string(cmd.DocType),
	}

	ref := media.Classify(ev.Quoted)
	if !ref.Present || ref.Kind != media.KindImage {
		h.reply(ctx, s, ev.ChatID, fmt.Sprintf("❌ Silakan reply pesan gambar %s dengan perintah '%s'", label, cmd.Text))
		return
	}

	h.reply(ctx, s, ev.ChatID, fmt.Sprintf("📷 Mengunduh gambar %s...", label))
	resolved, err := h.resolver.Resolve(ctx, s.Media, ref)
	if err != nil {
		logger.ErrorCF("bot", "Image resolution failed", withStage(fields, "resolve", err))
		h.reply(ctx, s, ev.ChatID, DownloadFailed)
		return
	}

	h.reply(ctx, s, ev.ChatID, fmt.Sprintf("🔍 Mengekstrak data %s...", label))
	res := h.client.Extract(ctx, cmd.DocType, resolved.Data, resolved.MimeType, filepath.Base(resolved.Path))
	h.removeDownload(resolved.Path)

	h.reply(ctx, s, ev.ChatID, format.Format(cmd.DocType, res))

	entry := history.Entry{
		Channel:      ev.Channel,
		ChatID:       ev.ChatID,
		DocumentType: string(cmd.DocType),
		Status:       string(res.Status),
		Code:         res.Code,
		Message:      res.Message,
	}
	if res.Succeeded() {
		entry.Status = res.Parsed().Status()
		if entry.Status == "" {
			entry.Status = string(res.Status)
		}
		entry.OwnerName = export.OwnerName(res, cmd.DocType)
	}

	if cmd.Format != "" {
		if art := h.sendExport(ctx, s, ev.ChatID, res, cmd, fields); art != nil {
			entry.ExportPath = art.Path
		}
	}

	h.record(ctx, entry)
}

func (h *Handler) sendExport(ctx context.Context, s Session, chatID string, res *extractor.Result, cmd Command, fields map[string]any) *export.Artifact {
	art, err := h.exporter.Build(res, cmd.DocType, cmd.Format)
	if err != nil {
		logger.WarnCF("bot", "Export failed", withStage(fields, "export", err))
		h.reply(ctx, s, chatID, exportErrorText(cmd.Format, err))
		return nil
	}
	if err := s.Transport.SendDocument(ctx, chatID, art.Path, art.Caption()); err != nil {
		logger.ErrorCF("bot", "Sending export failed", withStage(fields, "send_document", err))
		h.reply(ctx, s, chatID, fmt.Sprintf("❌ Error saat mengirim file: %v", err))
		return art
	}
	h.reply(ctx, s, chatID, art.Confirmation())
	return art
}

func exportErrorText(f export.Format, err error) string {
	switch {
	case errors.Is(err, export.ErrUnsupportedFormat):
		return fmt.Sprintf("❌ Format file '%s' tidak didukung. Gunakan 'txt', 'json' atau 'xlsx'.", f)
	case errors.Is(err, export.ErrNoParsedData):
		return fmt.Sprintf("❌ Format data tidak valid untuk konversi ke %s.", strings.ToUpper(string(f)))
	default:
		return fmt.Sprintf("❌ Error saat membuat file: %v", err)
	}
}

func (h *Handler) removeDownload(path string) {
	if h.cleanup == nil {
		return
	}
	if err := h.cleanup.Remove(path); err != nil {
		logger.WarnCF("bot", "Could not remove downloaded image", map[string]any{"path": path, "error": err.Error()})
	}
}

func (h *Handler) record(ctx context.Context, e history.Entry) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(ctx, e); err != nil {
		logger.WarnCF("bot", "History record failed", map[string]any{
			"stage":         "history",
			"document_type": e.DocumentType,
			"error":         err.Error(),
		})
	}
}

func (h *Handler) reply(ctx context.Context, s Session, chatID, text string) {
	if s.Transport == nil {
		return
	}
	if err := s.Transport.SendText(ctx, chatID, text); err != nil {
		logger.WarnCF("bot", "Reply failed", map[string]any{"chat_id": chatID, "error": err.Error()})
	}
}

func debugText(ev Event) string {
	ref := media.Classify(ev.Quoted)
	if ref.Present {
		return media.Describe(ref)
	}
	return fmt.Sprintf("Debug pesan tanpa reply:\nchannel: %s\nchat_id: %s\nsender_id: %s\nmessage_id: %s\ntext: %s\n",
		ev.Channel, ev.ChatID, ev.SenderID, ev.MessageID, ev.Text)
}

func commandLabel(cmd Command) string {
	if cmd.Kind == CommandExtract {
		return cmd.DocType.Label()
	}
	return cmd.Text
}

func withStage(fields map[string]any, stage string, err error) map[string]any {
	out := maps.Clone(fields)
	out["stage"] = stage
	out["error"] = err.Error()
	return out
}
