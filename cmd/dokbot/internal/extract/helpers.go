package extract

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/gabriel-vasile/mimetype"

	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal"
	"github.com/tinyland-inc/dokbot/pkg/bot"
	"github.com/tinyland-inc/dokbot/pkg/export"
	"github.com/tinyland-inc/dokbot/pkg/media"
)

var errMissingImage = errors.New("an image path is required after the document type")

// consoleTransport prints replies instead of sending them to a chat.
type consoleTransport struct {
	w io.Writer
}

func (t consoleTransport) SendText(_ context.Context, _, text string) error {
	_, err := fmt.Fprintln(t.w, text)
	return err
}

func (t consoleTransport) SendDocument(_ context.Context, _, path, caption string) error {
	_, err := fmt.Fprintf(t.w, "📎 %s: %s\n", caption, path)
	return err
}

func extractCmd(ctx context.Context, w io.Writer, args []string, format string, debug bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	internal.SetupLogging(cfg, debug)

	p, err := internal.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if len(args) == 2 {
		return runOnce(ctx, p.Handler, w, commandText(args[0], format), args[1])
	}

	fmt.Fprintf(w, "%s Interactive mode (Ctrl+C to exit)\n\n", internal.Logo)
	interactiveMode(ctx, p.Handler, w)
	return nil
}

// commandText builds the chat command for a type token and export format.
func commandText(docType, format string) string {
	if format == "" {
		return docType
	}
	return docType + "." + strings.TrimPrefix(format, ".")
}

func runOnce(ctx context.Context, h *bot.Handler, w io.Writer, text, imagePath string) error {
	cmd := bot.ParseCommand(text)
	if cmd.Kind != bot.CommandExtract {
		return fmt.Errorf("unknown document command %q (use ktp, kk, ijazah or sim with an optional %s suffix)",
			text, formatList())
	}

	quoted, err := localImage(imagePath)
	if err != nil {
		return err
	}

	h.Handle(ctx, bot.Session{
		Transport: consoleTransport{w: w},
		Media:     media.Capabilities{Decoder: media.InlineDecoder{}},
	}, bot.Event{
		Channel:  "cli",
		ChatID:   "local",
		SenderID: "local",
		Text:     text,
		Quoted:   quoted,
	})
	return nil
}

// localImage wraps a file as an inline image message.
func localImage(path string) (*media.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", filepath.Base(path), mt.String())
	}
	return &media.Message{ImageMessage: media.Payload{
		"data":     base64.StdEncoding.EncodeToString(data),
		"mimetype": mt.String(),
		"fileName": filepath.Base(path),
	}}, nil
}

func formatList() string {
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = "." + string(f)
	}
	return strings.Join(names, "/")
}

func interactiveMode(ctx context.Context, h *bot.Handler, w io.Writer) {
	prompt := fmt.Sprintf("%s > ", internal.Logo)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".dokbot_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          w,
	})
	if err != nil {
		fmt.Fprintf(w, "Error initializing readline: %v\n", err)
		fmt.Fprintln(w, "Falling back to simple input mode...")
		simpleInteractiveMode(ctx, h, w, os.Stdin)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(w, "\nSelesai.")
				return
			}
			fmt.Fprintf(w, "Error reading input: %v\n", err)
			continue
		}
		if !handleLine(ctx, h, w, line) {
			return
		}
	}
}

func simpleInteractiveMode(ctx context.Context, h *bot.Handler, w io.Writer, in io.Reader) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(w, "%s > ", internal.Logo)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(w, "\nSelesai.")
				return
			}
			fmt.Fprintf(w, "Error reading input: %v\n", err)
			return
		}
		if !handleLine(ctx, h, w, line) {
			return
		}
	}
}

// handleLine runs one "<command> <image>" line. It returns false on exit.
func handleLine(ctx context.Context, h *bot.Handler, w io.Writer, line string) bool {
	input := strings.TrimSpace(line)
	switch input {
	case "":
		return true
	case "exit", "quit":
		fmt.Fprintln(w, "Selesai.")
		return false
	}

	command, imagePath, ok := strings.Cut(input, " ")
	if !ok {
		// ping, help and friends need no image
		h.Handle(ctx, bot.Session{Transport: consoleTransport{w: w}}, bot.Event{Channel: "cli", ChatID: "local", Text: input})
		return true
	}
	if err := runOnce(ctx, h, w, command, strings.TrimSpace(imagePath)); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	fmt.Fprintln(w)
	return true
}
