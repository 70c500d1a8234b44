package internal

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/dokbot/pkg/bot"
	"github.com/tinyland-inc/dokbot/pkg/config"
	"github.com/tinyland-inc/dokbot/pkg/export"
	"github.com/tinyland-inc/dokbot/pkg/extractor"
	"github.com/tinyland-inc/dokbot/pkg/history"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/media"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

// Pipeline is the extraction stack shared by the gateway and the extract
// command.
type Pipeline struct {
	Dir     *workdir.Dir
	Handler *bot.Handler
	History *history.Store
}

// NewPipeline builds the working directory, resolver, backend client,
// export builder and history store from cfg. History is nil when disabled.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	dir, err := workdir.New(cfg.Media.WorkDir)
	if err != nil {
		return nil, err
	}

	resolver := media.NewResolver(dir, media.WithStrategies(
		media.DecodeStrategy{},
		media.DownloadAnyStrategy{},
		media.NewURLStrategy(URLFetchClient(cfg)),
		media.ThumbnailStrategy{},
	))

	client := extractor.NewClient(Endpoints(cfg), extractor.WithTimeout(cfg.Extractors.Timeout.Duration))

	p := &Pipeline{Dir: dir}
	opts := []bot.HandlerOption{}
	if cfg.Media.CleanupDownloads {
		opts = append(opts, bot.WithDownloadCleanup(dir))
	}
	if path := cfg.HistoryPath(); path != "" {
		store, err := history.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("error opening history: %w", err)
		}
		p.History = store
		opts = append(opts, bot.WithRecorder(store))
	}

	p.Handler = bot.NewHandler(resolver, client, export.NewBuilder(dir), opts...)
	return p, nil
}

func (p *Pipeline) Close() {
	if p.History == nil {
		return
	}
	if err := p.History.Close(); err != nil {
		logger.WarnCF("history", "Close failed", map[string]any{"error": err.Error()})
	}
}

// Endpoints converts the configured backend URLs to document types.
func Endpoints(cfg *config.Config) map[extractor.DocumentType]string {
	out := make(map[extractor.DocumentType]string)
	for name, url := range cfg.Extractors.Endpoints() {
		if dt, ok := extractor.ParseDocumentType(name); ok && url != "" {
			out[dt] = url
		}
	}
	return out
}
