package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/tinyland-inc/dokbot/cmd/dokbot/internal"
	"github.com/tinyland-inc/dokbot/pkg/bot"
	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/channels"
	"github.com/tinyland-inc/dokbot/pkg/config"
	"github.com/tinyland-inc/dokbot/pkg/health"
	"github.com/tinyland-inc/dokbot/pkg/janitor"
	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

func gatewayCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	internal.SetupLogging(cfg, debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline, err := internal.NewPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	channelManager, err := newChannelManager(cfg, msgBus)
	if err != nil {
		return fmt.Errorf("error creating channels: %w", err)
	}
	enabledChannels := channelManager.EnabledChannels()
	if len(enabledChannels) == 0 {
		return errors.New("no channels enabled, set channels.whatsapp or channels.telegram in the config")
	}
	fmt.Printf("✓ Channels enabled: %s\n", enabledChannels)

	var sweeper *janitor.Janitor
	if cfg.Janitor.Enabled {
		sweeper, err = janitor.New(pipeline.Dir, cfg.Janitor.Schedule, cfg.Janitor.MaxAge.Duration)
		if err != nil {
			return err
		}
		go func() {
			if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCF("janitor", "Janitor stopped", map[string]any{"error": err.Error()})
			}
		}()
		fmt.Printf("✓ Janitor scheduled (%s, max age %s)\n", cfg.Janitor.Schedule, cfg.Janitor.MaxAge.Duration)
	}

	if err := channelManager.StartAll(ctx); err != nil {
		return fmt.Errorf("error starting channels: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	healthServer := newHealthServer(cfg, pipeline, channelManager)
	go func() {
		if err := healthServer.Start(); err != nil {
			logger.ErrorCF("health", "Health server error", map[string]any{"error": err.Error()})
		}
	}()
	fmt.Printf("✓ Health endpoints available at http://%s/health and /ready\n", healthServer.Addr())

	loop := bot.NewLoop(msgBus, pipeline.Handler, channelManager)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(ctx)
	}()

	fmt.Printf("%s Gateway started. Press Ctrl+C to stop\n", internal.Logo)
	logger.InfoCF("gateway", "Gateway started", map[string]any{"channels": enabledChannels})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()
	<-loopDone
	_ = healthServer.Stop(context.Background())
	channelManager.StopAll(context.Background())
	fmt.Println("✓ Gateway stopped")

	return nil
}

// newChannelManager registers every enabled channel.
func newChannelManager(cfg *config.Config, mb *bus.MessageBus) (*channels.Manager, error) {
	m := channels.NewManager(mb)

	if cfg.Channels.WhatsApp.Enabled {
		wa, err := channels.NewWhatsAppChannel(cfg.Channels.WhatsApp, mb)
		if err != nil {
			return nil, err
		}
		m.Register(wa)
	}
	if cfg.Channels.Telegram.Enabled {
		tg, err := channels.NewTelegramChannel(cfg.Channels.Telegram, mb)
		if err != nil {
			return nil, err
		}
		m.Register(tg)
	}
	return m, nil
}

func newHealthServer(cfg *config.Config, p *internal.Pipeline, m *channels.Manager) *health.Server {
	s := health.NewServer(cfg.Gateway.Host, cfg.Gateway.Port)
	s.RegisterCheck("workdir", workdirCheck(p.Dir))
	if p.History != nil {
		s.RegisterCheck("history", p.History.Ping)
	}
	for _, name := range m.EnabledChannels() {
		s.RegisterCheck("channel:"+name, channelCheck(m, name))
	}
	return s
}

func workdirCheck(dir *workdir.Dir) health.Check {
	return func(context.Context) error {
		info, err := os.Stat(dir.Path())
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir.Path())
		}
		return nil
	}
}

func channelCheck(m *channels.Manager, name string) health.Check {
	return func(context.Context) error {
		ch, ok := m.Get(name)
		if !ok || !ch.IsRunning() {
			return fmt.Errorf("channel %s is not running", name)
		}
		return nil
	}
}
