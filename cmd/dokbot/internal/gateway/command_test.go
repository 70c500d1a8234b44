package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/dokbot/pkg/bus"
	"github.com/tinyland-inc/dokbot/pkg/config"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

func TestNewGatewayCommand(t *testing.T) {
	cmd := NewGatewayCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "gateway", cmd.Use)
	assert.Equal(t, []string{"g"}, cmd.Aliases)
	assert.False(t, cmd.HasSubCommands())
	assert.Nil(t, cmd.Run)
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}

func TestNewChannelManager(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()

	cfg := config.DefaultConfig()
	m, err := newChannelManager(cfg, mb)
	require.NoError(t, err)
	assert.Empty(t, m.EnabledChannels())

	cfg.Channels.WhatsApp.Enabled = true
	_, err = newChannelManager(cfg, mb)
	assert.Error(t, err, "bridge_url is required")

	cfg.Channels.WhatsApp.BridgeURL = "ws://127.0.0.1:3001/ws"
	m, err = newChannelManager(cfg, mb)
	require.NoError(t, err)
	assert.Equal(t, []string{"whatsapp"}, m.EnabledChannels())

	// registered but not started
	assert.Error(t, channelCheck(m, "whatsapp")(context.Background()))
	assert.Error(t, channelCheck(m, "telegram")(context.Background()))
}

func TestWorkdirCheck(t *testing.T) {
	root := t.TempDir()
	dir, err := workdir.New(filepath.Join(root, "media"))
	require.NoError(t, err)

	check := workdirCheck(dir)
	assert.NoError(t, check(context.Background()))

	require.NoError(t, os.RemoveAll(dir.Path()))
	assert.Error(t, check(context.Background()))
}
