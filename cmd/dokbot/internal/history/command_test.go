package history

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/dokbot/pkg/history"
)

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "history", cmd.Use)
	assert.True(t, cmd.HasExample())
	assert.NotNil(t, cmd.RunE)

	limit := cmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
	assert.Equal(t, "n", limit.Shorthand)
}

func TestPrintEntries(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, printEntries(&empty, nil))
	assert.Equal(t, "No extractions recorded yet.\n", empty.String())

	var out bytes.Buffer
	require.NoError(t, printEntries(&out, []history.Entry{
		{Channel: "whatsapp", DocumentType: "ktp", Status: "success", Code: 200, OwnerName: "Budi", CreatedAt: time.Now()},
		{Channel: "telegram", DocumentType: "sim", Status: "error", Code: 502, CreatedAt: time.Now()},
	}))
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "OWNER")
	assert.Contains(t, string(lines[1]), "Budi")
	assert.Contains(t, string(lines[2]), "502")
}

func TestHistoryCommandReadsStore(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "history.db")
	t.Setenv("DOKBOT_CONFIG", filepath.Join(root, "config.json"))
	t.Setenv("DOKBOT_HISTORY_PATH", dbPath)

	store, err := history.Open(context.Background(), dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), history.Entry{
		Channel: "cli", DocumentType: "kk", Status: "success", Code: 200, OwnerName: "Siti",
	}))
	require.NoError(t, store.Close())

	cmd := NewHistoryCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--limit", "5"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Siti")
}
