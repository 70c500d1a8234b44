package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/dokbot/pkg/bot"
	"github.com/tinyland-inc/dokbot/pkg/extractor"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestNewExtractCommand(t *testing.T) {
	cmd := NewExtractCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "extract [type] [image]", cmd.Use)
	assert.True(t, cmd.HasExample())
	assert.False(t, cmd.HasSubCommands())
	assert.NotNil(t, cmd.RunE)

	assert.NotNil(t, cmd.Flags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("debug"))

	assert.NoError(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"ktp", "a.jpg"}))
	assert.ErrorIs(t, cmd.Args(cmd, []string{"ktp"}), errMissingImage)
	assert.Error(t, cmd.Args(cmd, []string{"ktp", "a.jpg", "b.jpg"}))
}

func TestCommandText(t *testing.T) {
	assert.Equal(t, "ktp", commandText("ktp", ""))
	assert.Equal(t, "kk.xlsx", commandText("kk", "xlsx"))
	assert.Equal(t, "sim.json", commandText("sim", ".json"))
}

func TestLocalImage(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "ktp.png")
	require.NoError(t, os.WriteFile(img, pngHeader, 0o600))

	msg, err := localImage(img)
	require.NoError(t, err)
	assert.Equal(t, "image/png", msg.ImageMessage.String("mimetype"))
	assert.Equal(t, pngHeader, msg.ImageMessage.Bytes("data"))

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))
	_, err = localImage(notes)
	assert.Error(t, err)

	_, err = localImage(filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}

func TestExtractCmdOneShot(t *testing.T) {
	var got extractor.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"analysis":{"parsed":{"status":"success","nik":"123","nama":"Budi"}}}}`))
	}))
	defer srv.Close()

	root := t.TempDir()
	t.Setenv("DOKBOT_CONFIG", filepath.Join(root, "config.json"))
	t.Setenv("DOKBOT_EXTRACTORS_KTP_URL", srv.URL)
	t.Setenv("DOKBOT_MEDIA_WORK_DIR", filepath.Join(root, "media"))
	t.Setenv("DOKBOT_HISTORY_PATH", filepath.Join(root, "history.db"))

	img := filepath.Join(root, "scan.png")
	require.NoError(t, os.WriteFile(img, pngHeader, 0o600))

	var out bytes.Buffer
	require.NoError(t, extractCmd(context.Background(), &out, []string{"ktp", img}, "txt", false))

	assert.Equal(t, "process-ktp", got.Action)
	assert.Equal(t, "image/png", got.MimeType)

	text := out.String()
	assert.Contains(t, text, "📷 Mengunduh gambar KTP...")
	assert.Contains(t, text, "🔍 Mengekstrak data KTP...")
	assert.Contains(t, text, "Budi")
	assert.Contains(t, text, "📎 Hasil ekstraksi KTP - Budi (TXT): ")
	assert.Contains(t, text, "✅ File TXT hasil ekstraksi KTP untuk Budi telah dikirim.")

	exports, err := filepath.Glob(filepath.Join(root, "media", "ktp_Budi_*.txt"))
	require.NoError(t, err)
	assert.Len(t, exports, 1)
	downloads, err := filepath.Glob(filepath.Join(root, "media", "image_*"))
	require.NoError(t, err)
	assert.Empty(t, downloads, "resolved image is removed after extraction")
}

func TestRunOnceRejectsUnknownCommand(t *testing.T) {
	err := runOnce(context.Background(), bot.NewHandler(nil, nil, nil), &bytes.Buffer{}, "passport", "x.jpg")
	assert.ErrorContains(t, err, "passport")
}

func TestSimpleInteractiveMode(t *testing.T) {
	var out bytes.Buffer
	h := bot.NewHandler(nil, nil, nil)
	simpleInteractiveMode(context.Background(), h, &out, strings.NewReader("\nping\nexit\nping\n"))

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "pong"))
	assert.Contains(t, text, "Selesai.")
}
