package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Duration reads "30s" style strings, or plain numbers as seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		d.Duration = time.Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.UnmarshalText([]byte(s))
	}
	return d.UnmarshalText(data)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Channels   ChannelsConfig   `json:"channels"`
	Extractors ExtractorsConfig `json:"extractors"`
	Media      MediaConfig      `json:"media"`
	History    HistoryConfig    `json:"history"`
	Janitor    JanitorConfig    `json:"janitor"`
	Gateway    GatewayConfig    `json:"gateway"`
	Log        LogConfig        `json:"log"`
}

type ChannelsConfig struct {
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Telegram TelegramConfig `json:"telegram"`
}

type WhatsAppConfig struct {
	Enabled   bool                `env:"DOKBOT_CHANNELS_WHATSAPP_ENABLED"    json:"enabled"`
	BridgeURL string              `env:"DOKBOT_CHANNELS_WHATSAPP_BRIDGE_URL" json:"bridge_url"`
	AllowFrom FlexibleStringSlice `env:"DOKBOT_CHANNELS_WHATSAPP_ALLOW_FROM" json:"allow_from"`
}

type TelegramConfig struct {
	Enabled   bool                `env:"DOKBOT_CHANNELS_TELEGRAM_ENABLED"    json:"enabled"`
	Token     string              `env:"DOKBOT_CHANNELS_TELEGRAM_TOKEN"      json:"token"`
	AllowFrom FlexibleStringSlice `env:"DOKBOT_CHANNELS_TELEGRAM_ALLOW_FROM" json:"allow_from"`
}

// ExtractorsConfig holds one backend URL per document type.
type ExtractorsConfig struct {
	KTPURL    string   `env:"DOKBOT_EXTRACTORS_KTP_URL"    json:"ktp_url"`
	KKURL     string   `env:"DOKBOT_EXTRACTORS_KK_URL"     json:"kk_url"`
	IjazahURL string   `env:"DOKBOT_EXTRACTORS_IJAZAH_URL" json:"ijazah_url"`
	SIMURL    string   `env:"DOKBOT_EXTRACTORS_SIM_URL"    json:"sim_url"`
	Timeout   Duration `env:"DOKBOT_EXTRACTORS_TIMEOUT"    json:"timeout"` // 0 means no timeout
}

// Endpoints maps document type tokens to backend URLs.
func (e ExtractorsConfig) Endpoints() map[string]string {
	return map[string]string{
		"ktp":    e.KTPURL,
		"kk":     e.KKURL,
		"ijazah": e.IjazahURL,
		"sim":    e.SIMURL,
	}
}

type MediaConfig struct {
	WorkDir          string   `env:"DOKBOT_MEDIA_WORK_DIR"          json:"work_dir"`
	URLFetchTimeout  Duration `env:"DOKBOT_MEDIA_URL_FETCH_TIMEOUT" json:"url_fetch_timeout"`
	CleanupDownloads bool     `env:"DOKBOT_MEDIA_CLEANUP_DOWNLOADS" json:"cleanup_downloads"`
}

type HistoryConfig struct {
	Path string `env:"DOKBOT_HISTORY_PATH" json:"path"` // empty disables history
}

type JanitorConfig struct {
	Enabled  bool     `env:"DOKBOT_JANITOR_ENABLED"  json:"enabled"`
	Schedule string   `env:"DOKBOT_JANITOR_SCHEDULE" json:"schedule"`
	MaxAge   Duration `env:"DOKBOT_JANITOR_MAX_AGE"  json:"max_age"`
}

type GatewayConfig struct {
	Host string `env:"DOKBOT_GATEWAY_HOST" json:"host"`
	Port int    `env:"DOKBOT_GATEWAY_PORT" json:"port"`
}

type LogConfig struct {
	Level  string `env:"DOKBOT_LOG_LEVEL"  json:"level"`
	Format string `env:"DOKBOT_LOG_FORMAT" json:"format"` // text or json
}

func DefaultConfig() *Config {
	return &Config{
		Media: MediaConfig{
			WorkDir:          "temp_media",
			URLFetchTimeout:  Duration{30 * time.Second},
			CleanupDownloads: true,
		},
		History: HistoryConfig{
			Path: "~/.dokbot/history.db",
		},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: "@hourly",
			MaxAge:   Duration{24 * time.Hour},
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 18790,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads path over the defaults and applies DOKBOT_* environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks backend URLs, the media fetch timeout and the janitor
// schedule.
func (c *Config) Validate() error {
	for name, raw := range c.Extractors.Endpoints() {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("extractors.%s_url: %q is not an http(s) URL", name, raw)
		}
	}
	if c.Janitor.Enabled && !gronx.New().IsValid(c.Janitor.Schedule) {
		return fmt.Errorf("janitor.schedule: invalid cron expression %q", c.Janitor.Schedule)
	}
	if c.Media.URLFetchTimeout.Duration <= 0 {
		return fmt.Errorf("media.url_fetch_timeout must be positive")
	}
	if c.Janitor.MaxAge.Duration < 0 {
		return fmt.Errorf("janitor.max_age must not be negative")
	}
	return nil
}

// HistoryPath returns the history database path with ~ expanded.
func (c *Config) HistoryPath() string {
	return expandHome(c.History.Path)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
