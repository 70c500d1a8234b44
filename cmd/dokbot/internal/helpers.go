package internal

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/tinyland-inc/dokbot/pkg/config"
	"github.com/tinyland-inc/dokbot/pkg/logger"
)

const Logo = "📄"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

func GetConfigPath() string {
	if p := os.Getenv("DOKBOT_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dokbot", "config.json")
}

// LoadConfig loads an optional .env from the working directory, then the
// JSON config with environment overrides.
func LoadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	return config.LoadConfig(GetConfigPath())
}

// SetupLogging applies the log section. debug forces DEBUG level.
func SetupLogging(cfg *config.Config, debug bool) {
	logger.SetFormat(cfg.Log.Format)
	if lvl, ok := logger.ParseLevel(cfg.Log.Level); ok {
		logger.SetLevel(lvl)
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}
}

// URLFetchClient is the HTTP client used by the url download strategy.
func URLFetchClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Media.URLFetchTimeout.Duration}
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

func GetVersion() string {
	return version
}
