// Package workdir manages the flat working directory that holds downloaded
// media and generated export files.
package workdir

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPath is used when no working directory is configured.
const DefaultPath = "temp_media"

type Dir struct {
	path string
}

// New creates the directory if needed.
func New(path string) (*Dir, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string {
	return d.path
}

// SaveTemp writes data to "<prefix>_<8 hex chars><ext>" and returns the path.
func (d *Dir) SaveTemp(prefix, ext string, data []byte) (string, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return "", err
	}
	return d.WriteFile(prefix+"_"+suffix+ext, data)
}

// WriteFile writes data under name. Names containing path separators are
// rejected so every file stays directly inside the directory.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(d.path, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Join returns the path a file called name would have.
func (d *Dir) Join(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(d.path, name), nil
}

// Remove deletes a file that lives inside the directory. Missing files are
// not an error.
func (d *Dir) Remove(path string) error {
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(d.path) {
		return fmt.Errorf("refusing to remove %s outside %s", path, d.path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Entry is a regular file found in the directory.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns the regular files in the directory.
func (d *Dir) List() ([]Entry, error) {
	des, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(d.path, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("file name is required")
	}
	if strings.ContainsAny(trimmed, "/\\") || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("file name %q must not contain path separators", name)
	}
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random suffix: %w", err)
	}
	return hex.EncodeToString(b), nil
}
