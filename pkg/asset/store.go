// Package asset persists transformed payloads into the local output
// directory served to the canvas.
//
// The store is a flat directory. Filenames are deterministic per
// (cell, output) key, so re-running a cell overwrites its previous
// assets in place; the file server picks up the new bytes on the next
// fetch. Nothing here garbage-collects beyond the session-start clear.
package asset

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ovecast/ovecast/pkg/content"
	"github.com/ovecast/ovecast/pkg/errors"
)

// Store writes assets into an output directory and derives their public
// URLs from the configured host.
type Store struct {
	dir  string
	host string
}

// NewStore creates the output directory if needed and returns a store
// whose URLs are rooted at host (e.g. "http://localhost:8000").
func NewStore(dir, host string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Store{dir: dir, host: strings.TrimRight(host, "/")}, nil
}

// Dir returns the output directory path.
func (s *Store) Dir() string { return s.dir }

// Clear removes every file in the output directory. Used on session
// start when remove-on-start is set; subdirectories are left alone.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Write persists one output payload and returns its filename, or the
// payload itself when it already is an externally served URL.
//
// Three payload shapes are accepted: an external URL (returned
// unchanged, nothing written), a local filesystem path (copied into the
// store under the deterministic name), and inline content (decoded or
// serialized per content kind). Media kinds must arrive as URLs; raw
// media bytes are rejected.
func (s *Store) Write(data string, cellNo, outputIndex int, dt content.DataType) (string, error) {
	if strings.HasPrefix(data, "http") {
		return data, nil
	}
	if looksLikePath(data) {
		return s.copyLocal(data, cellNo, outputIndex)
	}
	if dt.IsMedia() {
		return "", errors.New(errors.ErrCodeUnsupportedData, "raw media not supported")
	}

	ext, err := dt.FileExt()
	if err != nil {
		return "", err
	}
	filename := Filename(cellNo, outputIndex, ext)

	payload := []byte(data)
	if dt == content.PNG || dt == content.JPEG {
		payload, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeUnsupportedData, err, "decode %s payload", dt)
		}
	}

	if err := os.WriteFile(filepath.Join(s.dir, filename), payload, 0o644); err != nil {
		return "", fmt.Errorf("write asset %s: %w", filename, err)
	}
	return filename, nil
}

// URL returns the public URL for an asset filename. Filenames that
// already are absolute URLs (external media) pass through.
func (s *Store) URL(filename string) string {
	if strings.HasPrefix(filename, "http") {
		return filename
	}
	return s.host + "/" + filename
}

// EnsureMarkdownCSS writes the markdown stylesheet next to the assets
// once per session. Markdown documents link it by relative name.
func (s *Store) EnsureMarkdownCSS() error {
	path := filepath.Join(s.dir, "markdown.css")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, content.MarkdownCSS(), 0o644)
}

// WriteDocument writes a generated artifact (project.json, controller
// and overview pages) into the output directory.
func (s *Store) WriteDocument(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// Filename is the deterministic asset name for one (cell, output) key.
func Filename(cellNo, outputIndex int, ext string) string {
	return fmt.Sprintf("cell-%d-%d.%s", cellNo, outputIndex, ext)
}

// copyLocal copies a payload that names a local file into the store,
// keeping the source's extension.
func (s *Store) copyLocal(path string, cellNo, outputIndex int) (string, error) {
	parts := strings.Split(path, ".")
	ext := parts[len(parts)-1]
	filename := Filename(cellNo, outputIndex, ext)

	src, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnsupportedData, err, "open local asset %s", path)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("create asset %s: %w", filename, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy asset %s: %w", filename, err)
	}
	return filename, nil
}

// looksLikePath reports whether the payload names a local file rather
// than carrying inline content.
func looksLikePath(data string) bool {
	if strings.ContainsAny(data, "\n<>{") {
		return false
	}
	return strings.HasPrefix(data, ".") || strings.HasPrefix(data, "/")
}
