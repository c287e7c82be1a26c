// Package storage lays out the on-disk work area: uploaded audio and
// images, generated subtitle files, and finished videos and covers.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Store struct {
	root string
}

// New creates the work-area directory tree under root.
func New(root string) (*Store, error) {
	for _, dir := range []string{"uploads", "subtitles", "videos", "covers"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s dir: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// SaveUpload writes an uploaded file under a fresh uuid name, keeping
// only a sanitized version of the original extension. The original base
// name is never trusted as a path component.
func (s *Store) SaveUpload(originalName string, r io.Reader) (string, error) {
	path := filepath.Join(s.root, "uploads", uuid.NewString()+safeExt(originalName))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: write upload: %w", err)
	}
	return path, nil
}

// WriteSubtitle persists serialized SRT content and returns its path.
func (s *Store) WriteSubtitle(content string) (string, error) {
	path := filepath.Join(s.root, "subtitles", uuid.NewString()+".srt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("storage: write subtitle: %w", err)
	}
	return path, nil
}

func (s *Store) VideoDir() string { return filepath.Join(s.root, "videos") }
func (s *Store) CoverDir() string { return filepath.Join(s.root, "covers") }

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
