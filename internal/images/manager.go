// Package images manages the flat directory that item photos and custom
// icons are stored in.
package images

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidFilename is returned when a filename would escape the managed
// directory or create a subdirectory in it.
var ErrInvalidFilename = errors.New("invalid image filename")

// Manager copies images into, and deletes images from, one managed directory.
// Only paths under that directory are ever deleted.
type Manager struct {
	prefix string
	remove func(path string) error
}

// New returns a Manager for dir. The directory is created lazily.
func New(dir string) (*Manager, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving image directory: %w", err)
	}
	return &Manager{
		prefix: abs + string(filepath.Separator),
		remove: os.Remove,
	}, nil
}

// Dir returns the managed directory, always ending in a path separator.
func (m *Manager) Dir() string {
	return m.prefix
}

// EnsureDirectory creates the managed directory and any missing parents.
func (m *Manager) EnsureDirectory() error {
	if err := os.MkdirAll(m.prefix, 0o755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}
	return nil
}

// SaveImage copies src into the managed directory as filename and returns
// the new path. An existing file with the same name is replaced.
func (m *Manager) SaveImage(src, filename string) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", err
	}
	if err := m.EnsureDirectory(); err != nil {
		return "", err
	}

	dest := m.prefix + filename

	if _, err := os.Stat(dest); err == nil {
		if err := m.deleteFile(dest); err != nil {
			return "", fmt.Errorf("replacing existing image: %w", err)
		}
	}

	if err := copyFile(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// DeleteImage removes path if it lies inside the managed directory.
// Empty paths and paths elsewhere (preset tokens, foreign files) are ignored.
// A file that is already gone is not an error.
func (m *Manager) DeleteImage(path string) error {
	if path == "" {
		return nil
	}
	if !m.Owns(path) {
		return nil
	}
	return m.deleteFile(path)
}

// Owns reports whether path names a file inside the managed directory.
func (m *Manager) Owns(path string) bool {
	if !strings.HasPrefix(path, m.prefix) {
		return false
	}
	// "dir/../elsewhere" starts with the prefix but points outside it.
	return strings.HasPrefix(filepath.Clean(path), m.prefix)
}

func (m *Manager) deleteFile(path string) error {
	if err := m.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}

func validateFilename(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

func copyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source image: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dest)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copying image: %w", err)
	}
	if err = out.Sync(); err != nil {
		return fmt.Errorf("syncing image: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("closing image file: %w", err)
	}
	return nil
}

// LocationFilename names the location photo of a newly added item.
func LocationFilename() string {
	return "loc_" + uuid.NewString() + ".jpg"
}

// UpdateFilename names a replacement location photo for an existing item.
// The timestamp makes every replacement a new file.
func UpdateFilename(itemID string, now time.Time) string {
	return fmt.Sprintf("location_%s_%d.jpg", itemID, now.UnixMilli())
}

// IconFilename names a custom icon image.
func IconFilename() string {
	return "icon_" + uuid.NewString() + ".jpg"
}
