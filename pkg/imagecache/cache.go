// Package imagecache owns the on-disk image layout shared by capture, sync,
// and display: <DataRoot>/Sessions/<sessionId>/*.{jpg,jpeg,png}.
//
// Freshly captured images use timestamp names; images pulled down from the
// cloud keep their remote <sessionId>_img<N>.jpg names. Readers accept both.
package imagecache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const sessionsDirName = "Sessions"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Cache manages per-session image directories under a data root.
type Cache struct {
	root string
}

// New creates a cache rooted at the given data directory.
func New(root string) *Cache {
	return &Cache{root: root}
}

// Root returns the data root directory.
func (c *Cache) Root() string {
	return c.root
}

// Dir returns the image directory for a session. The directory may not exist.
func (c *Cache) Dir(sessionID string) string {
	return filepath.Join(c.root, sessionsDirName, sessionID)
}

// EnsureDir creates the session image directory, recursively if needed.
func (c *Cache) EnsureDir(sessionID string) (string, error) {
	dir := c.Dir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return dir, nil
}

// ListImages returns the session's image files sorted by name. A missing
// directory is not an error: it returns an empty list, same as an empty
// directory.
func (c *Cache) ListImages(sessionID string) ([]string, error) {
	dir := c.Dir(sessionID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if imageExtensions[ext] {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(images)
	return images, nil
}

// HasImages reports whether the session's local directory holds at least one
// image. This is the read-path threshold: a single leftover file counts as
// "present" and suppresses any remote fetch.
func (c *Cache) HasImages(sessionID string) (bool, error) {
	images, err := c.ListImages(sessionID)
	if err != nil {
		return false, err
	}
	return len(images) > 0, nil
}

// SaveCapture copies a captured image into the session directory under a
// timestamp-based name, the naming used by the capture flow.
func (c *Cache) SaveCapture(sessionID, srcPath string) (string, error) {
	dir, err := c.EnsureDir(sessionID)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(srcPath))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source image: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, fmt.Sprintf("IMG_%d%s", time.Now().UnixNano(), ext))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize image file: %w", err)
	}

	return dstPath, nil
}
