package remote

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"storyquest/internal/domain/story"

	"github.com/sirupsen/logrus"
)

const cacheExt = ".b64"

// CacheStats summarises the narration cache on disk
type CacheStats struct {
	Directory string
	Files     int64
	SizeMB    float64
}

// CachedNarrator keeps synthesized narration on disk, one directory per backend and voice
type CachedNarrator struct {
	next    Narrator
	dir     string
	backend string
}

func NewCachedNarrator(next Narrator, dir, backend string) (*CachedNarrator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &CachedNarrator{next: next, dir: dir, backend: backend}, nil
}

// Path is where the narration of n is cached
func (c *CachedNarrator) Path(n story.Narration) string {
	key := md5Sum(n.Text + n.Voice)[:8]
	return filepath.Join(c.dir, c.backend, orDefault(n.Voice, "default"), key+cacheExt)
}

func (c *CachedNarrator) Narrate(ctx context.Context, n story.Narration) (string, error) {
	path := c.Path(n)
	if data, err := os.ReadFile(path); err == nil {
		payload := strings.TrimSpace(string(data))
		if _, err := base64.StdEncoding.DecodeString(payload); err == nil && payload != "" {
			logrus.WithField("path", path).Debug("Using cached narration")
			return payload, nil
		}
	}

	payload, err := c.next.Narrate(ctx, n)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create narration cache directory")
		return payload, nil
	}
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		logrus.WithError(err).Warn("Failed to cache narration")
		return payload, nil
	}

	logrus.WithField("path", path).Debug("Cached narration")
	return payload, nil
}

// Stats walks the cache directory
func (c *CachedNarrator) Stats() (CacheStats, error) {
	return DirStats(c.dir)
}

// Clear removes every cached narration
func (c *CachedNarrator) Clear() error {
	return os.RemoveAll(c.dir)
}

// DirStats reports cached narration files under dir
func DirStats(dir string) (CacheStats, error) {
	stats := CacheStats{Directory: dir}
	var size int64

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), cacheExt) {
			stats.Files++
			size += info.Size()
		}
		return nil
	})

	stats.SizeMB = float64(size) / (1024 * 1024)
	return stats, err
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}
