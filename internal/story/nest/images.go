package nest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"storyquest/internal/story/adventure"

	"github.com/sirupsen/logrus"
)

// imageSaver writes each turn's scene to dir as turn-<n>.jpg
type imageSaver struct {
	dir   string
	mu    sync.Mutex
	saved map[int]string
}

func newImageSaver(dir string) *imageSaver {
	return &imageSaver{dir: dir, saved: make(map[int]string)}
}

// Observe is an adventure observer; it may be called from several goroutines
func (s *imageSaver) Observe(snap adventure.Snapshot) {
	if len(snap.Image) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saved[snap.Turn]; ok {
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create image directory")
		return
	}
	path := filepath.Join(s.dir, fmt.Sprintf("turn-%d.jpg", snap.Turn))
	if err := os.WriteFile(path, snap.Image, 0644); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Failed to save scene image")
		return
	}

	logrus.WithField("path", path).Debug("Saved scene image")
	s.saved[snap.Turn] = path
}

// Path returns where the image of a turn was saved
func (s *imageSaver) Path(turn int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.saved[turn]
	return p, ok
}
