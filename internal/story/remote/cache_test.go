package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storyquest/internal/domain/story"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedNarrator(t *testing.T) {
	dir := t.TempDir()
	next := &fakeNarrator{payload: "AAEC"}
	c, err := NewCachedNarrator(next, dir, "gemini")
	require.NoError(t, err)

	n := story.Narration{Text: "We fly over the castle", Voice: "Puck"}

	got, err := c.Narrate(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "AAEC", got)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, filepath.Join(dir, "gemini", "Puck"), filepath.Dir(c.Path(n)))
	assert.FileExists(t, c.Path(n))

	got, err = c.Narrate(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "AAEC", got)
	assert.Equal(t, 1, next.calls, "second call should be served from disk")

	_, err = c.Narrate(context.Background(), story.Narration{Text: "We fly over the castle", Voice: "Kore"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Files)
	assert.Equal(t, dir, stats.Directory)

	require.NoError(t, c.Clear())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCachedNarratorDoesNotCacheFailures(t *testing.T) {
	dir := t.TempDir()
	next := &fakeNarrator{err: errors.New("unavailable")}
	c, err := NewCachedNarrator(next, dir, "openai")
	require.NoError(t, err)

	n := story.Narration{Text: "hello", Voice: "Kore"}
	_, err = c.Narrate(context.Background(), n)
	assert.Error(t, err)
	assert.NoFileExists(t, c.Path(n))
}

func TestDirStatsMissingDir(t *testing.T) {
	stats, err := DirStats(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Zero(t, stats.Files)
}
