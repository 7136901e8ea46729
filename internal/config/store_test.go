package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeAffects(t *testing.T) {
	ch := Change{Keys: []string{"quill.providers.openai.apiKey"}}

	assert.True(t, ch.Affects("quill.providers.openai.apiKey"))
	assert.True(t, ch.Affects("quill.providers.openai"))
	assert.True(t, ch.Affects("quill.providers"))
	assert.True(t, ch.Affects("quill"))
	assert.False(t, ch.Affects("quill.providers.ollama"))
	assert.False(t, ch.Affects("quill.providers.openai.apiKeyBackup"))
}

func TestFileStoreSetAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	fs, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer fs.Close()

	require.NoError(t, fs.Set("quill.base.provider", "ollama"))
	v, ok := fs.Get("quill.base.provider")
	require.True(t, ok)
	assert.Equal(t, "ollama", v)

	// Reopen: the value survived as TOML.
	fs2, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer fs2.Close()
	v, ok = fs2.Get("quill.base.provider")
	require.True(t, ok)
	assert.Equal(t, "ollama", v)
}

func TestFileStoreRejectsForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	fs, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer fs.Close()

	assert.Error(t, fs.Set("editor.fontSize", 14))
}

func TestFileStoreSetNotifiesSubscribers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	fs, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer fs.Close()

	var got []Change
	unsub := fs.Subscribe(func(ch Change) { got = append(got, ch) })
	defer unsub()

	require.NoError(t, fs.Set("quill.base.language", "German"))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"quill.base.language"}, got[0].Keys)
}

func TestFileStoreWatchesExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[quill.base]\nlanguage = \"English\"\n"), 0o600))

	fs, err := OpenFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer fs.Close()

	changes := make(chan Change, 1)
	unsub := fs.Subscribe(func(ch Change) { changes <- ch })
	defer unsub()

	require.NoError(t, os.WriteFile(path, []byte("[quill.base]\nlanguage = \"German\"\n"), 0o600))

	select {
	case ch := <-changes:
		assert.Equal(t, []string{"quill.base.language"}, ch.Keys)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event after external edit")
	}

	v, ok := fs.Get("quill.base.language")
	require.True(t, ok)
	assert.Equal(t, "German", v)
}

// lockedBuffer lets the watcher goroutine log while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFileStoreLogsFailedReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[quill.base]\nlanguage = \"English\"\n"), 0o600))

	var buf lockedBuffer
	fs, err := OpenFileStore(path, zerolog.New(&buf))
	require.NoError(t, err)
	defer fs.Close()

	// A malformed external edit must be surfaced, not dropped.
	require.NoError(t, os.WriteFile(path, []byte("[quill.base\nbroken"), 0o600))

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "settings reload failed")
	}, 5*time.Second, 10*time.Millisecond)

	// The previous snapshot stays in effect.
	v, ok := fs.Get("quill.base.language")
	require.True(t, ok)
	assert.Equal(t, "English", v)
}

func TestFlattenNormalizesIntegers(t *testing.T) {
	flat := flatten(map[string]any{
		"quill": map[string]any{
			"features": map[string]any{
				"review": map[string]any{"concurrency": int64(8)},
			},
		},
	})
	assert.Equal(t, 8, flat["quill.features.review.concurrency"])
}

func TestDiffKeys(t *testing.T) {
	old := map[string]any{"a": 1, "b": "x", "c": true}
	cur := map[string]any{"a": 1, "b": "y", "d": "new"}

	assert.Equal(t, []string{"b", "c", "d"}, diffKeys(old, cur))
}
