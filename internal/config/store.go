package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Change describes one settings-change event. Keys holds the full store keys
// (namespace included) that changed.
type Change struct {
	Keys []string
}

// Affects reports whether the change touches the given store key or any key
// beneath it, mirroring the editor-style affects(section) predicate.
func (c Change) Affects(key string) bool {
	for _, k := range c.Keys {
		if k == key || strings.HasPrefix(k, key+".") {
			return true
		}
	}
	return false
}

// Store is the persisted settings backend. Keys are full store keys
// (namespace included). Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the persisted value for a key, if present.
	Get(key string) (any, bool)
	// Set persists a value at global scope.
	Set(key string, value any) error
	// Subscribe registers a change listener and returns an unsubscribe func.
	Subscribe(fn func(Change)) func()
	// Close releases any watch resources.
	Close() error
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]any
	subs   map[int]func(Change)
	nextID int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		values: make(map[string]any),
		subs:   make(map[int]func(Change)),
	}
}

// Get returns the stored value for key.
func (m *MemStore) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores a value and notifies subscribers synchronously.
func (m *MemStore) Set(key string, value any) error {
	m.mu.Lock()
	m.values[key] = value
	subs := m.snapshotSubs()
	m.mu.Unlock()

	ch := Change{Keys: []string{key}}
	for _, fn := range subs {
		fn(ch)
	}
	return nil
}

// SetSilently stores a value without notifying subscribers. Tests use it to
// simulate a stale cache against a drifted external store.
func (m *MemStore) SetSilently(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Subscribe registers a change listener.
func (m *MemStore) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close implements Store.
func (m *MemStore) Close() error { return nil }

func (m *MemStore) snapshotSubs() []func(Change) {
	subs := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

// FileStore persists settings as a TOML document and watches it with
// fsnotify so external edits surface as change events.
type FileStore struct {
	path string
	log  zerolog.Logger

	mu     sync.RWMutex
	doc    map[string]any // nested TOML document
	flat   map[string]any // flattened snapshot, dotted store keys
	subs   map[int]func(Change)
	nextID int

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// SettingsPath returns the default settings file location.
func SettingsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.toml"), nil
}

func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quill"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "quill"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "quill"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "quill"), nil
	default:
		return filepath.Join(home, ".config", "quill"), nil
	}
}

// OpenFileStore loads (or initializes) the TOML settings file at path and
// starts watching it for external changes.
func OpenFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		log:  log,
		doc:  make(map[string]any),
		flat: make(map[string]any),
		subs: make(map[int]func(Change)),
		done: make(chan struct{}),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating settings watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// a file watch would be lost on rename.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		w.Close()
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching settings directory: %w", err)
	}
	fs.watcher = w
	fs.wg.Add(1)
	go fs.watch()
	return fs, nil
}

// Get returns the persisted value for a store key.
func (f *FileStore) Get(key string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.flat[key]
	return v, ok
}

// Set persists a value and notifies subscribers synchronously. The watcher's
// echo of our own write produces an empty change set and is dropped.
func (f *FileStore) Set(key string, value any) error {
	if _, err := PathFromStoreKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	setNested(f.doc, strings.Split(key, "."), value)
	f.flat[key] = value
	data, err := toml.Marshal(f.doc)
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("encoding settings: %w", err)
	}
	subs := f.snapshotSubs()
	f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	ch := Change{Keys: []string{key}}
	for _, fn := range subs {
		fn(ch)
	}
	return nil
}

// Subscribe registers a change listener.
func (f *FileStore) Subscribe(fn func(Change)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Close stops the file watcher. Safe to call once.
func (f *FileStore) Close() error {
	close(f.done)
	var err error
	if f.watcher != nil {
		err = f.watcher.Close()
	}
	f.wg.Wait()
	return err
}

func (f *FileStore) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading settings: %w", err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing settings: %w", err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	f.mu.Lock()
	f.doc = doc
	f.flat = flatten(doc)
	f.mu.Unlock()
	return nil
}

// watch reloads the file on write events and emits a change event holding
// exactly the keys whose values differ from the previous snapshot.
func (f *FileStore) watch() {
	defer f.wg.Done()
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(f.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			f.reload()
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (f *FileStore) reload() {
	f.mu.RLock()
	old := f.flat
	f.mu.RUnlock()

	if err := f.load(); err != nil {
		// Previous snapshot stays in effect.
		f.log.Warn().Err(err).Str("path", f.path).Msg("settings reload failed, keeping previous values")
		return
	}

	f.mu.RLock()
	changed := diffKeys(old, f.flat)
	subs := f.snapshotSubs()
	f.mu.RUnlock()

	if len(changed) == 0 {
		return
	}
	ch := Change{Keys: changed}
	for _, fn := range subs {
		fn(ch)
	}
}

func (f *FileStore) snapshotSubs() []func(Change) {
	subs := make([]func(Change), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	return subs
}

// flatten converts a nested document into dotted keys. TOML integers arrive
// as int64; they are normalized to int so schema validation sees one type.
func flatten(doc map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", doc)
	return flat
}

func flattenInto(flat map[string]any, prefix string, node map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flattenInto(flat, key, child)
			continue
		}
		flat[key] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	if n, ok := v.(int64); ok {
		return int(n)
	}
	return v
}

func setNested(doc map[string]any, parts []string, value any) {
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// diffKeys returns the sorted set of keys whose values differ between two
// flattened snapshots, including keys added or removed.
func diffKeys(old, cur map[string]any) []string {
	var changed []string
	for k, v := range cur {
		if ov, ok := old[k]; !ok || !reflect.DeepEqual(ov, v) {
			changed = append(changed, k)
		}
	}
	for k := range old {
		if _, ok := cur[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
