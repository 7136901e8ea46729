package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Reinitializer is implemented by AI providers that rebuild their vendor
// client when one of their settings changes.
type Reinitializer interface {
	ID() string
	Reinitialize() error
}

// Manager caches settings read from a Store and reacts to change events.
// It is constructed once at startup and passed to dependents; Dispose
// releases the store subscription.
type Manager struct {
	schema *Schema
	store  Store
	log    zerolog.Logger

	mu        sync.RWMutex
	cache     map[string]any // keyed by leaf path (namespace stripped)
	reinit    map[string]Reinitializer
	observers map[int]func(paths []string)
	nextObs   int

	unsubscribe func()
}

// NewManager creates a Manager bound to the given schema and store and
// subscribes to the store's change events.
func NewManager(schema *Schema, store Store, log zerolog.Logger) *Manager {
	m := &Manager{
		schema:    schema,
		store:     store,
		log:       log,
		cache:     make(map[string]any),
		reinit:    make(map[string]Reinitializer),
		observers: make(map[int]func(paths []string)),
	}
	m.unsubscribe = store.Subscribe(m.handleChange)
	return m
}

// Schema returns the schema the manager was built with.
func (m *Manager) Schema() *Schema { return m.schema }

// Dispose releases the store change subscription. The store itself is owned
// and closed by the caller.
func (m *Manager) Dispose() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Get returns the value for a leaf path. With useCache, a cached entry is
// returned when present; otherwise the store is re-read and, when caching,
// the result is stored. Unregistered paths yield (nil, false).
func (m *Manager) Get(path string, useCache bool) (any, bool) {
	leaf, ok := m.schema.Leaf(path)
	if !ok {
		return nil, false
	}

	if useCache {
		m.mu.RLock()
		v, hit := m.cache[path]
		m.mu.RUnlock()
		if hit {
			return v, true
		}
	}

	v := m.readLeaf(leaf)
	if useCache {
		m.mu.Lock()
		m.cache[path] = v
		m.mu.Unlock()
	}
	return v, true
}

// readLeaf resolves a leaf from the store, falling back to the schema
// default on a missing or type-invalid value.
func (m *Manager) readLeaf(leaf Leaf) any {
	v, ok := m.store.Get(StoreKey(leaf.Path))
	if !ok {
		return leaf.Default
	}
	if err := leaf.Validate(v); err != nil {
		m.log.Warn().Str("key", leaf.Path).Err(err).Msg("ignoring invalid setting value")
		return leaf.Default
	}
	return v
}

// GetString returns a string leaf via the cache.
func (m *Manager) GetString(path string) string {
	v, ok := m.Get(path, true)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetBool returns a boolean leaf via the cache.
func (m *Manager) GetBool(path string) bool {
	v, ok := m.Get(path, true)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetInt returns an integer leaf via the cache.
func (m *Manager) GetInt(path string) int {
	v, ok := m.Get(path, true)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

// Update validates and persists a value at global scope. The cache entry is
// refreshed through the store's change event, which both stores deliver
// synchronously.
func (m *Manager) Update(path string, value any) error {
	leaf, ok := m.schema.Leaf(path)
	if !ok {
		return fmt.Errorf("unknown setting: %s", path)
	}
	if err := leaf.Validate(value); err != nil {
		return err
	}
	return m.store.Set(StoreKey(path), value)
}

// RegisterProvider registers a provider for reinitialization dispatch. A
// change to any providers.<id>.* key triggers one Reinitialize call.
func (m *Manager) RegisterProvider(r Reinitializer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reinit[r.ID()] = r
}

// OnChange registers an observer invoked with the leaf paths refreshed by a
// change event. Returns an unsubscribe func.
func (m *Manager) OnChange(fn func(paths []string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// handleChange walks the schema, refreshes cache entries for leaves the
// event affects, then dispatches provider reinitialization and observers.
func (m *Manager) handleChange(ch Change) {
	var changed []string
	m.schema.WalkLeaves(func(leaf Leaf) {
		if !ch.Affects(StoreKey(leaf.Path)) {
			return
		}
		v := m.readLeaf(leaf)
		m.mu.Lock()
		m.cache[leaf.Path] = v
		m.mu.Unlock()
		changed = append(changed, leaf.Path)
	})
	if len(changed) == 0 {
		return
	}

	m.log.Debug().Strs("keys", changed).Msg("settings changed")

	for _, id := range providersAffected(changed) {
		m.mu.RLock()
		r, ok := m.reinit[id]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if err := r.Reinitialize(); err != nil {
			m.log.Error().Str("provider", id).Err(err).Msg("provider reinitialization failed")
		}
	}

	m.mu.RLock()
	observers := make([]func([]string), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.RUnlock()
	for _, fn := range observers {
		fn(changed)
	}
}

// providersAffected extracts the distinct provider ids named by changed
// providers.<id>.* paths, in sorted order.
func providersAffected(paths []string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range paths {
		rest, ok := strings.CutPrefix(p, "providers.")
		if !ok {
			continue
		}
		id, _, ok := strings.Cut(rest, ".")
		if !ok || id == "" {
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ProviderNames returns the distinct provider ids declared by the schema.
func (m *Manager) ProviderNames() []string {
	return providersAffected(m.schema.Paths())
}

// Validate checks each declared provider for usable credentials: at least
// one of apiKey or baseURL must be non-empty. Each failure names the
// settings key to fix.
func (m *Manager) Validate() []error {
	var errs []error
	for _, name := range m.ProviderNames() {
		apiKey := m.GetString("providers." + name + ".apiKey")
		baseURL := m.GetString("providers." + name + ".baseURL")
		if strings.TrimSpace(apiKey) == "" && strings.TrimSpace(baseURL) == "" {
			errs = append(errs, fmt.Errorf(
				"provider %s is not configured: set %s or %s",
				name,
				StoreKey("providers."+name+".apiKey"),
				StoreKey("providers."+name+".baseURL"),
			))
		}
	}
	return errs
}
