package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *MemStore) {
	t.Helper()
	store := NewMemStore()
	m := NewManager(Default(), store, zerolog.Nop())
	t.Cleanup(m.Dispose)
	return m, store
}

func TestGetFallsBackToDefault(t *testing.T) {
	m, _ := newTestManager(t)

	v, ok := m.Get("base.language", true)
	require.True(t, ok)
	assert.Equal(t, "English", v)
}

func TestGetUnknownPath(t *testing.T) {
	m, _ := newTestManager(t)

	_, ok := m.Get("base.nonexistent", true)
	assert.False(t, ok)
}

func TestChangeRefreshesOnlyAffectedKeys(t *testing.T) {
	m, store := newTestManager(t)

	// Prime the cache.
	assert.Equal(t, "openai", m.GetString("base.provider"))
	assert.Equal(t, "English", m.GetString("base.language"))

	// Drift both keys silently, then announce only one.
	store.SetSilently(StoreKey("base.provider"), "ollama")
	store.SetSilently(StoreKey("base.language"), "German")
	require.NoError(t, store.Set(StoreKey("base.provider"), "ollama"))

	assert.Equal(t, "ollama", m.GetString("base.provider"))
	// Unannounced key keeps its cached value.
	assert.Equal(t, "English", m.GetString("base.language"))
}

func TestUncachedGetSeesStoreDrift(t *testing.T) {
	m, store := newTestManager(t)

	assert.Equal(t, "English", m.GetString("base.language"))
	store.SetSilently(StoreKey("base.language"), "French")

	v, ok := m.Get("base.language", false)
	require.True(t, ok)
	assert.Equal(t, "French", v)
	// The cached path is untouched by an uncached read.
	assert.Equal(t, "English", m.GetString("base.language"))
}

func TestUpdateValidatesAndRefreshesCache(t *testing.T) {
	m, _ := newTestManager(t)

	assert.Equal(t, "openai", m.GetString("base.provider"))

	require.NoError(t, m.Update("base.provider", "anthropic"))
	assert.Equal(t, "anthropic", m.GetString("base.provider"))

	assert.Error(t, m.Update("base.provider", "gemini"), "enum outside set")
	assert.Error(t, m.Update("base.unknown", "x"), "unregistered path")
	assert.Error(t, m.Update("features.review.concurrency", "four"), "wrong type")
}

func TestInvalidStoredValueFallsBackToDefault(t *testing.T) {
	m, store := newTestManager(t)

	store.SetSilently(StoreKey("features.review.concurrency"), "lots")
	assert.Equal(t, 4, m.GetInt("features.review.concurrency"))
}

type stubReinit struct {
	id    string
	calls int
}

func (s *stubReinit) ID() string { return s.id }
func (s *stubReinit) Reinitialize() error {
	s.calls++
	return nil
}

func TestProviderReinitDispatch(t *testing.T) {
	m, store := newTestManager(t)

	openai := &stubReinit{id: "openai"}
	ollama := &stubReinit{id: "ollama"}
	m.RegisterProvider(openai)
	m.RegisterProvider(ollama)

	require.NoError(t, store.Set(StoreKey("providers.openai.apiKey"), "sk-test"))
	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 0, ollama.calls)

	// Non-provider change triggers nobody.
	require.NoError(t, store.Set(StoreKey("base.language"), "Spanish"))
	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 0, ollama.calls)
}

func TestOnChangeObserver(t *testing.T) {
	m, store := newTestManager(t)

	var got []string
	unsub := m.OnChange(func(paths []string) { got = append(got, paths...) })

	require.NoError(t, store.Set(StoreKey("features.diffSimplification.enabled"), true))
	assert.Equal(t, []string{"features.diffSimplification.enabled"}, got)

	unsub()
	require.NoError(t, store.Set(StoreKey("features.diffSimplification.enabled"), false))
	assert.Len(t, got, 1)
}

func TestDisposeStopsChangeReaction(t *testing.T) {
	store := NewMemStore()
	m := NewManager(Default(), store, zerolog.Nop())

	assert.Equal(t, "openai", m.GetString("base.provider"))
	m.Dispose()

	require.NoError(t, store.Set(StoreKey("base.provider"), "ollama"))
	assert.Equal(t, "openai", m.GetString("base.provider"), "cache frozen after dispose")
}

func TestSettingsMaterialization(t *testing.T) {
	m, store := newTestManager(t)

	require.NoError(t, store.Set(StoreKey("base.model"), "gpt-4o-mini"))
	require.NoError(t, store.Set(StoreKey("providers.anthropic.apiKey"), "sk-ant"))

	s := m.Settings()
	assert.Equal(t, "openai", s.Base.Provider)
	assert.Equal(t, "gpt-4o-mini", s.Base.Model)
	assert.Equal(t, "sk-ant", s.Providers["anthropic"].APIKey)
	assert.Equal(t, 3, s.Features.DiffSimplification.ContextLines)
	assert.True(t, s.Features.RedactSecrets)
}

func TestSettingsSynthesizesSystemPrompt(t *testing.T) {
	m, store := newTestManager(t)

	s := m.Settings()
	assert.Contains(t, s.Base.SystemPrompt, "Conventional Commits")
	assert.Contains(t, s.Base.SystemPrompt, "English")

	require.NoError(t, store.Set(StoreKey("base.commitFormat"), "plain"))
	require.NoError(t, store.Set(StoreKey("base.language"), "Japanese"))
	s = m.Settings()
	assert.NotContains(t, s.Base.SystemPrompt, "Conventional Commits")
	assert.Contains(t, s.Base.SystemPrompt, "Japanese")

	require.NoError(t, store.Set(StoreKey("base.systemPrompt"), "You are a pirate."))
	s = m.Settings()
	assert.Equal(t, "You are a pirate.", s.Base.SystemPrompt)
}

func TestModelFor(t *testing.T) {
	m, store := newTestManager(t)

	s := m.Settings()
	assert.Equal(t, "gpt-4o", s.ModelFor("openai"))
	assert.Equal(t, "llama3.3", s.ModelFor("ollama"))

	require.NoError(t, store.Set(StoreKey("base.model"), "override-model"))
	s = m.Settings()
	assert.Equal(t, "override-model", s.ModelFor("openai"))
}

func TestValidateRequiresCredentials(t *testing.T) {
	m, store := newTestManager(t)

	// Defaults: openai, ollama, anthropic all carry a default baseURL.
	assert.Empty(t, m.Validate())

	require.NoError(t, store.Set(StoreKey("providers.openai.baseURL"), ""))
	errs := m.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "openai")

	require.NoError(t, store.Set(StoreKey("providers.openai.apiKey"), "sk-test"))
	assert.Empty(t, m.Validate())
}
