package config

import "fmt"

// Settings is a point-in-time materialization of every schema leaf.
type Settings struct {
	Base      BaseSettings
	Providers map[string]ProviderSettings
	Features  FeatureSettings
}

// BaseSettings holds top-level generation settings.
type BaseSettings struct {
	Provider     string
	Model        string
	Language     string
	SystemPrompt string
	CommitFormat string
	SCM          string
	LogLevel     string
}

// ProviderSettings holds the connection settings for one AI provider.
type ProviderSettings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// FeatureSettings holds feature toggles and tuning knobs.
type FeatureSettings struct {
	DiffSimplification SimplifySettings
	ReviewConcurrency  int
	RedactSecrets      bool
}

// SimplifySettings configures the diff simplifier.
type SimplifySettings struct {
	Enabled       bool
	ContextLines  int
	MaxLineLength int
}

// Settings materializes the full settings tree by querying each schema leaf
// through the cache. When base.systemPrompt is empty a prompt is synthesized
// from the configured language and commit format.
func (m *Manager) Settings() Settings {
	s := Settings{
		Base: BaseSettings{
			Provider:     m.GetString("base.provider"),
			Model:        m.GetString("base.model"),
			Language:     m.GetString("base.language"),
			SystemPrompt: m.GetString("base.systemPrompt"),
			CommitFormat: m.GetString("base.commitFormat"),
			SCM:          m.GetString("base.scm"),
			LogLevel:     m.GetString("base.logLevel"),
		},
		Providers: make(map[string]ProviderSettings),
		Features: FeatureSettings{
			DiffSimplification: SimplifySettings{
				Enabled:       m.GetBool("features.diffSimplification.enabled"),
				ContextLines:  m.GetInt("features.diffSimplification.contextLines"),
				MaxLineLength: m.GetInt("features.diffSimplification.maxLineLength"),
			},
			ReviewConcurrency: m.GetInt("features.review.concurrency"),
			RedactSecrets:     m.GetBool("features.redactSecrets"),
		},
	}

	for _, name := range m.ProviderNames() {
		s.Providers[name] = ProviderSettings{
			APIKey:  m.GetString("providers." + name + ".apiKey"),
			BaseURL: m.GetString("providers." + name + ".baseURL"),
			Model:   m.GetString("providers." + name + ".model"),
		}
	}

	if s.Base.SystemPrompt == "" {
		s.Base.SystemPrompt = SynthesizeSystemPrompt(s.Base.Language, s.Base.CommitFormat)
	}
	return s
}

// Provider returns the connection settings for the named provider.
func (s Settings) Provider(name string) ProviderSettings {
	return s.Providers[name]
}

// ModelFor resolves the model for a provider: the global base.model override
// wins, otherwise the provider's own configured model.
func (s Settings) ModelFor(name string) string {
	if s.Base.Model != "" {
		return s.Base.Model
	}
	return s.Providers[name].Model
}

// SynthesizeSystemPrompt builds the default commit-message system prompt for
// a language and commit format.
func SynthesizeSystemPrompt(language, format string) string {
	style := "Write a single concise subject line in the imperative mood, " +
		"followed by a short body only when the change needs explanation."
	if format == "conventional" {
		style = "Follow the Conventional Commits format: a type prefix " +
			"(feat, fix, docs, refactor, test, chore) with an optional scope, " +
			"a concise subject in the imperative mood, and a short body only " +
			"when the change needs explanation."
	}
	return fmt.Sprintf(
		"You are an assistant that writes version control commit messages from diffs. "+
			"%s Respond in %s. Output only the commit message with no surrounding "+
			"commentary, quotes, or code fences.",
		style, language,
	)
}
