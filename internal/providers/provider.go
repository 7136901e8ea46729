package providers

import (
	"context"
	"fmt"

	"github.com/dshills/quill/internal/config"
)

// Request contains the data sent to an LLM.
type Request struct {
	SystemPrompt string
	Prompt       string
	// MaxTokens caps the generated output; 0 uses the provider default.
	MaxTokens int
}

// Usage reports token consumption. Vendors that do not report usage leave
// the counters zero.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response contains the raw response from an LLM.
type Response struct {
	Content string
	Usage   Usage
}

// Provider is the vendor abstraction interface.
type Provider interface {
	// ID is the stable identifier used in configuration keys.
	ID() string
	// Name is the human-readable vendor name.
	Name() string
	// GenerateResponse sends one chat-completion request.
	GenerateResponse(ctx context.Context, req Request) (Response, error)
	// IsAvailable reports whether the provider is configured and reachable
	// enough to attempt a request.
	IsAvailable(ctx context.Context) bool
	// Models returns the static model catalog.
	Models() []Model
	// RefreshModels queries the vendor's live model listing and returns raw
	// ids. Callers degrade gracefully on error.
	RefreshModels(ctx context.Context) ([]string, error)
	// Reinitialize rebuilds the vendor client from current configuration.
	Reinitialize() error
}

// IDs lists the supported provider identifiers.
func IDs() []string {
	return []string{"anthropic", "gemini", "ollama", "openai"}
}

// New creates a provider by id, reading its settings from cfg.
func New(id string, cfg *config.Manager) (Provider, error) {
	switch id {
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "gemini", "google":
		return NewGemini(cfg), nil
	case "ollama", "lmstudio":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}

// Active creates the provider selected by base.provider and registers it for
// reinitialization on settings changes.
func Active(cfg *config.Manager) (Provider, error) {
	p, err := New(cfg.GetString("base.provider"), cfg)
	if err != nil {
		return nil, err
	}
	cfg.RegisterProvider(p)
	return p, nil
}

// resolveModel picks the model for a provider: the global base.model
// override wins over the provider's own configured model.
func resolveModel(cfg *config.Manager, providerID string) string {
	if m := cfg.GetString("base.model"); m != "" {
		return m
	}
	return cfg.GetString("providers." + providerID + ".model")
}
