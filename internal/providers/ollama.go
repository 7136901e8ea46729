package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dshills/quill/internal/config"
)

// Ollama implements the Provider interface for Ollama and LM Studio via the
// OpenAI-compatible chat endpoint. Model listing uses Ollama's native
// /api/tags.
type Ollama struct {
	cfg *config.Manager

	mu      sync.RWMutex
	apiKey  string
	baseURL string
	model   string

	client *http.Client
}

// NewOllama creates an Ollama provider bound to the configuration manager.
// Local models can be slow, so the HTTP timeout is generous.
func NewOllama(cfg *config.Manager) *Ollama {
	o := &Ollama{
		cfg:    cfg,
		client: &http.Client{Timeout: 300 * time.Second},
	}
	o.Reinitialize() //nolint:errcheck // always nil
	return o
}

func (o *Ollama) ID() string   { return "ollama" }
func (o *Ollama) Name() string { return "Ollama" }

// Reinitialize re-reads the server URL, optional API key, and model.
func (o *Ollama) Reinitialize() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.apiKey = o.cfg.GetString("providers.ollama.apiKey")
	o.baseURL = normalizeOllamaBase(o.cfg.GetString("providers.ollama.baseURL"))
	o.model = resolveModel(o.cfg, "ollama")
	return nil
}

// normalizeOllamaBase accepts the server root in any of the common pasted
// forms and reduces it to the bare host URL.
func normalizeOllamaBase(base string) string {
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1/chat/completions")
	base = strings.TrimSuffix(base, "/v1")
	return base
}

func (o *Ollama) snapshot() (apiKey, baseURL, model string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.apiKey, o.baseURL, o.model
}

// IsAvailable probes the server's tag listing.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	_, err := o.RefreshModels(ctx)
	return err == nil
}

// GenerateResponse sends one chat-completion request, shrinking the prompt
// on context-length overflow.
func (o *Ollama) GenerateResponse(ctx context.Context, req Request) (Response, error) {
	apiKey, baseURL, model := o.snapshot()
	return generateWithShrink(ctx, req, inputBudget(o.Models(), model), func(r Request) (Response, error) {
		return sendOpenAIChat(ctx, o.client, baseURL+"/v1/chat/completions", apiKey, model, r)
	})
}

// Models returns a catalog of commonly pulled local models. The live list
// comes from RefreshModels.
func (o *Ollama) Models() []Model {
	return []Model{
		{ID: "llama3.3", DisplayName: "Llama 3.3", MaxInputTokens: 131072, MaxOutputTokens: 8192, Provider: "ollama", Default: true},
		{ID: "qwen2.5-coder", DisplayName: "Qwen 2.5 Coder", MaxInputTokens: 131072, MaxOutputTokens: 8192, Provider: "ollama"},
		{ID: "mistral", DisplayName: "Mistral", MaxInputTokens: 32768, MaxOutputTokens: 8192, Provider: "ollama"},
	}
}

// RefreshModels lists locally pulled models from GET /api/tags.
func (o *Ollama) RefreshModels(ctx context.Context) ([]string, error) {
	apiKey, baseURL, _ := o.snapshot()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if err := classifyStatus(httpResp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	names := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
