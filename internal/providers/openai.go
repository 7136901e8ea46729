package providers

import (
	"bytes"
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

// OpenAI implements the Provider interface for OpenAI's API and any
// OpenAI-compatible endpoint.
type OpenAI struct {
	cfg *config.Manager

	mu      sync.RWMutex
	apiKey  string
	baseURL string
	model   string

	client *http.Client
}

// NewOpenAI creates an OpenAI provider bound to the configuration manager.
func NewOpenAI(cfg *config.Manager) *OpenAI {
	o := &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
	o.Reinitialize() //nolint:errcheck // always nil
	return o
}

func (o *OpenAI) ID() string   { return "openai" }
func (o *OpenAI) Name() string { return "OpenAI" }

// Reinitialize re-reads credentials, endpoint, and model from configuration.
func (o *OpenAI) Reinitialize() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.apiKey = o.cfg.GetString("providers.openai.apiKey")
	o.baseURL = normalizeOpenAIBase(o.cfg.GetString("providers.openai.baseURL"))
	o.model = resolveModel(o.cfg, "openai")
	return nil
}

// normalizeOpenAIBase strips trailing slashes and endpoint suffixes so the
// base URL can be pasted in any of the common forms.
func normalizeOpenAIBase(base string) string {
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	return base
}

func (o *OpenAI) snapshot() (apiKey, baseURL, model string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.apiKey, o.baseURL, o.model
}

// IsAvailable reports whether an API key is configured.
func (o *OpenAI) IsAvailable(_ context.Context) bool {
	apiKey, _, _ := o.snapshot()
	return apiKey != ""
}

// GenerateResponse sends one chat-completion request, shrinking the prompt
// on context-length overflow.
func (o *OpenAI) GenerateResponse(ctx context.Context, req Request) (Response, error) {
	apiKey, baseURL, model := o.snapshot()
	return generateWithShrink(ctx, req, inputBudget(o.Models(), model), func(r Request) (Response, error) {
		return sendOpenAIChat(ctx, o.client, baseURL+"/chat/completions", apiKey, model, r)
	})
}

// Models returns the static OpenAI catalog.
func (o *OpenAI) Models() []Model {
	return []Model{
		{ID: "gpt-4o", DisplayName: "GPT-4o", MaxInputTokens: 128000, MaxOutputTokens: 16384, Provider: "openai", Default: true},
		{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", MaxInputTokens: 128000, MaxOutputTokens: 16384, Provider: "openai"},
		{ID: "gpt-4.1", DisplayName: "GPT-4.1", MaxInputTokens: 1047576, MaxOutputTokens: 32768, Provider: "openai"},
		{ID: "o3-mini", DisplayName: "o3-mini", MaxInputTokens: 200000, MaxOutputTokens: 100000, Provider: "openai", Hidden: true},
	}
}

// RefreshModels lists model ids from GET /models.
func (o *OpenAI) RefreshModels(ctx context.Context) ([]string, error) {
	apiKey, baseURL, _ := o.snapshot()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

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
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	ids := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// sendOpenAIChat performs a single OpenAI-compatible chat-completion call
// with transient-error retries. Shared with the Ollama provider.
func sendOpenAIChat(ctx context.Context, client *http.Client, url, apiKey, model string, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxOutputTokens
	}

	body := openaiRequest{
		Model: model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens: maxTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp Response
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+apiKey)
		}

		httpResp, err := client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if err := classifyStatus(httpResp.StatusCode, respBody); err != nil {
			return err
		}

		var result openaiResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		if result.Choices[0].Message.Content == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = Response{
			Content: result.Choices[0].Message.Content,
			Usage: Usage{
				InputTokens:  result.Usage.PromptTokens,
				OutputTokens: result.Usage.CompletionTokens,
				TotalTokens:  result.Usage.TotalTokens,
			},
		}
		return nil
	})
	return resp, err
}

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
