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

const anthropicAPIVersion = "2023-06-01"

// Anthropic implements the Provider interface for Anthropic's API.
type Anthropic struct {
	cfg *config.Manager

	mu      sync.RWMutex
	apiKey  string
	baseURL string
	model   string

	client *http.Client
}

// NewAnthropic creates an Anthropic provider bound to the configuration
// manager.
func NewAnthropic(cfg *config.Manager) *Anthropic {
	a := &Anthropic{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
	a.Reinitialize() //nolint:errcheck // always nil
	return a
}

func (a *Anthropic) ID() string   { return "anthropic" }
func (a *Anthropic) Name() string { return "Anthropic" }

// Reinitialize re-reads credentials, endpoint, and model from configuration.
func (a *Anthropic) Reinitialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apiKey = a.cfg.GetString("providers.anthropic.apiKey")
	a.baseURL = strings.TrimRight(a.cfg.GetString("providers.anthropic.baseURL"), "/")
	a.model = resolveModel(a.cfg, "anthropic")
	return nil
}

func (a *Anthropic) snapshot() (apiKey, baseURL, model string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.apiKey, a.baseURL, a.model
}

// IsAvailable reports whether an API key is configured.
func (a *Anthropic) IsAvailable(_ context.Context) bool {
	apiKey, _, _ := a.snapshot()
	return apiKey != ""
}

// GenerateResponse sends one messages request, shrinking the prompt on
// context-length overflow.
func (a *Anthropic) GenerateResponse(ctx context.Context, req Request) (Response, error) {
	apiKey, baseURL, model := a.snapshot()
	return generateWithShrink(ctx, req, inputBudget(a.Models(), model), func(r Request) (Response, error) {
		return a.send(ctx, apiKey, baseURL, model, r)
	})
}

func (a *Anthropic) send(ctx context.Context, apiKey, baseURL, model string, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxOutputTokens
	}

	body := anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp Response
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/v1/messages", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", apiKey)
		httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

		httpResp, err := a.client.Do(httpReq)
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

		var result anthropicResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		var content string
		for _, block := range result.Content {
			if block.Type == "text" {
				content += block.Text
			}
		}
		if content == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = Response{
			Content: content,
			Usage: Usage{
				InputTokens:  result.Usage.InputTokens,
				OutputTokens: result.Usage.OutputTokens,
				TotalTokens:  result.Usage.InputTokens + result.Usage.OutputTokens,
			},
		}
		return nil
	})
	return resp, err
}

// Models returns the static Anthropic catalog.
func (a *Anthropic) Models() []Model {
	return []Model{
		{ID: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4", MaxInputTokens: 200000, MaxOutputTokens: 64000, Provider: "anthropic", Default: true},
		{ID: "claude-opus-4-20250514", DisplayName: "Claude Opus 4", MaxInputTokens: 200000, MaxOutputTokens: 32000, Provider: "anthropic"},
		{ID: "claude-3-5-haiku-20241022", DisplayName: "Claude 3.5 Haiku", MaxInputTokens: 200000, MaxOutputTokens: 8192, Provider: "anthropic"},
	}
}

// RefreshModels lists model ids from GET /v1/models.
func (a *Anthropic) RefreshModels(ctx context.Context) ([]string, error) {
	apiKey, baseURL, _ := a.snapshot()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := a.client.Do(httpReq)
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

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Usage   anthropicUsage   `json:"usage"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
