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

// Gemini implements the Provider interface for Google's Gemini API.
type Gemini struct {
	cfg *config.Manager

	mu      sync.RWMutex
	apiKey  string
	baseURL string
	model   string

	client *http.Client
}

// NewGemini creates a Gemini provider bound to the configuration manager.
func NewGemini(cfg *config.Manager) *Gemini {
	g := &Gemini{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
	g.Reinitialize() //nolint:errcheck // always nil
	return g
}

func (g *Gemini) ID() string   { return "gemini" }
func (g *Gemini) Name() string { return "Google Gemini" }

// Reinitialize re-reads credentials, endpoint, and model from configuration.
func (g *Gemini) Reinitialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apiKey = g.cfg.GetString("providers.gemini.apiKey")
	g.baseURL = strings.TrimRight(g.cfg.GetString("providers.gemini.baseURL"), "/")
	g.model = resolveModel(g.cfg, "gemini")
	return nil
}

func (g *Gemini) snapshot() (apiKey, baseURL, model string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.apiKey, g.baseURL, g.model
}

// IsAvailable reports whether an API key is configured.
func (g *Gemini) IsAvailable(_ context.Context) bool {
	apiKey, _, _ := g.snapshot()
	return apiKey != ""
}

// GenerateResponse sends one generateContent request, shrinking the prompt
// on context-length overflow.
func (g *Gemini) GenerateResponse(ctx context.Context, req Request) (Response, error) {
	apiKey, baseURL, model := g.snapshot()
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", baseURL, model, apiKey)
	return generateWithShrink(ctx, req, inputBudget(g.Models(), model), func(r Request) (Response, error) {
		return g.send(ctx, url, r)
	})
}

func (g *Gemini) send(ctx context.Context, url string, req Request) (Response, error) {
	body := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &geminiGenConfig{MaxOutputTokens: req.MaxTokens},
	}
	if body.GenerationConfig.MaxOutputTokens == 0 {
		body.GenerationConfig.MaxOutputTokens = defaultMaxOutputTokens
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

		httpResp, err := g.client.Do(httpReq)
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

		var result geminiResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("no content in response")
		}

		var content string
		for _, part := range result.Candidates[0].Content.Parts {
			content += part.Text
		}

		resp = Response{
			Content: content,
			Usage: Usage{
				InputTokens:  result.UsageMetadata.PromptTokenCount,
				OutputTokens: result.UsageMetadata.CandidatesTokenCount,
				TotalTokens:  result.UsageMetadata.TotalTokenCount,
			},
		}
		return nil
	})
	return resp, err
}

// Models returns the static Gemini catalog.
func (g *Gemini) Models() []Model {
	return []Model{
		{ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", MaxInputTokens: 1048576, MaxOutputTokens: 8192, Provider: "gemini", Default: true},
		{ID: "gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro", MaxInputTokens: 2097152, MaxOutputTokens: 8192, Provider: "gemini"},
	}
}

// RefreshModels lists model names from the v1beta models endpoint. The
// vendor returns names as "models/<id>"; the prefix is stripped.
func (g *Gemini) RefreshModels(ctx context.Context) ([]string, error) {
	apiKey, baseURL, _ := g.snapshot()
	url := fmt.Sprintf("%s/v1beta/models?key=%s", baseURL, apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpResp, err := g.client.Do(httpReq)
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

	ids := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
	}
	return ids, nil
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}
