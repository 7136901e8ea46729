package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dshills/quill/internal/config"
)

func testConfig(t *testing.T, overrides map[string]any) *config.Manager {
	t.Helper()
	store := config.NewMemStore()
	mgr := config.NewManager(config.Default(), store, zerolog.Nop())
	t.Cleanup(mgr.Dispose)
	for k, v := range overrides {
		if err := mgr.Update(k, v); err != nil {
			t.Fatalf("Update(%s) error: %v", k, err)
		}
	}
	return mgr
}

func openaiOK(content string, totalTokens int) openaiResponse {
	return openaiResponse{
		Choices: []openaiChoice{
			{Message: openaiMessage{Role: "assistant", Content: content}},
		},
		Usage: openaiUsage{TotalTokens: totalTokens},
	}
}

func TestOpenAI_GenerateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "gpt-4o" {
			t.Errorf("Model = %q, want %q", req.Model, "gpt-4o")
		}
		json.NewEncoder(w).Encode(openaiOK("feat: add widget", 50))
	}))
	defer server.Close()

	o := NewOpenAI(testConfig(t, map[string]any{
		"providers.openai.apiKey":  "test-key",
		"providers.openai.baseURL": server.URL,
	}))

	resp, err := o.GenerateResponse(context.Background(), Request{
		SystemPrompt: "test",
		Prompt:       "test",
		MaxTokens:    10,
	})
	if err != nil {
		t.Fatalf("GenerateResponse error: %v", err)
	}
	if resp.Content != "feat: add widget" {
		t.Errorf("Content = %q, want %q", resp.Content, "feat: add widget")
	}
	if resp.Usage.TotalTokens != 50 {
		t.Errorf("TotalTokens = %d, want 50", resp.Usage.TotalTokens)
	}
}

func TestOpenAI_RateLimitRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(429)
			w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		json.NewEncoder(w).Encode(openaiOK("ok", 0))
	}))
	defer server.Close()

	o := NewOpenAI(testConfig(t, map[string]any{
		"providers.openai.apiKey":  "test-key",
		"providers.openai.baseURL": server.URL,
	}))

	resp, err := o.GenerateResponse(context.Background(), Request{SystemPrompt: "s", Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateResponse error after retries: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", attempts)
	}
}

func TestOpenAI_AuthErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	o := NewOpenAI(testConfig(t, map[string]any{
		"providers.openai.apiKey":  "wrong",
		"providers.openai.baseURL": server.URL,
	}))

	_, err := o.GenerateResponse(context.Background(), Request{SystemPrompt: "s", Prompt: "p"})
	if err == nil {
		t.Fatal("expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("IsAuthError(%v) = false, want true", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestOpenAI_Reinitialize(t *testing.T) {
	mgr := testConfig(t, map[string]any{
		"providers.openai.apiKey": "first",
	})
	o := NewOpenAI(mgr)
	mgr.RegisterProvider(o)

	if err := mgr.Update("providers.openai.apiKey", "second"); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	apiKey, _, _ := o.snapshot()
	if apiKey != "second" {
		t.Errorf("apiKey after settings change = %q, want %q", apiKey, "second")
	}
}

func TestOpenAI_RefreshModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("Path = %q, want /models", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`))
	}))
	defer server.Close()

	o := NewOpenAI(testConfig(t, map[string]any{
		"providers.openai.apiKey":  "test-key",
		"providers.openai.baseURL": server.URL,
	}))

	ids, err := o.RefreshModels(context.Background())
	if err != nil {
		t.Fatalf("RefreshModels error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "gpt-4o" {
		t.Errorf("ids = %v, want [gpt-4o gpt-4o-mini]", ids)
	}
}

func TestNormalizeOpenAIBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1"},
		{"https://api.openai.com/v1/chat/completions", "https://api.openai.com/v1"},
	}
	for _, tt := range tests {
		if got := normalizeOpenAIBase(tt.in); got != tt.want {
			t.Errorf("normalizeOpenAIBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
