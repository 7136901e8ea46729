package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropic_GenerateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Path = %q, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing or wrong x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Missing anthropic-version header")
		}
		w.Write([]byte(`{
			"content":[{"type":"text","text":"docs: clarify "},{"type":"text","text":"usage"}],
			"usage":{"input_tokens":120,"output_tokens":30}
		}`))
	}))
	defer server.Close()

	a := NewAnthropic(testConfig(t, map[string]any{
		"providers.anthropic.apiKey":  "test-key",
		"providers.anthropic.baseURL": server.URL,
	}))

	resp, err := a.GenerateResponse(context.Background(), Request{SystemPrompt: "s", Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateResponse error: %v", err)
	}
	if resp.Content != "docs: clarify usage" {
		t.Errorf("Content = %q, want concatenated text blocks", resp.Content)
	}
	if resp.Usage.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", resp.Usage.TotalTokens)
	}
}

func TestAnthropic_RefreshModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("Path = %q, want /v1/models", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"claude-sonnet-4-20250514"}]}`))
	}))
	defer server.Close()

	a := NewAnthropic(testConfig(t, map[string]any{
		"providers.anthropic.apiKey":  "test-key",
		"providers.anthropic.baseURL": server.URL,
	}))

	ids, err := a.RefreshModels(context.Background())
	if err != nil {
		t.Fatalf("RefreshModels error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "claude-sonnet-4-20250514" {
		t.Errorf("ids = %v", ids)
	}
}
