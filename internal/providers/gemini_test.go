package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGemini_GenerateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("Path = %q, want generateContent call", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("Missing or wrong key query parameter")
		}
		w.Write([]byte(`{
			"candidates":[{"content":{"parts":[{"text":"refactor: split parser"}]}}],
			"usageMetadata":{"promptTokenCount":80,"candidatesTokenCount":20,"totalTokenCount":100}
		}`))
	}))
	defer server.Close()

	g := NewGemini(testConfig(t, map[string]any{
		"providers.gemini.apiKey":  "test-key",
		"providers.gemini.baseURL": server.URL,
	}))

	resp, err := g.GenerateResponse(context.Background(), Request{SystemPrompt: "s", Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateResponse error: %v", err)
	}
	if resp.Content != "refactor: split parser" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 100 {
		t.Errorf("TotalTokens = %d, want 100", resp.Usage.TotalTokens)
	}
}

func TestGemini_RefreshModelsStripsPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"models/gemini-2.0-flash"},{"name":"models/gemini-1.5-pro"}]}`))
	}))
	defer server.Close()

	g := NewGemini(testConfig(t, map[string]any{
		"providers.gemini.apiKey":  "test-key",
		"providers.gemini.baseURL": server.URL,
	}))

	ids, err := g.RefreshModels(context.Background())
	if err != nil {
		t.Fatalf("RefreshModels error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "gemini-2.0-flash" {
		t.Errorf("ids = %v", ids)
	}
}
