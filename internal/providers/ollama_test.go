package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_GenerateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("No Authorization header expected without an API key")
		}
		json.NewEncoder(w).Encode(openaiOK("chore: local model reply", 0))
	}))
	defer server.Close()

	o := NewOllama(testConfig(t, map[string]any{
		"providers.ollama.baseURL": server.URL,
	}))

	resp, err := o.GenerateResponse(context.Background(), Request{SystemPrompt: "s", Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateResponse error: %v", err)
	}
	if resp.Content != "chore: local model reply" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 0 {
		t.Errorf("TotalTokens = %d, want 0 when unreported", resp.Usage.TotalTokens)
	}
}

func TestOllama_RefreshModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("Path = %q, want /api/tags", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3.3:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer server.Close()

	o := NewOllama(testConfig(t, map[string]any{
		"providers.ollama.baseURL": server.URL,
	}))

	names, err := o.RefreshModels(context.Background())
	if err != nil {
		t.Fatalf("RefreshModels error: %v", err)
	}
	if len(names) != 2 || names[0] != "llama3.3:latest" {
		t.Errorf("names = %v", names)
	}

	if !o.IsAvailable(context.Background()) {
		t.Error("IsAvailable = false with a reachable server")
	}
}

func TestNormalizeOllamaBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:11434", "http://localhost:11434"},
		{"http://localhost:11434/", "http://localhost:11434"},
		{"http://localhost:11434/v1", "http://localhost:11434"},
		{"http://localhost:11434/v1/chat/completions", "http://localhost:11434"},
	}
	for _, tt := range tests {
		if got := normalizeOllamaBase(tt.in); got != tt.want {
			t.Errorf("normalizeOllamaBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
