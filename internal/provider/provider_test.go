package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseVendorConfig(t *testing.T) {
	tests := map[string]Type{
		"":         TypeUnknown,
		"auto":     TypeUnknown,
		"OpenAI":   TypeOpenAI,
		" vllm ":   TypeVLLM,
		"ollama":   TypeOllama,
		"llamacpp": TypeLlamaCpp,
		"bogus":    TypeUnknown,
	}
	for in, want := range tests {
		if got := ParseVendorConfig(in); got != want {
			t.Errorf("ParseVendorConfig(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := map[string]Type{
		"http://localhost:11434/v1":    TypeOllama,
		"http://ollama.lab/v1":         TypeOllama,
		"http://vllm.internal:8000/v1": TypeVLLM,
		"http://llama-server:8080/v1":  TypeLlamaCpp,
		"https://api.openai.com/v1":    TypeOpenAI,
	}
	for in, want := range tests {
		if got := Detect(in); got != want {
			t.Errorf("Detect(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("", "auto", "", 0); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestDetectModelsOpenAI(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"o3-mini"}]}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL+"/v1/", "openai", "", 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	models, err := p.DetectModels(context.Background())
	if err != nil {
		t.Fatalf("DetectModels failed: %v", err)
	}
	if len(models) != 2 || models[0] != "gpt-4o" || models[1] != "o3-mini" {
		t.Errorf("unexpected models: %v", models)
	}
	if gotAuth != "Bearer dummy-key" {
		t.Errorf("expected placeholder key, got %q", gotAuth)
	}
	if p.Info().BaseURL != srv.URL+"/v1" {
		t.Errorf("expected trailing slash trimmed, got %q", p.Info().BaseURL)
	}
}

func TestDetectModelsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, _ := New(srv.URL+"/v1", "openai", "sk-test", 0)
	if _, err := p.DetectModels(context.Background()); err == nil {
		t.Error("expected error for 401")
	}
}

func TestOllamaFallsBackToTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"qwen2.5-coder:7b"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, _ := New(srv.URL+"/v1", "ollama", "", 0)
	models, err := p.DetectModels(context.Background())
	if err != nil {
		t.Fatalf("DetectModels failed: %v", err)
	}
	if len(models) != 1 || models[0] != "qwen2.5-coder:7b" {
		t.Errorf("unexpected models: %v", models)
	}
}
