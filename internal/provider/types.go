package provider

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Type represents the kind of OpenAI-compatible server behind the endpoint
type Type string

const (
	TypeOpenAI   Type = "openai"
	TypeVLLM     Type = "vllm"
	TypeOllama   Type = "ollama"
	TypeLlamaCpp Type = "llama.cpp"
	TypeUnknown  Type = "unknown"
)

// String returns the string representation of the provider type
func (t Type) String() string {
	return string(t)
}

// DisplayName returns a human-readable name for the provider type
func (t Type) DisplayName() string {
	switch t {
	case TypeOpenAI:
		return "OpenAI-compatible"
	case TypeVLLM:
		return "vLLM"
	case TypeOllama:
		return "Ollama"
	case TypeLlamaCpp:
		return "llama.cpp"
	default:
		return "Unknown"
	}
}

// Info holds provider metadata
type Info struct {
	Type    Type     // Provider type (openai, vllm, ollama, llama.cpp)
	Name    string   // Display name (e.g., "Ollama")
	BaseURL string   // API base URL, including any /v1 suffix
	Models  []string // Models reported by the last detection
}

// Provider interface for endpoint operations
type Provider interface {
	// Info returns provider metadata
	Info() *Info

	// DetectModels queries available models from the server
	DetectModels(ctx context.Context) ([]string, error)

	// CreateClient returns an OpenAI-compatible client
	CreateClient() *openai.Client
}
