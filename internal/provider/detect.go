package provider

import (
	"strings"
)

// Detect identifies the provider type from the base URL alone.
// It never probes the network, so reloading configuration stays cheap.
func Detect(baseURL string) Type {
	hostLower := strings.ToLower(strings.TrimSuffix(baseURL, "/"))

	switch {
	case strings.Contains(hostLower, "ollama") || strings.Contains(hostLower, ":11434"):
		return TypeOllama
	case strings.Contains(hostLower, "vllm"):
		return TypeVLLM
	case strings.Contains(hostLower, "llama"):
		return TypeLlamaCpp
	default:
		return TypeOpenAI
	}
}

// ParseVendorConfig parses a vendor string from config into a Type
// Returns TypeUnknown if the vendor should be auto-detected
func ParseVendorConfig(vendor string) Type {
	vendor = strings.ToLower(strings.TrimSpace(vendor))

	switch vendor {
	case "openai":
		return TypeOpenAI
	case "vllm":
		return TypeVLLM
	case "ollama":
		return TypeOllama
	case "llama.cpp", "llamacpp", "llama":
		return TypeLlamaCpp
	default:
		return TypeUnknown // "", "auto" and anything else trigger detection
	}
}
