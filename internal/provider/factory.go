package provider

import (
	"fmt"
	"time"
)

// New creates a provider for baseURL.
// An empty or "auto" vendor is detected from the URL; unknown servers are treated as plain OpenAI.
func New(baseURL, vendor, apiKey string, timeout time.Duration) (Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	providerType := ParseVendorConfig(vendor)
	if providerType == TypeUnknown {
		providerType = Detect(baseURL)
	}

	switch providerType {
	case TypeOllama:
		return NewOllamaProvider(baseURL, apiKey, timeout), nil
	case TypeVLLM, TypeLlamaCpp:
		return NewBaseProvider(providerType, baseURL, apiKey, timeout), nil
	default:
		return NewBaseProvider(TypeOpenAI, baseURL, apiKey, timeout), nil
	}
}
