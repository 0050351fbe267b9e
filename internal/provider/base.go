package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultConnectTimeout = 10 * time.Second

	// placeholderKey is sent when no key is configured; local servers ignore it
	placeholderKey = "dummy-key"
)

// BaseProvider contains common provider functionality
type BaseProvider struct {
	info       *Info
	httpClient *http.Client
	apiKey     string
}

// NewBaseProvider creates a base provider with common setup
func NewBaseProvider(providerType Type, baseURL, apiKey string, timeout time.Duration) *BaseProvider {
	if apiKey == "" {
		apiKey = placeholderKey
	}

	return &BaseProvider{
		info: &Info{
			Type:    providerType,
			Name:    providerType.DisplayName(),
			BaseURL: strings.TrimSuffix(baseURL, "/"),
		},
		httpClient: newHTTPClient(timeout),
		apiKey:     apiKey,
	}
}

// Info returns provider metadata
func (p *BaseProvider) Info() *Info {
	return p.info
}

// CreateClient returns an OpenAI-compatible client
func (p *BaseProvider) CreateClient() *openai.Client {
	config := openai.DefaultConfig(p.apiKey)
	config.BaseURL = p.info.BaseURL
	config.HTTPClient = p.httpClient
	return openai.NewClientWithConfig(config)
}

// DetectModels queries the OpenAI-compatible models endpoint
func (p *BaseProvider) DetectModels(ctx context.Context) ([]string, error) {
	return p.DetectModelsOpenAI(ctx)
}

// DetectModelsOpenAI queries <base>/models
func (p *BaseProvider) DetectModelsOpenAI(ctx context.Context) ([]string, error) {
	url := p.info.BaseURL + "/models"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API responded with status: %d", resp.StatusCode)
	}

	var modelsResp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if modelsResp.Data == nil {
		return nil, fmt.Errorf("invalid response format: missing data array")
	}

	models := make([]string, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		models = append(models, m.ID)
	}

	p.info.Models = models
	return models, nil
}

// newHTTPClient creates an HTTP client for completion requests.
// A zero timeout leaves the request unbounded; completions on large contexts can take minutes.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   defaultConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
