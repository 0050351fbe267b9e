// Package gateway is the request/response boundary to the completion endpoint.
//
// A Gateway holds at most one client at a time. Reload swaps the client atomically and bumps
// a version number; every Complete call captures the client once when it starts, so a reload
// racing an in-flight call only affects calls that start after it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/tara-vision/codeforge/internal/provider"
)

var (
	// ErrNotConfigured is returned before any network call when no endpoint or model is set
	ErrNotConfigured = errors.New("API not configured")

	// ErrUpstream marks a failed or malformed response from the endpoint.
	// The original client error stays in the chain.
	ErrUpstream = errors.New("upstream call failed")
)

// Chat roles
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one role-tagged chat message
type Message struct {
	Role    string
	Content string
}

// UserMessage builds a single user message
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Endpoint is the configuration a client is built from
type Endpoint struct {
	BaseURL string
	APIKey  string
	Vendor  string
	Timeout time.Duration // 0 leaves requests unbounded
}

// Snapshot describes the gateway state at one point in time
type Snapshot struct {
	Configured bool
	Version    uint64
	Provider   string
	BaseURL    string
}

// Completion is the result of a single chat completion
type Completion struct {
	Text          string
	Model         string
	ClientVersion uint64
	Usage         openai.Usage
}

type state struct {
	version  uint64
	provider provider.Provider
	client   *openai.Client
}

// Gateway owns the long-lived completion client
type Gateway struct {
	current  atomic.Pointer[state]
	versions atomic.Uint64
	logger   *zap.Logger
}

// New returns an unconfigured gateway. Call Reload to attach an endpoint.
func New(logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{logger: logger.Named("gateway")}
	g.current.Store(&state{})
	return g
}

// Reload replaces the client with one built from ep and returns the new version.
// An empty BaseURL leaves the gateway unconfigured.
func (g *Gateway) Reload(ep Endpoint) (uint64, error) {
	version := g.versions.Add(1)

	if ep.BaseURL == "" {
		g.current.Store(&state{version: version})
		g.logger.Info("endpoint cleared", zap.Uint64("version", version))
		return version, nil
	}

	prov, err := provider.New(ep.BaseURL, ep.Vendor, ep.APIKey, ep.Timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to create provider: %w", err)
	}

	g.current.Store(&state{
		version:  version,
		provider: prov,
		client:   prov.CreateClient(),
	})
	g.logger.Info("client initialized",
		zap.String("base_url", prov.Info().BaseURL),
		zap.String("provider", prov.Info().Name),
		zap.Uint64("version", version))
	return version, nil
}

// Configured reports whether a client is currently attached
func (g *Gateway) Configured() bool {
	return g.current.Load().client != nil
}

// Snapshot returns the current configuration state
func (g *Gateway) Snapshot() Snapshot {
	st := g.current.Load()
	snap := Snapshot{Configured: st.client != nil, Version: st.version}
	if st.provider != nil {
		snap.Provider = st.provider.Info().Name
		snap.BaseURL = st.provider.Info().BaseURL
	}
	return snap
}

// Complete sends one chat completion request. It never retries.
func (g *Gateway) Complete(ctx context.Context, model string, messages []Message) (Completion, error) {
	st := g.current.Load()
	if st.client == nil {
		return Completion{}, fmt.Errorf("%w: set api_url in settings", ErrNotConfigured)
	}
	if model == "" {
		return Completion{}, fmt.Errorf("%w: no model selected", ErrNotConfigured)
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	g.logger.Debug("sending completion",
		zap.String("model", model),
		zap.Int("messages", len(messages)),
		zap.Uint64("client_version", st.version))

	resp, err := st.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("%w: no response choices returned", ErrUpstream)
	}

	return Completion{
		Text:          resp.Choices[0].Message.Content,
		Model:         model,
		ClientVersion: st.version,
		Usage:         resp.Usage,
	}, nil
}

// ListModels asks the endpoint which models it serves
func (g *Gateway) ListModels(ctx context.Context) ([]string, error) {
	st := g.current.Load()
	if st.provider == nil {
		return nil, fmt.Errorf("%w: set api_url in settings", ErrNotConfigured)
	}
	return st.provider.DetectModels(ctx)
}
