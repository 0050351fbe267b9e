package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeServer answers chat completions with reply and counts requests
func fakeServer(t *testing.T, status int, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
			return
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: RoleAssistant, Content: reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCompleteUnconfigured(t *testing.T) {
	g := New(zap.NewNop())

	_, err := g.Complete(context.Background(), "gpt-4o", []Message{UserMessage("hi")})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, g.Configured())
	assert.Equal(t, uint64(0), g.Snapshot().Version)
}

func TestCompleteRequiresModel(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, "ok")
	g := New(nil)
	_, err := g.Reload(Endpoint{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), "", []Message{UserMessage("hi")})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, calls.Load())
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, "here is the plan")
	g := New(zap.NewNop())
	version, err := g.Reload(Endpoint{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Vendor: "openai"})
	require.NoError(t, err)

	got, err := g.Complete(context.Background(), "o3-mini", []Message{UserMessage("plan it")})
	require.NoError(t, err)
	assert.Equal(t, "here is the plan", got.Text)
	assert.Equal(t, "o3-mini", got.Model)
	assert.Equal(t, version, got.ClientVersion)
	assert.EqualValues(t, 1, calls.Load())
}

func TestUpstreamErrorIsNotRetried(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusInternalServerError, "")
	g := New(zap.NewNop())
	_, err := g.Reload(Endpoint{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), "gpt-4o", []Message{UserMessage("hi")})
	require.ErrorIs(t, err, ErrUpstream)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr), "upstream error should stay in the chain: %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.EqualValues(t, 1, calls.Load())
}

func TestEmptyChoicesIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := New(zap.NewNop())
	_, err := g.Reload(Endpoint{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), "gpt-4o", []Message{UserMessage("hi")})
	require.ErrorIs(t, err, ErrUpstream)
}

func TestReloadBumpsVersion(t *testing.T) {
	first, _ := fakeServer(t, http.StatusOK, "first")
	second, _ := fakeServer(t, http.StatusOK, "second")
	g := New(zap.NewNop())

	v1, err := g.Reload(Endpoint{BaseURL: first.URL + "/v1"})
	require.NoError(t, err)
	v2, err := g.Reload(Endpoint{BaseURL: second.URL + "/v1"})
	require.NoError(t, err)
	require.Greater(t, v2, v1)

	snap := g.Snapshot()
	assert.True(t, snap.Configured)
	assert.Equal(t, v2, snap.Version)
	assert.Equal(t, second.URL+"/v1", snap.BaseURL)

	got, err := g.Complete(context.Background(), "m", []Message{UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "second", got.Text)
	assert.Equal(t, v2, got.ClientVersion)

	v3, err := g.Reload(Endpoint{})
	require.NoError(t, err)
	assert.Greater(t, v3, v2)
	assert.False(t, g.Configured())
}

func TestListModelsUnconfigured(t *testing.T) {
	_, err := New(nil).ListModels(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}
