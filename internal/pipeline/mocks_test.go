package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tara-vision/codeforge/internal/artifact"
	"github.com/tara-vision/codeforge/internal/gateway"
	"github.com/tara-vision/codeforge/internal/storage"
)

// --- MockGateway ---

// MockGateway implements Completer with scripted replies, one per call.
type MockGateway struct {
	Unconfigured bool
	Replies      []string
	Errors       []error       // Errors[i] is returned for call i when non-nil
	Delay        time.Duration // Simulated latency per call
	Version      uint64

	mu    sync.Mutex
	calls []mockCall
}

type mockCall struct {
	Model    string
	Messages []gateway.Message
}

func (m *MockGateway) Configured() bool {
	return !m.Unconfigured
}

func (m *MockGateway) Complete(ctx context.Context, model string, messages []gateway.Message) (gateway.Completion, error) {
	m.mu.Lock()
	i := len(m.calls)
	m.calls = append(m.calls, mockCall{Model: model, Messages: messages})
	m.mu.Unlock()

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if i < len(m.Errors) && m.Errors[i] != nil {
		return gateway.Completion{}, m.Errors[i]
	}
	if i >= len(m.Replies) {
		return gateway.Completion{}, fmt.Errorf("unexpected call %d", i)
	}
	return gateway.Completion{Text: m.Replies[i], Model: model, ClientVersion: m.Version}, nil
}

func (m *MockGateway) Calls() []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockCall(nil), m.calls...)
}

// --- MockResolver ---

// MockResolver implements TargetResolver over an in-memory project list.
type MockResolver struct {
	Projects []storage.Project
	Scopes   []storage.Scope
}

func (m *MockResolver) ResolveTarget(projectRef, scopeRef string) (*storage.Target, error) {
	for _, p := range m.Projects {
		if p.ID != projectRef {
			continue
		}
		target := &storage.Target{Project: p}
		if scopeRef == "" {
			return target, nil
		}
		for _, s := range m.Scopes {
			if s.ID == scopeRef && s.ProjectID == p.ID {
				scope := s
				target.Scope = &scope
				return target, nil
			}
		}
		return nil, fmt.Errorf("%w: scope %q", storage.ErrTargetNotFound, scopeRef)
	}
	return nil, fmt.Errorf("%w: project %q", storage.ErrTargetNotFound, projectRef)
}

// --- MockWriter ---

// MockWriter records artifacts instead of writing them.
type MockWriter struct {
	WriteError error
	Written    []artifact.Artifact
}

func (m *MockWriter) Write(a artifact.Artifact) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Written = append(m.Written, a)
	return nil
}

// --- MockNotifier ---

type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (m *MockNotifier) Notify(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, message)
}
