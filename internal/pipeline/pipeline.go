// Package pipeline turns a prompt and a serialized context into an update script.
//
// A run issues one or two sequential completions, extracts the script from the last answer,
// writes it to the project root and, only after the write succeeds, hands a message to the
// notifier. Preconditions (configured gateway, resolvable target) are checked before the first
// model call so a request that cannot be saved never costs a completion.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tara-vision/codeforge/internal/artifact"
	"github.com/tara-vision/codeforge/internal/gateway"
	"github.com/tara-vision/codeforge/internal/storage"
)

// Completer issues chat completions
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, model string, messages []gateway.Message) (gateway.Completion, error)
}

// TargetResolver finds the project, and optionally the scope, a script is written for
type TargetResolver interface {
	ResolveTarget(projectRef, scopeRef string) (*storage.Target, error)
}

// ArtifactWriter persists the extracted script
type ArtifactWriter interface {
	Write(a artifact.Artifact) error
}

// Notifier receives the success message. It must not block.
type Notifier interface {
	Notify(message string)
}

// Mode selects how many completions a run makes
type Mode int

const (
	// TwoStep asks for a solution first, then for a script implementing it
	TwoStep Mode = iota
	// OneStep asks for the script directly
	OneStep
)

func (m Mode) String() string {
	if m == OneStep {
		return "one-step"
	}
	return "two-step"
}

// ParseMode accepts "one-step"/"two-step" and the short forms "one"/"two"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "two-step", "two", "twostep", "2":
		return TwoStep, nil
	case "one-step", "one", "onestep", "direct", "1":
		return OneStep, nil
	default:
		return TwoStep, fmt.Errorf("unknown mode %q (use one-step or two-step)", s)
	}
}

// Stage names
const (
	StageSolution = "solution"
	StageScript   = "script"
	StageDirect   = "direct"
)

// Target references a project and an optional scope by ID or name
type Target struct {
	ProjectID string
	ScopeID   string
}

// Request is one full pipeline run
type Request struct {
	Prompt         string
	Context        string
	Target         Target
	ReasoningModel string
	RegularModel   string // falls back to ReasoningModel when empty
	Mode           Mode
}

// SolutionRequest runs Stage A alone
type SolutionRequest struct {
	Prompt  string
	Context string
	Model   string
}

// ScriptRequest runs Stage B from an existing, possibly edited, solution
type ScriptRequest struct {
	Solution       string
	Context        string
	Target         Target
	RegularModel   string
	ReasoningModel string
}

// StageResult is the outcome of one completion
type StageResult struct {
	Name          string
	Model         string
	Text          string
	Elapsed       time.Duration
	ClientVersion uint64
}

// Result is what a run returns to its caller
type Result struct {
	DisplayText  string
	Stages       []StageResult
	Total        time.Duration
	Artifact     artifact.Artifact
	Project      string
	Scope        string
	Notification string // empty unless a message was handed to the notifier
}

// Pipeline wires the gateway, target lookup, writer and notifier together
type Pipeline struct {
	gateway  Completer
	targets  TargetResolver
	writer   ArtifactWriter
	notifier Notifier
	logger   *zap.Logger
}

// New creates a pipeline. A nil notifier disables notifications.
func New(gw Completer, targets TargetResolver, writer ArtifactWriter, notifier Notifier, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		gateway:  gw,
		targets:  targets,
		writer:   writer,
		notifier: notifier,
		logger:   logger.Named("pipeline"),
	}
}

// Run executes req in the requested mode
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Mode == OneStep {
		return p.GenerateUpdateScriptDirectly(ctx, req)
	}

	target, err := p.preflight(req.Target)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	solution, err := p.stage(ctx, StageSolution, req.ReasoningModel, solutionPrompt(req.Prompt, req.Context))
	if err != nil {
		return nil, err
	}

	script, err := p.stage(ctx, StageScript, orDefault(req.RegularModel, req.ReasoningModel), scriptPrompt(solution.Text, req.Context))
	if err != nil {
		return nil, err
	}

	total := time.Since(start)

	res := &Result{
		DisplayText: solution.Text,
		Stages:      []StageResult{*solution, *script},
		Total:       total,
	}
	msg := twoStepMessage(target.Project.Name, target.ScopeName(), solution.Elapsed, script.Elapsed, total)
	return p.commit(target, script.Text, msg, res)
}

// GenerateSolution runs Stage A only. Nothing is written and no target is needed.
func (p *Pipeline) GenerateSolution(ctx context.Context, req SolutionRequest) (*StageResult, error) {
	if !p.gateway.Configured() {
		return nil, fmt.Errorf("%w: set api_url in settings", gateway.ErrNotConfigured)
	}
	return p.stage(ctx, StageSolution, req.Model, solutionPrompt(req.Prompt, req.Context))
}

// GenerateUpdateScript runs Stage B on a solution the caller already has
func (p *Pipeline) GenerateUpdateScript(ctx context.Context, req ScriptRequest) (*Result, error) {
	target, err := p.preflight(req.Target)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	script, err := p.stage(ctx, StageScript, orDefault(req.RegularModel, req.ReasoningModel), scriptPrompt(req.Solution, req.Context))
	if err != nil {
		return nil, err
	}
	total := time.Since(start)

	res := &Result{
		DisplayText: script.Text,
		Stages:      []StageResult{*script},
		Total:       total,
	}
	msg := singleStepMessage(target.Project.Name, target.ScopeName(), total)
	return p.commit(target, script.Text, msg, res)
}

// GenerateUpdateScriptDirectly makes one completion whose answer is both the display text and the script
func (p *Pipeline) GenerateUpdateScriptDirectly(ctx context.Context, req Request) (*Result, error) {
	target, err := p.preflight(req.Target)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	direct, err := p.stage(ctx, StageDirect, req.ReasoningModel, directPrompt(req.Prompt, req.Context))
	if err != nil {
		return nil, err
	}
	total := time.Since(start)

	res := &Result{
		DisplayText: direct.Text,
		Stages:      []StageResult{*direct},
		Total:       total,
	}
	msg := singleStepMessage(target.Project.Name, target.ScopeName(), total)
	return p.commit(target, direct.Text, msg, res)
}

// preflight checks configuration, then resolves the target. Neither touches the network.
func (p *Pipeline) preflight(ref Target) (*storage.Target, error) {
	if !p.gateway.Configured() {
		return nil, fmt.Errorf("%w: set api_url in settings", gateway.ErrNotConfigured)
	}

	target, err := p.targets.ResolveTarget(ref.ProjectID, ref.ScopeID)
	if err != nil {
		return nil, err
	}
	if target.Project.RootFolder == "" {
		return nil, fmt.Errorf("%w: project %q has no root folder", storage.ErrTargetNotFound, target.Project.Name)
	}
	return target, nil
}

func (p *Pipeline) stage(ctx context.Context, name, model, input string) (*StageResult, error) {
	p.logger.Info("stage started", zap.String("stage", name), zap.String("model", model), zap.Int("input_bytes", len(input)))

	start := time.Now()
	completion, err := p.gateway.Complete(ctx, model, []gateway.Message{gateway.UserMessage(input)})
	elapsed := time.Since(start)
	if err != nil {
		p.logger.Debug("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, err
	}

	p.logger.Info("stage completed",
		zap.String("stage", name),
		zap.Duration("elapsed", elapsed),
		zap.Uint64("client_version", completion.ClientVersion))

	return &StageResult{
		Name:          name,
		Model:         model,
		Text:          completion.Text,
		Elapsed:       elapsed,
		ClientVersion: completion.ClientVersion,
	}, nil
}

// commit extracts and writes the script, then notifies. A failed write skips the notification
// but still returns res so the caller keeps the display text.
func (p *Pipeline) commit(target *storage.Target, raw, message string, res *Result) (*Result, error) {
	res.Project = target.Project.Name
	res.Scope = target.ScopeName()
	res.Artifact = artifact.New(target.Project.RootFolder, ExtractCodeBlock(raw))

	if err := p.writer.Write(res.Artifact); err != nil {
		p.logger.Debug("artifact write failed", zap.String("path", res.Artifact.Path), zap.Error(err))
		return res, err
	}

	res.Notification = message
	if p.notifier != nil {
		p.notifier.Notify(message)
	}
	return res, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
