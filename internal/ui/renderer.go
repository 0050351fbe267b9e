package ui

import (
	"fmt"
	"sort"
	"strings"

	forgectx "github.com/tara-vision/codeforge/internal/context"
	"github.com/tara-vision/codeforge/internal/gateway"
	"github.com/tara-vision/codeforge/internal/pipeline"
	"github.com/tara-vision/codeforge/internal/storage"
)

// Config holds UI configuration options
type Config struct {
	EnableSpinner  bool
	EnableMarkdown bool
}

// DefaultConfig returns the default UI configuration
func DefaultConfig() *Config {
	return &Config{
		EnableSpinner:  true,
		EnableMarkdown: true,
	}
}

// Renderer handles all UI output formatting
type Renderer struct {
	config *Config
}

// NewRenderer creates a new renderer with default config
func NewRenderer() *Renderer {
	return &Renderer{
		config: DefaultConfig(),
	}
}

// NewRendererWithConfig creates a renderer with custom config
func NewRendererWithConfig(config *Config) *Renderer {
	if !config.EnableMarkdown {
		DisableMarkdown()
	}
	return &Renderer{
		config: config,
	}
}

// SpinnerEnabled reports whether callers should animate waits
func (r *Renderer) SpinnerEnabled() bool {
	return r.config.EnableSpinner
}

// WelcomeMessage returns the styled welcome banner
func (r *Renderer) WelcomeMessage() string {
	var sb strings.Builder

	title := TitleStyle.Render(IconForge + " Code Forge")
	subtitle := Subtle.Render("prompt → context → update.sh")

	sb.WriteString(fmt.Sprintf("%s - %s\n", title, subtitle))
	sb.WriteString(Subtle.Render("Type '/help' for commands, 'exit' to quit"))
	sb.WriteString("\n")

	return sb.String()
}

// GatewayMessage describes the endpoint the session talks to
func (r *Renderer) GatewayMessage(snap gateway.Snapshot) string {
	if !snap.Configured {
		return WarningStyle.Render(IconTip+" API not configured. Run 'codeforge config set api_url <url>'") + "\n"
	}
	return SuccessStyle.Render(fmt.Sprintf("%s Connected to %s", IconSuccess, snap.Provider)) +
		Subtle.Render(fmt.Sprintf(" (%s, v%d)", snap.BaseURL, snap.Version)) + "\n"
}

// TargetMessage shows the selected project and scope
func (r *Renderer) TargetMessage(t *storage.Target) string {
	if t == nil {
		return WarningStyle.Render(IconTip+" No project selected. Use '/project' to pick one") + "\n"
	}
	line := fmt.Sprintf("%s %s %s", IconFolder, Bold.Render(t.Project.Name), Subtle.Render(t.Project.RootFolder))
	if t.Scope != nil {
		line += fmt.Sprintf("  %s %s", IconScope, t.Scope.Name)
	}
	return InfoStyle.Render(line) + "\n"
}

// ContextSummary reports what a serialization pass covered
func (r *Renderer) ContextSummary(stats forgectx.Stats) string {
	msg := fmt.Sprintf("%s Context: %d files in %d folders, %s",
		IconArrow, stats.Files, stats.Dirs, forgectx.FormatBytes(stats.Bytes))
	if stats.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", stats.Skipped)
	}
	if stats.Errors > 0 {
		msg += fmt.Sprintf(", %d unreadable", stats.Errors)
	}
	return StageStyle.Render(msg)
}

// StageStarted is the spinner message for a pending stage
func (r *Renderer) StageStarted(name, model string) string {
	return fmt.Sprintf("Waiting for %s from %s", name, model)
}

// FormatStage returns one finished stage
func (r *Renderer) FormatStage(s pipeline.StageResult) string {
	return StageStyle.Render(fmt.Sprintf("%s %s via %s in %s", IconArrow, s.Name, s.Model, pipeline.FormatElapsed(s.Elapsed)))
}

// DisplayText renders a model answer, as markdown when enabled
func (r *Renderer) DisplayText(text string) string {
	if r.config.EnableMarkdown {
		return RenderMarkdown(text)
	}
	return text
}

// ResultSummary lists stage times and where the script went
func (r *Renderer) ResultSummary(res *pipeline.Result) string {
	var sb strings.Builder
	for _, s := range res.Stages {
		sb.WriteString(r.FormatStage(s) + "\n")
	}
	if len(res.Stages) > 1 {
		sb.WriteString(StageStyle.Render(fmt.Sprintf("%s total %s", IconTimer, pipeline.FormatElapsed(res.Total))) + "\n")
	}
	if res.Artifact.Path != "" && res.Notification != "" {
		sb.WriteString(SuccessStyle.Render(IconSuccess+" Saved ") + ArtifactPath.Render(res.Artifact.Path) + "\n")
	}
	return sb.String()
}

// ScriptPreview boxes the generated script
func (r *Renderer) ScriptPreview(script string) string {
	return PanelStyle.Render(strings.TrimRight(script, "\n"))
}

// FormatProjects lists projects with their scopes
func (r *Renderer) FormatProjects(projects []storage.Project, scopes []storage.Scope) string {
	if len(projects) == 0 {
		return Subtle.Render("No projects yet. Create one with 'codeforge project add <name> <root>'.")
	}

	byProject := make(map[string][]storage.Scope)
	for _, s := range scopes {
		byProject[s.ProjectID] = append(byProject[s.ProjectID], s)
	}

	var sb strings.Builder
	for _, p := range projects {
		sb.WriteString(fmt.Sprintf("%s %s %s\n", IconFolder, Bold.Render(p.Name), Subtle.Render(shortID(p.ID)+"  "+p.RootFolder)))
		for _, s := range byProject[p.ID] {
			sb.WriteString(fmt.Sprintf("   %s %s %s\n", IconScope, s.Name, Subtle.Render(fmt.Sprintf("%s  %d folders", shortID(s.ID), len(s.Folders)))))
		}
	}
	return sb.String()
}

// FormatModels lists models, marking the configured ones
func (r *Renderer) FormatModels(models []storage.Model, reasoning, regular string) string {
	if len(models) == 0 {
		return Subtle.Render("No models cached. Run 'codeforge models --refresh'.")
	}

	var sb strings.Builder
	for _, m := range models {
		var tags []string
		if m.ID == reasoning {
			tags = append(tags, "reasoning")
		}
		if m.ID == regular {
			tags = append(tags, "regular")
		}
		line := "  " + m.ID
		if len(tags) > 0 {
			line = SuccessStyle.Render(line) + Subtle.Render(" ("+strings.Join(tags, ", ")+")")
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// FormatSettings prints redacted settings in key order
func (r *Renderer) FormatSettings(settings map[string]any) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-20s %v\n", k+":", settings[k]))
	}
	return sb.String()
}

// PromptString returns the styled prompt
func (r *Renderer) PromptString() string {
	return PromptStyle.Render("❯") + " "
}

// ErrorMessage formats an error message
func (r *Renderer) ErrorMessage(err error) string {
	return ErrorStyle.Render(fmt.Sprintf("%s Error: %v", IconError, err))
}

// WarningMessage formats a warning message
func (r *Renderer) WarningMessage(msg string) string {
	return WarningStyle.Render(fmt.Sprintf("%s %s", IconWarning, msg))
}

// InfoMessage formats an info message
func (r *Renderer) InfoMessage(msg string) string {
	return InfoStyle.Render(fmt.Sprintf("%s %s", IconInfo, msg))
}

// SuccessMessage formats a success message
func (r *Renderer) SuccessMessage(msg string) string {
	return SuccessStyle.Render(fmt.Sprintf("%s %s", IconSuccess, msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
