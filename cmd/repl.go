package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tara-vision/codeforge/internal/artifact"
	"github.com/tara-vision/codeforge/internal/config"
	"github.com/tara-vision/codeforge/internal/pipeline"
	"github.com/tara-vision/codeforge/internal/storage"
)

// session is the REPL's selection state
type session struct {
	target       *storage.Target
	mode         pipeline.Mode
	lastSolution string
	lastContext  string
}

func startREPL(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Print(a.renderer.WelcomeMessage())
	fmt.Print(a.renderer.GatewayMessage(a.gateway.Snapshot()))

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if used := viper.ConfigFileUsed(); used != "" {
		err := watchConfig(watchCtx, used, a.logger, func() {
			if err := a.reload(); err != nil {
				a.logger.Warn("config reload failed", zap.String("file", used), zap.Error(err))
				return
			}
			fmt.Print("\n" + a.renderer.InfoMessage("Config changed, settings reloaded") + "\n")
		})
		if err != nil {
			a.logger.Warn("config changes will need /reload", zap.Error(err))
		}
	}

	s := &session{}
	if projects := a.store.ListProjects(); len(projects) == 1 {
		s.target = &storage.Target{Project: projects[0]}
	}
	fmt.Print(a.renderer.TargetMessage(s.target))
	fmt.Println()

	historyFile := ""
	if dir, err := config.DefaultDir(); err == nil {
		historyFile = filepath.Join(dir, "history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          a.renderer.PromptString(),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(),
	})
	if err != nil {
		return fmt.Errorf("error setting up readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or Ctrl+C
			fmt.Println("\nGoodbye!")
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		if strings.HasPrefix(line, "/") {
			a.handleCommand(ctx, s, line)
			continue
		}

		a.runRequest(ctx, s, line, s.mode)
		fmt.Println()
	}
}

func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/help"),
		readline.PcItem("/project"),
		readline.PcItem("/scope", readline.PcItem("none")),
		readline.PcItem("/mode", readline.PcItem("one-step"), readline.PcItem("two-step")),
		readline.PcItem("/models", readline.PcItem("refresh")),
		readline.PcItem("/model", readline.PcItem("reasoning"), readline.PcItem("regular")),
		readline.PcItem("/context"),
		readline.PcItem("/solution"),
		readline.PcItem("/script"),
		readline.PcItem("/direct"),
		readline.PcItem("/status"),
		readline.PcItem("/reload"),
		readline.PcItem("exit"),
	)
}

func (a *app) handleCommand(ctx context.Context, s *session, line string) {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

	switch cmd {
	case "/help":
		printHelp()

	case "/project":
		a.chooseProject(s, rest)

	case "/scope":
		a.chooseScope(s, rest)

	case "/mode":
		if len(args) == 0 {
			fmt.Printf("Mode: %s\n\n", s.mode)
			return
		}
		mode, err := pipeline.ParseMode(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
			return
		}
		s.mode = mode
		fmt.Println(a.renderer.SuccessMessage("Mode set to " + mode.String()))
		fmt.Println()

	case "/models":
		models, err := a.models(ctx, len(args) > 0 && args[0] == "refresh")
		if err != nil {
			fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
			return
		}
		settings := a.current()
		fmt.Print(a.renderer.FormatModels(models, settings.ReasoningModel, settings.RegularModel))
		fmt.Println()

	case "/model":
		a.chooseModel(ctx, args)

	case "/context":
		if s.target == nil {
			fmt.Println(a.renderer.TargetMessage(nil))
			return
		}
		_, stats, _, err := a.buildContext(nil, s.target.Project.ID, scopeID(s.target))
		if err != nil {
			fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
			return
		}
		fmt.Println(a.renderer.ContextSummary(stats))
		fmt.Println()

	case "/solution":
		if rest == "" {
			fmt.Println("Usage: /solution <request>")
			return
		}
		a.runSolution(ctx, s, rest)

	case "/script":
		a.runScript(ctx, s)

	case "/direct":
		if rest == "" {
			fmt.Println("Usage: /direct <request>")
			return
		}
		a.runRequest(ctx, s, rest, pipeline.OneStep)
		fmt.Println()

	case "/status":
		a.printStatus(s)

	case "/reload":
		if err := a.reload(); err != nil {
			fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
			return
		}
		fmt.Print(a.renderer.GatewayMessage(a.gateway.Snapshot()))
		fmt.Println()

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type '/help' for available commands.")
		fmt.Println()
	}
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println()
	fmt.Println("  Target:")
	fmt.Println("    /project [name]   - Select the project update.sh is written to")
	fmt.Println("    /scope [name]     - Narrow the context to a scope ('/scope none' for all)")
	fmt.Println("    /context          - Show what the context covers")
	fmt.Println()
	fmt.Println("  Generation:")
	fmt.Println("    <request>         - Run the pipeline in the current mode")
	fmt.Println("    /mode [one|two]   - Show or switch one-step / two-step mode")
	fmt.Println("    /solution <req>   - Ask for a solution only")
	fmt.Println("    /script           - Turn the last solution into update.sh")
	fmt.Println("    /direct <req>     - One-step run regardless of mode")
	fmt.Println()
	fmt.Println("  Models and settings:")
	fmt.Println("    /models [refresh] - List models")
	fmt.Println("    /model <reasoning|regular> - Pick and save a model")
	fmt.Println("    /status           - Show endpoint, target and models")
	fmt.Println("    /reload           - Re-read the config file")
	fmt.Println()
	fmt.Println("    /help             - Show this help message")
	fmt.Println("    exit              - Exit Code Forge")
	fmt.Println()
}

// interruptible cancels the returned context on Ctrl+C while a request runs
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

func (a *app) runRequest(ctx context.Context, s *session, prompt string, mode pipeline.Mode) {
	if s.target == nil {
		fmt.Print(a.renderer.TargetMessage(nil))
		return
	}
	contextText, stats, _, err := a.buildContext(nil, s.target.Project.ID, scopeID(s.target))
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}
	fmt.Println(a.renderer.ContextSummary(stats))

	settings := a.current()
	req := pipeline.Request{
		Prompt:         prompt,
		Context:        contextText,
		Target:         pipeline.Target{ProjectID: s.target.Project.ID, ScopeID: scopeID(s.target)},
		ReasoningModel: settings.ReasoningModel,
		RegularModel:   settings.RegularModel,
		Mode:           mode,
	}

	runCtx, stop := interruptible(ctx)
	defer stop()

	var res *pipeline.Result
	runErr := a.spin(fmt.Sprintf("Forging %s (%s)", artifact.Filename, mode), func() error {
		res, err = a.pipeline.Run(runCtx, req)
		return err
	})
	if res != nil && mode == pipeline.TwoStep && len(res.Stages) > 0 {
		s.lastSolution = res.Stages[0].Text
		s.lastContext = contextText
	}
	if err := a.reportResult(res, runErr, true); err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
	}
}

func (a *app) runSolution(ctx context.Context, s *session, prompt string) {
	if s.target == nil {
		fmt.Print(a.renderer.TargetMessage(nil))
		return
	}
	contextText, stats, _, err := a.buildContext(nil, s.target.Project.ID, scopeID(s.target))
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}
	fmt.Println(a.renderer.ContextSummary(stats))

	runCtx, stop := interruptible(ctx)
	defer stop()

	var stage *pipeline.StageResult
	err = a.spin("Thinking", func() error {
		var runErr error
		stage, runErr = a.pipeline.GenerateSolution(runCtx, pipeline.SolutionRequest{
			Prompt:  prompt,
			Context: contextText,
			Model:   a.current().ReasoningModel,
		})
		return runErr
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}

	s.lastSolution = stage.Text
	s.lastContext = contextText
	fmt.Println(a.renderer.DisplayText(stage.Text))
	fmt.Println(a.renderer.FormatStage(*stage))
	fmt.Println(a.renderer.InfoMessage("Run /script to turn this into update.sh"))
	fmt.Println()
}

func (a *app) runScript(ctx context.Context, s *session) {
	if s.lastSolution == "" {
		fmt.Println(a.renderer.WarningMessage("No solution yet. Use /solution <request> first"))
		return
	}
	if s.target == nil {
		fmt.Print(a.renderer.TargetMessage(nil))
		return
	}

	runCtx, stop := interruptible(ctx)
	defer stop()

	settings := a.current()
	var res *pipeline.Result
	runErr := a.spin("Writing update script", func() error {
		var err error
		res, err = a.pipeline.GenerateUpdateScript(runCtx, pipeline.ScriptRequest{
			Solution:       s.lastSolution,
			Context:        s.lastContext,
			Target:         pipeline.Target{ProjectID: s.target.Project.ID, ScopeID: scopeID(s.target)},
			RegularModel:   settings.RegularModel,
			ReasoningModel: settings.ReasoningModel,
		})
		return err
	})
	if err := a.reportResult(res, runErr, false); err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}
	if res != nil {
		fmt.Println(a.renderer.ScriptPreview(res.Artifact.Script))
	}
	fmt.Println()
}

func (a *app) chooseProject(s *session, ref string) {
	var project *storage.Project
	var err error
	if ref != "" {
		project, err = a.store.GetProject(ref)
	} else {
		project, err = selectProject(a.store.ListProjects())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}
	s.target = &storage.Target{Project: *project}
	s.lastSolution, s.lastContext = "", ""
	fmt.Print(a.renderer.TargetMessage(s.target))
	fmt.Println()
}

func (a *app) chooseScope(s *session, ref string) {
	if s.target == nil {
		fmt.Print(a.renderer.TargetMessage(nil))
		return
	}
	if ref == "none" {
		s.target = &storage.Target{Project: s.target.Project}
		fmt.Print(a.renderer.TargetMessage(s.target))
		return
	}

	if ref != "" {
		t, err := a.store.ResolveTarget(s.target.Project.ID, ref)
		if err != nil {
			fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
			return
		}
		s.target = t
		fmt.Print(a.renderer.TargetMessage(s.target))
		return
	}

	scopes, err := a.store.ListScopes(s.target.Project.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}
	scope, err := selectScope(scopes)
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}
	s.target = &storage.Target{Project: s.target.Project, Scope: scope}
	fmt.Print(a.renderer.TargetMessage(s.target))
}

// chooseModel picks a model from the cache and saves it to the config file
func (a *app) chooseModel(ctx context.Context, args []string) {
	if len(args) == 0 || (args[0] != "reasoning" && args[0] != "regular") {
		fmt.Println("Usage: /model <reasoning|regular>")
		return
	}

	models, err := a.models(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}

	key, current := config.KeyReasoningModel, a.current().ReasoningModel
	if args[0] == "regular" {
		key, current = config.KeyRegularModel, a.current().RegularModel
	}

	id, err := selectModel("Select the "+args[0]+" model", models, current)
	if err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}

	if err := a.saveSetting(key, id); err != nil {
		fmt.Fprintln(os.Stderr, a.renderer.ErrorMessage(err))
		return
	}
	fmt.Println(a.renderer.SuccessMessage(fmt.Sprintf("%s model set to %s", args[0], id)))
	fmt.Println()
}

// saveSetting writes key to the config file and applies it to this session
func (a *app) saveSetting(key, value string) error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := config.SetValue(path, key, value); err != nil {
		return err
	}

	// the watcher picks the change up too; reloading here makes it visible immediately
	if viper.ConfigFileUsed() == "" {
		viper.SetConfigFile(path)
	}
	return a.reloadLocked()
}

func (a *app) printStatus(s *session) {
	fmt.Println("Status:")
	fmt.Println()

	snap := a.gateway.Snapshot()
	if snap.Configured {
		fmt.Printf("  Endpoint: %s (%s, v%d)\n", snap.BaseURL, snap.Provider, snap.Version)
	} else {
		fmt.Println("  Endpoint: not configured")
	}

	settings := a.current()
	fmt.Printf("  Reasoning model: %s\n", orFlag(settings.ReasoningModel, "(unset)"))
	fmt.Printf("  Regular model: %s\n", orFlag(settings.RegularModel, "(reasoning model)"))
	fmt.Printf("  Mode: %s\n", s.mode)

	if s.target != nil {
		fmt.Printf("  Project: %s (%s)\n", s.target.Project.Name, s.target.Project.RootFolder)
		if s.target.Scope != nil {
			fmt.Printf("  Scope: %s\n", s.target.Scope.Name)
		}
		fmt.Printf("  Folders: %s\n", strings.Join(s.target.Folders(), ", "))
	} else {
		fmt.Println("  Project: none (use /project)")
	}

	if settings.TelegramAPIKey != "" && settings.TelegramChatID != "" {
		fmt.Println("  Telegram: configured")
	} else {
		fmt.Println("  Telegram: off")
	}
	fmt.Printf("  Storage: %s\n", a.store.GetRootDir())
	fmt.Println()
}

func scopeID(t *storage.Target) string {
	if t == nil || t.Scope == nil {
		return ""
	}
	return t.Scope.ID
}
