package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tara-vision/codeforge/internal/artifact"
	"github.com/tara-vision/codeforge/internal/pipeline"
)

// runFlags are shared by prompt, solution, script and direct
type runFlags struct {
	project        string
	scope          string
	folders        []string
	mode           string
	reasoningModel string
	regularModel   string
	contextFile    string
	solutionFile   string
	output         string
}

func (f *runFlags) targetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "project ID or name")
	cmd.Flags().StringVarP(&f.scope, "scope", "s", "", "scope ID or name within the project")
}

func (f *runFlags) contextFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.folders, "folder", "f", nil, "folders to serialize instead of the project's")
	cmd.Flags().StringVar(&f.contextFile, "context-file", "", "use a prebuilt context file (see 'codeforge context -o')")
}

func (f *runFlags) modelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.reasoningModel, "reasoning-model", "", "model for the solution stage (default from config)")
	cmd.Flags().StringVar(&f.regularModel, "regular-model", "", "model for the script stage (default from config)")
}

var (
	promptFlags   runFlags
	solutionFlags runFlags
	scriptFlags   runFlags
	directFlags   runFlags
)

var promptCmd = &cobra.Command{
	Use:   "prompt <request>",
	Short: "Generate update.sh for a project from a request",
	Long: `Runs the full pipeline. In two-step mode (default) the reasoning model first
answers the request, the answer is printed, and the regular model turns it into a
single shell block saved as <project root>/update.sh. In one-step mode a single call
produces the script directly. Use "-" to read the request from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := pipeline.ParseMode(promptFlags.mode)
		if err != nil {
			return err
		}
		return runPipeline(cmd, args, &promptFlags, mode)
	},
}

var directCmd = &cobra.Command{
	Use:   "direct <request>",
	Short: "Generate update.sh with a single model call",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args, &directFlags, pipeline.OneStep)
	},
}

var solutionCmd = &cobra.Command{
	Use:   "solution <request>",
	Short: "Ask the reasoning model for a solution without writing a script",
	Long: `Runs only the first stage. Save the answer with -o, edit it if needed, then
turn it into update.sh with 'codeforge script --solution-file <file>'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		request, err := readRequest(args)
		if err != nil {
			return err
		}
		contextText, err := a.loadContext(&solutionFlags)
		if err != nil {
			return err
		}

		var stage *pipeline.StageResult
		err = a.spin("Thinking", func() error {
			var runErr error
			stage, runErr = a.pipeline.GenerateSolution(cmd.Context(), pipeline.SolutionRequest{
				Prompt:  request,
				Context: contextText,
				Model:   orFlag(solutionFlags.reasoningModel, a.current().ReasoningModel),
			})
			return runErr
		})
		if err != nil {
			return err
		}

		if solutionFlags.output != "" {
			if err := os.WriteFile(solutionFlags.output, []byte(stage.Text), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", solutionFlags.output, err)
			}
			fmt.Fprintln(os.Stderr, a.renderer.SuccessMessage("Solution saved to "+solutionFlags.output))
		}

		fmt.Println(a.renderer.DisplayText(stage.Text))
		fmt.Fprintln(os.Stderr, a.renderer.FormatStage(*stage))
		return nil
	},
}

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Turn a saved solution into update.sh",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scriptFlags.solutionFile == "" {
			return fmt.Errorf("--solution-file is required")
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		solution, err := readFileOrStdin(scriptFlags.solutionFile)
		if err != nil {
			return err
		}
		contextText, err := a.loadContext(&scriptFlags)
		if err != nil {
			return err
		}

		settings := a.current()
		var res *pipeline.Result
		runErr := a.spin("Writing update script", func() error {
			var err error
			res, err = a.pipeline.GenerateUpdateScript(cmd.Context(), pipeline.ScriptRequest{
				Solution:       solution,
				Context:        contextText,
				Target:         pipeline.Target{ProjectID: scriptFlags.project, ScopeID: scriptFlags.scope},
				RegularModel:   orFlag(scriptFlags.regularModel, settings.RegularModel),
				ReasoningModel: orFlag(scriptFlags.reasoningModel, settings.ReasoningModel),
			})
			return err
		})
		return a.reportResult(res, runErr, false)
	},
}

func init() {
	promptFlags.targetFlags(promptCmd)
	promptFlags.contextFlags(promptCmd)
	promptFlags.modelFlags(promptCmd)
	promptCmd.Flags().StringVarP(&promptFlags.mode, "mode", "m", "two-step", "one-step or two-step")

	directFlags.targetFlags(directCmd)
	directFlags.contextFlags(directCmd)
	directFlags.modelFlags(directCmd)

	solutionFlags.targetFlags(solutionCmd)
	solutionFlags.contextFlags(solutionCmd)
	solutionFlags.modelFlags(solutionCmd)
	solutionCmd.Flags().StringVarP(&solutionFlags.output, "output", "o", "", "also save the solution to a file")

	scriptFlags.targetFlags(scriptCmd)
	scriptFlags.contextFlags(scriptCmd)
	scriptFlags.modelFlags(scriptCmd)
	scriptCmd.Flags().StringVar(&scriptFlags.solutionFile, "solution-file", "", "solution text to implement (- for stdin)")

	rootCmd.AddCommand(promptCmd, directCmd, solutionCmd, scriptCmd)
}

// runPipeline is shared by prompt and direct
func runPipeline(cmd *cobra.Command, args []string, flags *runFlags, mode pipeline.Mode) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	request, err := readRequest(args)
	if err != nil {
		return err
	}
	contextText, err := a.loadContext(flags)
	if err != nil {
		return err
	}

	settings := a.current()
	req := pipeline.Request{
		Prompt:         request,
		Context:        contextText,
		Target:         pipeline.Target{ProjectID: flags.project, ScopeID: flags.scope},
		ReasoningModel: orFlag(flags.reasoningModel, settings.ReasoningModel),
		RegularModel:   orFlag(flags.regularModel, settings.RegularModel),
		Mode:           mode,
	}

	var res *pipeline.Result
	runErr := a.spin(fmt.Sprintf("Forging %s (%s)", artifact.Filename, mode), func() error {
		var err error
		res, err = a.pipeline.Run(cmd.Context(), req)
		return err
	})
	return a.reportResult(res, runErr, true)
}

// reportResult prints whatever the pipeline produced, including the display text of a run
// whose script could not be saved
func (a *app) reportResult(res *pipeline.Result, runErr error, showDisplay bool) error {
	if res == nil {
		return runErr
	}

	if showDisplay {
		fmt.Println(a.renderer.DisplayText(res.DisplayText))
		fmt.Println()
	}
	fmt.Print(a.renderer.ResultSummary(res))

	if errors.Is(runErr, artifact.ErrWriteFailed) {
		fmt.Fprintln(os.Stderr, a.renderer.WarningMessage("The solution above is valid but update.sh was not saved"))
	}
	return runErr
}

// loadContext reads --context-file, or serializes folders / the target
func (a *app) loadContext(flags *runFlags) (string, error) {
	if flags.contextFile != "" {
		return readFileOrStdin(flags.contextFile)
	}
	if flags.project == "" && len(flags.folders) == 0 {
		return "", fmt.Errorf("no context: pass --project, --folder or --context-file")
	}

	text, stats, _, err := a.buildContext(flags.folders, flags.project, flags.scope)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(os.Stderr, a.renderer.ContextSummary(stats))
	return text, nil
}

// readRequest joins args into the request; a single "-" reads stdin
func readRequest(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		return readFileOrStdin("-")
	}
	request := strings.TrimSpace(strings.Join(args, " "))
	if request == "" {
		return "", fmt.Errorf("empty request")
	}
	return request, nil
}

func readFileOrStdin(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func orFlag(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
