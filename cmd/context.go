package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	forgectx "github.com/tara-vision/codeforge/internal/context"
	"github.com/tara-vision/codeforge/internal/storage"
)

var (
	ctxProject string
	ctxScope   string
	ctxOutput  string
)

var contextCmd = &cobra.Command{
	Use:   "context [folders...]",
	Short: "Print the markdown context for folders or a project",
	Long: `Serializes the given folders (or the folders of --project / --scope) into the
markdown document that is sent to the model. Excluded names and extensions come from
the built-in list plus exclude_names / exclude_extensions in the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		text, stats, _, err := a.buildContext(args, ctxProject, ctxScope)
		if err != nil {
			return err
		}

		if ctxOutput == "" || ctxOutput == "-" {
			fmt.Print(text)
		} else if err := os.WriteFile(ctxOutput, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", ctxOutput, err)
		}
		fmt.Fprintln(os.Stderr, a.renderer.ContextSummary(stats))
		return nil
	},
}

func init() {
	contextCmd.Flags().StringVarP(&ctxProject, "project", "p", "", "project ID or name")
	contextCmd.Flags().StringVarP(&ctxScope, "scope", "s", "", "scope ID or name within the project")
	contextCmd.Flags().StringVarP(&ctxOutput, "output", "o", "", "write the context to a file instead of stdout")
	rootCmd.AddCommand(contextCmd)
}

// buildContext serializes explicit folders, or the target's folders when none are given.
// The resolved target is returned when projectRef is set.
func (a *app) buildContext(folders []string, projectRef, scopeRef string) (string, forgectx.Stats, *storage.Target, error) {
	var target *storage.Target
	if projectRef != "" {
		t, err := a.store.ResolveTarget(projectRef, scopeRef)
		if err != nil {
			return "", forgectx.Stats{}, nil, err
		}
		target = t
		if len(folders) == 0 {
			folders = t.Folders()
		}
	}
	if len(folders) == 0 {
		return "", forgectx.Stats{}, nil, fmt.Errorf("no folders given: pass folders or --project")
	}

	text, stats := forgectx.SerializeWithStats(folders, a.current().Policy())
	a.logger.Debug("context built",
		zap.Strings("roots", folders),
		zap.Int("files", stats.Files),
		zap.Int64("bytes", stats.Bytes),
		zap.Int("bytes_total", len(text)))
	return text, stats, target, nil
}
