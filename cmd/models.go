package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tara-vision/codeforge/internal/storage"
)

var refreshModels bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the endpoint offers",
	Long: `Shows the cached model list, marking the configured reasoning and regular models.
With --refresh the list is fetched from the endpoint. When the endpoint cannot be
listed, a single fallback entry (the reasoning model, or gpt-3.5-turbo) is cached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		models, err := a.models(cmd.Context(), refreshModels)
		if err != nil {
			return err
		}
		s := a.current()
		fmt.Print(a.renderer.FormatModels(models, s.ReasoningModel, s.RegularModel))
		return nil
	},
}

func init() {
	modelsCmd.Flags().BoolVarP(&refreshModels, "refresh", "r", false, "fetch the list from the endpoint")
	rootCmd.AddCommand(modelsCmd)
}

// models returns the cached list, fetching it when refresh is set or nothing is cached
func (a *app) models(ctx context.Context, refresh bool) ([]storage.Model, error) {
	if !refresh {
		cached, ok, err := a.store.LoadModels()
		if err != nil {
			return nil, err
		}
		if ok {
			return cached, nil
		}
	}

	if !a.gateway.Configured() {
		return nil, fmt.Errorf("API not configured, run 'codeforge config set api_url <url>'")
	}

	var ids []string
	err := a.spin("Fetching models", func() error {
		var listErr error
		ids, listErr = a.gateway.ListModels(ctx)
		return listErr
	})
	if err != nil || len(ids) == 0 {
		a.logger.Warn("model listing failed, caching fallback", zap.Error(err))
		fmt.Fprintln(os.Stderr, a.renderer.WarningMessage("Could not list models, using a fallback entry"))
		return a.store.SaveDefaultModels(a.current().ReasoningModel)
	}

	if err := a.store.SaveModels(ids); err != nil {
		return nil, err
	}
	cached, _, err := a.store.LoadModels()
	return cached, err
}
