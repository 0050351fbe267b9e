package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tara-vision/codeforge/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	plain     bool
	noSpinner bool
	Version   = "dev"

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "codeforge",
	Version: Version,
	Short:   "Code Forge - turn a prompt and your source tree into update.sh",
	Long: `Code Forge serializes project folders into a markdown context, sends it with your
prompt to an OpenAI-compatible endpoint, and saves the answer as an update.sh
script in the project root. Review the script, then run it yourself.

Run without arguments to start an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return startREPL(cmd.Context())
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.codeforge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print model answers without markdown rendering")
	rootCmd.PersistentFlags().BoolVar(&noSpinner, "no-spinner", false, "disable spinner animations")
	rootCmd.PersistentFlags().String("api-url", "", "OpenAI-compatible base URL (e.g. http://localhost:11434/v1)")
	rootCmd.PersistentFlags().String("api-key", "", "API key (optional for local servers)")
	rootCmd.PersistentFlags().String("vendor", "", "server vendor (auto, openai, vllm, ollama, llama.cpp)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request timeout, 0 for none")

	viper.BindPFlag(config.KeyAPIURL, rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag(config.KeyAPIKey, rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag(config.KeyVendor, rootCmd.PersistentFlags().Lookup("vendor"))
	viper.BindPFlag(config.KeyTimeout, rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	// .env in the working directory feeds both CODEFORGE_* and OPENAI_* variables
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	configDir, err := config.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	config.Configure(viper.GetViper(), configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", cfgFile, err)
		}
	}
}

// configPath is where `config set` writes
func configPath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := config.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// newLogger builds a console logger on stderr. Warnings only unless verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.DisableStacktrace = false
	}
	return cfg.Build()
}
