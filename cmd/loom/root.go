package main

import (
	"log/slog"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/loomhq/loom"
	"github.com/loomhq/loom/llm"
)

var (
	// Global flags.
	verbose   bool
	model     string
	maxTokens int64
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Staged LLM pipeline runner",
	Long: `Loom runs multi-stage LLM pipelines: sequenced model calls with
state bridging between stages, an audit log of raw responses, and
schema-validated structured output.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// API credentials may live in a .env file during development.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&model, "model", "claude-sonnet-4-5", "Model to use")
	rootCmd.PersistentFlags().Int64Var(&maxTokens, "max-tokens", 4096, "Max response tokens")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// newLogger builds the CLI's structured logger.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
}

// newClient builds the model endpoint client from the global flags.
func newClient(logger *slog.Logger) loom.Client {
	return llm.NewAnthropic(anthropic.Model(model), maxTokens,
		llm.WithLogger(logger),
		llm.WithTemperature(0),
	)
}
