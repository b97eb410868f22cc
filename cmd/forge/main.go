package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storyforge/internal/config"
	"storyforge/internal/logging"
)

var (
	// Global flags
	verbose   bool
	workspace string
	apiKey    string
	timeout   time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "storyforge - natural-language story generation with verified output",
	Long: `storyforge turns natural-language UI requests into verified
component-showcase (story) files.

A request runs through four stages:
  1. Catalog: discover the project's components from packages, local
     files, manifests, and user overrides
  2. Generate: produce the story text from the request and the catalog
  3. Validate: statically check the artifact against the catalog and
     auto-repair mechanical defects
  4. Verify: confirm the story loads and renders on the live preview
     server`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve workspace: %w", err)
			}
			workspace = wd
		}

		if err := logging.Initialize(workspace); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// loadConfig resolves the workspace configuration with CLI overrides.
// Relative story paths are anchored at the workspace, not the process
// working directory.
func loadConfig() *config.Config {
	cfg := config.LoadOrDefault(workspace)
	if apiKey != "" {
		cfg.Generate.APIKey = apiKey
	}
	if !filepath.IsAbs(cfg.Stories.MappingDir) {
		cfg.Stories.MappingDir = filepath.Join(workspace, cfg.Stories.MappingDir)
	}
	if !filepath.IsAbs(cfg.Stories.OutputDir) {
		cfg.Stories.OutputDir = filepath.Join(workspace, cfg.Stories.OutputDir)
	}
	return cfg
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
