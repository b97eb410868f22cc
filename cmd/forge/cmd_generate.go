package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyforge/internal/catalog"
	"storyforge/internal/generate"
	"storyforge/internal/pipeline"
	"storyforge/internal/preview"
	"storyforge/internal/story"
)

var generateCmd = &cobra.Command{
	Use:   "generate [request]",
	Short: "Generate a verified story from a natural-language request",
	Long: `Runs the full pipeline for one request: build the component
catalog, generate the story text, statically validate (and auto-repair)
it, persist the accepted artifact, and verify it against the live
preview server. Failed attempts are regenerated with their diagnostics
embedded in the prompt, up to the configured attempt budget.

Example:
  forge generate "a login form with inline validation errors"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	concept := strings.Join(args, " ")
	cfg := loadConfig()
	if err := cfg.Check(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("building catalog")
	records := catalog.Build(ctx, workspace, cfg.Catalog)
	logger.Info("catalog ready", zap.Int("components", len(records)))
	if len(records) == 0 {
		fmt.Println(warnStyle.Render("! component catalog is empty; generation quality will degrade"))
	}

	gen, err := generate.FromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}
	verifier, err := preview.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}
	store, err := story.NewStore(cfg.Stories.MappingDir)
	if err != nil {
		return fmt.Errorf("open story store: %w", err)
	}

	p, err := pipeline.New(cfg, gen, records, verifier, store)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, concept)
	if result != nil {
		printResult(result)
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrMaxAttemptsExceeded) {
			return fmt.Errorf("no verified story after %d attempt(s)", result.Attempts)
		}
		return err
	}
	return nil
}

func printResult(res *pipeline.Result) {
	fmt.Println(headerStyle.Render(res.Title))
	fmt.Printf("  request:  %s\n", dimStyle.Render(res.RequestID))
	fmt.Printf("  attempts: %d\n", res.Attempts)
	if res.FilePath != "" {
		fmt.Printf("  artifact: %s\n", res.FilePath)
	}
	fmt.Printf("  static:   %s\n", renderOutcome(res.Outcome))
	fmt.Printf("  runtime:  %s\n", renderRuntime(res.Runtime))
	if res.NeedsRegeneration {
		fmt.Println(warnStyle.Render("  story persisted but unverified; regenerate when the preview server is healthy"))
	}
}
