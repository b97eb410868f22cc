package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyforge/internal/preview"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [title]",
	Short: "Verify a story against the live preview server",
	Long: `Runs the runtime verification state machine for an existing
story title: wait for propagation, poll the preview index for the
derived identifier, then scan the rendered frame for failure
signatures.

Example:
  forge verify "Generated/Login Form"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	title := strings.Join(args, " ")
	cfg := loadConfig()

	verifier, err := preview.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}

	fmt.Printf("%s %s\n", dimStyle.Render("story id:"), preview.StoryID(cfg.Preview.TitlePrefix+strings.TrimPrefix(title, cfg.Preview.TitlePrefix)))

	res := verifier.Verify(ctx, title)
	fmt.Println(renderRuntime(res))

	if !res.Pass() {
		return fmt.Errorf("verification failed: %s", res.State)
	}
	return nil
}
