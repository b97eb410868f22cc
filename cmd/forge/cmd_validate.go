package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyforge/internal/catalog"
	"storyforge/internal/validate"
)

var (
	validateRepair bool
	validateWrite  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Statically validate an existing story file",
	Long: `Checks a story file against the component catalog: syntax,
unimported usages, hallucinated imports, deep import specifiers,
truncation artifacts, and dialect shape rules. With --repair the
deterministic rewrite passes run and the repaired text is printed (or
written back with --write).`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateRepair, "repair", false, "Attempt deterministic auto-repair")
	validateCmd.Flags().BoolVar(&validateWrite, "write", false, "Write the repaired text back to the file (implies --repair)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}

	cfg := loadConfig()
	dialect, err := validate.ParseDialect(cfg.Validate.Dialect)
	if err != nil {
		return err
	}

	records := catalog.Build(ctx, workspace, cfg.Catalog)
	oracle := catalog.NewOracle(records)

	validator := validate.NewValidator(oracle, dialect, validate.Options{
		CanonicalImportPath: cfg.Catalog.PrimaryImportPath,
		StrictImports:       cfg.Validate.StrictImports,
		Repair:              validateRepair || validateWrite,
		MaxRepairPasses:     cfg.Validate.MaxRepairPasses,
	})

	outcome := validator.Run(ctx, string(data))
	fmt.Println(renderOutcome(outcome))

	if outcome.RepairedArtifact != "" {
		if validateWrite {
			if err := os.WriteFile(path, []byte(outcome.RepairedArtifact), 0o644); err != nil {
				return fmt.Errorf("write repaired artifact: %w", err)
			}
			fmt.Println(okStyle.Render("repaired artifact written back"))
		} else if validateRepair {
			fmt.Println()
			fmt.Println(outcome.RepairedArtifact)
		}
	}

	if !outcome.IsValid {
		return fmt.Errorf("%s: %d error(s)", path, outcome.ErrorCount())
	}
	return nil
}
