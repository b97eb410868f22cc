package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyforge/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration into the workspace",
	Long: `Creates .storyforge/config.yaml with commented defaults:
catalog sources, generation provider, validation dialect, and preview
server parameters.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath(workspace)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("%s %s\n", okStyle.Render("wrote"), path)
	fmt.Println(dimStyle.Render("edit catalog.packages, catalog.scan_dirs, and generate.api_key to match your project"))
	return nil
}
