package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyforge/internal/catalog"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Discover and print the component catalog",
	Long: `Builds the component catalog from every configured source
(installed packages, local file scans, custom-elements manifests, user
overrides), resolves name conflicts by origin priority, and prints the
surviving records.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "Emit the catalog as JSON")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := loadConfig()
	records := catalog.Build(ctx, workspace, cfg.Catalog)
	logger.Info("catalog built", zap.Int("components", len(records)))

	if catalogJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println(warnStyle.Render("catalog is empty"))
		return nil
	}

	byCategory := make(map[catalog.Category][]catalog.ComponentRecord)
	for _, rec := range records {
		byCategory[rec.Category] = append(byCategory[rec.Category], rec)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	for _, c := range categories {
		fmt.Println(headerStyle.Render(c))
		for _, rec := range byCategory[catalog.Category(c)] {
			line := fmt.Sprintf("  %-24s %s", rec.Name, dimStyle.Render(rec.ImportPath))
			fmt.Println(line)
			if len(rec.Props) > 0 {
				fmt.Println(dimStyle.Render(fmt.Sprintf("    props: %v", rec.Props)))
			}
		}
	}
	fmt.Printf("\n%d component(s) from %s\n", len(records), dimStyle.Render("priority: override > scan > package > manifest"))
	return nil
}
