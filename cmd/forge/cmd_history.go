package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyforge/internal/story"
)

var historyCmd = &cobra.Command{
	Use:   "history [concept]",
	Short: "Show generation history for stored concepts",
	Long: `Lists the concept mappings in the story store. With a concept
argument, prints that concept's full version history: every generation
attempt with its validation and verification outcome.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := story.NewStore(cfg.Stories.MappingDir)
	if err != nil {
		return fmt.Errorf("open story store: %w", err)
	}

	if len(args) == 0 {
		mappings, err := store.List()
		if err != nil {
			return err
		}
		if len(mappings) == 0 {
			fmt.Println(dimStyle.Render("no stories generated yet"))
			return nil
		}
		for _, m := range mappings {
			status := dimStyle.Render("unverified")
			if v, ok := m.LatestVersion(); ok && v.Verified {
				status = okStyle.Render("verified")
			} else if ok && v.Valid {
				status = warnStyle.Render("valid, unverified")
			} else if ok {
				status = errorStyle.Render("invalid")
			}
			fmt.Printf("%-32s %-40s %s  %s\n", m.Concept, m.Title,
				dimStyle.Render(fmt.Sprintf("%d attempt(s)", len(m.Versions))), status)
		}
		return nil
	}

	concept := strings.Join(args, " ")
	m, err := store.Load(concept)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no history for %q", concept)
	}

	fmt.Println(headerStyle.Render(m.Title))
	if m.FilePath != "" {
		fmt.Printf("  artifact: %s\n", m.FilePath)
	}
	for i, v := range m.Versions {
		verdict := errorStyle.Render("invalid")
		if v.Verified {
			verdict = okStyle.Render("verified")
		} else if v.Valid {
			verdict = warnStyle.Render("valid, unverified")
		}
		fmt.Printf("  %2d. %s  %s  %s\n", i+1, v.CreatedAt.Format("2006-01-02 15:04:05"),
			dimStyle.Render(v.ID), verdict)
		for _, d := range v.Diagnostics {
			fmt.Println(dimStyle.Render("      " + d))
		}
	}
	return nil
}
