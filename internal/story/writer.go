package story

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storyforge/internal/logging"
)

// FileName derives the artifact file name from a story title and
// dialect: the title's last path segment in PascalCase, with the
// dialect's conventional story extension.
func FileName(title, dialect string) string {
	segment := title
	if idx := strings.LastIndex(title, "/"); idx >= 0 {
		segment = title[idx+1:]
	}

	var b strings.Builder
	upperNext := true
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z':
			if upperNext {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upperNext = false
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			upperNext = false
		default:
			upperNext = true
		}
	}
	name := b.String()
	if name == "" {
		name = "Story"
	}
	return name + storyExtension(dialect)
}

func storyExtension(dialect string) string {
	if dialect == "react" {
		return ".stories.tsx"
	}
	return ".stories.ts"
}

// WriteArtifact persists accepted story text into the watched source
// tree and returns the written path. The write is atomic so the preview
// server's watcher never observes a half-written file.
func WriteArtifact(outputDir, title, dialect, text string) (string, error) {
	if outputDir == "" {
		return "", fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	target := filepath.Join(outputDir, FileName(title, dialect))
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replace artifact: %w", err)
	}

	logging.Store("wrote artifact %s (%d bytes)", target, len(text))
	return target, nil
}
