// Package generate produces story artifact text from a natural-language
// request. The Generator interface keeps the pipeline independent of any
// single model provider; prompt assembly serializes the component catalog
// so the model can only reach for components that actually exist.
package generate

import (
	"context"
	"fmt"
	"strings"

	"storyforge/internal/catalog"
)

// Request describes one generation attempt.
type Request struct {
	// Concept is the user's natural-language description of the story.
	Concept string

	// Title is the full title the artifact must declare.
	Title string

	// Dialect selects the authoring convention (react, vue, svelte, lit).
	Dialect string

	// ImportPath is the canonical specifier for catalog components.
	ImportPath string

	// Components is the active catalog, serialized into the prompt.
	Components []catalog.ComponentRecord

	// PreviousArtifact and Diagnostics carry the last rejected attempt
	// and its structured feedback; empty on the first attempt.
	PreviousArtifact string
	Diagnostics      []string
}

// Generator produces artifact text for a request. Implementations are
// text-in/text-out; validation happens downstream.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// BuildPrompt assembles the full generation prompt for a request.
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are generating a %s component-showcase (story) file.\n\n", req.Dialect)
	fmt.Fprintf(&b, "Request: %s\n", req.Concept)
	fmt.Fprintf(&b, "The file's default export must declare the title %q.\n\n", req.Title)

	b.WriteString("Available components. Use ONLY these; import every component you use ")
	fmt.Fprintf(&b, "from %q and nothing deeper:\n", req.ImportPath)
	for _, rec := range req.Components {
		fmt.Fprintf(&b, "- %s", rec.Name)
		if len(rec.Props) > 0 {
			fmt.Fprintf(&b, " (props: %s)", strings.Join(rec.Props, ", "))
		}
		if rec.Description != "" {
			fmt.Fprintf(&b, ": %s", rec.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Export a default metadata object and at least one named story export.\n")
	b.WriteString("- Do not invent components, props, or import paths.\n")
	b.WriteString("- Do not use the legacy storiesOf() API.\n")
	fmt.Fprintf(&b, "- Use %s syntax only; no other framework's template idioms.\n", req.Dialect)
	b.WriteString("- Respond with the complete file content and nothing else.\n")

	if req.PreviousArtifact != "" {
		b.WriteString("\nYour previous attempt was rejected. The file was:\n\n")
		b.WriteString(req.PreviousArtifact)
		b.WriteString("\n\nIt failed with these diagnostics:\n")
		for _, d := range req.Diagnostics {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\nProduce a corrected complete file. Fix every diagnostic.\n")
	}

	return b.String()
}

// StripCodeFence removes a wrapping markdown code fence from model
// output, tolerating a language tag on the opening fence.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return text
	}
	lines = lines[1:] // drop ```lang
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}
