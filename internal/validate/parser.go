package validate

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"storyforge/internal/logging"
)

// importedName records one name bound by an import statement.
type importedName struct {
	Name      string
	Source    string // the import specifier
	IsDefault bool
	Line      int
}

// tagUsage records one component-tag usage in the artifact body.
type tagUsage struct {
	Root string // for compound Parent.Child usages, the parent
	Full string // the full dotted name as written
	Line int
}

// parsedArtifact is everything the cross-check passes need from the tree.
type parsedArtifact struct {
	Imports    []importedName
	Usages     []tagUsage
	SyntaxErrs []Diagnostic
}

// ImportedSet returns the set of names bound by imports.
func (p *parsedArtifact) ImportedSet() map[string]bool {
	set := make(map[string]bool, len(p.Imports))
	for _, imp := range p.Imports {
		set[imp.Name] = true
	}
	return set
}

// ImportsFrom returns the imported names whose specifier satisfies pred.
func (p *parsedArtifact) ImportsFrom(pred func(source string) bool) []importedName {
	var out []importedName
	for _, imp := range p.Imports {
		if pred(imp.Source) {
			out = append(out, imp)
		}
	}
	return out
}

// All story dialects author their story files in JS/TS with JSX-capable
// syntax, so one tolerant TSX grammar covers the whole set.
func newParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(tsx.GetLanguage())
	return p
}

// parseArtifact parses artifact text tolerantly, collecting syntax
// diagnostics, imported names, and component-tag usages.
func parseArtifact(ctx context.Context, text string) (*parsedArtifact, error) {
	parser := newParser()
	content := []byte(text)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	defer tree.Close()

	result := &parsedArtifact{}
	root := tree.RootNode()
	collectFromNode(root, content, result)

	logging.ValidateDebug("parsed artifact: %d imports, %d usages, %d syntax errors",
		len(result.Imports), len(result.Usages), len(result.SyntaxErrs))
	return result, nil
}

// collectFromNode walks the tree gathering imports, tag usages, and
// syntax errors.
func collectFromNode(node *sitter.Node, content []byte, result *parsedArtifact) {
	text := func(n *sitter.Node) string {
		return string(content[n.StartByte():n.EndByte()])
	}
	line := func(n *sitter.Node) int {
		return int(n.StartPoint().Row) + 1
	}

	if node.IsError() {
		result.SyntaxErrs = append(result.SyntaxErrs, Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("syntax error near %q", snippet(text(node))),
			Line:     line(node),
		})
		// Still recurse; tolerant parsing continues under ERROR nodes.
	}
	if node.IsMissing() {
		result.SyntaxErrs = append(result.SyntaxErrs, Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("missing %s", node.Type()),
			Line:     line(node),
		})
	}

	switch node.Type() {
	case "import_statement":
		collectImport(node, content, result)

	case "jsx_opening_element", "jsx_self_closing_element":
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			full := text(nameNode)
			root := full
			if idx := strings.IndexByte(full, '.'); idx > 0 {
				root = full[:idx]
			}
			// Lowercase tags are intrinsic HTML elements, not components.
			if root != "" && root[0] >= 'A' && root[0] <= 'Z' {
				result.Usages = append(result.Usages, tagUsage{
					Root: root,
					Full: full,
					Line: line(nameNode),
				})
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectFromNode(node.Child(i), content, result)
	}
}

// collectImport extracts default and named bindings from an import statement.
func collectImport(node *sitter.Node, content []byte, result *parsedArtifact) {
	text := func(n *sitter.Node) string {
		return string(content[n.StartByte():n.EndByte()])
	}
	line := int(node.StartPoint().Row) + 1

	source := ""
	if srcNode := node.ChildByFieldName("source"); srcNode != nil {
		source = strings.Trim(text(srcNode), `'"`)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			clause := child.NamedChild(j)
			switch clause.Type() {
			case "identifier":
				// Default import.
				result.Imports = append(result.Imports, importedName{
					Name: text(clause), Source: source, IsDefault: true, Line: line,
				})
			case "named_imports":
				for k := 0; k < int(clause.NamedChildCount()); k++ {
					spec := clause.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					// "X as Y" binds Y locally.
					name := ""
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						name = text(alias)
					} else if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
						name = text(nameNode)
					}
					if name != "" {
						result.Imports = append(result.Imports, importedName{
							Name: name, Source: source, Line: line,
						})
					}
				}
			case "namespace_import":
				// import * as NS - bind the namespace identifier.
				for k := 0; k < int(clause.NamedChildCount()); k++ {
					if clause.NamedChild(k).Type() == "identifier" {
						result.Imports = append(result.Imports, importedName{
							Name: text(clause.NamedChild(k)), Source: source, Line: line,
						})
					}
				}
			}
		}
	}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}
