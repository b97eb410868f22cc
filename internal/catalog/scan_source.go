package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"storyforge/internal/logging"
)

// DefaultScanPatterns is the framework file-pattern set used when a scan
// directory does not override it.
var DefaultScanPatterns = []string{"*.tsx", "*.jsx", "*.vue", "*.svelte"}

// nonComponentSuffixes identify files that are not component declarations
// by naming convention.
var nonComponentSuffixes = []string{
	".test.", ".spec.", ".d.ts", ".stories.", ".story.", ".config.", ".mock.",
}

// ScanSource discovers components by walking a local directory tree.
type ScanSource struct {
	root       string
	patterns   []string
	importPath string
}

// NewScanSource creates a local-file-scan source for the given directory.
func NewScanSource(root string, patterns []string, importPath string) *ScanSource {
	if len(patterns) == 0 {
		patterns = DefaultScanPatterns
	}
	return &ScanSource{root: root, patterns: patterns, importPath: importPath}
}

func (s *ScanSource) Name() string   { return fmt.Sprintf("scan:%s", s.root) }
func (s *ScanSource) Origin() Origin { return OriginLocalScan }

// Discover walks the directory, extracting exported component names and
// their best-effort prop surfaces from each matching file.
func (s *ScanSource) Discover(ctx context.Context) ([]ComponentRecord, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("scan root unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", s.root)
	}

	seen := make(map[string]bool)
	var records []ComponentRecord

	err = filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			logging.ScanWarn("walk error at %s: %v", path, err)
			return nil
		}

		if info.IsDir() {
			name := info.Name()
			// Skip hidden directories and the dependency tree.
			if name != "." && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.matchesPattern(info.Name()) || isNonComponentFile(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logging.ScanWarn("unreadable file %s: %v", path, err)
			return nil
		}

		for _, name := range extractExportNames(string(content)) {
			if !IsPascalCase(name) || seen[name] {
				continue
			}
			seen[name] = true

			props := ExtractProps(string(content), name)
			// A co-located usage example often documents props the
			// declaration omits.
			if example := readExampleFile(path, name); example != "" {
				props = unionProps(props, MineExampleProps(example, name))
			}

			records = append(records, ComponentRecord{
				Name:        name,
				Category:    GuessCategory(name),
				Props:       props,
				ImportPath:  s.importPath,
				Origin:      OriginLocalScan,
				Description: extractLeadingComment(string(content)),
			})
		}
		return nil
	})
	if err != nil {
		return records, err
	}

	logging.Scan("scanned %s: %d components", s.root, len(records))
	return records, nil
}

func (s *ScanSource) matchesPattern(name string) bool {
	for _, pat := range s.patterns {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// isNonComponentFile reports whether the file is identified as
// non-component by suffix convention.
func isNonComponentFile(path string) bool {
	base := filepath.Base(path)
	for _, suffix := range nonComponentSuffixes {
		if strings.Contains(base, suffix) {
			return true
		}
	}
	return false
}

// Export extraction pattern family. Each pattern is an independent strategy;
// results are unioned in declaration order.
var (
	// export function Foo / export default function Foo / export class Foo /
	// export const Foo
	reDirectExport = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:async\s+)?(?:function|class|const|let|var)\s+([A-Z][A-Za-z0-9]*)`)

	// export { Foo, Bar as Baz }
	reExportList = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]+)\}\s*;?\s*$`)

	// export { Foo } from './Foo'  /  export { default as Foo } from './Foo'
	reBarrelExport = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]+)\}\s*from\s*['"][^'"]+['"]`)

	// export default Foo;
	reDefaultExportIdent = regexp.MustCompile(`(?m)^\s*export\s+default\s+([A-Z][A-Za-z0-9]*)\s*;?\s*$`)
)

// extractExportNames collects declared export names using the textual
// pattern family above.
func extractExportNames(content string) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, m := range reDirectExport.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	for _, m := range reDefaultExportIdent.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	for _, re := range []*regexp.Regexp{reBarrelExport, reExportList} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			for _, entry := range strings.Split(m[1], ",") {
				entry = strings.TrimSpace(entry)
				if entry == "" {
					continue
				}
				// "X as Y" exports Y; "default as Y" likewise.
				if idx := strings.LastIndex(entry, " as "); idx >= 0 {
					entry = strings.TrimSpace(entry[idx+4:])
				}
				add(entry)
			}
		}
	}
	return names
}

// readExampleFile looks for a co-located usage example by naming convention
// and returns its content, or "".
func readExampleFile(componentPath, name string) string {
	dir := filepath.Dir(componentPath)
	ext := filepath.Ext(componentPath)
	candidates := []string{
		filepath.Join(dir, name+".example"+ext),
		filepath.Join(dir, name+".stories"+ext),
		filepath.Join(dir, name+".stories.ts"),
		filepath.Join(dir, name+".stories.js"),
	}
	for _, candidate := range candidates {
		if data, err := os.ReadFile(candidate); err == nil {
			return string(data)
		}
	}
	return ""
}

// extractLeadingComment returns the first block or line comment of the file,
// used as a best-effort component description.
func extractLeadingComment(content string) string {
	trimmed := strings.TrimLeft(content, " \t\r\n")
	if strings.HasPrefix(trimmed, "/*") {
		if end := strings.Index(trimmed, "*/"); end > 0 {
			comment := trimmed[2:end]
			comment = strings.ReplaceAll(comment, "*", "")
			return collapseWhitespace(comment)
		}
	}
	if strings.HasPrefix(trimmed, "//") {
		line := trimmed[2:]
		if end := strings.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
		}
		return strings.TrimSpace(line)
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
