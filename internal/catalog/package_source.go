package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storyforge/internal/logging"
)

// ExportProvider enumerates the exported component names of an installed
// package. Two implementations exist: a live provider that introspects the
// package on disk, and a static-table provider keyed by package identity.
// The factory probes the environment once; call sites never branch on
// capability themselves.
type ExportProvider interface {
	// Exports returns candidate component names, or an error when the
	// provider cannot serve this package.
	Exports(ctx context.Context, pkg string) ([]string, error)
}

// NewExportProvider selects the best available provider for the workspace.
// Live introspection needs the package installed under node_modules; when
// that is unavailable the curated static table serves as fallback.
func NewExportProvider(workspace, pkg string) ExportProvider {
	moduleDir := filepath.Join(workspace, "node_modules", filepath.FromSlash(pkg))
	if info, err := os.Stat(moduleDir); err == nil && info.IsDir() {
		logging.CatalogDebug("export provider for %s: live introspection (%s)", pkg, moduleDir)
		return &liveExportProvider{moduleDir: moduleDir}
	}
	logging.CatalogDebug("export provider for %s: static table fallback", pkg)
	return &staticExportProvider{}
}

// PackageSource discovers components by introspecting an installed package.
// Records carry the package specifier itself as their import path.
type PackageSource struct {
	pkg       string
	workspace string
	provider  ExportProvider // set in tests; nil means select via factory
}

// NewPackageSource creates an installed-package-introspection source.
func NewPackageSource(pkg, workspace string) *PackageSource {
	if workspace == "" {
		workspace, _ = os.Getwd()
	}
	return &PackageSource{pkg: pkg, workspace: workspace}
}

func (s *PackageSource) Name() string   { return fmt.Sprintf("package:%s", s.pkg) }
func (s *PackageSource) Origin() Origin { return OriginPackage }

// Discover enumerates the package's exports and keeps those whose shape
// passes the component heuristic. A package that neither provider can serve
// contributes nothing; that is not an error.
func (s *PackageSource) Discover(ctx context.Context) ([]ComponentRecord, error) {
	provider := s.provider
	if provider == nil {
		provider = NewExportProvider(s.workspace, s.pkg)
	}

	exports, err := provider.Exports(ctx, s.pkg)
	if err != nil {
		logging.CatalogDebug("package %s: no export data available (%v)", s.pkg, err)
		return nil, nil
	}

	var records []ComponentRecord
	for _, name := range exports {
		if !IsPascalCase(name) {
			continue
		}
		records = append(records, ComponentRecord{
			Name:       name,
			Category:   GuessCategory(name),
			ImportPath: s.pkg,
			Origin:     OriginPackage,
		})
	}
	return records, nil
}

// =============================================================================
// LIVE PROVIDER - on-disk introspection of node_modules
// =============================================================================

// liveExportProvider reads the installed package's entry points and scrapes
// export declarations from its module files.
type liveExportProvider struct {
	moduleDir string
}

type packageJSON struct {
	Main    string          `json:"main"`
	Module  string          `json:"module"`
	Types   string          `json:"types"`
	Typings string          `json:"typings"`
	Exports json.RawMessage `json:"exports"`
}

func (p *liveExportProvider) Exports(ctx context.Context, pkg string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(p.moduleDir, "package.json"))
	if err != nil {
		return nil, fmt.Errorf("package.json unreadable: %w", err)
	}

	var meta packageJSON
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("package.json malformed: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range p.entryCandidates(meta) {
		select {
		case <-ctx.Done():
			return names, ctx.Err()
		default:
		}

		content, err := os.ReadFile(filepath.Join(p.moduleDir, filepath.FromSlash(entry)))
		if err != nil {
			continue
		}
		for _, name := range extractExportNames(string(content)) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no exports found in %s", p.moduleDir)
	}
	return names, nil
}

// entryCandidates orders the module files worth scraping. Type declaration
// entry points usually carry the cleanest export lists.
func (p *liveExportProvider) entryCandidates(meta packageJSON) []string {
	var entries []string
	add := func(e string) {
		if e != "" {
			entries = append(entries, e)
		}
	}
	add(meta.Types)
	add(meta.Typings)
	add(meta.Module)
	add(meta.Main)
	// Conventional fallbacks when package.json names nothing usable.
	entries = append(entries, "index.d.ts", "index.mjs", "index.js", "dist/index.d.ts", "dist/index.mjs", "dist/index.js")
	return entries
}

// =============================================================================
// STATIC PROVIDER - curated export tables for well-known libraries
// =============================================================================

// staticExportTables maps package identity to a curated component list, used
// when live introspection is unavailable (package not on disk, restricted
// runtime).
var staticExportTables = map[string][]string{
	"@mui/material": {
		"Accordion", "Alert", "AppBar", "Autocomplete", "Avatar", "Badge",
		"Box", "Breadcrumbs", "Button", "ButtonGroup", "Card", "CardActions",
		"CardContent", "CardHeader", "CardMedia", "Checkbox", "Chip",
		"CircularProgress", "Container", "Dialog", "DialogActions",
		"DialogContent", "DialogTitle", "Divider", "Drawer", "Fab", "Grid",
		"IconButton", "LinearProgress", "Link", "List", "ListItem",
		"ListItemText", "Menu", "MenuItem", "Modal", "Paper", "Radio",
		"RadioGroup", "Rating", "Select", "Skeleton", "Slider", "Snackbar",
		"Stack", "Stepper", "Switch", "Tab", "Table", "TableBody",
		"TableCell", "TableHead", "TableRow", "Tabs", "TextField", "Toolbar",
		"Tooltip", "Typography",
	},
	"antd": {
		"Alert", "Avatar", "Badge", "Breadcrumb", "Button", "Calendar",
		"Card", "Carousel", "Cascader", "Checkbox", "Col", "Collapse",
		"DatePicker", "Divider", "Drawer", "Dropdown", "Empty", "Flex",
		"Form", "Input", "InputNumber", "Layout", "List", "Menu", "Modal",
		"Pagination", "Popconfirm", "Popover", "Progress", "Radio", "Rate",
		"Result", "Row", "Select", "Skeleton", "Slider", "Space", "Spin",
		"Statistic", "Steps", "Switch", "Table", "Tabs", "Tag", "TimePicker",
		"Timeline", "Tooltip", "Transfer", "Tree", "Typography", "Upload",
	},
	"@chakra-ui/react": {
		"Alert", "AspectRatio", "Avatar", "Badge", "Box", "Breadcrumb",
		"Button", "Card", "Center", "Checkbox", "CircularProgress",
		"CloseButton", "Code", "Container", "Divider", "Drawer", "Flex",
		"FormControl", "Grid", "Heading", "IconButton", "Image", "Input",
		"Kbd", "Link", "List", "Menu", "Modal", "NumberInput", "Popover",
		"Progress", "Radio", "Select", "SimpleGrid", "Skeleton", "Slider",
		"Spacer", "Spinner", "Stack", "Stat", "Switch", "Table", "Tabs",
		"Tag", "Text", "Textarea", "Toast", "Tooltip", "Wrap",
	},
}

// staticExportProvider serves curated export lists keyed by package identity.
type staticExportProvider struct{}

func (p *staticExportProvider) Exports(_ context.Context, pkg string) ([]string, error) {
	if exports, ok := staticExportTables[pkg]; ok {
		return exports, nil
	}
	// Try without a version/path suffix (e.g. "antd/es" -> "antd").
	if idx := strings.Index(pkg, "/"); idx > 0 && !strings.HasPrefix(pkg, "@") {
		if exports, ok := staticExportTables[pkg[:idx]]; ok {
			return exports, nil
		}
	}
	return nil, fmt.Errorf("no static export table for %s", pkg)
}
