// Package catalog discovers the UI components available in a project.
// Components are enumerated from several independent sources, normalized
// into ComponentRecord, and deduplicated by a fixed origin priority.
package catalog

import "context"

// Origin identifies which discovery source produced a record.
type Origin string

const (
	OriginOverride  Origin = "user-override"
	OriginLocalScan Origin = "local-file-scan"
	OriginPackage   Origin = "installed-package-introspection"
	OriginManifest  Origin = "declarative-manifest"
)

// originPriority orders origins for conflict resolution. Lower wins.
// User overrides always win; local scans beat introspection because the
// project's own source is fresher than whatever shipped in node_modules;
// manifests lose to everything since they are often stale exports.
var originPriority = map[Origin]int{
	OriginOverride:  0,
	OriginLocalScan: 1,
	OriginPackage:   2,
	OriginManifest:  3,
}

// Category is a classification hint, not exclusive truth.
type Category string

const (
	CategoryLayout     Category = "layout"
	CategoryContent    Category = "content"
	CategoryForm       Category = "form"
	CategoryNavigation Category = "navigation"
	CategoryFeedback   Category = "feedback"
	CategoryOther      Category = "other"
)

// ComponentRecord is the normalized description of one discovered component.
type ComponentRecord struct {
	Name        string   `json:"name"`              // PascalCase identifier, unique within a catalog
	Category    Category `json:"category"`          // classification hint
	Props       []string `json:"props,omitempty"`   // ordered, best-effort prop names
	Slots       []string `json:"slots,omitempty"`   // named content-insertion points
	Description string   `json:"description,omitempty"`
	ImportPath  string   `json:"import_path"`       // module specifier used to reference it
	Origin      Origin   `json:"origin"`
}

// Source is the narrow extraction contract each discovery source implements.
// Discover returns zero or more candidate records; an error means the source
// is skipped, never that the overall build fails.
type Source interface {
	Name() string
	Origin() Origin
	Discover(ctx context.Context) ([]ComponentRecord, error)
}

// GuessCategory classifies a component name into a category hint. The
// keyword list is checked in order, so names matching fragments from two
// categories always resolve the same way.
func GuessCategory(name string) Category {
	for _, kw := range categoryKeywords {
		if containsWord(name, kw.word) {
			return kw.cat
		}
	}
	return CategoryOther
}

// categoryKeywords maps name fragments to category hints, in match order.
var categoryKeywords = []struct {
	word string
	cat  Category
}{
	{"Grid", CategoryLayout},
	{"Stack", CategoryLayout},
	{"Box", CategoryLayout},
	{"Container", CategoryLayout},
	{"Divider", CategoryLayout},
	{"Flex", CategoryLayout},
	{"Layout", CategoryLayout},
	{"Card", CategoryContent},
	{"Text", CategoryContent},
	{"Image", CategoryContent},
	{"Avatar", CategoryContent},
	{"Badge", CategoryContent},
	{"Table", CategoryContent},
	{"List", CategoryContent},
	{"Input", CategoryForm},
	{"Button", CategoryForm},
	{"Select", CategoryForm},
	{"Checkbox", CategoryForm},
	{"Radio", CategoryForm},
	{"Switch", CategoryForm},
	{"Form", CategoryForm},
	{"Field", CategoryForm},
	{"Slider", CategoryForm},
	{"Nav", CategoryNavigation},
	{"Menu", CategoryNavigation},
	{"Tabs", CategoryNavigation},
	{"Breadcrumb", CategoryNavigation},
	{"Link", CategoryNavigation},
	{"Pagination", CategoryNavigation},
	{"Alert", CategoryFeedback},
	{"Toast", CategoryFeedback},
	{"Spinner", CategoryFeedback},
	{"Progress", CategoryFeedback},
	{"Modal", CategoryFeedback},
	{"Dialog", CategoryFeedback},
	{"Tooltip", CategoryFeedback},
	{"Skeleton", CategoryFeedback},
}

// containsWord reports whether a PascalCase name contains the given word
// at a word boundary (start of name or preceded by a lowercase rune).
func containsWord(name, word string) bool {
	for i := 0; i+len(word) <= len(name); i++ {
		if name[i:i+len(word)] != word {
			continue
		}
		if i == 0 || (name[i-1] >= 'a' && name[i-1] <= 'z') {
			return true
		}
	}
	return false
}

// IsPascalCase reports whether a name has the conventional component shape:
// initial uppercase ASCII letter followed by letters and digits, with at
// least one lowercase letter (rejects SCREAMING_CASE constants).
func IsPascalCase(name string) bool {
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	hasLower := false
	for i := 1; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			hasLower = true
			continue
		}
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return hasLower
}
