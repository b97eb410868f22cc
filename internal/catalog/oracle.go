package catalog

import (
	"sort"
	"strings"
)

// Oracle answers component-name questions against a finished catalog:
// does X exist, under what import path, and what did the caller probably
// mean when X is a near-miss.
type Oracle struct {
	records map[string]ComponentRecord
	names   []string // sorted for deterministic suggestion order
}

// NewOracle builds an oracle from the catalog's surviving records.
func NewOracle(records []ComponentRecord) *Oracle {
	o := &Oracle{records: make(map[string]ComponentRecord, len(records))}
	for _, rec := range records {
		o.records[rec.Name] = rec
		o.names = append(o.names, rec.Name)
	}
	sort.Strings(o.names)
	return o
}

// IsKnown reports whether the catalog contains a component named name.
func (o *Oracle) IsKnown(name string) bool {
	_, ok := o.records[name]
	return ok
}

// Record returns the catalog record for name.
func (o *Oracle) Record(name string) (ComponentRecord, bool) {
	rec, ok := o.records[name]
	return rec, ok
}

// ImportPathFor returns the import path for a known component.
func (o *Oracle) ImportPathFor(name string) (string, bool) {
	rec, ok := o.records[name]
	if !ok {
		return "", false
	}
	return rec.ImportPath, true
}

// Names returns all component names in sorted order.
func (o *Oracle) Names() []string {
	out := make([]string, len(o.names))
	copy(out, o.names)
	return out
}

// Len returns the number of components the oracle knows.
func (o *Oracle) Len() int { return len(o.names) }

// genericAliases maps generic component requests to concrete candidates.
// The first candidate present in the active catalog wins.
var genericAliases = map[string][]string{
	"stack":     {"Stack", "VStack", "HStack", "Flex", "Space"},
	"vstack":    {"VStack", "Stack", "Flex"},
	"hstack":    {"HStack", "Stack", "Flex"},
	"text":      {"Text", "Typography", "Paragraph"},
	"heading":   {"Heading", "Title", "Typography"},
	"spinner":   {"Spinner", "CircularProgress", "Spin", "Loader"},
	"dropdown":  {"Dropdown", "Select", "Menu"},
	"textfield": {"TextField", "Input", "TextInput"},
	"textbox":   {"TextField", "Input", "Textarea"},
	"popup":     {"Modal", "Dialog", "Popover"},
	"toast":     {"Toast", "Snackbar", "Alert", "Notification"},
	"chip":      {"Chip", "Tag", "Badge"},
	"grid":      {"Grid", "SimpleGrid", "Row"},
	"image":     {"Image", "Img", "Avatar"},
	"loader":    {"Spinner", "Progress", "Skeleton"},
}

// Suggest returns the closest real component name for a near-miss, or ""
// when nothing plausible matches. Strategy order is fixed: case-insensitive
// substring containment either direction first, then the generic alias
// table. First match wins.
func (o *Oracle) Suggest(name string) string {
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)

	for _, candidate := range o.names {
		candLower := strings.ToLower(candidate)
		if strings.Contains(candLower, lower) || strings.Contains(lower, candLower) {
			return candidate
		}
	}

	if candidates, ok := genericAliases[lower]; ok {
		for _, candidate := range candidates {
			if o.IsKnown(candidate) {
				return candidate
			}
		}
	}

	return ""
}

// knownBadSuffixes mark names that look like components but are generation
// artifacts, not importable symbols.
var knownBadSuffixes = []string{"Story", "Stories", "Example", "Demo"}

// internalToolNames are symbols from the tooling itself that generators
// sometimes leak into artifacts.
var internalToolNames = map[string]bool{
	"Meta":        true,
	"StoryObj":    true,
	"StoryFn":     true,
	"ComponentMeta": true,
	"Args":        true,
	"Decorator":   true,
}

// deprecatedNames maps retired component names to their replacements.
var deprecatedNames = map[string]string{
	"Deprecated": "",
	"LegacyGrid": "Grid",
	"OldButton":  "Button",
	"V1Card":     "Card",
}

// IsKnownBad reports whether a name is recognized as plausible-but-wrong:
// a generation artifact suffix, an internal tool symbol, or a deprecated
// name. Such names are rejected even when structurally identical to a real
// import. The second return is a replacement suggestion when derivable.
func (o *Oracle) IsKnownBad(name string) (bool, string) {
	// A catalog hit is never known-bad; the catalog is ground truth.
	if o.IsKnown(name) {
		return false, ""
	}

	for _, suffix := range knownBadSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			base := strings.TrimSuffix(name, suffix)
			if o.IsKnown(base) {
				return true, base
			}
			return true, o.Suggest(base)
		}
	}

	if internalToolNames[name] {
		return true, ""
	}

	if replacement, ok := deprecatedNames[name]; ok {
		if o.IsKnown(replacement) {
			return true, replacement
		}
		return true, ""
	}

	return false, ""
}
