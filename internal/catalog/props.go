package catalog

import (
	"regexp"
	"strings"
)

// Prop extraction runs a small ordered list of independent strategies, each
// returning a partial result set; results are unioned explicitly. None of
// the strategies is authoritative - component authors document their prop
// surface in wildly inconsistent ways.

type propStrategy func(content, name string) []string

var propStrategies = []propStrategy{
	interfaceFieldProps,
	propTypesMapProps,
	destructuredParamProps,
}

// ExtractProps returns the best-effort union of prop names for a component.
func ExtractProps(content, name string) []string {
	var props []string
	for _, strategy := range propStrategies {
		props = unionProps(props, strategy(content, name))
	}
	return props
}

// unionProps merges two ordered prop name lists, preserving first-seen order.
func unionProps(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, lists := range [][]string{a, b} {
		for _, p := range lists {
			if p != "" && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// interfaceFieldProps extracts fields from a declared props interface or
// type alias: interface FooProps { label: string; onClick?: () => void }.
func interfaceFieldProps(content, name string) []string {
	patterns := []string{
		`(?s)interface\s+` + name + `Props[^{]*\{(.*?)\n\}`,
		`(?s)type\s+` + name + `Props\s*=\s*\{(.*?)\n\}`,
		`(?s)interface\s+Props[^{]*\{(.*?)\n\}`,
	}
	for _, pat := range patterns {
		re := regexp.MustCompile(pat)
		if m := re.FindStringSubmatch(content); m != nil {
			return fieldNamesFromBody(m[1])
		}
	}
	return nil
}

// fieldNamesFromBody extracts identifiers before ':' from an interface body.
func fieldNamesFromBody(body string) []string {
	var props []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
			continue
		}
		colonIdx := strings.Index(trimmed, ":")
		if colonIdx <= 0 {
			continue
		}
		prop := strings.TrimSpace(trimmed[:colonIdx])
		prop = strings.TrimSuffix(prop, "?")
		prop = strings.TrimPrefix(prop, "readonly ")
		if isIdentifier(prop) {
			props = append(props, prop)
		}
	}
	return props
}

// propTypesMapProps extracts keys from a legacy property-map assignment:
// Foo.propTypes = { label: PropTypes.string, count: PropTypes.number }.
func propTypesMapProps(content, name string) []string {
	re := regexp.MustCompile(`(?s)` + name + `\.propTypes\s*=\s*\{(.*?)\}`)
	m := re.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var props []string
	for _, entry := range strings.Split(m[1], ",") {
		colonIdx := strings.Index(entry, ":")
		if colonIdx <= 0 {
			continue
		}
		prop := strings.TrimSpace(entry[:colonIdx])
		if isIdentifier(prop) {
			props = append(props, prop)
		}
	}
	return props
}

// destructuredParamProps extracts names from a destructured call signature:
// function Foo({ label, onClick = noop }) or const Foo = ({ label }) => ...
func destructuredParamProps(content, name string) []string {
	patterns := []string{
		`function\s+` + name + `\s*\(\s*\{([^}]*)\}`,
		`(?:const|let|var)\s+` + name + `\s*(?::[^=]+)?=\s*(?:React\.)?(?:memo\()?(?:forwardRef\()?\(?\s*\{([^}]*)\}`,
	}
	for _, pat := range patterns {
		re := regexp.MustCompile(pat)
		if m := re.FindStringSubmatch(content); m != nil {
			return destructuredNames(m[1])
		}
	}
	return nil
}

// destructuredNames parses "label, onClick = noop, ...rest" into prop names.
func destructuredNames(params string) []string {
	var props []string
	for _, entry := range strings.Split(params, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" || strings.HasPrefix(entry, "...") {
			continue
		}
		// Strip default value and rename target.
		if idx := strings.IndexAny(entry, "=:"); idx >= 0 {
			entry = strings.TrimSpace(entry[:idx])
		}
		if isIdentifier(entry) {
			props = append(props, entry)
		}
	}
	return props
}

// reExampleAttr matches attributes in a JSX usage: <Foo variant="x" size={2}>
var reExampleArgs = regexp.MustCompile(`(?s)args\s*[:=]\s*\{(.*?)\}`)

// MineExampleProps extracts prop names from a co-located usage example.
// Example-driven documentation is often richer than the component's own
// declaration, so this supplements the primary strategies.
func MineExampleProps(example, name string) []string {
	var props []string
	seen := make(map[string]bool)
	add := func(p string) {
		if isIdentifier(p) && !seen[p] {
			seen[p] = true
			props = append(props, p)
		}
	}

	// JSX attribute usage: <Name prop=... prop2={...}>
	reUsage := regexp.MustCompile(`<` + name + `\b([^>]*)>`)
	reAttr := regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*)\s*=`)
	for _, usage := range reUsage.FindAllStringSubmatch(example, -1) {
		for _, attr := range reAttr.FindAllStringSubmatch(usage[1], -1) {
			add(attr[1])
		}
	}

	// Story args objects: args: { label: 'x', disabled: true }
	for _, m := range reExampleArgs.FindAllStringSubmatch(example, -1) {
		for _, entry := range strings.Split(m[1], ",") {
			if colonIdx := strings.Index(entry, ":"); colonIdx > 0 {
				add(strings.TrimSpace(entry[:colonIdx]))
			}
		}
	}

	return props
}

// InferPropType guesses a prop's type from an example value expression.
func InferPropType(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "true" || value == "false" ||
		value == "{true}" || value == "{false}":
		return "boolean"
	case strings.HasPrefix(value, `"`) || strings.HasPrefix(value, `'`):
		return "string"
	case regexp.MustCompile(`^\{?-?\d+(\.\d+)?\}?$`).MatchString(value):
		return "number"
	case strings.HasPrefix(value, "{() =>") || strings.HasPrefix(value, "{function"):
		return "function"
	default:
		return "unknown"
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}
