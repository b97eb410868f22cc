package validate

import (
	"fmt"
	"regexp"
	"strings"

	"storyforge/internal/logging"
)

// A repair is one deterministic rewrite. Each returns the rewritten text and
// whether it changed anything; detection and rewrite are kept together so a
// pass can be applied optimistically and re-validated as a whole.
type repair struct {
	name  string
	apply func(text string, opts Options) (string, bool)
}

// repairPasses run in fixed order. Import canonicalization first because it
// never perturbs structure; structural repairs after, so their line edits do
// not invalidate import positions mid-pass.
var repairPasses = []repair{
	{"canonicalize-imports", repairDeepImports},
	{"escape-title-quotes", repairTitleQuotes},
	{"collapse-title-duplication", repairTitleDuplication},
	{"close-truncated-tags", repairTruncation},
	{"rebalance-braces", repairBraces},
}

// =============================================================================
// TAG SCANNING
// =============================================================================

// The attribute group skips quoted strings and (one level of nested) brace
// expressions so a ">" inside onClick={() => ...} does not end the tag.
var (
	reOpenTag        = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9.]*)((?:[^<>"'{]|"[^"]*"|'[^']*'|\{(?:[^{}]|\{[^{}]*\})*\})*?)(/?)>`)
	reCloseTag       = regexp.MustCompile(`</\s*([A-Za-z][A-Za-z0-9.]*)\s*>`)
	reClosingTagLine = regexp.MustCompile(`^(?:</[A-Za-z][A-Za-z0-9.]*>\s*)+$`)
)

// voidElements never take closing tags in markup.
var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "meta": true, "link": true,
}

// htmlElements is the set of lowercase tags tracked by the scanner. A
// lowercase name outside this set is almost always a TypeScript generic
// (Meta<typeof Card>) rather than markup, so it is ignored.
var htmlElements = map[string]bool{
	"div": true, "span": true, "p": true, "a": true, "ul": true, "ol": true,
	"li": true, "section": true, "article": true, "header": true, "footer": true,
	"main": true, "nav": true, "aside": true, "button": true, "form": true,
	"label": true, "select": true, "option": true, "textarea": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"strong": true, "em": true, "small": true, "code": true, "pre": true,
	"figure": true, "figcaption": true, "video": true, "audio": true,
	"canvas": true, "svg": true, "path": true,
}

// trackableTag reports whether a tag name participates in the open-tag
// stack: PascalCase components and recognized html elements only.
func trackableTag(name string) bool {
	if name[0] >= 'A' && name[0] <= 'Z' {
		return true
	}
	return htmlElements[name]
}

// scanTags returns the stack of tags still open at the end of text and the
// number of closing tags that never had a matching open.
func scanTags(text string) (stack []string, orphans int) {
	type event struct {
		pos   int
		name  string
		close bool
	}
	var events []event

	for _, m := range reOpenTag.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		selfClosing := m[6] != m[7] // the optional "/" group is non-empty
		if selfClosing || voidElements[name] || !trackableTag(name) {
			continue
		}
		events = append(events, event{pos: m[0], name: name})
	}
	for _, m := range reCloseTag.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if !trackableTag(name) {
			continue
		}
		events = append(events, event{pos: m[0], name: name, close: true})
	}

	// Events found by two scans; merge in document order.
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].pos < events[j-1].pos; j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}

	for _, ev := range events {
		if !ev.close {
			stack = append(stack, ev.name)
			continue
		}
		matched := false
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i] == ev.name {
				stack = stack[:i]
				matched = true
				break
			}
		}
		if !matched {
			orphans++
		}
	}
	if len(stack) == 0 {
		stack = nil
	}
	return stack, orphans
}

// openTagStack returns the stack of tags still open at the end of text.
func openTagStack(text string) []string {
	stack, _ := scanTags(text)
	return stack
}

// =============================================================================
// TRUNCATION
// =============================================================================

// truncationSignals inspects the artifact tail for the signatures of a
// generation cut short: a final line ending mid-expression, unbalanced
// quotes, or dangling unclosed tags immediately followed by a closing brace.
func truncationSignals(text string) []Diagnostic {
	var diags []Diagnostic
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 {
		return nil
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	lastLineNo := len(lines)

	if hasUnbalancedQuotes(last) {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  "artifact appears truncated: final line has unbalanced quotes",
			Line:     lastLineNo,
		})
	}

	for _, suffix := range []string{",", "(", "&&", "||", "=>", "+", "?", ":", "."} {
		if strings.HasSuffix(last, suffix) {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Message:  fmt.Sprintf("artifact appears truncated: output ends mid-expression (%q)", suffix),
				Line:     lastLineNo,
			})
			break
		}
	}

	stack, orphans := scanTags(text)
	if len(stack) > 0 {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message: fmt.Sprintf("artifact appears truncated: %d unclosed tag(s): %s",
				len(stack), strings.Join(stack, ", ")),
			Line: lastLineNo,
		})
	}
	if orphans > 0 {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message: fmt.Sprintf("artifact appears truncated: %d closing tag(s) with no matching open",
				orphans),
			Line: lastLineNo,
		})
	}

	return diags
}

// repairTruncation closes dangling tags by walking the open-tag stack in
// reverse, or drops a clearly-truncated trailing line.
func repairTruncation(text string, _ Options) (string, bool) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 {
		return text, false
	}

	last := strings.TrimSpace(lines[len(lines)-1])

	// A final line that ends mid-expression or with a dangling quote cannot
	// be completed mechanically; dropping it loses less than keeping it.
	if hasUnbalancedQuotes(last) || endsMidExpression(last) {
		trimmed := strings.Join(lines[:len(lines)-1], "\n") + "\n"
		logging.ValidateDebug("repair: dropped truncated trailing line %q", snippet(last))
		return trimmed, true
	}

	stack, orphans := scanTags(text)

	// Trailing closer-only lines with no matching opens are leftovers from
	// a cut-and-resumed generation; drop them.
	if orphans > 0 {
		kept := lines[:len(lines):len(lines)]
		dropped := 0
		i := len(kept) - 1
		for i >= 0 {
			trimmed := strings.TrimSpace(kept[i])
			if trimmed == "" || isCloserLine(trimmed) {
				i--
				continue
			}
			if reClosingTagLine.MatchString(trimmed) {
				kept = append(kept[:i:i], kept[i+1:]...)
				dropped++
				i--
				continue
			}
			break
		}
		if dropped > 0 {
			logging.ValidateDebug("repair: dropped %d orphan closing-tag line(s)", dropped)
			return strings.Join(kept, "\n") + "\n", true
		}
	}

	if len(stack) == 0 {
		return text, false
	}

	// Close dangling tags in reverse order. Insert before a trailing
	// closer line ("};", ")}" and the like) when one exists, so the tags
	// land inside the expression they belong to.
	var closers strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		closers.WriteString(fmt.Sprintf("</%s>", stack[i]))
	}

	insertAt := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if isCloserLine(trimmed) {
			insertAt = i
		}
		break
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, closers.String())
	out = append(out, lines[insertAt:]...)
	logging.ValidateDebug("repair: closed %d dangling tag(s)", len(stack))
	return strings.Join(out, "\n") + "\n", true
}

// isCloserLine reports whether a line consists only of expression/block
// closers such as "};", ")}", "`," or ")".
func isCloserLine(line string) bool {
	for _, r := range line {
		switch r {
		case '}', ')', ']', ';', ',', '`', ' ', '\t':
		default:
			return false
		}
	}
	return line != ""
}

func endsMidExpression(line string) bool {
	for _, suffix := range []string{",", "(", "&&", "||", "=>", "+", "?", ":", "."} {
		if strings.HasSuffix(line, suffix) {
			return true
		}
	}
	return false
}

// hasUnbalancedQuotes reports whether a line has an odd number of unescaped
// single or double quotes.
func hasUnbalancedQuotes(line string) bool {
	singles, doubles := 0, 0
	escaped := false
	for _, r := range line {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '\'':
			singles++
		case '"':
			doubles++
		}
	}
	return singles%2 == 1 || doubles%2 == 1
}

// =============================================================================
// BRACES
// =============================================================================

// braceImbalance counts curly braces outside string and template literals.
// Positive means unclosed opens; negative means surplus closers.
func braceImbalance(text string) int {
	depth := 0
	var inString rune
	var prev rune
	escaped := false
	inLineComment := false

	for _, r := range text {
		if inLineComment {
			if r == '\n' {
				inLineComment = false
			}
			prev = r
			continue
		}
		if escaped {
			escaped = false
			prev = r
			continue
		}
		if inString != 0 {
			switch r {
			case '\\':
				escaped = true
			case inString:
				inString = 0
			}
			prev = r
			continue
		}
		switch r {
		case '/':
			if prev == '/' {
				inLineComment = true
			}
		case '\'', '"', '`':
			inString = r
		case '{':
			depth++
		case '}':
			depth--
		}
		prev = r
	}
	return depth
}

// repairBraces appends missing closers or strips surplus trailing closers.
func repairBraces(text string, _ Options) (string, bool) {
	imbalance := braceImbalance(text)
	if imbalance == 0 {
		return text, false
	}

	if imbalance > 0 {
		var b strings.Builder
		b.WriteString(strings.TrimRight(text, "\n"))
		b.WriteString("\n")
		for i := 0; i < imbalance; i++ {
			b.WriteString("}")
		}
		b.WriteString("\n")
		logging.ValidateDebug("repair: appended %d missing brace(s)", imbalance)
		return b.String(), true
	}

	// Surplus closers: strip from the tail only, never from the middle.
	out := strings.TrimRight(text, "\n")
	for imbalance < 0 {
		trimmed := strings.TrimRight(out, " \t\n;")
		if !strings.HasSuffix(trimmed, "}") {
			break
		}
		out = strings.TrimSuffix(trimmed, "}")
		imbalance++
	}
	if imbalance < 0 {
		return text, false // could not strip safely; leave for diagnostics
	}
	logging.ValidateDebug("repair: stripped surplus trailing brace(s)")
	return out + "\n", true
}

// =============================================================================
// TITLE STRINGS
// =============================================================================

var reTitleLine = regexp.MustCompile(`(?m)^(\s*title\s*:\s*)(['"])(.*)$`)

// repairTitleQuotes escapes unescaped same-quote characters nested inside a
// quoted title string.
func repairTitleQuotes(text string, _ Options) (string, bool) {
	changed := false
	out := reTitleLine.ReplaceAllStringFunc(text, func(line string) string {
		m := reTitleLine.FindStringSubmatch(line)
		prefix, quote, rest := m[1], m[2], m[3]

		// The title value ends at the last same-quote on the line; anything
		// between the opening quote and that point must be escaped.
		end := strings.LastIndex(rest, quote)
		if end < 0 {
			return line
		}
		value, suffix := rest[:end], rest[end:]

		var b strings.Builder
		escaped := false
		fixed := false
		for _, r := range value {
			if escaped {
				b.WriteRune(r)
				escaped = false
				continue
			}
			if r == '\\' {
				b.WriteRune(r)
				escaped = true
				continue
			}
			if string(r) == quote {
				b.WriteString("\\")
				fixed = true
			}
			b.WriteRune(r)
		}
		if !fixed {
			return line
		}
		changed = true
		return prefix + quote + b.String() + suffix
	})
	return out, changed
}

// repairTitleDuplication collapses accidentally duplicated word-sequences
// within a title, a known degenerate generation failure mode
// ("Forms/Login Form Login Form" -> "Forms/Login Form").
func repairTitleDuplication(text string, _ Options) (string, bool) {
	changed := false
	out := reTitleLine.ReplaceAllStringFunc(text, func(line string) string {
		m := reTitleLine.FindStringSubmatch(line)
		prefix, quote, rest := m[1], m[2], m[3]

		end := strings.LastIndex(rest, quote)
		if end < 0 {
			return line
		}
		value, suffix := rest[:end], rest[end:]

		collapsed := collapseRepeatedSequence(value)
		if collapsed == value {
			return line
		}
		changed = true
		return prefix + quote + collapsed + suffix
	})
	return out, changed
}

// collapseRepeatedSequence removes the longest word-sequence that is
// immediately repeated: "A B A B" -> "A B"; "X A A Y" -> "X A Y". Titles
// are path-shaped ("Category/Name"), so each "/" segment is treated
// independently.
func collapseRepeatedSequence(s string) string {
	if strings.Contains(s, "/") {
		segs := strings.Split(s, "/")
		for i, seg := range segs {
			segs[i] = collapseRepeatedSequence(seg)
		}
		return strings.Join(segs, "/")
	}
	words := strings.Fields(s)
	n := len(words)
	for size := n / 2; size >= 1; size-- {
		for start := 0; start+2*size <= n; start++ {
			if equalSlices(words[start:start+size], words[start+size:start+2*size]) {
				collapsed := append(append([]string{}, words[:start+size]...), words[start+2*size:]...)
				// One collapse per call; the repair loop re-runs if needed.
				return strings.Join(collapsed, " ")
			}
		}
	}
	return s
}

func equalSlices(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// IMPORT CANONICALIZATION
// =============================================================================

var reImportLine = regexp.MustCompile(`^\s*import\s+(?:([A-Za-z_$][\w$]*)\s*,\s*)?(?:\{([^}]*)\}|([A-Za-z_$][\w$]*))?\s*from\s*['"]([^'"]+)['"]\s*;?\s*$`)

// isDeepVariant reports whether a specifier is a sub-path of the canonical
// specifier (resolving to the same package).
func isDeepVariant(source, canonical string) bool {
	return canonical != "" && source != canonical && strings.HasPrefix(source, canonical+"/")
}

// repairDeepImports rewrites imports whose specifier is a deeper variant of
// the canonical specifier, consolidating them with any existing canonical
// import into a single statement.
func repairDeepImports(text string, opts Options) (string, bool) {
	canonical := opts.CanonicalImportPath
	if canonical == "" {
		return text, false
	}

	lines := strings.Split(text, "\n")
	var names []string
	seen := make(map[string]bool)
	addName := func(raw string) {
		for _, entry := range strings.Split(raw, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" && !seen[entry] {
				seen[entry] = true
				names = append(names, entry)
			}
		}
	}

	firstIdx := -1
	var out []string
	touched := false
	for _, line := range lines {
		m := reImportLine.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		source := m[4]
		if source != canonical && !isDeepVariant(source, canonical) {
			out = append(out, line)
			continue
		}
		if isDeepVariant(source, canonical) {
			touched = true
		}
		// Collect this statement's bindings and drop the line; the merged
		// canonical import is inserted where the first one stood.
		if m[1] != "" {
			addName(m[1])
		}
		if m[2] != "" {
			addName(m[2])
		}
		if m[3] != "" {
			addName(m[3])
		}
		if firstIdx == -1 {
			firstIdx = len(out)
			out = append(out, "") // placeholder
		}
	}

	if !touched || firstIdx == -1 {
		return text, false
	}

	out[firstIdx] = fmt.Sprintf("import { %s } from '%s';", strings.Join(names, ", "), canonical)
	logging.ValidateDebug("repair: consolidated %d import(s) onto %s", len(names), canonical)
	return strings.Join(out, "\n"), true
}
