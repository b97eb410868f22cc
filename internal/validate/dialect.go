package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reDefaultExport = regexp.MustCompile(`(?m)^\s*export\s+default\s`)
	reStoriesOf     = regexp.MustCompile(`\bstoriesOf\s*\(`)
	reNamedStory    = regexp.MustCompile(`(?m)^\s*export\s+(?:const|function)\s+[A-Za-z_$]`)

	reVueDirective    = regexp.MustCompile(`@click|v-if=|v-for=|v-model=|v-bind:`)
	reSvelteDirective = regexp.MustCompile(`on:click|bind:value|\{#if\b|\{#each\b`)
	reReactAttrs      = regexp.MustCompile(`\bclassName=|\bonClick=\{|\bhtmlFor=`)
	reLitLiteral      = regexp.MustCompile("\\bhtml`")
)

// checkDialect verifies the artifact has the structural shape expected of a
// showcase file in the configured dialect and is free of markup idioms
// belonging to a different framework.
func checkDialect(text string, dialect Dialect) []Diagnostic {
	var diags []Diagnostic

	if !reDefaultExport.MatchString(text) {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  "missing default export: a showcase file must export a default metadata object",
		})
	}
	if loc := reStoriesOf.FindStringIndex(text); loc != nil {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  "legacy storiesOf() API is not supported; use a default-exported metadata object with named exports",
			Line:     lineAt(text, loc[0]),
		})
	}
	if !reNamedStory.MatchString(text) {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Message:  "no named exports found: the file declares metadata but no showcase variants",
		})
	}

	diags = append(diags, checkContamination(text, dialect)...)

	if dialect == DialectLit && !strings.Contains(text, "from 'lit'") && !strings.Contains(text, `from "lit"`) {
		if reLitLiteral.MatchString(text) {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Message:  "html tagged template used without importing it from 'lit'",
			})
		}
	}

	return diags
}

// checkContamination flags template idioms from frameworks other than the
// configured one. Generation models trained across frameworks routinely mix
// these, and the result fails at module load rather than at review time.
func checkContamination(text string, dialect Dialect) []Diagnostic {
	type probe struct {
		re      *regexp.Regexp
		foreign string
	}
	var probes []probe

	switch dialect {
	case DialectReact:
		probes = []probe{
			{reVueDirective, "vue"},
			{reSvelteDirective, "svelte"},
		}
	case DialectVue:
		probes = []probe{
			{reReactAttrs, "react"},
			{reSvelteDirective, "svelte"},
		}
	case DialectSvelte:
		probes = []probe{
			{reReactAttrs, "react"},
			{reVueDirective, "vue"},
		}
	case DialectLit:
		probes = []probe{
			{reReactAttrs, "react"},
			{reVueDirective, "vue"},
		}
	}

	var diags []Diagnostic
	for _, p := range probes {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message: fmt.Sprintf("%s template syntax %q in a %s artifact",
				p.foreign, text[loc[0]:loc[1]], dialect),
			Line: lineAt(text, loc[0]),
		})
	}
	return diags
}

// lineAt converts a byte offset to a 1-based line number.
func lineAt(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
