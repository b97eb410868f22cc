// Package validate statically checks a generated story artifact against the
// component catalog, applying a bounded set of deterministic rewrites to
// defects that are mechanically repairable.
package validate

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic describes one defect found in an artifact. Diagnostics are
// accumulated and returned as data, never raised as control flow.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"` // 1-based; 0 means unknown
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", d.Severity, d.Line, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
}

// Outcome is the result of validating (and possibly repairing) an artifact.
type Outcome struct {
	IsValid     bool         `json:"is_valid"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	// RepairedArtifact is present only if at least one deterministic
	// rewrite was applied and the rewritten text still parses.
	RepairedArtifact string `json:"repaired_artifact,omitempty"`
}

// ErrorCount returns the number of error-severity diagnostics.
func (o Outcome) ErrorCount() int {
	n := 0
	for _, d := range o.Diagnostics {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Dialect is the framework-specific authoring convention the artifact must
// conform to.
type Dialect string

const (
	DialectReact  Dialect = "react"
	DialectVue    Dialect = "vue"
	DialectSvelte Dialect = "svelte"
	DialectLit    Dialect = "lit"
)

// ParseDialect maps a config string to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectReact, DialectVue, DialectSvelte, DialectLit:
		return Dialect(s), nil
	default:
		return "", fmt.Errorf("unknown dialect: %q", s)
	}
}

// Options tune validation behavior.
type Options struct {
	// CanonicalImportPath is the configured canonical specifier for the
	// catalog's primary component source.
	CanonicalImportPath string

	// StrictImports raises deep-variant import specifiers from warning
	// to error.
	StrictImports bool

	// Repair enables the deterministic rewrite passes.
	Repair bool

	// MaxRepairPasses caps the repair loop. Zero means the default.
	MaxRepairPasses int
}

// DefaultMaxRepairPasses bounds the repair loop when Options does not.
const DefaultMaxRepairPasses = 3
