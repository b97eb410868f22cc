package validate

import (
	"context"
	"fmt"
	"strings"

	"storyforge/internal/catalog"
	"storyforge/internal/logging"
)

// Validator runs the full static check pipeline over artifact text: parse,
// cross-check against the catalog, dialect shape checks, and an optional
// bounded repair loop.
type Validator struct {
	oracle  *catalog.Oracle
	dialect Dialect
	opts    Options
}

// NewValidator builds a Validator bound to a catalog oracle.
func NewValidator(oracle *catalog.Oracle, dialect Dialect, opts Options) *Validator {
	if opts.MaxRepairPasses <= 0 {
		opts.MaxRepairPasses = DefaultMaxRepairPasses
	}
	return &Validator{oracle: oracle, dialect: dialect, opts: opts}
}

// Run validates artifact text and, when repair is enabled, attempts bounded
// deterministic rewrites. A rewrite is kept only if re-validating the
// rewritten text does not increase the error count, so repair can never
// make an artifact worse.
func (v *Validator) Run(ctx context.Context, text string) Outcome {
	timer := logging.StartTimer(logging.CategoryValidate, "validate artifact")
	defer timer.Stop()

	base := v.validateOnce(ctx, text)
	if !v.opts.Repair || base.ErrorCount() == 0 {
		return base
	}

	current := text
	best := base
	repaired := false

	for pass := 0; pass < v.opts.MaxRepairPasses; pass++ {
		improvedThisPass := false

		for _, r := range repairPasses {
			rewritten, changed := r.apply(current, v.opts)
			if !changed {
				continue
			}
			// Optimistic apply: keep the rewrite only if the full pipeline
			// confirms it did not introduce new errors.
			trial := v.validateOnce(ctx, rewritten)
			if trial.ErrorCount() > best.ErrorCount() {
				logging.ValidateDebug("repair %s rejected: errors %d -> %d",
					r.name, best.ErrorCount(), trial.ErrorCount())
				continue
			}
			logging.Validate("repair %s applied: errors %d -> %d",
				r.name, best.ErrorCount(), trial.ErrorCount())
			current = rewritten
			best = trial
			repaired = true
			improvedThisPass = true
		}

		if !improvedThisPass || best.ErrorCount() == 0 {
			break
		}
	}

	if repaired {
		best.RepairedArtifact = current
	}
	return best
}

// validateOnce runs a single parse-and-check cycle with no rewrites. A
// parser panic is converted to a diagnostic rather than crashing the
// pipeline.
func (v *Validator) validateOnce(ctx context.Context, text string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.ValidateError("parser panic: %v", r)
			out = Outcome{
				Diagnostics: []Diagnostic{{
					Severity: SeverityError,
					Message:  fmt.Sprintf("internal parse failure: %v", r),
				}},
			}
		}
	}()

	var diags []Diagnostic

	parsed, err := parseArtifact(ctx, text)
	if err != nil {
		return Outcome{Diagnostics: []Diagnostic{{
			Severity: SeverityError,
			Message:  err.Error(),
		}}}
	}

	diags = append(diags, parsed.SyntaxErrs...)
	diags = append(diags, truncationSignals(text)...)
	diags = append(diags, v.checkUsages(parsed)...)
	diags = append(diags, v.checkCatalogImports(parsed)...)
	diags = append(diags, v.checkSpecifiers(parsed)...)
	diags = append(diags, checkDialect(text, v.dialect)...)

	out = Outcome{Diagnostics: diags}
	out.IsValid = out.ErrorCount() == 0
	return out
}

// checkUsages flags component tags used in the body without a corresponding
// import binding. One diagnostic per unique name, at its first usage.
func (v *Validator) checkUsages(parsed *parsedArtifact) []Diagnostic {
	imported := parsed.ImportedSet()

	firstLine := make(map[string]int)
	var order []string
	for _, u := range parsed.Usages {
		if imported[u.Root] {
			continue
		}
		if _, seen := firstLine[u.Root]; !seen {
			firstLine[u.Root] = u.Line
			order = append(order, u.Root)
		}
	}

	var diags []Diagnostic
	for _, name := range order {
		msg := fmt.Sprintf("component <%s> is used but never imported", name)
		if path, ok := v.oracle.ImportPathFor(name); ok && path != "" {
			msg += fmt.Sprintf(" (available from %q)", path)
		} else if sug := v.oracle.Suggest(name); sug != "" {
			msg += fmt.Sprintf("; did you mean <%s>?", sug)
		}
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Message:  msg,
			Line:     firstLine[name],
		})
	}
	return diags
}

// checkCatalogImports verifies every name imported from the canonical
// component source actually exists in the catalog. Imports from unrelated
// packages are out of scope; their exports are not ours to know.
func (v *Validator) checkCatalogImports(parsed *parsedArtifact) []Diagnostic {
	canonical := v.opts.CanonicalImportPath
	if canonical == "" || v.oracle.Len() == 0 {
		return nil
	}

	fromCatalog := parsed.ImportsFrom(func(source string) bool {
		return source == canonical || isDeepVariant(source, canonical)
	})

	var diags []Diagnostic
	seen := make(map[string]bool)
	for _, imp := range fromCatalog {
		if imp.IsDefault || v.oracle.IsKnown(imp.Name) || seen[imp.Name] {
			continue
		}
		seen[imp.Name] = true

		if bad, sug := v.oracle.IsKnownBad(imp.Name); bad {
			msg := fmt.Sprintf("%q is not a real component", imp.Name)
			if sug != "" {
				msg += fmt.Sprintf("; use %q instead", sug)
			}
			diags = append(diags, Diagnostic{
				Severity: SeverityError, Message: msg, Line: imp.Line,
			})
			continue
		}

		msg := fmt.Sprintf("%q is not in the component catalog", imp.Name)
		if sug := v.oracle.Suggest(imp.Name); sug != "" {
			msg += fmt.Sprintf("; did you mean %q?", sug)
		} else {
			msg += "; choose from: " + availableHint(v.oracle)
		}
		diags = append(diags, Diagnostic{
			Severity: SeverityError, Message: msg, Line: imp.Line,
		})
	}
	return diags
}

// checkSpecifiers flags deep sub-path variants of the canonical import
// specifier. These resolve in some bundler setups and break in others, so
// they default to warnings and escalate under StrictImports.
func (v *Validator) checkSpecifiers(parsed *parsedArtifact) []Diagnostic {
	canonical := v.opts.CanonicalImportPath
	if canonical == "" {
		return nil
	}

	severity := SeverityWarning
	if v.opts.StrictImports {
		severity = SeverityError
	}

	var diags []Diagnostic
	seen := make(map[string]bool)
	for _, imp := range parsed.Imports {
		if !isDeepVariant(imp.Source, canonical) || seen[imp.Source] {
			continue
		}
		seen[imp.Source] = true
		diags = append(diags, Diagnostic{
			Severity: severity,
			Message: fmt.Sprintf("deep import specifier %q; import from %q instead",
				imp.Source, canonical),
			Line: imp.Line,
		})
	}
	return diags
}

// availableHint renders a short sample of catalog names for error messages.
func availableHint(oracle *catalog.Oracle) string {
	names := oracle.Names()
	const max = 8
	if len(names) > max {
		return strings.Join(names[:max], ", ") + fmt.Sprintf(" (and %d more)", len(names)-max)
	}
	return strings.Join(names, ", ")
}
