// Package pipeline orchestrates one story request end to end: generate
// text, statically validate and repair it, persist the accepted artifact,
// then verify it against the live preview server. Failed attempts feed
// their diagnostics back into the next generation prompt, bounded by the
// configured attempt budget.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storyforge/internal/catalog"
	"storyforge/internal/config"
	"storyforge/internal/generate"
	"storyforge/internal/logging"
	"storyforge/internal/preview"
	"storyforge/internal/story"
	"storyforge/internal/validate"
)

// ErrMaxAttemptsExceeded is returned when every allowed generation
// attempt was consumed without producing a verified story.
var ErrMaxAttemptsExceeded = errors.New("max generation attempts exceeded")

// Result reports the final state of one pipeline run. Present even when
// the run failed, so callers can surface the last diagnostics.
type Result struct {
	RequestID string
	Title     string
	FilePath  string
	Attempts  int

	Outcome validate.Outcome
	Runtime preview.RuntimeCheckResult

	// NeedsRegeneration is set when the artifact was persisted but
	// failed runtime verification. The file stays on disk; rollback is
	// never the right response to a runtime failure.
	NeedsRegeneration bool
}

// Pipeline wires the generator, validator, writer, and verifier together.
type Pipeline struct {
	cfg       *config.Config
	generator generate.Generator
	validator *validate.Validator
	verifier  *preview.Verifier
	store     *story.Store
	records   []catalog.ComponentRecord
}

// New assembles a pipeline from its collaborators and the active catalog.
func New(cfg *config.Config, gen generate.Generator, records []catalog.ComponentRecord,
	verifier *preview.Verifier, store *story.Store) (*Pipeline, error) {

	dialect, err := validate.ParseDialect(cfg.Validate.Dialect)
	if err != nil {
		return nil, err
	}
	oracle := catalog.NewOracle(records)
	validator := validate.NewValidator(oracle, dialect, validate.Options{
		CanonicalImportPath: cfg.Catalog.PrimaryImportPath,
		StrictImports:       cfg.Validate.StrictImports,
		Repair:              true,
		MaxRepairPasses:     cfg.Validate.MaxRepairPasses,
	})

	return &Pipeline{
		cfg:       cfg,
		generator: gen,
		validator: validator,
		verifier:  verifier,
		store:     store,
		records:   records,
	}, nil
}

// TitleFor derives the full story title for a concept: each word
// capitalized, under the configured title prefix.
func (p *Pipeline) TitleFor(concept string) string {
	words := strings.Fields(concept)
	for i, w := range words {
		if w[0] >= 'a' && w[0] <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return p.cfg.Preview.TitlePrefix + strings.Join(words, " ")
}

// Run executes the full loop for one concept.
func (p *Pipeline) Run(ctx context.Context, concept string) (*Result, error) {
	requestID := uuid.NewString()
	title := p.TitleFor(concept)

	maxAttempts := p.cfg.Generate.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	logging.Generate("request %s: %q as %q (max %d attempts)", requestID, concept, title, maxAttempts)

	result := &Result{RequestID: requestID, Title: title}
	req := generate.Request{
		Concept:    concept,
		Title:      title,
		Dialect:    p.cfg.Validate.Dialect,
		ImportPath: p.cfg.Catalog.PrimaryImportPath,
		Components: p.records,
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		text, err := p.generator.Generate(ctx, req)
		if err != nil {
			return result, fmt.Errorf("attempt %d: %w", attempt, err)
		}

		outcome := p.validator.Run(ctx, text)
		result.Outcome = outcome

		artifact := text
		if outcome.RepairedArtifact != "" {
			artifact = outcome.RepairedArtifact
		}

		if !outcome.IsValid {
			// Invalid artifacts are never persisted; record the attempt
			// and regenerate with the diagnostics in the prompt.
			diags := diagnosticStrings(outcome)
			p.recordAttempt(concept, title, "", requestID, attempt, false, false, diags)
			logging.GenerateDebug("attempt %d/%d invalid: %d diagnostic(s)",
				attempt, maxAttempts, len(outcome.Diagnostics))
			req.PreviousArtifact = artifact
			req.Diagnostics = diags
			continue
		}

		path, err := story.WriteArtifact(p.cfg.Stories.OutputDir, title, p.cfg.Validate.Dialect, artifact)
		if err != nil {
			return result, fmt.Errorf("persist artifact: %w", err)
		}
		result.FilePath = path

		runtime := p.verifier.Verify(ctx, title)
		result.Runtime = runtime
		p.recordAttempt(concept, title, path, requestID, attempt, true, runtime.Pass(),
			runtimeDiagnostics(runtime))

		if runtime.Pass() {
			logging.Generate("request %s verified after %d attempt(s)", requestID, attempt)
			result.NeedsRegeneration = false
			return result, nil
		}

		// The artifact stays on disk; the runtime failure becomes
		// feedback for the next attempt.
		result.NeedsRegeneration = true
		req.PreviousArtifact = artifact
		req.Diagnostics = runtimeDiagnostics(runtime)
		logging.GenerateDebug("attempt %d/%d failed runtime verification: %s",
			attempt, maxAttempts, runtime)
	}

	return result, fmt.Errorf("request %s: %w", requestID, ErrMaxAttemptsExceeded)
}

func (p *Pipeline) recordAttempt(concept, title, path, requestID string, attempt int,
	valid, verified bool, diags []string) {

	if p.store == nil {
		return
	}
	v := story.Version{
		ID:          fmt.Sprintf("%s/%d", requestID, attempt),
		Valid:       valid,
		Verified:    verified,
		Diagnostics: diags,
	}
	if _, err := p.store.Record(concept, title, path, v); err != nil {
		logging.StoreError("record attempt: %v", err)
	}
}

func diagnosticStrings(outcome validate.Outcome) []string {
	out := make([]string, 0, len(outcome.Diagnostics))
	for _, d := range outcome.Diagnostics {
		out = append(out, d.String())
	}
	return out
}

func runtimeDiagnostics(res preview.RuntimeCheckResult) []string {
	if res.Pass() {
		return nil
	}
	return []string{fmt.Sprintf("runtime %s (%s): %s", res.State, res.ErrorKind, res.RenderError)}
}
