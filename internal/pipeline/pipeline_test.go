package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storyforge/internal/catalog"
	"storyforge/internal/config"
	"storyforge/internal/generate"
	"storyforge/internal/preview"
	"storyforge/internal/story"
)

// scriptedGenerator returns canned outputs in order and records the
// requests it saw.
type scriptedGenerator struct {
	outputs  []string
	requests []generate.Request
}

func (g *scriptedGenerator) Generate(_ context.Context, req generate.Request) (string, error) {
	g.requests = append(g.requests, req)
	if len(g.requests) > len(g.outputs) {
		return "", fmt.Errorf("no scripted output for attempt %d", len(g.requests))
	}
	return g.outputs[len(g.requests)-1], nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Catalog.PrimaryImportPath = "@acme/ui"
	cfg.Generate.MaxAttempts = 3
	cfg.Stories.OutputDir = filepath.Join(t.TempDir(), "stories")
	cfg.Preview.Enabled = false
	return cfg
}

func testRecords() []catalog.ComponentRecord {
	return []catalog.ComponentRecord{
		{Name: "Card", ImportPath: "@acme/ui", Category: catalog.CategoryContent},
		{Name: "Text", ImportPath: "@acme/ui", Category: catalog.CategoryContent},
	}
}

func testStore(t *testing.T) *story.Store {
	t.Helper()
	s, err := story.NewStore(filepath.Join(t.TempDir(), "mappings"))
	require.NoError(t, err)
	return s
}

const goodStory = `import { Card, Text } from '@acme/ui';

export default { title: 'Generated/Login Form', component: Card };

export const Basic = () => (
  <Card>
    <Text>login</Text>
  </Card>
);
`

const badStory = `import { Card, Bogus } from '@acme/ui';

export default { title: 'Generated/Login Form', component: Bogus };

export const Basic = () => <Bogus />;
`

func TestRunSucceedsFirstAttempt(t *testing.T) {
	cfg := testConfig(t)
	gen := &scriptedGenerator{outputs: []string{goodStory}}
	store := testStore(t)

	p, err := New(cfg, gen, testRecords(), preview.NewVerifier(preview.Options{Enabled: false}), store)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), "login form")
	require.NoError(t, err)

	if res.Attempts != 1 {
		t.Errorf("attempts = %d", res.Attempts)
	}
	if res.FilePath == "" {
		t.Error("valid story must be persisted")
	}
	if res.Runtime.State != preview.StateSkipped {
		t.Errorf("disabled verifier should skip, got %q", res.Runtime.State)
	}

	m, err := store.Load("login form")
	if err != nil || m == nil {
		t.Fatalf("mapping missing: %v", err)
	}
	v, _ := m.LatestVersion()
	if !v.Valid || !v.Verified {
		t.Errorf("recorded version = %+v", v)
	}
}

func TestRunFeedsDiagnosticsIntoRetry(t *testing.T) {
	cfg := testConfig(t)
	gen := &scriptedGenerator{outputs: []string{badStory, goodStory}}
	store := testStore(t)

	p, err := New(cfg, gen, testRecords(), preview.NewVerifier(preview.Options{Enabled: false}), store)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), "login form")
	require.NoError(t, err)

	if res.Attempts != 2 {
		t.Fatalf("attempts = %d", res.Attempts)
	}
	second := gen.requests[1]
	if second.PreviousArtifact == "" {
		t.Error("retry must embed the rejected artifact")
	}
	joined := strings.Join(second.Diagnostics, "\n")
	if !strings.Contains(joined, "Bogus") {
		t.Errorf("retry diagnostics must name the offending symbol: %q", joined)
	}

	m, _ := store.Load("login form")
	if m == nil || len(m.Versions) != 2 {
		t.Fatalf("expected 2 recorded versions, got %+v", m)
	}
	if m.Versions[0].Valid {
		t.Error("first attempt must be recorded invalid")
	}
}

func TestRunExhaustsAttempts(t *testing.T) {
	cfg := testConfig(t)
	gen := &scriptedGenerator{outputs: []string{badStory, badStory, badStory}}

	p, err := New(cfg, gen, testRecords(), preview.NewVerifier(preview.Options{Enabled: false}), testStore(t))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Run(context.Background(), "login form")

	if !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Fatalf("expected ErrMaxAttemptsExceeded, got %v", err)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d", res.Attempts)
	}
	if res.FilePath != "" {
		t.Error("invalid artifacts must never be persisted")
	}
	if res.Outcome.IsValid {
		t.Error("final outcome must carry the failure")
	}
}

func TestRunGeneratorErrorPropagates(t *testing.T) {
	cfg := testConfig(t)
	gen := &scriptedGenerator{} // no outputs: first call errors

	p, err := New(cfg, gen, testRecords(), preview.NewVerifier(preview.Options{Enabled: false}), testStore(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background(), "login form"); err == nil {
		t.Fatal("generator failure must propagate")
	}
}

func TestRunRuntimeFailureKeepsArtifact(t *testing.T) {
	// Preview server whose index never lists the story: every attempt
	// persists, fails verification, and triggers regeneration.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.json" {
			fmt.Fprint(w, `{"entries":{}}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Generate.MaxAttempts = 2
	verifier := preview.NewVerifier(preview.Options{
		Enabled:        true,
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
		RetryCount:     1,
		RetryDelay:     time.Millisecond,
		TitlePrefix:    cfg.Preview.TitlePrefix,
	})
	gen := &scriptedGenerator{outputs: []string{goodStory, goodStory}}
	store := testStore(t)

	p, err := New(cfg, gen, testRecords(), verifier, store)
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Run(context.Background(), "login form")

	if !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Fatalf("expected ErrMaxAttemptsExceeded, got %v", err)
	}
	if !res.NeedsRegeneration {
		t.Error("runtime failure must be reported as needs-regeneration")
	}
	if res.FilePath == "" {
		t.Error("artifact must stay persisted after a runtime failure")
	}
	if res.Runtime.State != preview.StateNotFound {
		t.Errorf("runtime state = %q", res.Runtime.State)
	}
	second := gen.requests[1]
	if len(second.Diagnostics) == 0 || !strings.Contains(second.Diagnostics[0], "runtime") {
		t.Errorf("runtime feedback missing from retry: %v", second.Diagnostics)
	}
}

func TestTitleFor(t *testing.T) {
	cfg := testConfig(t)
	p, err := New(cfg, &scriptedGenerator{}, testRecords(),
		preview.NewVerifier(preview.Options{Enabled: false}), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.TitleFor("login form"); got != "Generated/Login Form" {
		t.Errorf("TitleFor = %q", got)
	}
	if got := p.TitleFor("Data Table"); got != "Generated/Data Table" {
		t.Errorf("TitleFor = %q", got)
	}
}
