package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testOptions(baseURL string) Options {
	return Options{
		Enabled:          true,
		BaseURL:          baseURL,
		RequestTimeout:   2 * time.Second,
		RetryCount:       3,
		RetryDelay:       10 * time.Millisecond,
		PropagationDelay: 0,
		TitlePrefix:      "Generated/",
	}
}

func indexJSON(ids ...string) string {
	out := `{"v":5,"entries":{`
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`%q:{"id":%q,"type":"story"}`, id, id)
	}
	return out + "}}"
}

const healthyFrame = `<!DOCTYPE html><html><body><div id="storybook-root"><button>Save</button></div></body></html>`

func TestVerifyDisabledPasses(t *testing.T) {
	v := NewVerifier(Options{Enabled: false})
	res := v.Verify(context.Background(), "Login Form")

	if res.State != StateSkipped || !res.Pass() {
		t.Errorf("disabled verifier must auto-pass, got %+v", res)
	}
}

func TestVerifyNoAddressPasses(t *testing.T) {
	v := NewVerifier(Options{Enabled: true, BaseURL: ""})
	if res := v.Verify(context.Background(), "Login Form"); res.State != StateSkipped {
		t.Errorf("unknown server address must auto-pass, got %+v", res)
	}
}

func TestVerifyHealthyStory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			fmt.Fprint(w, indexJSON("generated-login-form--basic"))
		case "/iframe.html":
			fmt.Fprint(w, healthyFrame)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	v := NewVerifier(testOptions(srv.URL))
	res := v.Verify(context.Background(), "Login Form")

	if res.State != StateVerified {
		t.Fatalf("expected verified, got %+v", res)
	}
	if !res.StoryFound || res.StoryID != "generated-login-form--basic" {
		t.Errorf("unexpected story match: %+v", res)
	}
}

func TestVerifyWaitsForIndexToFill(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			if calls.Add(1) < 3 {
				fmt.Fprint(w, indexJSON())
				return
			}
			fmt.Fprint(w, indexJSON("generated-card--basic"))
		case "/iframe.html":
			fmt.Fprint(w, healthyFrame)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	v := NewVerifier(testOptions(srv.URL))
	res := v.Verify(context.Background(), "Card")

	if res.State != StateVerified {
		t.Fatalf("expected verified after polling, got %+v", res)
	}
	if res.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", res.Attempts)
	}
}

func TestVerifyNotFoundAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.json" {
			calls.Add(1)
			fmt.Fprint(w, indexJSON("generated-other--basic"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	v := NewVerifier(testOptions(srv.URL))
	res := v.Verify(context.Background(), "Missing Widget")

	if res.State != StateNotFound || res.Pass() {
		t.Fatalf("expected not_found, got %+v", res)
	}
	if res.ErrorKind != ErrorKindNotFound {
		t.Errorf("expected not-found kind, got %q", res.ErrorKind)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 index polls, got %d", got)
	}
}

func TestVerifyRenderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			fmt.Fprint(w, indexJSON("generated-broken--basic"))
		case "/iframe.html":
			fmt.Fprint(w, `<html><body><div class="sb-errordisplay">
				Failed to fetch dynamically imported module: ./Broken.stories.tsx
			</div></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	v := NewVerifier(testOptions(srv.URL))
	res := v.Verify(context.Background(), "Broken")

	if res.State != StateRenderFailed {
		t.Fatalf("expected render_failed, got %+v", res)
	}
	if res.ErrorKind != ErrorKindModuleLoad {
		t.Errorf("expected module-load kind, got %q", res.ErrorKind)
	}
	if !res.StoryFound {
		t.Error("story was in the index; StoryFound must be true")
	}
	if res.RenderError == "" {
		t.Error("render failure must carry raw detail")
	}
}

func TestVerifyConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close() // nothing listens anymore

	v := NewVerifier(testOptions(base))
	res := v.Verify(context.Background(), "Card")

	if res.State != StateNotFound {
		t.Fatalf("expected not_found, got %+v", res)
	}
	if res.ErrorKind != ErrorKindConnection {
		t.Errorf("expected connection kind, got %q", res.ErrorKind)
	}
}

func TestVerifyLegacyManifestFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			http.NotFound(w, r)
		case "/stories.json":
			fmt.Fprint(w, `{"stories":{"generated-card--basic":{"id":"generated-card--basic"}}}`)
		case "/iframe.html":
			fmt.Fprint(w, healthyFrame)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	v := NewVerifier(testOptions(srv.URL))
	if res := v.Verify(context.Background(), "Card"); res.State != StateVerified {
		t.Errorf("legacy manifest should still verify, got %+v", res)
	}
}

func TestVerifyTitleAlreadyPrefixed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			fmt.Fprint(w, indexJSON("generated-card--basic"))
		case "/iframe.html":
			fmt.Fprint(w, healthyFrame)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	v := NewVerifier(testOptions(srv.URL))
	if res := v.Verify(context.Background(), "Generated/Card"); res.State != StateVerified {
		t.Errorf("prefix must not be applied twice, got %+v", res)
	}
}

func TestMatchEntry(t *testing.T) {
	doc := &indexDocument{Entries: map[string]indexEntry{
		"generated-card--basic":   {ID: "generated-card--basic"},
		"generated-card--hover":   {ID: "generated-card--hover"},
		"generated-cardlist--all": {ID: "generated-cardlist--all"},
	}}

	if got := matchEntry(doc, "generated-card"); got != "generated-card--basic" {
		t.Errorf("variant match = %q, want lexicographically first variant", got)
	}
	if got := matchEntry(doc, "generated-table"); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
	// A prefix that is not a full "--" variant boundary must not match.
	if got := matchEntry(doc, "generated-car"); got != "" {
		t.Errorf("partial slug must not match, got %q", got)
	}
}
