package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storyforge/internal/config"
	"storyforge/internal/logging"
)

// State is a terminal verification state.
type State string

const (
	StateVerified     State = "verified"
	StateNotFound     State = "not_found"
	StateRenderFailed State = "render_failed"
	// StateSkipped means the subsystem is disabled or the server address
	// is unknown; verification passes automatically.
	StateSkipped State = "skipped"
)

// RuntimeCheckResult reports the outcome of verifying one story against
// the live preview server.
type RuntimeCheckResult struct {
	State       State     `json:"state"`
	StoryID     string    `json:"story_id,omitempty"`
	StoryFound  bool      `json:"story_found"`
	ErrorKind   ErrorKind `json:"error_kind,omitempty"`
	RenderError string    `json:"render_error,omitempty"` // raw detail for regeneration prompts
	Attempts    int       `json:"attempts,omitempty"`
}

// Pass reports whether the pipeline should treat this result as success.
func (r RuntimeCheckResult) Pass() bool {
	return r.State == StateVerified || r.State == StateSkipped
}

func (r RuntimeCheckResult) String() string {
	if r.ErrorKind != ErrorKindNone {
		return fmt.Sprintf("%s (%s): %s", r.State, r.ErrorKind, r.RenderError)
	}
	return string(r.State)
}

// Options hold the verifier's connection and retry parameters.
type Options struct {
	Enabled          bool
	BaseURL          string
	RequestTimeout   time.Duration
	RetryCount       int
	RetryDelay       time.Duration
	PropagationDelay time.Duration
	TitlePrefix      string
	DeepCheck        bool

	// WatchDir, when set, lets a write event in the story directory
	// short-circuit the propagation delay.
	WatchDir string
}

// Verifier polls a preview server for a story and checks its rendered
// frame. Safe for concurrent use.
type Verifier struct {
	opts   Options
	client *http.Client
}

// NewVerifier builds a Verifier from explicit options.
func NewVerifier(opts Options) *Verifier {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.RetryCount <= 0 {
		opts.RetryCount = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Verifier{
		opts:   opts,
		client: &http.Client{Timeout: opts.RequestTimeout},
	}
}

// FromConfig builds a Verifier from the workspace configuration.
func FromConfig(cfg *config.Config) (*Verifier, error) {
	reqTimeout, err := cfg.PreviewRequestTimeout()
	if err != nil {
		return nil, fmt.Errorf("preview request timeout: %w", err)
	}
	retryDelay, err := cfg.PreviewRetryDelay()
	if err != nil {
		return nil, fmt.Errorf("preview retry delay: %w", err)
	}
	propagation, err := cfg.PreviewPropagationDelay()
	if err != nil {
		return nil, fmt.Errorf("preview propagation delay: %w", err)
	}
	return NewVerifier(Options{
		Enabled:          cfg.Preview.Enabled,
		BaseURL:          cfg.Preview.BaseURL,
		RequestTimeout:   reqTimeout,
		RetryCount:       cfg.Preview.RetryCount,
		RetryDelay:       retryDelay,
		PropagationDelay: propagation,
		TitlePrefix:      cfg.Preview.TitlePrefix,
		DeepCheck:        cfg.Preview.DeepCheck,
		WatchDir:         cfg.Stories.OutputDir,
	}), nil
}

// indexDocument is the preview server's manifest. Newer servers expose
// entries; older ones expose stories. Both map id -> metadata.
type indexDocument struct {
	Entries map[string]indexEntry `json:"entries"`
	Stories map[string]indexEntry `json:"stories"`
}

type indexEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// Verify runs the full state machine for one story title: await
// propagation, poll the index, then check the rendered frame.
func (v *Verifier) Verify(ctx context.Context, title string) RuntimeCheckResult {
	if !v.opts.Enabled || v.opts.BaseURL == "" {
		logging.Preview("verification skipped (disabled or no server address)")
		return RuntimeCheckResult{State: StateSkipped}
	}

	full := title
	if v.opts.TitlePrefix != "" && !strings.HasPrefix(full, v.opts.TitlePrefix) {
		full = v.opts.TitlePrefix + full
	}
	id := StoryID(full)

	timer := logging.StartTimer(logging.CategoryPreview, "verify "+id)
	defer timer.Stop()

	v.awaitPropagation(ctx)

	entryID, attempts, kind, detail := v.pollIndex(ctx, id)
	if entryID == "" {
		logging.PreviewWarn("story %q not found after %d attempt(s): %s", id, attempts, detail)
		return RuntimeCheckResult{
			State:       StateNotFound,
			StoryID:     id,
			ErrorKind:   kind,
			RenderError: detail,
			Attempts:    attempts,
		}
	}

	result := RuntimeCheckResult{StoryID: entryID, StoryFound: true, Attempts: attempts}

	scan, err := v.frameCheck(ctx, entryID)
	if err != nil {
		result.State = StateRenderFailed
		result.ErrorKind = classifyTransport(err)
		result.RenderError = err.Error()
		return result
	}
	if scan.Kind != ErrorKindNone {
		logging.PreviewWarn("frame check failed for %q: %s: %s", entryID, scan.Kind, scan.Detail)
		result.State = StateRenderFailed
		result.ErrorKind = scan.Kind
		result.RenderError = scan.Detail
		return result
	}

	if v.opts.DeepCheck {
		if msgs := v.deepCheck(ctx, entryID); len(msgs) > 0 {
			result.State = StateRenderFailed
			result.ErrorKind = ErrorKindRender
			if kind := classifyText(msgs[0]); kind != ErrorKindNone {
				result.ErrorKind = kind
			}
			result.RenderError = strings.Join(msgs, "\n")
			return result
		}
	}

	logging.Preview("story %q verified", entryID)
	result.State = StateVerified
	return result
}

// pollIndex fetches the manifest up to RetryCount times looking for the
// expected identifier. Returns the matched entry id, attempts used, and
// the last failure classification when nothing matched.
func (v *Verifier) pollIndex(ctx context.Context, id string) (string, int, ErrorKind, string) {
	lastKind := ErrorKindNotFound
	lastDetail := fmt.Sprintf("identifier %q never appeared in the preview index", id)

	attempt := 0
	for ; attempt < v.opts.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", attempt, ErrorKindTimeout, ctx.Err().Error()
			case <-time.After(v.opts.RetryDelay):
			}
		}

		doc, err := v.fetchIndex(ctx)
		if err != nil {
			lastKind = classifyTransport(err)
			lastDetail = err.Error()
			logging.PreviewDebug("index poll %d/%d failed: %v", attempt+1, v.opts.RetryCount, err)
			if lastKind == ErrorKindTimeout && ctx.Err() != nil {
				return "", attempt + 1, lastKind, lastDetail
			}
			continue
		}

		if entryID := matchEntry(doc, id); entryID != "" {
			return entryID, attempt + 1, ErrorKindNone, ""
		}
		logging.PreviewDebug("index poll %d/%d: %q not present yet", attempt+1, v.opts.RetryCount, id)
	}
	return "", attempt, lastKind, lastDetail
}

// matchEntry finds an index entry whose id equals the derived identifier
// or is one of its story variants ("<id>--<variant>").
func matchEntry(doc *indexDocument, id string) string {
	entries := doc.Entries
	if len(entries) == 0 {
		entries = doc.Stories
	}
	if exact, ok := entries[id]; ok {
		if exact.ID != "" {
			return exact.ID
		}
		return id
	}
	best := ""
	for key := range entries {
		if strings.HasPrefix(key, id+"--") && (best == "" || key < best) {
			best = key
		}
	}
	return best
}

// fetchIndex retrieves /index.json, falling back to the legacy
// /stories.json manifest.
func (v *Verifier) fetchIndex(ctx context.Context) (*indexDocument, error) {
	doc, err := v.fetchIndexPath(ctx, "/index.json")
	if err == nil {
		return doc, nil
	}
	if fallback, fbErr := v.fetchIndexPath(ctx, "/stories.json"); fbErr == nil {
		return fallback, nil
	}
	return nil, err
}

func (v *Verifier) fetchIndexPath(ctx context.Context, path string) (*indexDocument, error) {
	reqCtx, cancel := context.WithTimeout(ctx, v.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, v.opts.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build index request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
	}

	var doc indexDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &doc, nil
}

// frameCheck fetches the rendered frame for an entry and scans it for
// failure signatures.
func (v *Verifier) frameCheck(ctx context.Context, entryID string) (frameScan, error) {
	reqCtx, cancel := context.WithTimeout(ctx, v.opts.RequestTimeout)
	defer cancel()

	frameURL := fmt.Sprintf("%s/iframe.html?id=%s&viewMode=story",
		v.opts.BaseURL, url.QueryEscape(entryID))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, frameURL, nil)
	if err != nil {
		return frameScan{}, fmt.Errorf("build frame request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return frameScan{}, fmt.Errorf("fetch frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return frameScan{}, fmt.Errorf("fetch frame: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return frameScan{}, fmt.Errorf("read frame body: %w", err)
	}
	return scanFrame(string(body)), nil
}

// classifyTransport maps a transport-level error to a result kind.
func classifyTransport(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorKindTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrorKindTimeout
	}
	if errors.As(err, &urlErr) {
		return ErrorKindConnection
	}
	if strings.Contains(err.Error(), "status ") {
		return ErrorKindConnection
	}
	return ErrorKindConnection
}
