package preview

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"storyforge/internal/logging"
)

// deepCheckWindow bounds how long the page is observed for console and
// uncaught-exception output after load.
const deepCheckWindow = 3 * time.Second

// deepCheck drives a headless browser at the story's frame URL and
// collects console errors and uncaught exceptions the plain HTTP frame
// check cannot see. A missing or unlaunchable browser degrades to an
// empty result; the deep check is advisory and never fails verification
// on its own infrastructure.
func (v *Verifier) deepCheck(ctx context.Context, entryID string) []string {
	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		logging.PreviewDebug("deep check unavailable: %v", err)
		return nil
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		logging.PreviewDebug("deep check connect failed: %v", err)
		return nil
	}
	defer browser.Close()

	frameURL := fmt.Sprintf("%s/iframe.html?id=%s&viewMode=story",
		v.opts.BaseURL, url.QueryEscape(entryID))
	page, err := browser.Page(proto.TargetCreateTarget{URL: frameURL})
	if err != nil {
		logging.PreviewDebug("deep check page failed: %v", err)
		return nil
	}
	defer page.Close()

	var mu sync.Mutex
	var messages []string
	record := func(msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		mu.Lock()
		messages = append(messages, msg)
		mu.Unlock()
	}

	observeCtx, cancel := context.WithTimeout(ctx, deepCheckWindow)
	defer cancel()

	wait := page.Context(observeCtx).EachEvent(
		func(ev *proto.RuntimeConsoleAPICalled) {
			if ev.Type != proto.RuntimeConsoleAPICalledTypeError {
				return
			}
			record(stringifyConsoleArgs(ev.Args))
		},
		func(ev *proto.RuntimeExceptionThrown) {
			if ev.ExceptionDetails == nil {
				return
			}
			detail := ev.ExceptionDetails.Text
			if ex := ev.ExceptionDetails.Exception; ex != nil && ex.Description != "" {
				detail = ex.Description
			}
			record(detail)
		},
	)
	wait()

	if len(messages) > 0 {
		logging.PreviewDebug("deep check captured %d message(s) for %q", len(messages), entryID)
	}
	return messages
}

func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
