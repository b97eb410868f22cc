package preview

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"storyforge/internal/logging"
)

// settleDelay is the short grace period after a watch event fires; the
// preview server needs a moment to recompile after the write lands.
const settleDelay = 500 * time.Millisecond

// awaitPropagation blocks for the configured propagation delay so the
// preview server's watcher can pick up the newly written story. When a
// watch directory is configured, a write or create event there ends the
// wait early.
func (v *Verifier) awaitPropagation(ctx context.Context) {
	delay := v.opts.PropagationDelay
	if delay <= 0 {
		return
	}

	if v.opts.WatchDir == "" {
		sleepCtx(ctx, delay)
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.PreviewDebug("fsnotify unavailable (%v); falling back to fixed delay", err)
		sleepCtx(ctx, delay)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(v.opts.WatchDir); err != nil {
		logging.PreviewDebug("watch %s failed (%v); falling back to fixed delay", v.opts.WatchDir, err)
		sleepCtx(ctx, delay)
		return
	}

	deadline := time.NewTimer(delay)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				sleepCtx(ctx, delay)
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logging.PreviewDebug("story write observed (%s); shortening propagation wait", ev.Name)
				sleepCtx(ctx, settleDelay)
				return
			}
		case <-watcher.Errors:
			// Watch errors are non-fatal; the deadline still bounds the wait.
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
