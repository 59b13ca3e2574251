package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giantswarm/llm-bench/internal/bigbench"
)

// Watch calls fn whenever an answers file of the given style under outputDir
// is written or created, coalescing events that arrive within debounce. It
// blocks until ctx is done.
func Watch(ctx context.Context, outputDir, style string, debounce time.Duration, fn func() error) error {
	dir := bigbench.AnswersDir(outputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create answers directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch answers directory: %w", err)
	}

	suffix := "_" + style + "_answers.json"
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, suffix) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				slog.Debug("answers file changed", "file", event.Name)
				timer.Reset(debounce)
			}
		case <-timer.C:
			slog.Info("answers changed, rescoring", "style", style)
			if err := fn(); err != nil {
				slog.Error("rescoring failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", "error", err)
		}
	}
}
