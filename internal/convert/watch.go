package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch converts the matching PDFs already in inDir, then converts files as
// they are created or rewritten until ctx is cancelled. Each changed file is
// converted once it has been quiet for the debounce interval. Results are
// passed to onResult, which may be nil.
func (c *Converter) Watch(ctx context.Context, inDir, outDir string, onResult func(FileResult)) error {
	if err := os.MkdirAll(outDir, defaultDirMode); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			c.logger.WithError(closeErr).Warn("Failed to close watcher")
		}
	}()

	if err := watcher.Add(inDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", inDir, err)
	}
	c.logger.WithFields(logrus.Fields{"input": inDir, "output": outDir}).Info("Watching for PDFs")

	report := func(result FileResult) {
		if onResult != nil {
			onResult(result)
		}
	}

	d := newDebouncer(c.debounce, func(path string) {
		if ctx.Err() != nil {
			return
		}
		report(c.ConvertFile(ctx, path, outDir))
	})
	defer d.stop()

	// Files written before the watch was registered produce no events
	summary, err := c.Run(ctx, inDir, outDir)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	for _, result := range summary.Files {
		report(result)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !c.Matches(filepath.Base(event.Name)) {
				continue
			}
			c.logger.WithField("file", event.Name).Debug("PDF changed")
			d.schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.WithError(err).Error("File watcher error")
		}
	}
}

// debouncer runs fn for a path once no schedule call for it has arrived
// within delay
type debouncer struct {
	delay time.Duration
	fn    func(path string)

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration, fn func(path string)) *debouncer {
	return &debouncer{delay: delay, fn: fn, pending: make(map[string]*time.Timer)}
}

func (d *debouncer) schedule(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.pending[path]; ok && timer.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.release(path, timer)
		d.fn(path)
	})
	d.pending[path] = timer
}

// release forgets timer unless a later schedule call has replaced it
func (d *debouncer) release(path string, timer *time.Timer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[path] == timer {
		delete(d.pending, path)
	}
}

// stop cancels pending timers and waits for running callbacks
func (d *debouncer) stop() {
	d.mu.Lock()
	for path, timer := range d.pending {
		if timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, path)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
