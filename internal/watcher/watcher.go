// Package watcher rebuilds the index when the corpus directory changes.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog"

	"ragagent/internal/ingest"
)

// DefaultDebounce is the quiet period after the last change before a
// rebuild starts.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc reloads the corpus and swaps in a fresh index.
type RebuildFunc func(ctx context.Context) error

// Watcher watches a corpus directory tree and calls a RebuildFunc once a
// burst of changes to corpus files has settled. A failed rebuild is logged
// and the previous index keeps serving.
type Watcher struct {
	dir      string
	debounce time.Duration
	rebuild  RebuildFunc
	log      zerolog.Logger
	ready    chan struct{}
}

// New creates a watcher for dir.
func New(dir string, debounce time.Duration, rebuild RebuildFunc, log zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		rebuild:  rebuild,
		log:      log.With().Str("component", "watcher").Str("dir", dir).Logger(),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}
	close(w.ready)
	w.log.Info().Dur("debounce", w.debounce).Msg("watching corpus")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if de, err := godirwalk.NewDirent(ev.Name); err == nil && de.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.log.Warn().Err(err).Str("path", ev.Name).Msg("failed to watch new directory")
					}
				}
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("corpus changed")
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			start := time.Now()
			if err := w.rebuild(ctx); err != nil {
				w.log.Error().Err(err).Msg("rebuild failed, keeping previous index")
				continue
			}
			w.log.Info().Dur("elapsed", time.Since(start)).Msg("index rebuilt")
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return ingest.IsCorpusFile(ev.Name)
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Unsorted:            true,
		FollowSymbolicLinks: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if err := fw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		},
	})
}
