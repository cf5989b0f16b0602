// Package watch reports changes to the content tree, whether they come
// from the API or from edits made directly on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docsadmin/internal/parser"
	"github.com/starford/docsadmin/internal/sse"
)

// DefaultDebounce is how long changes are coalesced before delivery.
const DefaultDebounce = 150 * time.Millisecond

// Callback receives an sse change kind and the slash-separated path
// relative to the watched root.
type Callback func(kind, path string)

type pendingChange struct {
	kind string
	path string
}

// Watch observes root and its subdirectories until ctx is cancelled.
// Bursts of filesystem events for the same path are coalesced into one
// callback carrying the latest kind. Dotfiles (including in-flight atomic
// writes) and non-document files are ignored.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := make(map[string]struct{})
	if err := addDirsRecursive(w, root, root, dirs); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	var (
		pending []pendingChange
		index   = make(map[string]int)
		timer   = time.NewTimer(debounce)
		timerC  <-chan time.Time
	)
	timer.Stop()

	queue := func(kind, rel string) {
		if i, ok := index[rel]; ok {
			pending[i].kind = kind
		} else {
			index[rel] = len(pending)
			pending = append(pending, pendingChange{kind: kind, path: rel})
		}
		timer.Reset(debounce)
		timerC = timer.C
	}
	flush := func() {
		for _, p := range pending {
			logger.Debug("watcher: change", slog.String("kind", p.kind), slog.String("path", p.path))
			if cb != nil {
				cb(p.kind, p.path)
			}
		}
		pending = pending[:0]
		clear(index)
		timerC = nil
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("watcher: stopped")
			return nil

		case <-timerC:
			flush()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, ok := relPath(root, ev.Name)
			if !ok || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				info, statErr := os.Stat(ev.Name)
				if statErr != nil {
					continue
				}
				if info.IsDir() {
					if addErr := addDirsRecursive(w, root, ev.Name, dirs); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					}
					queue(sse.FolderCreated, rel)
					// Documents written before the watch was added.
					for _, doc := range documentsUnder(root, ev.Name) {
						queue(sse.DocumentSaved, doc)
					}
					continue
				}
				if parser.IsDocumentName(rel) {
					queue(sse.DocumentSaved, rel)
				}

			case ev.Op&fsnotify.Write != 0:
				if parser.IsDocumentName(rel) {
					queue(sse.DocumentSaved, rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if _, isDir := dirs[rel]; isDir {
					forgetDir(dirs, rel)
					queue(sse.FolderDeleted, rel)
					continue
				}
				if parser.IsDocumentName(rel) {
					queue(sse.DocumentDeleted, rel)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func relPath(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addDirsRecursive watches dir and every non-hidden subdirectory,
// recording them in dirs by relative path.
func addDirsRecursive(w *fsnotify.Watcher, root, dir string, dirs map[string]struct{}) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.Add(p); err != nil {
			return err
		}
		if rel, ok := relPath(root, p); ok {
			dirs[rel] = struct{}{}
		}
		return nil
	})
}

func documentsUnder(root, dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !parser.IsDocumentName(d.Name()) {
			return nil
		}
		if rel, ok := relPath(root, p); ok {
			out = append(out, rel)
		}
		return nil
	})
	return out
}

func forgetDir(dirs map[string]struct{}, rel string) {
	prefix := rel + "/"
	for d := range dirs {
		if d == rel || strings.HasPrefix(d, prefix) {
			delete(dirs, d)
		}
	}
}
