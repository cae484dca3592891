package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"docintel/constants"
)

// WatchConfig controls hot-folder discovery.
type WatchConfig struct {
	Root        string        // directory to watch (recursive)
	InitialScan bool          // emit PDFs already present at startup
	Debounce    time.Duration // coalesce rapid write bursts per file
}

// Watch observes a directory tree and emits the path of every PDF that
// appears or changes under it. The returned channels close when ctx is done.
func Watch(ctx context.Context, cfg WatchConfig, log *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("watch root is required")
	}
	if log == nil {
		log = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	paths := make(chan string, 256)
	errs := make(chan error, 1)

	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && constants.AllowedFilename(path) {
			select {
			case paths <- path:
			default:
			}
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(paths)
		defer close(errs)
		defer w.Close()

		var timer *time.Timer
		pending := map[string]struct{}{}
		flush := func() {
			for p := range pending {
				select {
				case paths <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e := <-w.Events:
				if e.Op.Has(fsnotify.Create) {
					// A new subdirectory needs its own watch; for
					// plain files the Add is a harmless no-op.
					if err := w.Add(e.Name); err != nil {
						log.Debug("ingest.watch_add_skipped", "path", e.Name)
					}
				}
				if !constants.AllowedFilename(e.Name) {
					continue
				}
				if e.Op.Has(fsnotify.Create) || e.Op.Has(fsnotify.Write) || e.Op.Has(fsnotify.Rename) {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer != nil {
							timer.Stop()
						}
						timer = time.AfterFunc(cfg.Debounce, flush)
					} else {
						flush()
					}
				}
			case err := <-w.Errors:
				log.Error("ingest.watch_error", "error", err)
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	return paths, errs, nil
}
