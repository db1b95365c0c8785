package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/daybook/pkg/core"
)

// debounceWindow collapses the burst of events produced by one atomic write
// (create temp, write, chmod, rename).
const debounceWindow = 50 * time.Millisecond

// Watch reports changes made to the data file by other processes. Writes
// performed through this repository are not reported. The channel is closed
// when ctx is done.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// The data file is replaced by rename on every save, so the directory is
	// watched rather than the file itself.
	if err := watcher.Add(r.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.Path, err)
	}

	events := make(chan core.Event, 16)
	r.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer r.setWatcherActive(false)
		defer watcher.Close()
		return r.watchLoop(ctx, watcher, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		r.reportWatchError(fmt.Errorf("watcher stopped: %w", err))
	}))

	return events, nil
}

func (r *Repository) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, events chan<- core.Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			// Stack only at debug level.
			if r.config.Logger.Enabled(ctx, slog.LevelDebug) {
				r.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				r.config.Logger.Error("watcher panic", "error", err)
			}
		}
	}()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			if filepath.Base(event.Name) != r.config.FileName {
				continue
			}
			r.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if e, changed := r.inspect(); changed {
				select {
				case events <- e:
				case <-ctx.Done():
					return nil
				}
			}

		case wErr, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			r.reportWatchError(wErr)
		}
	}
}

// inspect compares the data file on disk with what this repository last
// read or wrote.
func (r *Repository) inspect() (core.Event, bool) {
	e := core.Event{Collection: core.CollectionAll, ID: core.NoID, Timestamp: time.Now().Unix()}

	raw, err := os.ReadFile(r.file)
	if errors.Is(err, os.ErrNotExist) {
		e.Type = core.EventDelete
		return e, true
	}
	if err != nil {
		r.reportWatchError(fmt.Errorf("failed to read %s: %w", r.file, err))
		return e, false
	}
	if r.ownContent(raw) {
		return e, false
	}
	e.Type = core.EventModify
	return e, true
}

func (r *Repository) reportWatchError(err error) {
	r.config.Logger.Error("watcher error", "error", err)
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
	}
}
