package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Handler receives one file per creation event. info is nil when the file
// vanished between the event and the stat call; the handler owns that case.
type Handler interface {
	HandleFile(ctx context.Context, path string, info os.FileInfo)
}

// DirectoryWatcher subscribes to filesystem events on one directory and
// dispatches each created regular file to the handler on its own goroutine.
// No ordering is guaranteed across files.
type DirectoryWatcher struct {
	watcher    *fsnotify.Watcher
	handler    Handler
	logger     *log.Logger
	watchDir   string
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

func New(logger *log.Logger, handler Handler, watchDir string) (*DirectoryWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	return &DirectoryWatcher{
		watcher:    watcher,
		handler:    handler,
		logger:     logger,
		watchDir:   watchDir,
		shutdownCh: make(chan struct{}),
	}, nil
}

func (dw *DirectoryWatcher) Start(ctx context.Context) error {
	dw.logger.Info("Starting directory watcher", "watchDir", dw.watchDir)

	if err := os.MkdirAll(dw.watchDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create watch directory")
	}

	if err := dw.watcher.Add(dw.watchDir); err != nil {
		return errors.Wrap(err, "failed to add directory to watcher")
	}

	go dw.eventLoop(ctx)

	dw.logger.Info("Directory watcher started successfully")
	return nil
}

// Stop shuts the event loop down and waits for in-flight files to finish.
func (dw *DirectoryWatcher) Stop() error {
	dw.logger.Info("Stopping directory watcher")
	close(dw.shutdownCh)
	err := dw.watcher.Close()
	dw.wg.Wait()
	return err
}

func (dw *DirectoryWatcher) eventLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				dw.logger.Info("File watcher events channel closed")
				return
			}
			dw.handleEvent(ctx, event)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				dw.logger.Info("File watcher errors channel closed")
				return
			}
			dw.logger.Error("File watcher error", "error", err)

		case <-dw.shutdownCh:
			dw.logger.Info("Directory watcher shutting down")
			return
		}
	}
}

func (dw *DirectoryWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) {
		return
	}

	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		dw.logger.Debug("Ignoring hidden or temporary file", "path", event.Name)
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Expected race: the file can be gone again by the time we stat it.
		// The handler still runs so the outcome is observable downstream.
		dw.logger.Warn("File stat failed after create event", "path", event.Name, "error", err)
		info = nil
	}
	if info != nil && info.IsDir() {
		dw.logger.Debug("Ignoring directory event", "path", event.Name)
		return
	}

	dw.logger.Debug("File event accepted for processing", "path", event.Name)

	dw.wg.Add(1)
	go func() {
		defer dw.wg.Done()
		dw.handler.HandleFile(ctx, event.Name, info)
	}()
}
