package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/connectors/filesystem"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// reloadRetryInterval is how long a change batch waits when a rebuild is running.
var reloadRetryInterval = time.Second

// startWatch watches the documents directory in the background when enabled.
// The returned function stops the watcher.
func startWatch(ctx context.Context, enabled bool) (func(), error) {
	if !enabled {
		return func() {}, nil
	}
	if documentWatcher == nil {
		return nil, errNotConfigured("watcher")
	}
	if indexService == nil {
		return nil, errNotConfigured("index")
	}

	ctx, cancel := context.WithCancel(ctx)
	changes, err := documentWatcher.Watch(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watching documents: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		watchDocuments(ctx, changes, indexService)
	}()

	logger.Info("Watching %s for changes", documentsDir())
	return func() {
		cancel()
		_ = documentWatcher.Close()
		<-done
	}, nil
}

// watchDocuments starts a forced reload for every batch of changes. A batch
// arriving during a rebuild is retried until the rebuild finishes.
func watchDocuments(ctx context.Context, changes <-chan []filesystem.Change, index driving.IndexService) {
	var retry <-chan time.Time
	pending := false

	trigger := func() {
		err := index.ReloadAsync(true)
		switch {
		case err == nil:
			pending = false
			retry = nil
		case errors.Is(err, domain.ErrRebuildInProgress):
			pending = true
			retry = time.After(reloadRetryInterval)
		default:
			pending = false
			retry = nil
			logger.Error("Reload after document change failed: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-changes:
			if !ok {
				return
			}
			logger.Info("Detected %d document change(s), reloading index", len(batch))
			trigger()
		case <-retry:
			if pending {
				trigger()
			}
		}
	}
}
