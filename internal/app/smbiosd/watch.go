// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smbiosd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/openbmc/smbios-mdr/internal/pkg/mdr"
	"github.com/openbmc/smbios-mdr/pkg/logging"
)

// RunWatcher follows the backing store file and schedules a debounced sync
// whenever an out-of-process agent rewrites or replaces it. Blocks until the
// context is canceled.
func RunWatcher(ctx context.Context, store *mdr.Store, synchronizer *mdr.Synchronizer, logger *zap.Logger) error {
	logger = logger.With(logging.Component("watcher"))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	//nolint:errcheck
	defer watcher.Close()

	filename := store.Path()

	if err = watcher.Add(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to add dir watch: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-watcher.Events:
			if event.Name != filename {
				// ignore events for other files
				continue
			}

			if !event.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}

			var size uint32

			if st, err := os.Stat(filename); err == nil && st.Size() > int64(mdr.HeaderLength) {
				size = uint32(st.Size() - int64(mdr.HeaderLength))
			}

			if _, err := synchronizer.SynchronizeDirectoryCommonData(mdr.TableDirIndex, size); err != nil {
				logger.Error("failed to schedule sync", zap.Error(err))

				continue
			}

			logger.Debug("backing store changed, sync scheduled", zap.String("op", event.Op.String()))
		case err := <-watcher.Errors:
			return fmt.Errorf("failed to watch: %w", err)
		}
	}
}
