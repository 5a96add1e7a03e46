// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/tradechaind/fault"
)

const watcherLogName = "config-watcher"

// Watcher - reports writes to a configuration file
//
// the parent directory is watched so that editors which save by
// renaming a new file over the old one are still seen
type Watcher struct {
	log      *logger.L
	watcher  *fsnotify.Watcher
	fileName string
	changed  chan struct{}
}

// NewWatcher - watch a configuration file
func NewWatcher(fileName string) (*Watcher, error) {
	fileName, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}

	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		return nil, fault.FileNotFound
	}

	w, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	err = w.Add(filepath.Dir(fileName))
	if nil != err {
		w.Close()
		return nil, err
	}

	return &Watcher{
		log:      logger.New(watcherLogName),
		watcher:  w,
		fileName: fileName,
		changed:  make(chan struct{}, 1),
	}, nil
}

// Changed - receives once for each burst of changes
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Run - background process forwarding file events until shutdown
func (w *Watcher) Run(args interface{}, shutdown <-chan struct{}) {
	log := w.log
	log.Infof("watching: %q", w.fileName)

	defer w.watcher.Close()

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watch error: %s", err)

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != w.fileName {
				continue loop
			}
			log.Debugf("file event: %v", event)

			if event.Op&fsnotify.Remove == fsnotify.Remove {
				log.Warnf("file: %q removed", w.fileName)
				continue loop
			}
			if isChange(event) {
				w.notify()
			}
		}
	}
	log.Info("stopped")
}

// drop the event if one is already pending
func (w *Watcher) notify() {
	select {
	case w.changed <- struct{}{}:
	default:
		w.log.Debug("change already pending")
	}
}

func isChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}
