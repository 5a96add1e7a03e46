// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/tradechaind/configuration"
)

// the parts of a running daemon that accept new settings
type tunable interface {
	SetLimits(requestRate float64, burst int)
}

type windowed interface {
	SetCancelWindow(seconds int)
}

// reloader - re-reads the configuration file after each change
//
// only api.request_rate, api.request_burst and api.cancel_window
// apply without a restart
type reloader struct {
	log      *logger.L
	fileName string
	watcher  *configuration.Watcher
	server   tunable
	machine  windowed
}

func newReloader(fileName string, watcher *configuration.Watcher, server tunable, machine windowed) *reloader {
	return &reloader{
		log:      logger.New("reload"),
		fileName: fileName,
		watcher:  watcher,
		server:   server,
		machine:  machine,
	}
}

// Run - background process applying changed settings
func (r *reloader) Run(args interface{}, shutdown <-chan struct{}) {
	log := r.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-r.watcher.Changed():
			r.apply()
		}
	}

	log.Info("stopped")
}

func (r *reloader) apply() {
	options, err := getConfiguration(r.fileName)
	if nil != err {
		r.log.Errorf("reload: %q  error: %s", r.fileName, err)
		return
	}

	r.log.Infof("request rate: %f  burst: %d  cancel window: %d",
		options.API.RequestRate, options.API.RequestBurst, options.API.CancelWindow)
	r.server.SetLimits(options.API.RequestRate, options.API.RequestBurst)
	r.machine.SetCancelWindow(options.API.CancelWindow)
}
