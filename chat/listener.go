// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chat

import (
	"time"

	"github.com/bitmark-inc/tradechaind/background"
)

// delay before listening again after the broker stream fails
const listenRetryDelay = 5 * time.Second

type listener struct {
	registry *Registry
}

// Listener - background process feeding broker messages into the registry
func (r *Registry) Listener() background.Process {
	return &listener{
		registry: r,
	}
}

// Run - implements background.Process
func (l *listener) Run(args interface{}, shutdown <-chan struct{}) {
	log := l.registry.log
	ctx, cancel := background.Context(shutdown)
	defer cancel()

	log.Info("broker listener starting…")

loop:
	for {
		err := l.registry.broker.Listen(ctx, l.registry.HandleBrokerMessage)
		if nil == err {
			break loop
		}
		log.Errorf("broker listener error: %s", err)

		select {
		case <-shutdown:
			break loop
		case <-time.After(listenRetryDelay):
		}
	}

	log.Info("broker listener stopped")
}
