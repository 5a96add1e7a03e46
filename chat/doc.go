// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chat keeps the per trade rooms of connected clients
//
// Events are delivered to local members first and then published on
// the broker tagged with this instance's id; events arriving from the
// broker with our own id are ignored, all others are delivered locally.
//
// Broker and message store failures are logged and never stop local
// delivery.
package chat

//go:generate mockgen -destination=mocks/connection.go -package=mocks github.com/bitmark-inc/tradechaind/chat Connection
