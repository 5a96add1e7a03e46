// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package api - the HTTP and websocket surface of the daemon
//
// routes:
//
//   GET  /trade/list
//   GET  /trade/{id}
//   POST /trade/create
//   POST /trade/complete
//   POST /trade/cancel
//   POST /trade/{id}/join
//   GET  /trade/{id}/chat-info
//   POST /trade/{id}/update-chat-pubkey
//   GET  /trade/{id}/peer-chat-pubkey/{identity}
//   GET  /blocks/export
//   GET  /blocks/verify
//   GET  /chat/history/{id}
//   GET  /chat/room/{id}
//   GET  /ws/chat/{id}              websocket
//
// every request passes a per-remote rate limiter first.
package api
