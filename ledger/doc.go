// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger maintains the append-only hash chain of trade blocks
//
// block hash = SHA256(decimal(index) ++ prev_hash ++ canonical(event) ++ decimal(timestamp))
//
// where event is {type, trade_id, payload, signatures} and the first
// block links to a prev_hash of 64 zero digits
package ledger

//go:generate mockgen -destination=mocks/store.go -package=mocks github.com/bitmark-inc/tradechaind/ledger Store
