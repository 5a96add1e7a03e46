// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package trade validates trade transitions and projects committed
// ledger blocks into trade snapshots
//
//   (absent) --CREATE--> OPEN --COMPLETE--> COMPLETED
//                          \---CANCEL----> CANCELLED
//
// Prepare* only validate and never touch the ledger, Apply is the
// single path that commits a block and updates the snapshots.
//
// The signed digests differ per transition:
//
//   CREATE    seller signs the trade id itself
//   COMPLETE  seller and buyer sign a client supplied digest
//   CANCEL    seller signs the digest of {trade_id, result, timestamp}
//             which is rebuilt here and compared
//
// Joining a trade is recorded on the snapshot only, it has no block.
package trade
