// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// maintain the on-disk data store
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the avaiable tables.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++           = concatenation of byte data
// 3. block index  = big endian uint64 (8 bytes)
// 4. trade id     = the hex trade id as sent by the client
// 5. sequence     = successive value as big endian uint64 (8 bytes)
//
// Ledger:
//
//   B ++ block index           - append-only block chain
//                                data: JSON block record
//
// Trades:
//
//   T ++ trade id              - current trade snapshot (rebuildable from B)
//                                data: JSON snapshot
//
// Chat:
//
//   M ++ trade id ++ 0x00 ++ sequence
//                              - relayed ciphertext in arrival order
//                                data: JSON message
//   S ++ name                  - next sequence value for a counter
//                                data: sequence
//
// Version:
//
//   0x00 ++ "VERSION"          - schema version (big endian uint32)
package storage
