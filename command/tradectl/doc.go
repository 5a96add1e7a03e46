// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// tradectl - client side helper for the trade chain
//
// creates key pairs, computes the canonical digests the server
// expects, signs them and inspects a stopped daemon's block chain
//
//   tradectl keygen
//   tradectl digest --json '{"seller_pubkey":"…","content_hash":"…"}'
//   tradectl sign --key PRIVATE --digest HEX
//   tradectl cancel-hash --trade-id ID
//   tradectl verify-chain --database data/tradechain.leveldb
package main
