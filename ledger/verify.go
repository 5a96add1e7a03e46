// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"
)

// Verification - result of a chain integrity scan
type Verification struct {
	Blocks       int     `json:"blocks"`
	Valid        bool    `json:"valid"`
	FirstInvalid *uint64 `json:"first_invalid,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// VerifyChain - check index continuity, prev_hash links and every hash
func VerifyChain(blocks []Block) Verification {
	v := Verification{
		Blocks: len(blocks),
		Valid:  true,
	}

	prevHash := GenesisPrevHash
	for i := range blocks {
		b := &blocks[i]
		reason := ""

		if b.Index != uint64(i) {
			reason = fmt.Sprintf("index: %d  expected: %d", b.Index, i)
		} else if b.PrevHash != prevHash {
			reason = fmt.Sprintf("prev_hash: %s  expected: %s", b.PrevHash, prevHash)
		} else if b.Type != b.Event.Type || !b.Type.Valid() {
			reason = fmt.Sprintf("block type: %q  event type: %q", b.Type, b.Event.Type)
		} else if h, err := b.computeHash(); nil != err {
			reason = err.Error()
		} else if h != b.Hash {
			reason = fmt.Sprintf("hash: %s  recomputed: %s", b.Hash, h)
		}

		if "" != reason {
			n := uint64(i)
			v.Valid = false
			v.FirstInvalid = &n
			v.Reason = reason
			return v
		}
		prevHash = b.Hash
	}
	return v
}
