// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/tradechaind/ledger"
)

func buildChain(t *testing.T) []ledger.Block {
	engine, _, db := setupEngine(t)
	defer teardownEngine(db)

	for _, item := range appendItems {
		_, err := engine.Append(item.blockType, item.tradeID, item.payload, item.signatures)
		assert.Nil(t, err, "append")
	}
	v, err := engine.Verify()
	assert.Nil(t, err, "verify")
	assert.True(t, v.Valid, "fresh chain is valid")
	assert.Equal(t, len(appendItems), v.Blocks, "block count")

	blocks, err := engine.Export()
	assert.Nil(t, err, "export")
	return blocks
}

func TestVerifyDetectsTampering(t *testing.T) {
	blocks := buildChain(t)

	tests := []struct {
		name   string
		index  uint64
		tamper func(b []ledger.Block)
	}{
		{
			name:  "forged hash",
			index: 1,
			tamper: func(b []ledger.Block) {
				b[1].Hash = ledger.GenesisPrevHash
			},
		},
		{
			name:  "altered prev_hash",
			index: 2,
			tamper: func(b []ledger.Block) {
				b[2].PrevHash = ledger.GenesisPrevHash
			},
		},
		{
			name:  "altered payload",
			index: 0,
			tamper: func(b []ledger.Block) {
				b[0].Event.Payload = []byte(`{"content_hash":"other"}`)
			},
		},
		{
			name:  "altered signature",
			index: 2,
			tamper: func(b []ledger.Block) {
				b[2].Event.Signatures = map[string]string{"seller": "x"}
			},
		},
		{
			name:  "altered timestamp",
			index: 1,
			tamper: func(b []ledger.Block) {
				b[1].Timestamp += 1
			},
		},
		{
			name:  "gap in index",
			index: 1,
			tamper: func(b []ledger.Block) {
				b[1].Index = 7
			},
		},
	}

	for _, test := range tests {
		chain := make([]ledger.Block, len(blocks))
		copy(chain, blocks)
		test.tamper(chain)

		v := ledger.VerifyChain(chain)
		assert.False(t, v.Valid, test.name)
		if assert.NotNil(t, v.FirstInvalid, test.name) {
			assert.Equal(t, test.index, *v.FirstInvalid, test.name)
		}
		assert.NotEqual(t, "", v.Reason, test.name)
	}
}

func TestVerifyEmptyChain(t *testing.T) {
	v := ledger.VerifyChain(nil)
	assert.True(t, v.Valid, "empty chain")
	assert.Equal(t, 0, v.Blocks, "no blocks")
}
