// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/tradechaind/canonical"
	"github.com/bitmark-inc/tradechaind/fault"
)

// Engine - the single writer of the chain
type Engine struct {
	sync.Mutex

	log   *logger.L
	store Store
	now   func() time.Time
}

// New - create an engine over a block store
//
// a nil clock uses time.Now
func New(store Store, clock func() time.Time) *Engine {
	if nil == clock {
		clock = time.Now
	}
	return &Engine{
		log:   logger.New("ledger"),
		store: store,
		now:   clock,
	}
}

// Latest - the most recent block, nil for an empty chain
func (e *Engine) Latest() (*Block, error) {
	return e.store.LastBlock()
}

// Append - hash and persist a new block on top of the chain
//
// the latest block is read again just before the write, a change
// between the two reads fails with ChainBroken and is not retried
func (e *Engine) Append(blockType BlockType, tradeID string, payload interface{}, signatures map[string]string) (*Block, error) {
	if !blockType.Valid() {
		return nil, fault.UnknownBlockType
	}

	body, err := canonical.Bytes(payload)
	if nil != err {
		return nil, err
	}
	if nil == signatures {
		signatures = map[string]string{}
	}

	e.Lock()
	defer e.Unlock()

	last, err := e.store.LastBlock()
	if nil != err {
		return nil, err
	}

	index := uint64(0)
	prevHash := GenesisPrevHash
	if nil != last {
		index = last.Index + 1
		prevHash = last.Hash
	}

	block := Block{
		Index:     index,
		PrevHash:  prevHash,
		Timestamp: e.now().Unix(),
		Type:      blockType,
		Event: Event{
			Type:       blockType,
			TradeID:    tradeID,
			Payload:    json.RawMessage(body),
			Signatures: signatures,
		},
	}
	block.Hash, err = block.computeHash()
	if nil != err {
		return nil, err
	}

	current, err := e.store.LastBlock()
	if nil != err {
		return nil, err
	}
	if !sameTip(last, current) {
		e.log.Errorf("chain moved during append of block: %d  trade: %s", index, tradeID)
		return nil, fault.ChainBroken
	}

	if err := e.store.InsertBlock(block); nil != err {
		e.log.Errorf("insert block: %d  error: %s", index, err)
		return nil, err
	}

	e.log.Infof("block: %d  type: %s  trade: %s  hash: %s", index, blockType, tradeID, block.Hash)
	return &block, nil
}

func sameTip(a *Block, b *Block) bool {
	if nil == a || nil == b {
		return a == b
	}
	return a.Index == b.Index && a.Hash == b.Hash
}

// Replay - every event in chain order
func (e *Engine) Replay() ([]Event, error) {
	blocks, err := e.store.AllBlocks()
	if nil != err {
		return nil, err
	}
	events := make([]Event, 0, len(blocks))
	for _, b := range blocks {
		events = append(events, b.Event)
	}
	return events, nil
}

// Export - the raw blocks for audit
func (e *Engine) Export() ([]Block, error) {
	return e.store.AllBlocks()
}

// Verify - scan the whole stored chain
func (e *Engine) Verify() (Verification, error) {
	blocks, err := e.store.AllBlocks()
	if nil != err {
		return Verification{}, err
	}
	v := VerifyChain(blocks)
	if !v.Valid {
		e.log.Criticalf("chain invalid at block: %d  reason: %s", *v.FirstInvalid, v.Reason)
	}
	return v, nil
}
