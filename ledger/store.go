// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"encoding/binary"
	"encoding/json"

	"github.com/bitmark-inc/tradechaind/fault"
	"github.com/bitmark-inc/tradechaind/storage"
)

// Store - durable block persistence
//
// blocks are returned in ascending index order
type Store interface {
	InsertBlock(block Block) error
	LastBlock() (*Block, error)
	BlocksSince(index uint64) ([]Block, error)
	AllBlocks() ([]Block, error)
}

type poolStore struct {
	pool storage.Handle
}

// NewPoolStore - a block store on a storage pool keyed by big endian index
func NewPoolStore(pool storage.Handle) Store {
	return &poolStore{
		pool: pool,
	}
}

func indexKey(index uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, index)
	return key
}

// InsertBlock - write a new block, an occupied index is a broken chain
func (s *poolStore) InsertBlock(block Block) error {
	data, err := json.Marshal(block)
	if nil != err {
		return err
	}
	written, err := s.pool.PutIfAbsent(indexKey(block.Index), data)
	if nil != err {
		return err
	}
	if !written {
		return fault.ChainBroken
	}
	return nil
}

// LastBlock - the highest block or nil for an empty chain
func (s *poolStore) LastBlock() (*Block, error) {
	element, found, err := s.pool.LastElement()
	if nil != err {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var block Block
	if err := json.Unmarshal(element.Value, &block); nil != err {
		return nil, err
	}
	return &block, nil
}

// BlocksSince - all blocks with index >= the given index
func (s *poolStore) BlocksSince(index uint64) ([]Block, error) {
	blocks := make([]Block, 0, 64)
	err := s.pool.MapFrom(indexKey(index), func(key []byte, value []byte) error {
		var block Block
		if err := json.Unmarshal(value, &block); nil != err {
			return err
		}
		blocks = append(blocks, block)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return blocks, nil
}

// AllBlocks - the whole chain
func (s *poolStore) AllBlocks() ([]Block, error) {
	return s.BlocksSince(0)
}
