// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trade

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/bitmark-inc/tradechaind/fault"
	"github.com/bitmark-inc/tradechaind/storage"
)

// Store - snapshot persistence
//
// GetTrade returns nil without error for an unknown trade
type Store interface {
	GetTrade(tradeID string) (*Snapshot, error)
	ListTrades(limit int) ([]Snapshot, error)
	InsertTrade(snapshot Snapshot) error
	UpdateStatus(tradeID string, status Status) error
	UpdateJoin(tradeID string, buyerPubkey string, buyerChatPubkey string) error
	UpdateChatPubkey(tradeID string, identityPubkey string, chatPubkey string, isSeller bool) error
	ClearTrades() error
}

type poolStore struct {
	sync.Mutex
	pool storage.Handle
}

// NewPoolStore - a snapshot store on a storage pool keyed by trade id
func NewPoolStore(pool storage.Handle) Store {
	return &poolStore{
		pool: pool,
	}
}

func (s *poolStore) get(tradeID string) (*Snapshot, error) {
	data, err := s.pool.Get([]byte(tradeID))
	if nil != err {
		return nil, err
	}
	if nil == data {
		return nil, nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); nil != err {
		return nil, err
	}
	return &snapshot, nil
}

func (s *poolStore) put(snapshot *Snapshot) error {
	data, err := json.Marshal(snapshot)
	if nil != err {
		return err
	}
	return s.pool.Put([]byte(snapshot.TradeID), data)
}

// read, modify and write back a single snapshot
func (s *poolStore) update(tradeID string, f func(snapshot *Snapshot)) error {
	s.Lock()
	defer s.Unlock()

	snapshot, err := s.get(tradeID)
	if nil != err {
		return err
	}
	if nil == snapshot {
		return fault.TradeNotFound
	}
	f(snapshot)
	return s.put(snapshot)
}

// GetTrade - fetch one snapshot
func (s *poolStore) GetTrade(tradeID string) (*Snapshot, error) {
	return s.get(tradeID)
}

// ListTrades - newest first, limit <= 0 means all
func (s *poolStore) ListTrades(limit int) ([]Snapshot, error) {
	trades := make([]Snapshot, 0, 64)
	err := s.pool.Map(nil, func(key []byte, value []byte) error {
		var snapshot Snapshot
		if err := json.Unmarshal(value, &snapshot); nil != err {
			return err
		}
		trades = append(trades, snapshot)
		return nil
	})
	if nil != err {
		return nil, err
	}

	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].CreatedAt == trades[j].CreatedAt {
			return trades[i].TradeID < trades[j].TradeID
		}
		return trades[i].CreatedAt > trades[j].CreatedAt
	})

	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

// InsertTrade - add a new snapshot
func (s *poolStore) InsertTrade(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if nil != err {
		return err
	}
	written, err := s.pool.PutIfAbsent([]byte(snapshot.TradeID), data)
	if nil != err {
		return err
	}
	if !written {
		return fault.DuplicateTrade
	}
	return nil
}

// UpdateStatus - set the lifecycle state
func (s *poolStore) UpdateStatus(tradeID string, status Status) error {
	return s.update(tradeID, func(snapshot *Snapshot) {
		snapshot.Status = status
	})
}

// UpdateJoin - record the buyer, an empty chat key leaves the current one
func (s *poolStore) UpdateJoin(tradeID string, buyerPubkey string, buyerChatPubkey string) error {
	return s.update(tradeID, func(snapshot *Snapshot) {
		snapshot.BuyerPubkey = buyerPubkey
		if "" != buyerChatPubkey {
			snapshot.BuyerChatPubkey = buyerChatPubkey
		}
	})
}

// UpdateChatPubkey - set the chat key of one side
func (s *poolStore) UpdateChatPubkey(tradeID string, identityPubkey string, chatPubkey string, isSeller bool) error {
	return s.update(tradeID, func(snapshot *Snapshot) {
		if isSeller {
			snapshot.SellerChatPubkey = chatPubkey
		} else {
			snapshot.BuyerChatPubkey = chatPubkey
		}
	})
}

// ClearTrades - remove every snapshot
func (s *poolStore) ClearTrades() error {
	s.Lock()
	defer s.Unlock()
	return s.pool.Clear()
}
