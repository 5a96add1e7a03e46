// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trade

import (
	"github.com/bitmark-inc/tradechaind/fault"
)

// Get - one trade or TradeNotFound
func (m *Machine) Get(tradeID string) (*Snapshot, error) {
	snapshot, err := m.store.GetTrade(tradeID)
	if nil != err {
		return nil, err
	}
	if nil == snapshot {
		return nil, fault.TradeNotFound
	}
	return snapshot, nil
}

// List - newest trades first
func (m *Machine) List(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return m.store.ListTrades(limit)
}

// Join - record the buyer of an open trade
//
// the same buyer may join again to change the chat key, a different
// buyer is refused
func (m *Machine) Join(tradeID string, buyerPubkey string, buyerChatPubkey string) error {
	if "" == buyerPubkey {
		return fault.MissingParameters
	}

	m.Lock()
	defer m.Unlock()

	snapshot, err := m.openTrade(tradeID)
	if nil != err {
		return err
	}
	if "" != snapshot.BuyerPubkey && buyerPubkey != snapshot.BuyerPubkey {
		return fault.BuyerAlreadyJoined
	}

	err = m.store.UpdateJoin(tradeID, buyerPubkey, buyerChatPubkey)
	if nil != err {
		return err
	}
	m.log.Infof("trade: %s  buyer joined: %s", tradeID, buyerPubkey)
	return nil
}

// ChatInfo - both identities and chat keys of a trade
func (m *Machine) ChatInfo(tradeID string) (*ChatInfo, error) {
	snapshot, err := m.Get(tradeID)
	if nil != err {
		return nil, err
	}
	return &ChatInfo{
		TradeID:          snapshot.TradeID,
		SellerPubkey:     snapshot.SellerPubkey,
		BuyerPubkey:      snapshot.BuyerPubkey,
		SellerChatPubkey: snapshot.SellerChatPubkey,
		BuyerChatPubkey:  snapshot.BuyerChatPubkey,
		Status:           snapshot.Status,
	}, nil
}

// UpdateChatPubkey - set the chat key of the seller or the buyer
func (m *Machine) UpdateChatPubkey(tradeID string, identityPubkey string, chatPubkey string) error {
	if "" == identityPubkey || "" == chatPubkey {
		return fault.MissingParameters
	}

	m.Lock()
	defer m.Unlock()

	snapshot, err := m.Get(tradeID)
	if nil != err {
		return err
	}

	switch identityPubkey {
	case snapshot.SellerPubkey:
		return m.store.UpdateChatPubkey(tradeID, identityPubkey, chatPubkey, true)
	case snapshot.BuyerPubkey:
		return m.store.UpdateChatPubkey(tradeID, identityPubkey, chatPubkey, false)
	default:
		return fault.NotParticipant
	}
}

// PeerChatPubkey - the chat key of the other side
//
// empty when the caller is not a participant or the peer has no key yet
func (m *Machine) PeerChatPubkey(tradeID string, identityPubkey string) (string, error) {
	snapshot, err := m.Get(tradeID)
	if nil != err {
		return "", err
	}
	if "" == identityPubkey {
		return "", nil
	}
	switch identityPubkey {
	case snapshot.SellerPubkey:
		return snapshot.BuyerChatPubkey, nil
	case snapshot.BuyerPubkey:
		return snapshot.SellerChatPubkey, nil
	default:
		return "", nil
	}
}
