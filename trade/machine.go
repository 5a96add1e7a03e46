// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trade

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/tradechaind/fault"
	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/signature"
)

// default number of trades returned by List
const DefaultListLimit = 50

// Proposal - a validated block waiting to be applied
type Proposal struct {
	Type       ledger.BlockType
	TradeID    string
	Payload    interface{}
	Signatures map[string]string
}

// Machine - the trade state machine
type Machine struct {
	sync.Mutex

	log      *logger.L
	ledger   *ledger.Engine
	store    Store
	verifier signature.Verifier
	now      func() time.Time

	// seconds before now also accepted as the cancel timestamp,
	// changed by a configuration reload while requests run
	cancelWindow atomic.Int64
}

// New - create a state machine
//
// a nil clock uses time.Now
func New(engine *ledger.Engine, store Store, verifier signature.Verifier, clock func() time.Time) *Machine {
	if nil == clock {
		clock = time.Now
	}
	return &Machine{
		log:      logger.New("trade"),
		ledger:   engine,
		store:    store,
		verifier: verifier,
		now:      clock,
	}
}

// SetCancelWindow - accept cancel bodies signed up to this many seconds ago
func (m *Machine) SetCancelWindow(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	m.cancelWindow.Store(int64(seconds))
}

// CreateRequest - fields of a trade creation
type CreateRequest struct {
	TradeID      string
	ContentHash  string
	SellerPubkey string
	Signature    string
	Description  *string
	Price        *float64
}

// PrepareCreate - validate a new trade
func (m *Machine) PrepareCreate(request CreateRequest) (*Proposal, error) {
	if "" == request.TradeID || "" == request.ContentHash || "" == request.SellerPubkey || "" == request.Signature {
		return nil, fault.MissingParameters
	}

	existing, err := m.store.GetTrade(request.TradeID)
	if nil != err {
		return nil, err
	}
	if nil != existing {
		return nil, fault.DuplicateTrade
	}

	if !m.verifier.Verify(request.SellerPubkey, request.TradeID, request.Signature) {
		return nil, fault.InvalidSignature
	}

	return &Proposal{
		Type:    ledger.Create,
		TradeID: request.TradeID,
		Payload: CreatePayload{
			ContentHash:  request.ContentHash,
			SellerPubkey: request.SellerPubkey,
			Description:  request.Description,
			Price:        request.Price,
		},
		Signatures: map[string]string{
			"seller": request.Signature,
		},
	}, nil
}

// PrepareComplete - validate a two party completion
func (m *Machine) PrepareComplete(tradeID string, completeHash string, sellerSignature string, buyerSignature string) (*Proposal, error) {
	snapshot, err := m.openTrade(tradeID)
	if nil != err {
		return nil, err
	}
	if "" == snapshot.BuyerPubkey {
		return nil, fault.BuyerNotJoined
	}

	if !m.verifier.Verify(snapshot.SellerPubkey, completeHash, sellerSignature) {
		return nil, fault.InvalidSignature
	}
	if !m.verifier.Verify(snapshot.BuyerPubkey, completeHash, buyerSignature) {
		return nil, fault.InvalidSignature
	}

	return &Proposal{
		Type:    ledger.Complete,
		TradeID: tradeID,
		Payload: CompletePayload{
			TradeID: tradeID,
			Result:  Completed,
		},
		Signatures: map[string]string{
			"seller": sellerSignature,
			"buyer":  buyerSignature,
		},
	}, nil
}

// PrepareCancel - validate a seller cancellation
//
// the signed digest must be that of the cancel body timestamped now
// (or within the cancel window before now)
func (m *Machine) PrepareCancel(tradeID string, cancelHash string, sellerSignature string) (*Proposal, error) {
	snapshot, err := m.openTrade(tradeID)
	if nil != err {
		return nil, err
	}

	if !m.verifier.Verify(snapshot.SellerPubkey, cancelHash, sellerSignature) {
		return nil, fault.InvalidSignature
	}

	now := m.now().Unix()
	earliest := now - m.cancelWindow.Load()
	for ts := now; ts >= earliest; ts -= 1 {
		digest, err := CancelDigest(tradeID, ts)
		if nil != err {
			return nil, err
		}
		if digest != cancelHash {
			continue
		}
		return &Proposal{
			Type:    ledger.Cancel,
			TradeID: tradeID,
			Payload: CancelPayload{
				TradeID:   tradeID,
				Result:    Cancelled,
				Timestamp: ts,
			},
			Signatures: map[string]string{
				"seller": sellerSignature,
			},
		}, nil
	}
	return nil, fault.HashMismatch
}

func (m *Machine) openTrade(tradeID string) (*Snapshot, error) {
	snapshot, err := m.store.GetTrade(tradeID)
	if nil != err {
		return nil, err
	}
	if nil == snapshot {
		return nil, fault.TradeNotFound
	}
	if Open != snapshot.Status {
		return nil, fault.InvalidState
	}
	return snapshot, nil
}

// Apply - commit a proposal to the ledger then update the snapshot
//
// the snapshot precondition is checked again under the lock so two
// proposals for the same trade cannot both be committed
func (m *Machine) Apply(proposal *Proposal) (*ledger.Block, error) {
	m.Lock()
	defer m.Unlock()

	snapshot, err := m.store.GetTrade(proposal.TradeID)
	if nil != err {
		return nil, err
	}
	switch proposal.Type {
	case ledger.Create:
		if nil != snapshot {
			return nil, fault.DuplicateTrade
		}
	case ledger.Complete, ledger.Cancel:
		if nil == snapshot {
			return nil, fault.TradeNotFound
		}
		if Open != snapshot.Status {
			return nil, fault.InvalidState
		}
	default:
		return nil, fault.UnknownBlockType
	}

	block, err := m.ledger.Append(proposal.Type, proposal.TradeID, proposal.Payload, proposal.Signatures)
	if nil != err {
		return nil, err
	}

	if err := project(m.store, block.Event, block.Timestamp); nil != err {
		m.log.Criticalf("block: %d committed but projection failed: %s", block.Index, err)
		return nil, err
	}
	return block, nil
}

// the one projection shared by Apply and Rebuild
func project(store Store, event ledger.Event, timestamp int64) error {
	switch event.Type {
	case ledger.Create:
		var payload CreatePayload
		if err := json.Unmarshal(event.Payload, &payload); nil != err {
			return err
		}
		return store.InsertTrade(Snapshot{
			TradeID:      event.TradeID,
			SellerPubkey: payload.SellerPubkey,
			ContentHash:  payload.ContentHash,
			Description:  payload.Description,
			Price:        payload.Price,
			Status:       Open,
			CreatedAt:    timestamp,
		})
	case ledger.Complete:
		return store.UpdateStatus(event.TradeID, Completed)
	case ledger.Cancel:
		return store.UpdateStatus(event.TradeID, Cancelled)
	default:
		return fault.UnknownBlockType
	}
}

// Rebuild - discard all snapshots and replay the ledger
//
// join and chat key fields are not in the ledger, they are carried over
// for trades that still exist after the replay
func (m *Machine) Rebuild() (int, error) {
	m.Lock()
	defer m.Unlock()

	previous, err := m.store.ListTrades(0)
	if nil != err {
		return 0, err
	}

	blocks, err := m.ledger.Export()
	if nil != err {
		return 0, err
	}

	if err := m.store.ClearTrades(); nil != err {
		return 0, err
	}

	for _, block := range blocks {
		if err := project(m.store, block.Event, block.Timestamp); nil != err {
			m.log.Errorf("rebuild block: %d  trade: %s  error: %s", block.Index, block.Event.TradeID, err)
			return 0, err
		}
	}

	for _, p := range previous {
		if "" != p.BuyerPubkey {
			err = m.store.UpdateJoin(p.TradeID, p.BuyerPubkey, p.BuyerChatPubkey)
		} else if "" != p.BuyerChatPubkey {
			err = m.store.UpdateChatPubkey(p.TradeID, "", p.BuyerChatPubkey, false)
		}
		if nil == err && "" != p.SellerChatPubkey {
			err = m.store.UpdateChatPubkey(p.TradeID, p.SellerPubkey, p.SellerChatPubkey, true)
		}
		if fault.TradeNotFound == err {
			m.log.Warnf("rebuild dropped trade: %s  not in ledger", p.TradeID)
			err = nil
		}
		if nil != err {
			return 0, err
		}
	}

	m.log.Infof("rebuilt trades from: %d blocks", len(blocks))
	return len(blocks), nil
}
