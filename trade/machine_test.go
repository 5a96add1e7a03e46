// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trade_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/tradechaind/fault"
	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/trade"
)

func TestCreate(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	request := env.createRequest(t, "a book")
	proposal, err := env.machine.PrepareCreate(request)
	assert.Nil(t, err, "prepare create")
	assert.Equal(t, ledger.Create, proposal.Type, "proposal type")
	assert.Equal(t, 0, blockCount(t, env), "prepare must not append")

	block, err := env.machine.Apply(proposal)
	assert.Nil(t, err, "apply")
	assert.Equal(t, uint64(0), block.Index, "first block")

	snapshot, err := env.machine.Get(request.TradeID)
	assert.Nil(t, err, "get")
	assert.Equal(t, trade.Open, snapshot.Status, "status")
	assert.Equal(t, env.seller.PublicKey, snapshot.SellerPubkey, "seller")
	assert.Equal(t, "a book", *snapshot.Description, "description")
	assert.Equal(t, 9.5, *snapshot.Price, "price")
	assert.Equal(t, int64(testTime), snapshot.CreatedAt, "created at")

	_, err = env.machine.PrepareCreate(request)
	assert.Equal(t, fault.DuplicateTrade, err, "second create")

	// a proposal prepared before the first apply must still be rejected
	_, err = env.machine.Apply(proposal)
	assert.Equal(t, fault.DuplicateTrade, err, "second apply")
	assert.Equal(t, 1, blockCount(t, env), "one block")
}

func TestCreateRejects(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	request := env.createRequest(t, "x")
	bad := request
	bad.Signature = sign(t, env.buyer, request.TradeID)
	_, err := env.machine.PrepareCreate(bad)
	assert.Equal(t, fault.InvalidSignature, err, "signed by wrong key")

	missing := request
	missing.ContentHash = ""
	_, err = env.machine.PrepareCreate(missing)
	assert.Equal(t, fault.MissingParameters, err, "missing content hash")

	_, err = env.machine.Get(request.TradeID)
	assert.Equal(t, fault.TradeNotFound, err, "nothing created")
}

func TestCompleteRequiresBuyer(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")
	digest := "aabbccdd"

	_, err := env.machine.PrepareComplete(tradeID, digest, sign(t, env.seller, digest), sign(t, env.buyer, digest))
	assert.Equal(t, fault.BuyerNotJoined, err, "no buyer")
	assert.Equal(t, 1, blockCount(t, env), "no block appended")
}

func TestComplete(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")
	assert.Nil(t, env.machine.Join(tradeID, env.buyer.PublicKey, ""), "join")

	digest := "0123456789abcdef"
	sellerSig := sign(t, env.seller, digest)
	buyerSig := sign(t, env.buyer, digest)

	_, err := env.machine.PrepareComplete(tradeID, digest, sellerSig, sellerSig)
	assert.Equal(t, fault.InvalidSignature, err, "buyer signature by seller")

	_, err = env.machine.PrepareComplete(tradeID, digest, buyerSig, buyerSig)
	assert.Equal(t, fault.InvalidSignature, err, "seller signature by buyer")

	_, err = env.machine.PrepareComplete("unknown", digest, sellerSig, buyerSig)
	assert.Equal(t, fault.TradeNotFound, err, "unknown trade")

	proposal, err := env.machine.PrepareComplete(tradeID, digest, sellerSig, buyerSig)
	assert.Nil(t, err, "prepare complete")
	_, err = env.machine.Apply(proposal)
	assert.Nil(t, err, "apply complete")

	snapshot, err := env.machine.Get(tradeID)
	assert.Nil(t, err, "get")
	assert.Equal(t, trade.Completed, snapshot.Status, "status")

	_, err = env.machine.PrepareComplete(tradeID, digest, sellerSig, buyerSig)
	assert.Equal(t, fault.InvalidState, err, "complete twice")

	_, err = env.machine.Apply(proposal)
	assert.Equal(t, fault.InvalidState, err, "apply twice")
	assert.Equal(t, 2, blockCount(t, env), "two blocks")
}

func TestCancel(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")

	digest, err := trade.CancelDigest(tradeID, env.now)
	assert.Nil(t, err, "cancel digest")

	_, err = env.machine.PrepareCancel(tradeID, digest, sign(t, env.buyer, digest))
	assert.Equal(t, fault.InvalidSignature, err, "buyer cannot cancel")

	proposal, err := env.machine.PrepareCancel(tradeID, digest, sign(t, env.seller, digest))
	assert.Nil(t, err, "prepare cancel")

	block, err := env.machine.Apply(proposal)
	assert.Nil(t, err, "apply cancel")
	assert.JSONEq(t, `{"trade_id":"`+tradeID+`","result":"CANCELLED","timestamp":1700000000}`, string(block.Event.Payload), "cancel payload")

	snapshot, err := env.machine.Get(tradeID)
	assert.Nil(t, err, "get")
	assert.Equal(t, trade.Cancelled, snapshot.Status, "status")

	_, err = env.machine.PrepareCancel(tradeID, digest, sign(t, env.seller, digest))
	assert.Equal(t, fault.InvalidState, err, "cancel twice")
}

func TestCancelHashMismatch(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")

	stale, err := trade.CancelDigest(tradeID, env.now-5)
	assert.Nil(t, err, "cancel digest")

	_, err = env.machine.PrepareCancel(tradeID, stale, sign(t, env.seller, stale))
	assert.Equal(t, fault.HashMismatch, err, "stale cancel body")
	assert.Equal(t, 1, blockCount(t, env), "no block appended")

	env.machine.SetCancelWindow(10)
	proposal, err := env.machine.PrepareCancel(tradeID, stale, sign(t, env.seller, stale))
	assert.Nil(t, err, "inside cancel window")
	assert.Equal(t, env.now-5, proposal.Payload.(trade.CancelPayload).Timestamp, "signed timestamp kept")
}

func TestCancelWindowReloadWhileCancelling(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")

	stale, err := trade.CancelDigest(tradeID, env.now-5)
	assert.Nil(t, err, "cancel digest")
	sig := sign(t, env.seller, stale)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i += 1 {
			env.machine.SetCancelWindow(i % 8)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i += 1 {
			_, err := env.machine.PrepareCancel(tradeID, stale, sig)
			if nil != err && fault.HashMismatch != err {
				t.Errorf("unexpected cancel error: %s", err)
				return
			}
		}
	}()
	wg.Wait()

	env.machine.SetCancelWindow(0)
	_, err = env.machine.PrepareCancel(tradeID, stale, sig)
	assert.Equal(t, fault.HashMismatch, err, "window closed after reload")

	env.machine.SetCancelWindow(5)
	proposal, err := env.machine.PrepareCancel(tradeID, stale, sig)
	assert.Nil(t, err, "window reopened after reload")
	assert.Equal(t, env.now-5, proposal.Payload.(trade.CancelPayload).Timestamp, "signed timestamp")
}
