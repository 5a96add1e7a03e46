// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/tradechaind/fault"
	"github.com/bitmark-inc/tradechaind/trade"
)

func TestJoin(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")

	assert.Equal(t, fault.TradeNotFound, env.machine.Join("unknown", env.buyer.PublicKey, ""), "unknown trade")
	assert.Equal(t, fault.MissingParameters, env.machine.Join(tradeID, "", ""), "no buyer")

	assert.Nil(t, env.machine.Join(tradeID, env.buyer.PublicKey, "buyer-chat"), "join")
	assert.Nil(t, env.machine.Join(tradeID, env.buyer.PublicKey, ""), "same buyer again")
	assert.Equal(t, fault.BuyerAlreadyJoined, env.machine.Join(tradeID, env.seller.PublicKey, ""), "second buyer")

	info, err := env.machine.ChatInfo(tradeID)
	assert.Nil(t, err, "chat info")
	assert.Equal(t, &trade.ChatInfo{
		TradeID:         tradeID,
		SellerPubkey:    env.seller.PublicKey,
		BuyerPubkey:     env.buyer.PublicKey,
		BuyerChatPubkey: "buyer-chat",
		Status:          trade.Open,
	}, info, "chat info")
}

func TestChatPubkeys(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")
	assert.Nil(t, env.machine.Join(tradeID, env.buyer.PublicKey, ""), "join")

	assert.Nil(t, env.machine.UpdateChatPubkey(tradeID, env.seller.PublicKey, "seller-chat"), "seller update")
	assert.Nil(t, env.machine.UpdateChatPubkey(tradeID, env.buyer.PublicKey, "buyer-chat"), "buyer update")
	assert.Equal(t, fault.NotParticipant, env.machine.UpdateChatPubkey(tradeID, "stranger", "k"), "stranger update")
	assert.Equal(t, fault.TradeNotFound, env.machine.UpdateChatPubkey("unknown", env.seller.PublicKey, "k"), "unknown trade")

	peer, err := env.machine.PeerChatPubkey(tradeID, env.seller.PublicKey)
	assert.Nil(t, err, "seller peer")
	assert.Equal(t, "buyer-chat", peer, "seller sees buyer key")

	peer, err = env.machine.PeerChatPubkey(tradeID, env.buyer.PublicKey)
	assert.Nil(t, err, "buyer peer")
	assert.Equal(t, "seller-chat", peer, "buyer sees seller key")

	peer, err = env.machine.PeerChatPubkey(tradeID, "stranger")
	assert.Nil(t, err, "stranger peer")
	assert.Equal(t, "", peer, "stranger sees nothing")
}

func TestList(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	ids := []string{}
	for i, d := range []string{"first", "second", "third"} {
		env.now = testTime + int64(i)
		ids = append(ids, env.create(t, d))
	}

	trades, err := env.machine.List(0)
	assert.Nil(t, err, "list")
	assert.Equal(t, 3, len(trades), "count")
	assert.Equal(t, ids[2], trades[0].TradeID, "newest first")
	assert.Equal(t, ids[0], trades[2].TradeID, "oldest last")

	trades, err = env.machine.List(2)
	assert.Nil(t, err, "list limited")
	assert.Equal(t, 2, len(trades), "limited count")
}

func TestRebuildMatchesIncremental(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	open := env.create(t, "open")
	env.now += 1
	completed := env.create(t, "completed")
	env.now += 1
	cancelled := env.create(t, "cancelled")

	assert.Nil(t, env.machine.Join(completed, env.buyer.PublicKey, "buyer-chat"), "join")
	assert.Nil(t, env.machine.UpdateChatPubkey(open, env.seller.PublicKey, "seller-chat"), "seller chat key")

	digest := "feedface"
	proposal, err := env.machine.PrepareComplete(completed, digest, sign(t, env.seller, digest), sign(t, env.buyer, digest))
	assert.Nil(t, err, "prepare complete")
	_, err = env.machine.Apply(proposal)
	assert.Nil(t, err, "apply complete")

	cancelDigest, err := trade.CancelDigest(cancelled, env.now)
	assert.Nil(t, err, "cancel digest")
	proposal, err = env.machine.PrepareCancel(cancelled, cancelDigest, sign(t, env.seller, cancelDigest))
	assert.Nil(t, err, "prepare cancel")
	_, err = env.machine.Apply(proposal)
	assert.Nil(t, err, "apply cancel")

	before, err := env.store.ListTrades(0)
	assert.Nil(t, err, "list before")

	n, err := env.machine.Rebuild()
	assert.Nil(t, err, "rebuild")
	assert.Equal(t, 5, n, "blocks replayed")

	after, err := env.store.ListTrades(0)
	assert.Nil(t, err, "list after")
	assert.Equal(t, before, after, "rebuild reproduces snapshots")

	// rebuilding twice changes nothing
	_, err = env.machine.Rebuild()
	assert.Nil(t, err, "second rebuild")
	again, err := env.store.ListTrades(0)
	assert.Nil(t, err, "list again")
	assert.Equal(t, after, again, "rebuild is idempotent")
}

func TestRebuildFromEmptySnapshots(t *testing.T) {
	env := setup(t)
	defer env.teardown()

	tradeID := env.create(t, "x")
	assert.Nil(t, env.store.ClearTrades(), "clear")

	_, err := env.machine.Get(tradeID)
	assert.Equal(t, fault.TradeNotFound, err, "snapshot gone")

	_, err = env.machine.Rebuild()
	assert.Nil(t, err, "rebuild")

	snapshot, err := env.machine.Get(tradeID)
	assert.Nil(t, err, "snapshot restored")
	assert.Equal(t, trade.Open, snapshot.Status, "status")
	assert.Equal(t, "x", *snapshot.Description, "description restored from ledger")
}
