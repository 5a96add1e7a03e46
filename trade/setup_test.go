// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trade_test

import (
	"testing"
	"time"

	"github.com/bitmark-inc/tradechaind/canonical"
	"github.com/bitmark-inc/tradechaind/fixtures"
	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/signature"
	"github.com/bitmark-inc/tradechaind/storage"
	"github.com/bitmark-inc/tradechaind/trade"
)

const testTime = 1700000000

type testEnv struct {
	db      *storage.Database
	engine  *ledger.Engine
	store   trade.Store
	machine *trade.Machine
	seller  *signature.KeyPair
	buyer   *signature.KeyPair
	now     int64
}

func setup(t *testing.T) *testEnv {
	fixtures.SetupTestLogger()
	db, err := storage.Open(fixtures.DatabasePath("trade"), storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}

	env := &testEnv{
		db:  db,
		now: testTime,
	}
	clock := func() time.Time {
		return time.Unix(env.now, 0)
	}

	env.engine = ledger.New(ledger.NewPoolStore(db.Pool.Blocks), clock)
	env.store = trade.NewPoolStore(db.Pool.Trades)
	env.machine = trade.New(env.engine, env.store, signature.Ed25519{}, clock)

	env.seller, err = signature.NewKeyPair()
	if nil != err {
		t.Fatalf("seller key error: %s", err)
	}
	env.buyer, err = signature.NewKeyPair()
	if nil != err {
		t.Fatalf("buyer key error: %s", err)
	}
	return env
}

func (env *testEnv) teardown() {
	env.db.Close()
	fixtures.TeardownTestLogger()
}

func sign(t *testing.T, keys *signature.KeyPair, digest string) string {
	sig, err := signature.Sign(keys.PrivateKey, digest)
	if nil != err {
		t.Fatalf("sign error: %s", err)
	}
	return sig
}

// a trade id is the digest of the creation body
func (env *testEnv) createRequest(t *testing.T, description string) trade.CreateRequest {
	body := map[string]interface{}{
		"content_hash":  "c0ffee",
		"seller_pubkey": env.seller.PublicKey,
		"description":   description,
	}
	tradeID, err := canonical.Digest(body)
	if nil != err {
		t.Fatalf("digest error: %s", err)
	}
	price := 9.5
	return trade.CreateRequest{
		TradeID:      tradeID,
		ContentHash:  "c0ffee",
		SellerPubkey: env.seller.PublicKey,
		Signature:    sign(t, env.seller, tradeID),
		Description:  &description,
		Price:        &price,
	}
}

func (env *testEnv) create(t *testing.T, description string) string {
	request := env.createRequest(t, description)
	proposal, err := env.machine.PrepareCreate(request)
	if nil != err {
		t.Fatalf("prepare create error: %s", err)
	}
	if _, err := env.machine.Apply(proposal); nil != err {
		t.Fatalf("apply create error: %s", err)
	}
	return request.TradeID
}

func blockCount(t *testing.T, env *testEnv) int {
	blocks, err := env.engine.Export()
	if nil != err {
		t.Fatalf("export error: %s", err)
	}
	return len(blocks)
}
