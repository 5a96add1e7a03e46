// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitmark-inc/tradechaind/api"
	"github.com/bitmark-inc/tradechaind/broker"
	"github.com/bitmark-inc/tradechaind/canonical"
	"github.com/bitmark-inc/tradechaind/chat"
	"github.com/bitmark-inc/tradechaind/fixtures"
	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/signature"
	"github.com/bitmark-inc/tradechaind/storage"
	"github.com/bitmark-inc/tradechaind/trade"
)

type testEnv struct {
	db       *storage.Database
	engine   *ledger.Engine
	machine  *trade.Machine
	registry *chat.Registry
	server   *api.Server
	http     *httptest.Server
	seller   *signature.KeyPair
	buyer    *signature.KeyPair
}

func setup(t *testing.T, configuration *api.Configuration) *testEnv {
	fixtures.SetupTestLogger()

	db, err := storage.Open(fixtures.DatabasePath("api"), storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}

	env := &testEnv{db: db}
	env.engine = ledger.New(ledger.NewPoolStore(db.Pool.Blocks), nil)
	env.machine = trade.New(env.engine, trade.NewPoolStore(db.Pool.Trades), signature.Ed25519{}, nil)
	env.registry = chat.NewRegistry(
		broker.NewNoop(),
		chat.NewPoolStore(db.Pool.Messages, db.Pool.Sequence, nil),
		broker.NewInstanceID(),
		nil,
	)

	if nil == configuration {
		configuration = &api.Configuration{}
	}
	env.server, err = api.New(configuration, env.machine, env.engine, env.registry, nil)
	if nil != err {
		t.Fatalf("api new error: %s", err)
	}
	env.http = httptest.NewServer(env.server.Handler())

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
	env.http.Close()
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

func (env *testEnv) post(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	data, err := json.Marshal(body)
	if nil != err {
		t.Fatalf("marshal error: %s", err)
	}
	resp, err := http.Post(env.http.URL+path, "application/json", bytes.NewReader(data))
	if nil != err {
		t.Fatalf("post %s error: %s", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp)
}

func (env *testEnv) get(t *testing.T, path string) (int, map[string]interface{}) {
	resp, err := http.Get(env.http.URL + path)
	if nil != err {
		t.Fatalf("get %s error: %s", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	var reply map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&reply); nil != err {
		t.Fatalf("decode error: %s", err)
	}
	return reply
}

// create a trade through the API, returns its id
func (env *testEnv) create(t *testing.T, description string) string {
	tradeID, err := canonical.Digest(map[string]interface{}{
		"content_hash":  "c0ffee",
		"seller_pubkey": env.seller.PublicKey,
		"description":   description,
		"nonce":         time.Now().UnixNano(),
	})
	if nil != err {
		t.Fatalf("digest error: %s", err)
	}

	code, reply := env.post(t, "/trade/create", map[string]interface{}{
		"signature": sign(t, env.seller, tradeID),
		"body": map[string]interface{}{
			"trade_id":      tradeID,
			"content_hash":  "c0ffee",
			"seller_pubkey": env.seller.PublicKey,
			"description":   description,
			"price":         12,
		},
	})
	if http.StatusOK != code {
		t.Fatalf("create status: %d  reply: %v", code, reply)
	}
	return tradeID
}
