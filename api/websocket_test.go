// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/tradechaind/api"
	"github.com/bitmark-inc/tradechaind/broker"
)

const frameTimeout = 5 * time.Second

func (env *testEnv) dial(t *testing.T, tradeID string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws/chat/" + tradeID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if nil != err {
		t.Fatalf("dial error: %s", err)
	}
	return conn
}

func auth(t *testing.T, conn *websocket.Conn, identity string, chat string) {
	err := conn.WriteJSON(map[string]string{
		"type":            broker.TypeAuth,
		"identity_pubkey": identity,
		"chat_pubkey":     chat,
	})
	if nil != err {
		t.Fatalf("auth write error: %s", err)
	}
	m := readUntil(t, conn, broker.TypeAuthResponse)
	if nil == m.Success || !*m.Success {
		t.Fatalf("auth failed: %+v", m)
	}
}

// skip frames until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, messageType string) broker.Message {
	deadline := time.Now().Add(frameTimeout)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if nil != err {
			t.Fatalf("waiting for %s: %s", messageType, err)
		}
		var m broker.Message
		if err := json.Unmarshal(data, &m); nil != err {
			t.Fatalf("bad frame: %s", err)
		}
		if messageType == m.Type {
			return m
		}
	}
}

func expectClose(t *testing.T, conn *websocket.Conn, code int, reason string) {
	_ = conn.SetReadDeadline(time.Now().Add(frameTimeout))
	_, _, err := conn.ReadMessage()
	closeError, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected close, got: %v", err)
	}
	assert.Equal(t, code, closeError.Code, "wrong close code")
	assert.Equal(t, reason, closeError.Text, "wrong close reason")
}

func TestSocketTradeNotFound(t *testing.T) {
	env := setup(t, nil)
	defer env.teardown()

	conn := env.dial(t, "nope")
	defer conn.Close()
	expectClose(t, conn, websocket.ClosePolicyViolation, "Trade not found")
}

func TestSocketAuthFailures(t *testing.T) {
	env := setup(t, nil)
	defer env.teardown()

	tradeID := env.create(t, "auth")

	conn := env.dial(t, tradeID)
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"auth","identity_pubkey":"x"}`))
	expectClose(t, conn, websocket.ClosePolicyViolation, "Invalid authentication payload")
	conn.Close()

	conn = env.dial(t, tradeID)
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	expectClose(t, conn, websocket.ClosePolicyViolation, "Invalid authentication payload")
	conn.Close()

	conn = env.dial(t, tradeID)
	_ = conn.WriteJSON(map[string]string{
		"type":            "CHAT",
		"identity_pubkey": "x",
		"chat_pubkey":     "y",
	})
	expectClose(t, conn, websocket.ClosePolicyViolation, "Authentication required")
	conn.Close()
}

func TestSocketAuthTimeout(t *testing.T) {
	env := setup(t, &api.Configuration{AuthTimeout: 1})
	defer env.teardown()

	tradeID := env.create(t, "timeout")

	conn := env.dial(t, tradeID)
	defer conn.Close()
	expectClose(t, conn, websocket.ClosePolicyViolation, "Authentication timeout")
}

func TestSocketRelay(t *testing.T) {
	env := setup(t, nil)
	defer env.teardown()

	tradeID := env.create(t, "relay")

	seller := env.dial(t, tradeID)
	defer seller.Close()
	auth(t, seller, env.seller.PublicKey, "seller-chat")

	buyer := env.dial(t, tradeID)
	defer buyer.Close()
	auth(t, buyer, env.buyer.PublicKey, "buyer-chat")

	join := readUntil(t, seller, broker.TypeJoin)
	for join.IdentityPubkey != env.buyer.PublicKey {
		join = readUntil(t, seller, broker.TypeJoin)
	}
	assert.Equal(t, "buyer-chat", join.ChatPubkey, "wrong joined chat key")
	assert.Equal(t, "", join.OriginID, "origin id leaked")

	err := buyer.WriteJSON(map[string]string{
		"type":       broker.TypeChat,
		"ciphertext": "c1",
	})
	assert.Nil(t, err, "chat write error")

	m := readUntil(t, seller, broker.TypeChat)
	assert.Equal(t, "c1", m.Ciphertext, "wrong ciphertext")
	assert.Equal(t, "buyer-chat", m.SenderChatPubkey, "wrong sender")
	assert.Equal(t, tradeID, m.TradeID, "wrong trade id")

	// sender receives its own message too
	m = readUntil(t, buyer, broker.TypeChat)
	assert.Equal(t, "c1", m.Ciphertext, "echo missing")

	// raw text is relayed as ciphertext
	err = seller.WriteMessage(websocket.TextMessage, []byte("raw-ciphertext"))
	assert.Nil(t, err, "raw write error")
	m = readUntil(t, buyer, broker.TypeChat)
	assert.Equal(t, "raw-ciphertext", m.Ciphertext, "raw text not relayed")
	assert.Equal(t, "seller-chat", m.SenderChatPubkey, "wrong raw sender")

	err = seller.WriteJSON(map[string]string{"type": broker.TypePing})
	assert.Nil(t, err, "ping write error")
	pong := readUntil(t, seller, broker.TypePong)
	assert.NotEqual(t, int64(0), pong.Timestamp, "pong without timestamp")

	code, reply := env.get(t, "/chat/history/"+tradeID)
	assert.Equal(t, http.StatusOK, code, "history failed")
	messages := reply["messages"].([]interface{})
	assert.Equal(t, 2, len(messages), "wrong history length")
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "c1", first["ciphertext"], "wrong first message")
	assert.Equal(t, "buyer-chat", first["buyer_chat_pubkey"], "buyer key not defaulted")

	code, reply = env.get(t, "/chat/room/"+tradeID)
	assert.Equal(t, http.StatusOK, code, "room failed")
	assert.Equal(t, float64(2), reply["count"], "wrong room count")

	code, _ = env.get(t, "/chat/history/"+tradeID+"?limit=zero")
	assert.Equal(t, http.StatusBadRequest, code, "bad limit accepted")
}

func TestSocketLeaveOnDisconnect(t *testing.T) {
	env := setup(t, nil)
	defer env.teardown()

	tradeID := env.create(t, "leave")

	conn := env.dial(t, tradeID)
	auth(t, conn, env.seller.PublicKey, "seller-chat")

	_, reply := env.get(t, "/chat/room/"+tradeID)
	assert.Equal(t, float64(1), reply["count"], "member missing")

	conn.Close()

	deadline := time.Now().Add(frameTimeout)
	for time.Now().Before(deadline) {
		_, reply = env.get(t, "/chat/room/"+tradeID)
		if float64(0) == reply["count"] {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("member still present after disconnect")
}
