// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/tradechaind/background"
	"github.com/bitmark-inc/tradechaind/broker"
	"github.com/bitmark-inc/tradechaind/chat"
	"github.com/bitmark-inc/tradechaind/fixtures"
)

func TestEchoSuppression(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	shared := &bus{}
	x := chat.NewRegistry(&busBroker{bus: shared}, nil, "x", fixedClock)
	y := chat.NewRegistry(&busBroker{bus: shared}, nil, "y", fixedClock)

	listeners := background.Start(background.Processes{x.Listener(), y.Listener()}, nil)
	defer listeners.Stop()

	assert.Eventually(t, func() bool {
		shared.Lock()
		defer shared.Unlock()
		return 2 == len(shared.handlers)
	}, time.Second, 5*time.Millisecond, "both listening")

	ctx := context.Background()
	onX := &fakeConnection{}
	onY := &fakeConnection{}
	x.Join(ctx, "t1", onX, "seller", "")
	y.Join(ctx, "t1", onY, "buyer", "")

	x.Relay(ctx, "t1", "hello", "seller-chat", "")

	chats := func(c *fakeConnection) []broker.Message {
		result := []broker.Message{}
		for _, m := range c.received() {
			if broker.TypeChat == m.Type {
				result = append(result, m)
			}
		}
		return result
	}

	assert.Equal(t, 1, len(chats(onX)), "origin instance delivers exactly once")
	if assert.Equal(t, 1, len(chats(onY)), "sibling instance delivers once") {
		assert.Equal(t, "", chats(onY)[0].OriginID, "origin id stripped")
		assert.Equal(t, "hello", chats(onY)[0].Ciphertext, "ciphertext")
	}

	// the sibling's join reached the first instance too
	joins := 0
	for _, m := range onX.received() {
		if broker.TypeJoin == m.Type && "buyer" == m.IdentityPubkey {
			joins += 1
		}
	}
	assert.Equal(t, 1, joins, "remote join delivered once")
}

func TestHandleBrokerMessage(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	r := chat.NewRegistry(nil, nil, "x", fixedClock)
	c := &fakeConnection{}
	r.Join(context.Background(), "t1", c, "id", "")

	r.HandleBrokerMessage("t1", broker.Message{Type: broker.TypeChat, OriginID: "x"})
	assert.Equal(t, 1, len(c.received()), "own message ignored")

	r.HandleBrokerMessage("t1", broker.Message{Type: broker.TypeChat, OriginID: "z"})
	received := c.received()
	assert.Equal(t, 2, len(received), "foreign message delivered")
	assert.Equal(t, "", received[1].OriginID, "origin stripped")

	r.HandleBrokerMessage("t9", broker.Message{Type: broker.TypeChat, OriginID: "z"})
	assert.Equal(t, 2, len(c.received()), "other room untouched")
}
