// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chat_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bitmark-inc/tradechaind/broker"
	"github.com/bitmark-inc/tradechaind/chat"
)

const testTime = 1700000000

func fixedClock() time.Time {
	return time.Unix(testTime, 0)
}

// records everything sent to it
type fakeConnection struct {
	sync.Mutex
	messages []broker.Message
}

func (c *fakeConnection) Send(message broker.Message) error {
	c.Lock()
	defer c.Unlock()
	c.messages = append(c.messages, message)
	return nil
}

func (c *fakeConnection) received() []broker.Message {
	c.Lock()
	defer c.Unlock()
	return append([]broker.Message(nil), c.messages...)
}

// an in memory bus delivering every publish to all listening
// brokers, the publisher included
type bus struct {
	sync.Mutex
	handlers []broker.Handler
}

type busBroker struct {
	broker.Noop
	bus *bus
}

func (b *busBroker) Publish(ctx context.Context, tradeID string, message broker.Message) error {
	b.bus.Lock()
	handlers := append([]broker.Handler(nil), b.bus.handlers...)
	b.bus.Unlock()
	for _, h := range handlers {
		h(tradeID, message)
	}
	return nil
}

func (b *busBroker) Listen(ctx context.Context, handler broker.Handler) error {
	b.bus.Lock()
	b.bus.handlers = append(b.bus.handlers, handler)
	b.bus.Unlock()
	<-ctx.Done()
	return nil
}

// a message store that always fails
type brokenStore struct{}

func (brokenStore) InsertMessage(string, string, string, string) error {
	return errors.New("disk full")
}

func (brokenStore) GetMessages(string, int) ([]chat.StoredMessage, error) {
	return nil, errors.New("disk full")
}

// keeps participants as a set like the redis broker, every change
// yields so that interleaved updates show up
type setBroker struct {
	broker.Noop
	sync.Mutex
	participants map[broker.Participant]struct{}
}

func newSetBroker() *setBroker {
	return &setBroker{
		participants: make(map[broker.Participant]struct{}),
	}
}

func (b *setBroker) AddParticipant(ctx context.Context, tradeID string, p broker.Participant) error {
	time.Sleep(time.Millisecond)
	b.Lock()
	defer b.Unlock()
	b.participants[p] = struct{}{}
	return nil
}

func (b *setBroker) RemoveParticipant(ctx context.Context, tradeID string, p broker.Participant) error {
	time.Sleep(time.Millisecond)
	b.Lock()
	defer b.Unlock()
	delete(b.participants, p)
	return nil
}

func (b *setBroker) Participants(ctx context.Context, tradeID string) ([]broker.Participant, error) {
	b.Lock()
	defer b.Unlock()
	result := make([]broker.Participant, 0, len(b.participants))
	for p := range b.participants {
		result = append(result, p)
	}
	return result, nil
}
