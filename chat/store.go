// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chat

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/bitmark-inc/tradechaind/storage"
)

// StoredMessage - a persisted ciphertext
type StoredMessage struct {
	ID              uint64 `json:"id"`
	TradeID         string `json:"trade_id"`
	BuyerChatPubkey string `json:"buyer_chat_pubkey"`
	SenderPubkey    string `json:"sender_pubkey"`
	Ciphertext      string `json:"ciphertext"`
	Timestamp       int64  `json:"timestamp"`
}

// MessageStore - chat history persistence
//
// GetMessages returns the oldest messages first
type MessageStore interface {
	InsertMessage(tradeID string, buyerChatPubkey string, senderPubkey string, ciphertext string) error
	GetMessages(tradeID string, limit int) ([]StoredMessage, error)
}

// the counter in the sequence pool that numbers messages
var messageSequence = []byte("messages")

type poolStore struct {
	messages storage.Handle
	sequence storage.Handle
	now      func() time.Time
}

// NewPoolStore - a message store keyed by trade id ++ 0x00 ++ sequence
//
// a nil clock uses time.Now
func NewPoolStore(messages storage.Handle, sequence storage.Handle, clock func() time.Time) MessageStore {
	if nil == clock {
		clock = time.Now
	}
	return &poolStore{
		messages: messages,
		sequence: sequence,
		now:      clock,
	}
}

func tradePrefix(tradeID string) []byte {
	prefix := make([]byte, 0, len(tradeID)+1)
	prefix = append(prefix, tradeID...)
	return append(prefix, 0x00)
}

// InsertMessage - append a message to the history of a trade
func (s *poolStore) InsertMessage(tradeID string, buyerChatPubkey string, senderPubkey string, ciphertext string) error {
	n, err := s.sequence.NextSequence(messageSequence)
	if nil != err {
		return err
	}

	data, err := json.Marshal(StoredMessage{
		ID:              n,
		TradeID:         tradeID,
		BuyerChatPubkey: buyerChatPubkey,
		SenderPubkey:    senderPubkey,
		Ciphertext:      ciphertext,
		Timestamp:       s.now().Unix(),
	})
	if nil != err {
		return err
	}

	key := tradePrefix(tradeID)
	sequence := make([]byte, 8)
	binary.BigEndian.PutUint64(sequence, n)
	key = append(key, sequence...)

	return s.messages.Put(key, data)
}

// GetMessages - up to limit messages in arrival order
func (s *poolStore) GetMessages(tradeID string, limit int) ([]StoredMessage, error) {
	elements, err := s.messages.Fetch(tradePrefix(tradeID), limit)
	if nil != err {
		return nil, err
	}

	messages := make([]StoredMessage, 0, len(elements))
	for _, e := range elements {
		var m StoredMessage
		if err := json.Unmarshal(e.Value, &m); nil != err {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
