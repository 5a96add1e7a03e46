// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chat

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/tradechaind/broker"
)

// DefaultHistoryLimit - messages returned by History when no limit is given
const DefaultHistoryLimit = 100

// Connection - one connected client
//
// Send must be safe to call from several goroutines
type Connection interface {
	Send(message broker.Message) error
}

type member struct {
	connection     Connection
	identityPubkey string
	chatPubkey     string
	left           bool

	// held while the broker record is changed, published is what
	// the broker currently has for this member
	presence  sync.Mutex
	published *broker.Participant
}

func (m *member) participant() broker.Participant {
	return broker.Participant{
		IdentityPubkey: m.identityPubkey,
		ChatPubkey:     m.chatPubkey,
	}
}

// RoomMember - presence entry returned by RoomInfo
type RoomMember struct {
	IdentityPubkey string `json:"identity_pubkey"`
	ChatPubkey     string `json:"chat_pubkey"`
	Connected      bool   `json:"connected"`
}

// Registry - all rooms of this instance
type Registry struct {
	sync.Mutex

	log        *logger.L
	rooms      map[string][]*member
	broker     broker.Broker
	messages   MessageStore
	instanceID string
	now        func() time.Time
}

// NewRegistry - create an empty registry
//
// a nil clock uses time.Now
func NewRegistry(b broker.Broker, messages MessageStore, instanceID string, clock func() time.Time) *Registry {
	if nil == b {
		b = broker.NewNoop()
	}
	if nil == clock {
		clock = time.Now
	}
	return &Registry{
		log:        logger.New("chat"),
		rooms:      make(map[string][]*member),
		broker:     b,
		messages:   messages,
		instanceID: instanceID,
		now:        clock,
	}
}

// InstanceID - the origin id attached to published events
func (r *Registry) InstanceID() string {
	return r.instanceID
}

// Join - add a connection to a room or update its keys
//
// only a new connection is announced to the room
func (r *Registry) Join(ctx context.Context, tradeID string, connection Connection, identityPubkey string, chatPubkey string) {
	r.Lock()
	for _, m := range r.rooms[tradeID] {
		if m.connection != connection {
			continue
		}
		m.identityPubkey = identityPubkey
		m.chatPubkey = chatPubkey
		r.Unlock()

		r.publishPresence(ctx, tradeID, m)
		return
	}

	m := &member{
		connection:     connection,
		identityPubkey: identityPubkey,
		chatPubkey:     chatPubkey,
	}
	r.rooms[tradeID] = append(r.rooms[tradeID], m)
	r.Unlock()

	r.log.Debugf("trade: %s  joined: %s", tradeID, identityPubkey)

	r.publishPresence(ctx, tradeID, m)
	r.BroadcastJoin(ctx, tradeID, identityPubkey, chatPubkey)
}

// Leave - remove a connection, an emptied room is discarded
func (r *Registry) Leave(ctx context.Context, tradeID string, connection Connection) {
	r.Lock()
	room, ok := r.rooms[tradeID]
	if !ok {
		r.Unlock()
		return
	}

	remaining := make([]*member, 0, len(room))
	removed := make([]*member, 0, 1)
	for _, m := range room {
		if m.connection == connection {
			m.left = true
			removed = append(removed, m)
		} else {
			remaining = append(remaining, m)
		}
	}
	if 0 == len(remaining) {
		delete(r.rooms, tradeID)
	} else {
		r.rooms[tradeID] = remaining
	}
	r.Unlock()

	for _, m := range removed {
		m.presence.Lock()
		if nil != m.published {
			r.log.Debugf("trade: %s  left: %s", tradeID, m.published.IdentityPubkey)
			if err := r.broker.RemoveParticipant(ctx, tradeID, *m.published); nil != err {
				r.log.Warnf("trade: %s  remove participant error: %s", tradeID, err)
			}
			m.published = nil
		}
		m.presence.Unlock()
	}
}

// bring the broker record of a member in line with its keys
//
// the keys are read inside the presence lock so the last update to
// finish always publishes the latest keys
func (r *Registry) publishPresence(ctx context.Context, tradeID string, m *member) {
	m.presence.Lock()
	defer m.presence.Unlock()

	r.Lock()
	current := m.participant()
	left := m.left
	r.Unlock()

	if left {
		return
	}
	if nil != m.published && current == *m.published {
		return
	}

	if nil != m.published {
		if err := r.broker.RemoveParticipant(ctx, tradeID, *m.published); nil != err {
			r.log.Warnf("trade: %s  remove participant error: %s", tradeID, err)
		}
	}
	if err := r.broker.AddParticipant(ctx, tradeID, current); nil != err {
		r.log.Warnf("trade: %s  add participant error: %s", tradeID, err)
	}
	m.published = &current
}

// BroadcastJoin - announce an identity to a room
func (r *Registry) BroadcastJoin(ctx context.Context, tradeID string, identityPubkey string, chatPubkey string) {
	if !r.hasRoom(tradeID) {
		return
	}
	r.emit(ctx, tradeID, broker.Message{
		Type:           broker.TypeJoin,
		TradeID:        tradeID,
		IdentityPubkey: identityPubkey,
		ChatPubkey:     chatPubkey,
		Timestamp:      r.now().Unix(),
	})
}

// Relay - persist a ciphertext if possible and deliver it
func (r *Registry) Relay(ctx context.Context, tradeID string, ciphertext string, senderChatPubkey string, buyerChatPubkey string) {
	if !r.hasRoom(tradeID) {
		return
	}

	if nil != r.messages {
		if err := r.messages.InsertMessage(tradeID, buyerChatPubkey, senderChatPubkey, ciphertext); nil != err {
			r.log.Errorf("trade: %s  persist message error: %s", tradeID, err)
		}
	}

	r.emit(ctx, tradeID, broker.Message{
		Type:             broker.TypeChat,
		TradeID:          tradeID,
		SenderChatPubkey: senderChatPubkey,
		Ciphertext:       ciphertext,
		Timestamp:        r.now().Unix(),
	})
}

// RoomInfo - who is online, the broker's view when it has one
func (r *Registry) RoomInfo(ctx context.Context, tradeID string) []RoomMember {
	participants, err := r.broker.Participants(ctx, tradeID)
	if nil != err {
		r.log.Warnf("trade: %s  participants error: %s", tradeID, err)
	}
	if len(participants) > 0 {
		members := make([]RoomMember, 0, len(participants))
		for _, p := range participants {
			members = append(members, RoomMember{
				IdentityPubkey: p.IdentityPubkey,
				ChatPubkey:     p.ChatPubkey,
				Connected:      true,
			})
		}
		return members
	}

	r.Lock()
	defer r.Unlock()
	room := r.rooms[tradeID]
	members := make([]RoomMember, 0, len(room))
	for _, m := range room {
		members = append(members, RoomMember{
			IdentityPubkey: m.identityPubkey,
			ChatPubkey:     m.chatPubkey,
			Connected:      true,
		})
	}
	return members
}

// History - stored messages of a trade, oldest first
func (r *Registry) History(tradeID string, limit int) ([]StoredMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if nil == r.messages {
		return []StoredMessage{}, nil
	}
	return r.messages.GetMessages(tradeID, limit)
}

// HandleBrokerMessage - deliver a message from a sibling instance
func (r *Registry) HandleBrokerMessage(tradeID string, message broker.Message) {
	if message.OriginID == r.instanceID {
		return
	}
	message.OriginID = ""
	r.broadcastLocal(context.Background(), tradeID, message)
}

func (r *Registry) hasRoom(tradeID string) bool {
	r.Lock()
	defer r.Unlock()
	_, ok := r.rooms[tradeID]
	return ok
}

// deliver locally then publish with our origin id
func (r *Registry) emit(ctx context.Context, tradeID string, message broker.Message) {
	r.broadcastLocal(ctx, tradeID, message)

	message.OriginID = r.instanceID
	if err := r.broker.Publish(ctx, tradeID, message); nil != err {
		r.log.Warnf("trade: %s  publish error: %s", tradeID, err)
	}
}

// send to every member, failed connections leave after the loop
func (r *Registry) broadcastLocal(ctx context.Context, tradeID string, message broker.Message) {
	r.Lock()
	room := r.rooms[tradeID]
	connections := make([]Connection, 0, len(room))
	for _, m := range room {
		connections = append(connections, m.connection)
	}
	r.Unlock()

	dead := make([]Connection, 0)
	for _, c := range connections {
		if err := c.Send(message); nil != err {
			r.log.Debugf("trade: %s  send error: %s", tradeID, err)
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		r.Leave(ctx, tradeID, c)
	}
}
