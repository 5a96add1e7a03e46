// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package broker carries chat events and presence between server instances
//
// wire contract:
//
//   channel  <prefix>:<trade_id>        JSON encoded Message
//   set      <prefix>:room:<trade_id>   JSON encoded Participant records
//
// every instance listens on all channels below the prefix
package broker

//go:generate mockgen -destination=mocks/broker.go -package=mocks github.com/bitmark-inc/tradechaind/broker Broker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/bitmark-inc/tradechaind/fault"
)

// message types
const (
	TypeAuth         = "auth"
	TypeAuthResponse = "auth_response"
	TypeChat         = "CHAT"
	TypeJoin         = "JOIN"
	TypePing         = "PING"
	TypePong         = "PONG"
)

// Message - envelope of every chat event
//
// OriginID names the publishing instance and is removed before a
// message reaches a client
type Message struct {
	Type             string `json:"type"`
	TradeID          string `json:"trade_id,omitempty"`
	IdentityPubkey   string `json:"identity_pubkey,omitempty"`
	ChatPubkey       string `json:"chat_pubkey,omitempty"`
	SenderChatPubkey string `json:"sender_chat_pubkey,omitempty"`
	Ciphertext       string `json:"ciphertext,omitempty"`
	Success          *bool  `json:"success,omitempty"`
	Timestamp        int64  `json:"timestamp"`
	OriginID         string `json:"origin_id,omitempty"`
}

// MarshalJSON - a JOIN always carries chat_pubkey, null until the
// member has sent one
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	if TypeJoin != m.Type {
		return json.Marshal(plain(m))
	}

	var chatPubkey *string
	if "" != m.ChatPubkey {
		chatPubkey = &m.ChatPubkey
	}
	return json.Marshal(struct {
		plain
		ChatPubkey *string `json:"chat_pubkey"`
	}{
		plain:      plain(m),
		ChatPubkey: chatPubkey,
	})
}

// Participant - presence record of one identity in a trade room
type Participant struct {
	IdentityPubkey string `json:"identity_pubkey"`
	ChatPubkey     string `json:"chat_pubkey"`
}

// Handler - receives each inbound message with the trade id taken
// from its channel
type Handler func(tradeID string, message Message)

// Broker - cross instance publish/subscribe and shared presence
//
// Listen blocks until the context is cancelled or the broker is closed
type Broker interface {
	Connect(ctx context.Context) error
	Close() error
	Publish(ctx context.Context, tradeID string, message Message) error
	AddParticipant(ctx context.Context, tradeID string, participant Participant) error
	RemoveParticipant(ctx context.Context, tradeID string, participant Participant) error
	Participants(ctx context.Context, tradeID string) ([]Participant, error)
	Listen(ctx context.Context, handler Handler) error
}

// broker modes
const (
	ModeNone  = "none"
	ModeRedis = "redis"
	ModeZMQ   = "zmq"
)

// DefaultPrefix - channel and key prefix when none is configured
const DefaultPrefix = "chat"

// Configuration - broker selection and addresses
type Configuration struct {
	Mode       string   `gluamapper:"mode" json:"mode"`
	Prefix     string   `gluamapper:"prefix" json:"prefix"`
	RedisURL   string   `gluamapper:"redis_url" json:"redis_url"`
	ZMQPublish string   `gluamapper:"zmq_publish" json:"zmq_publish"`
	ZMQConnect []string `gluamapper:"zmq_connect" json:"zmq_connect"`
}

// New - create the broker selected by the configuration
func New(configuration *Configuration) (Broker, error) {
	if nil == configuration {
		return NewNoop(), nil
	}
	prefix := configuration.Prefix
	if "" == prefix {
		prefix = DefaultPrefix
	}

	switch strings.ToLower(configuration.Mode) {
	case "", ModeNone:
		return NewNoop(), nil
	case ModeRedis:
		if "" == configuration.RedisURL {
			return nil, fault.MissingParameters
		}
		return NewRedis(configuration.RedisURL, prefix)
	case ModeZMQ:
		if "" == configuration.ZMQPublish {
			return nil, fault.MissingParameters
		}
		return NewZMQ(configuration.ZMQPublish, configuration.ZMQConnect, prefix), nil
	default:
		return nil, fault.InvalidBrokerMode
	}
}

// NewInstanceID - random identity of this server instance
func NewInstanceID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func channelName(prefix string, tradeID string) string {
	return prefix + ":" + tradeID
}

func roomKey(prefix string, tradeID string) string {
	return prefix + ":room:" + tradeID
}

// trade id from a channel name, empty if the channel is not a chat channel
func tradeIDFromChannel(prefix string, channel string) string {
	p := prefix + ":"
	if !strings.HasPrefix(channel, p) {
		return ""
	}
	return channel[len(p):]
}
