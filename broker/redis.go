// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package broker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/redis/go-redis/v9"

	"github.com/bitmark-inc/tradechaind/fault"
)

// Redis - broker on redis publish/subscribe and sets
type Redis struct {
	sync.RWMutex

	log     *logger.L
	options *redis.Options
	prefix  string
	client  *redis.Client
	pubsub  *redis.PubSub
}

// NewRedis - create a redis broker from a redis:// URL
func NewRedis(url string, prefix string) (*Redis, error) {
	options, err := redis.ParseURL(url)
	if nil != err {
		return nil, err
	}
	return &Redis{
		log:     logger.New("broker"),
		options: options,
		prefix:  prefix,
	}, nil
}

// Connect - check the server and subscribe to every chat channel
func (r *Redis) Connect(ctx context.Context) error {
	r.Lock()
	defer r.Unlock()

	if nil != r.client {
		return fault.AlreadyInitialised
	}

	client := redis.NewClient(r.options)
	if err := client.Ping(ctx).Err(); nil != err {
		client.Close()
		return err
	}

	pubsub := client.PSubscribe(ctx, r.prefix+":*")

	// wait for the subscription confirmation
	if _, err := pubsub.Receive(ctx); nil != err {
		pubsub.Close()
		client.Close()
		return err
	}

	r.client = client
	r.pubsub = pubsub
	r.log.Infof("connected: %s  prefix: %s", r.options.Addr, r.prefix)
	return nil
}

// Close - close the subscription then the client
//
// either may already be gone
func (r *Redis) Close() error {
	r.Lock()
	defer r.Unlock()

	if nil != r.pubsub {
		if err := r.pubsub.Close(); nil != err {
			r.log.Debugf("pubsub close: %s", err)
		}
		r.pubsub = nil
	}
	if nil != r.client {
		if err := r.client.Close(); nil != err && redis.ErrClosed != err {
			r.log.Debugf("client close: %s", err)
		}
		r.client = nil
	}
	return nil
}

func (r *Redis) connected() (*redis.Client, error) {
	r.RLock()
	defer r.RUnlock()
	if nil == r.client {
		return nil, fault.BrokerNotConnected
	}
	return r.client, nil
}

// Publish - send a message on the trade channel
func (r *Redis) Publish(ctx context.Context, tradeID string, message Message) error {
	client, err := r.connected()
	if nil != err {
		return err
	}
	data, err := json.Marshal(message)
	if nil != err {
		return err
	}
	return client.Publish(ctx, channelName(r.prefix, tradeID), data).Err()
}

// AddParticipant - add a presence record to the trade set
func (r *Redis) AddParticipant(ctx context.Context, tradeID string, participant Participant) error {
	client, err := r.connected()
	if nil != err {
		return err
	}
	entry, err := json.Marshal(participant)
	if nil != err {
		return err
	}
	return client.SAdd(ctx, roomKey(r.prefix, tradeID), entry).Err()
}

// RemoveParticipant - remove a presence record from the trade set
func (r *Redis) RemoveParticipant(ctx context.Context, tradeID string, participant Participant) error {
	client, err := r.connected()
	if nil != err {
		return err
	}
	entry, err := json.Marshal(participant)
	if nil != err {
		return err
	}
	return client.SRem(ctx, roomKey(r.prefix, tradeID), entry).Err()
}

// Participants - every presence record of a trade, corrupt entries are skipped
func (r *Redis) Participants(ctx context.Context, tradeID string) ([]Participant, error) {
	client, err := r.connected()
	if nil != err {
		return nil, err
	}
	entries, err := client.SMembers(ctx, roomKey(r.prefix, tradeID)).Result()
	if nil != err {
		return nil, err
	}

	participants := make([]Participant, 0, len(entries))
	for _, entry := range entries {
		var p Participant
		if err := json.Unmarshal([]byte(entry), &p); nil != err {
			r.log.Debugf("skip corrupt participant: %q", entry)
			continue
		}
		participants = append(participants, p)
	}
	return participants, nil
}

// Listen - deliver inbound messages until the context ends or the
// subscription is closed
func (r *Redis) Listen(ctx context.Context, handler Handler) error {
	r.RLock()
	pubsub := r.pubsub
	r.RUnlock()

	if nil == pubsub {
		return fault.BrokerNotConnected
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case item, ok := <-ch:
			if !ok {
				return nil
			}
			tradeID := tradeIDFromChannel(r.prefix, item.Channel)
			if "" == tradeID {
				continue
			}
			var message Message
			if err := json.Unmarshal([]byte(item.Payload), &message); nil != err {
				r.log.Debugf("drop malformed message on: %s", item.Channel)
				continue
			}
			handler(tradeID, message)
		}
	}
}
