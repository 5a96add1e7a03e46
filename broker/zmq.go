// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package broker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"syscall"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/tradechaind/fault"
)

// presence operations replicated between instances
const (
	presenceAdd    = "add"
	presenceRemove = "remove"
)

type presenceRecord struct {
	Op             string `json:"op"`
	IdentityPubkey string `json:"identity_pubkey"`
	ChatPubkey     string `json:"chat_pubkey"`
	OriginID       string `json:"origin_id"`
}

// ZMQ - brokerless mesh: one PUB socket per instance and a SUB
// socket connected to every sibling
//
// presence is replicated by publishing add/remove records on the room
// channel, each instance keeps the resulting sets in memory
type ZMQ struct {
	sync.Mutex

	log        *logger.L
	prefix     string
	instanceID string
	listen     string
	peers      []string

	pub  *zmq.Socket
	sub  *zmq.Socket
	push *zmq.Socket
	pull *zmq.Socket

	listening bool
	stopped   chan struct{}

	rooms map[string]map[Participant]struct{}
}

// NewZMQ - create a mesh broker publishing on listen and subscribed to peers
func NewZMQ(listen string, peers []string, prefix string) *ZMQ {
	return &ZMQ{
		log:        logger.New("broker"),
		prefix:     prefix,
		instanceID: NewInstanceID(),
		listen:     listen,
		peers:      peers,
		rooms:      make(map[string]map[Participant]struct{}),
	}
}

// Connect - bind the publisher and connect the subscriber
func (z *ZMQ) Connect(ctx context.Context) error {
	z.Lock()
	defer z.Unlock()

	if nil != z.pub {
		return fault.AlreadyInitialised
	}

	ok := false
	sockets := make([]*zmq.Socket, 0, 4)
	defer func() {
		if !ok {
			for _, s := range sockets {
				s.Close()
			}
		}
	}()

	pub, err := zmq.NewSocket(zmq.PUB)
	if nil != err {
		return err
	}
	sockets = append(sockets, pub)
	if err := pub.Bind(z.listen); nil != err {
		z.log.Errorf("bind: %s  error: %s", z.listen, err)
		return err
	}

	sub, err := zmq.NewSocket(zmq.SUB)
	if nil != err {
		return err
	}
	sockets = append(sockets, sub)
	if err := sub.SetSubscribe(z.prefix + ":"); nil != err {
		return err
	}
	for _, peer := range z.peers {
		if err := sub.Connect(peer); nil != err {
			z.log.Errorf("connect: %s  error: %s", peer, err)
			return err
		}
	}

	// inproc pair to stop the listener
	stopAddress := "inproc://broker-stop-" + z.instanceID
	pull, err := zmq.NewSocket(zmq.PULL)
	if nil != err {
		return err
	}
	sockets = append(sockets, pull)
	if err := pull.Bind(stopAddress); nil != err {
		return err
	}
	push, err := zmq.NewSocket(zmq.PUSH)
	if nil != err {
		return err
	}
	sockets = append(sockets, push)
	if err := push.Connect(stopAddress); nil != err {
		return err
	}

	z.pub = pub
	z.sub = sub
	z.pull = pull
	z.push = push
	ok = true

	z.log.Infof("publish: %s  peers: %v  prefix: %s", z.listen, z.peers, z.prefix)
	return nil
}

// Close - stop any listener then close all sockets
func (z *ZMQ) Close() error {
	z.Lock()
	stopped := z.stopped
	if z.listening && nil != z.push {
		z.push.SendMessage("stop")
	}
	z.Unlock()

	if nil != stopped {
		<-stopped
	}

	z.Lock()
	defer z.Unlock()
	for _, s := range []*zmq.Socket{z.push, z.pull, z.sub, z.pub} {
		if nil != s {
			s.Close()
		}
	}
	z.push = nil
	z.pull = nil
	z.sub = nil
	z.pub = nil
	return nil
}

// send on the publisher, caller must hold the lock
func (z *ZMQ) send(channel string, data []byte) error {
	if nil == z.pub {
		return fault.BrokerNotConnected
	}
	_, err := z.pub.SendMessage(channel, data)
	return err
}

// Publish - send a message on the trade channel
func (z *ZMQ) Publish(ctx context.Context, tradeID string, message Message) error {
	data, err := json.Marshal(message)
	if nil != err {
		return err
	}
	z.Lock()
	defer z.Unlock()
	return z.send(channelName(z.prefix, tradeID), data)
}

// AddParticipant - record locally and replicate to siblings
func (z *ZMQ) AddParticipant(ctx context.Context, tradeID string, participant Participant) error {
	return z.presence(tradeID, presenceAdd, participant)
}

// RemoveParticipant - remove locally and replicate to siblings
func (z *ZMQ) RemoveParticipant(ctx context.Context, tradeID string, participant Participant) error {
	return z.presence(tradeID, presenceRemove, participant)
}

func (z *ZMQ) presence(tradeID string, op string, participant Participant) error {
	data, err := json.Marshal(presenceRecord{
		Op:             op,
		IdentityPubkey: participant.IdentityPubkey,
		ChatPubkey:     participant.ChatPubkey,
		OriginID:       z.instanceID,
	})
	if nil != err {
		return err
	}

	z.Lock()
	defer z.Unlock()
	if nil == z.pub {
		return fault.BrokerNotConnected
	}
	z.apply(tradeID, op, participant)
	return z.send(roomKey(z.prefix, tradeID), data)
}

// update a presence set, caller must hold the lock
func (z *ZMQ) apply(tradeID string, op string, participant Participant) {
	switch op {
	case presenceAdd:
		room, ok := z.rooms[tradeID]
		if !ok {
			room = make(map[Participant]struct{})
			z.rooms[tradeID] = room
		}
		room[participant] = struct{}{}
	case presenceRemove:
		room, ok := z.rooms[tradeID]
		if !ok {
			return
		}
		delete(room, participant)
		if 0 == len(room) {
			delete(z.rooms, tradeID)
		}
	}
}

// Participants - the replicated presence set of a trade
func (z *ZMQ) Participants(ctx context.Context, tradeID string) ([]Participant, error) {
	z.Lock()
	defer z.Unlock()

	if nil == z.pub {
		return nil, fault.BrokerNotConnected
	}
	room := z.rooms[tradeID]
	participants := make([]Participant, 0, len(room))
	for p := range room {
		participants = append(participants, p)
	}
	return participants, nil
}

// Listen - poll the subscriber until the context ends or Close is called
func (z *ZMQ) Listen(ctx context.Context, handler Handler) error {
	z.Lock()
	if nil == z.sub {
		z.Unlock()
		return fault.BrokerNotConnected
	}
	if z.listening {
		z.Unlock()
		return fault.AlreadyInitialised
	}
	z.listening = true
	z.stopped = make(chan struct{})
	sub := z.sub
	pull := z.pull
	stopped := z.stopped
	z.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		z.Lock()
		z.listening = false
		z.stopped = nil
		z.Unlock()
		close(stopped)
	}()

	go func() {
		select {
		case <-ctx.Done():
			z.Lock()
			if nil != z.push {
				z.push.SendMessage("stop")
			}
			z.Unlock()
		case <-done:
		}
	}()

	poller := zmq.NewPoller()
	poller.Add(sub, zmq.POLLIN)
	poller.Add(pull, zmq.POLLIN)

	z.log.Info("listening")
loop:
	for {
		polled, err := poller.Poll(-1)
		if nil != err {
			if zmq.AsErrno(err) == zmq.Errno(syscall.EINTR) {
				continue loop
			}
			z.log.Errorf("poll error: %s", err)
			break loop
		}

		for _, p := range polled {
			switch s := p.Socket; s {
			case pull:
				if _, err := s.RecvMessageBytes(0); nil != err {
					z.log.Errorf("pull receive error: %s", err)
				}
				break loop

			default:
				frames, err := s.RecvMessageBytes(0)
				if nil != err {
					z.log.Errorf("sub receive error: %s", err)
					continue
				}
				z.process(frames, handler)
			}
		}
	}
	z.log.Info("stopped")
	return nil
}

func (z *ZMQ) process(frames [][]byte, handler Handler) {
	if 2 != len(frames) {
		z.log.Debugf("drop message with: %d frames", len(frames))
		return
	}
	channel := string(frames[0])

	roomPrefix := z.prefix + ":room:"
	if strings.HasPrefix(channel, roomPrefix) {
		var record presenceRecord
		if err := json.Unmarshal(frames[1], &record); nil != err {
			z.log.Debugf("drop malformed presence on: %s", channel)
			return
		}
		if record.OriginID == z.instanceID {
			return
		}
		z.Lock()
		z.apply(channel[len(roomPrefix):], record.Op, Participant{
			IdentityPubkey: record.IdentityPubkey,
			ChatPubkey:     record.ChatPubkey,
		})
		z.Unlock()
		return
	}

	tradeID := tradeIDFromChannel(z.prefix, channel)
	if "" == tradeID {
		return
	}
	var message Message
	if err := json.Unmarshal(frames[1], &message); nil != err {
		z.log.Debugf("drop malformed message on: %s", channel)
		return
	}
	handler(tradeID, message)
}
