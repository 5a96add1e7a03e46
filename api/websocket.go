// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bitmark-inc/tradechaind/broker"
	"github.com/bitmark-inc/tradechaind/fault"
)

const (
	writeTimeout = 10 * time.Second

	closeTradeNotFound  = "Trade not found"
	closeAuthTimeout    = "Authentication timeout"
	closeInvalidAuth    = "Invalid authentication payload"
	closeAuthRequired   = "Authentication required"
	closeInternalError  = "Internal server error"
	closeServerShutdown = "Server shutting down"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// socket - a chat client connection
//
// gorilla allows one concurrent writer, the registry may broadcast
// from several goroutines
type socket struct {
	sync.Mutex
	conn *websocket.Conn
}

// Send - write one message as a JSON text frame
func (c *socket) Send(message broker.Message) error {
	c.Lock()
	defer c.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(message)
}

func (c *socket) close(code int, reason string) {
	c.Lock()
	defer c.Unlock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeTimeout),
	)
	_ = c.conn.Close()
}

// first frame of a session
type authFrame struct {
	Type           *string `json:"type"`
	IdentityPubkey *string `json:"identity_pubkey"`
	ChatPubkey     *string `json:"chat_pubkey"`
}

// any later frame
type clientFrame struct {
	Type            string `json:"type"`
	Ciphertext      string `json:"ciphertext"`
	BuyerChatPubkey string `json:"buyer_chat_pubkey"`
}

// GET /ws/chat/{tradeID}
func (s *Server) chatSocket(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if nil != err {
		s.log.Warnf("trade: %s  upgrade error: %s", tradeID, err)
		return
	}
	c := &socket{conn: conn}
	s.log.Infof("trade: %s  new connection from: %s", tradeID, conn.RemoteAddr())

	_, err = s.machine.Get(tradeID)
	if fault.TradeNotFound == err {
		s.log.Infof("trade: %s  not found for socket", tradeID)
		c.close(websocket.ClosePolicyViolation, closeTradeNotFound)
		return
	} else if nil != err {
		s.log.Errorf("trade: %s  lookup error: %s", tradeID, err)
		c.close(websocket.CloseInternalServerErr, closeInternalError)
		return
	}

	identityPubkey, chatPubkey, ok := s.authenticate(tradeID, c)
	if !ok {
		return
	}

	s.session(tradeID, c, identityPubkey, chatPubkey)
}

// wait for the auth frame, on failure the socket is closed
func (s *Server) authenticate(tradeID string, c *socket) (string, string, bool) {
	_ = c.conn.SetReadDeadline(time.Now().Add(s.authTimeout))
	_, data, err := c.conn.ReadMessage()
	if nil != err {
		if e, ok := err.(net.Error); ok && e.Timeout() {
			s.log.Infof("trade: %s  authentication timeout", tradeID)
			c.close(websocket.ClosePolicyViolation, closeAuthTimeout)
		} else {
			s.log.Debugf("trade: %s  closed before auth: %s", tradeID, err)
			_ = c.conn.Close()
		}
		return "", "", false
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	var auth authFrame
	err = json.Unmarshal(data, &auth)
	if nil != err || nil == auth.Type || nil == auth.IdentityPubkey || nil == auth.ChatPubkey {
		c.close(websocket.ClosePolicyViolation, closeInvalidAuth)
		return "", "", false
	}
	if broker.TypeAuth != *auth.Type {
		c.close(websocket.ClosePolicyViolation, closeAuthRequired)
		return "", "", false
	}

	identity := *auth.IdentityPubkey
	short := identity
	if len(short) > 16 {
		short = short[:16]
	}
	s.log.Infof("trade: %s  auth ok for: %s", tradeID, short)

	return identity, *auth.ChatPubkey, true
}

// the authenticated message loop, leaves the room exactly once
func (s *Server) session(tradeID string, c *socket, identityPubkey string, chatPubkey string) {
	ctx := context.Background()
	log := s.log

	s.registry.Join(ctx, tradeID, c, identityPubkey, chatPubkey)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-s.closing:
			c.close(websocket.CloseGoingAway, closeServerShutdown)
		case <-finished:
		}
	}()

	defer func() {
		if r := recover(); nil != r {
			log.Errorf("trade: %s  socket panic: %v", tradeID, r)
			s.registry.Leave(ctx, tradeID, c)
			c.close(websocket.CloseInternalServerErr, closeInternalError)
		}
	}()

	success := true
	err := c.Send(broker.Message{
		Type:      broker.TypeAuthResponse,
		Success:   &success,
		TradeID:   tradeID,
		Timestamp: time.Now().Unix(),
	})
	if nil != err {
		log.Debugf("trade: %s  auth response error: %s", tradeID, err)
		s.registry.Leave(ctx, tradeID, c)
		_ = c.conn.Close()
		return
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if nil != err {
			log.Infof("trade: %s  disconnected: %s", tradeID, err)
			break
		}
		s.dispatch(ctx, tradeID, c, identityPubkey, chatPubkey, data)
	}

	s.registry.Leave(ctx, tradeID, c)
	_ = c.conn.Close()
}

// handle one client frame, errors stay local to the frame
func (s *Server) dispatch(ctx context.Context, tradeID string, c *socket, identityPubkey string, chatPubkey string, data []byte) {
	log := s.log

	// anything that is not JSON is relayed as ciphertext
	if !json.Valid(data) {
		log.Warnf("trade: %s  non-JSON frame length: %d", tradeID, len(data))
		s.registry.Relay(ctx, tradeID, string(data), chatPubkey, chatPubkey)
		return
	}

	var frame clientFrame
	if err := json.Unmarshal(data, &frame); nil != err {
		log.Warnf("trade: %s  unusable frame: %s", tradeID, err)
		return
	}

	switch frame.Type {
	case broker.TypeChat:
		if "" == frame.Ciphertext {
			log.Warnf("trade: %s  CHAT without ciphertext", tradeID)
			return
		}
		buyerChatPubkey := frame.BuyerChatPubkey
		if "" == buyerChatPubkey {
			buyerChatPubkey = chatPubkey
		}
		s.registry.Relay(ctx, tradeID, frame.Ciphertext, chatPubkey, buyerChatPubkey)

	case broker.TypeJoin:
		s.registry.BroadcastJoin(ctx, tradeID, identityPubkey, chatPubkey)

	case broker.TypePing:
		err := c.Send(broker.Message{
			Type:      broker.TypePong,
			Timestamp: time.Now().Unix(),
		})
		if nil != err {
			log.Debugf("trade: %s  pong error: %s", tradeID, err)
		}

	default:
		log.Debugf("trade: %s  unknown message type: %q", tradeID, frame.Type)
	}
}
