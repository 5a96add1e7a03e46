// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bitmark-inc/tradechaind/trade"
)

// tradeSummary - public view of a trade
type tradeSummary struct {
	TradeID      string       `json:"trade_id"`
	SellerPubkey string       `json:"seller_pubkey"`
	BuyerPubkey  *string      `json:"buyer_pubkey"`
	Status       trade.Status `json:"status"`
	Description  *string      `json:"description"`
	Price        *float64     `json:"price"`
	ContentHash  string       `json:"content_hash"`
	CreatedAt    int64        `json:"created_at"`
}

func summarise(snapshot *trade.Snapshot) tradeSummary {
	var buyer *string
	if "" != snapshot.BuyerPubkey {
		b := snapshot.BuyerPubkey
		buyer = &b
	}
	return tradeSummary{
		TradeID:      snapshot.TradeID,
		SellerPubkey: snapshot.SellerPubkey,
		BuyerPubkey:  buyer,
		Status:       snapshot.Status,
		Description:  snapshot.Description,
		Price:        snapshot.Price,
		ContentHash:  snapshot.ContentHash,
		CreatedAt:    snapshot.CreatedAt,
	}
}

type statusReply struct {
	Status string `json:"status"`
}

var statusOK = statusReply{Status: "ok"}

// GET /trade/list
func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.machine.List(trade.DefaultListLimit)
	if nil != err {
		s.log.Errorf("list trades error: %s", err)
		sendFault(w, err)
		return
	}

	data := make([]tradeSummary, len(trades))
	for i := range trades {
		data[i] = summarise(&trades[i])
	}
	sendReply(w, struct {
		Data []tradeSummary `json:"data"`
	}{
		Data: data,
	})
}

// GET /trade/{tradeID}
func (s *Server) getTrade(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.machine.Get(chi.URLParam(r, "tradeID"))
	if nil != err {
		sendFault(w, err)
		return
	}
	sendReply(w, summarise(snapshot))
}

// creation fields, either at the top level or nested in body
type createFields struct {
	TradeID      string   `json:"trade_id"`
	ContentHash  string   `json:"content_hash"`
	SellerPubkey string   `json:"seller_pubkey"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
}

type createRequest struct {
	createFields
	Signature string        `json:"signature"`
	Body      *createFields `json:"body"`
}

// prefer the nested body, the top level trade id is still accepted
// and description and price are only taken from the body
func (c *createRequest) normalise() (trade.CreateRequest, []string) {
	request := trade.CreateRequest{
		TradeID:      c.TradeID,
		ContentHash:  c.ContentHash,
		SellerPubkey: c.SellerPubkey,
		Signature:    c.Signature,
	}
	if nil != c.Body {
		if "" == request.TradeID {
			request.TradeID = c.Body.TradeID
		}
		request.ContentHash = c.Body.ContentHash
		request.SellerPubkey = c.Body.SellerPubkey
		request.Description = c.Body.Description
		request.Price = c.Body.Price
	}

	missing := make([]string, 0, 4)
	if "" == request.TradeID {
		missing = append(missing, "trade_id")
	}
	if "" == request.ContentHash {
		missing = append(missing, "content_hash")
	}
	if "" == request.SellerPubkey {
		missing = append(missing, "seller_pubkey")
	}
	if "" == request.Signature {
		missing = append(missing, "signature")
	}
	return request, missing
}

// POST /trade/create
func (s *Server) createTrade(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := readBody(w, r, &body); nil != err {
		sendFault(w, err)
		return
	}

	request, missing := body.normalise()
	if 0 != len(missing) {
		sendError(w, "missing field: "+strings.Join(missing, ", "), http.StatusBadRequest)
		return
	}

	proposal, err := s.machine.PrepareCreate(request)
	if nil != err {
		sendFault(w, err)
		return
	}
	s.apply(w, proposal)
}

// hash may also be sent under its field name complete_hash
type completeRequest struct {
	TradeID      string `json:"trade_id"`
	Hash         string `json:"hash"`
	CompleteHash string `json:"complete_hash"`
	SigSeller    string `json:"sig_seller"`
	SigBuyer     string `json:"sig_buyer"`
}

func (c completeRequest) digest() string {
	if "" != c.Hash {
		return c.Hash
	}
	return c.CompleteHash
}

// POST /trade/complete
func (s *Server) completeTrade(w http.ResponseWriter, r *http.Request) {
	var body completeRequest
	if err := readBody(w, r, &body); nil != err {
		sendFault(w, err)
		return
	}

	proposal, err := s.machine.PrepareComplete(body.TradeID, body.digest(), body.SigSeller, body.SigBuyer)
	if nil != err {
		sendFault(w, err)
		return
	}
	s.apply(w, proposal)
}

// hash may also be sent under its field name cancel_hash
type cancelRequest struct {
	TradeID    string `json:"trade_id"`
	Hash       string `json:"hash"`
	CancelHash string `json:"cancel_hash"`
	Signature  string `json:"signature"`
}

func (c cancelRequest) digest() string {
	if "" != c.Hash {
		return c.Hash
	}
	return c.CancelHash
}

// POST /trade/cancel
func (s *Server) cancelTrade(w http.ResponseWriter, r *http.Request) {
	var body cancelRequest
	if err := readBody(w, r, &body); nil != err {
		sendFault(w, err)
		return
	}

	proposal, err := s.machine.PrepareCancel(body.TradeID, body.digest(), body.Signature)
	if nil != err {
		sendFault(w, err)
		return
	}
	s.apply(w, proposal)
}

func (s *Server) apply(w http.ResponseWriter, proposal *trade.Proposal) {
	block, err := s.machine.Apply(proposal)
	if nil != err {
		s.log.Errorf("trade: %s  apply %s error: %s", proposal.TradeID, proposal.Type, err)
		sendFault(w, err)
		return
	}
	s.log.Infof("trade: %s  block: %d  type: %s", block.Event.TradeID, block.Index, block.Type)
	sendReply(w, statusOK)
}

type joinRequest struct {
	BuyerPubkey     string `json:"buyer_pubkey"`
	BuyerChatPubkey string `json:"buyer_chat_pubkey"`
}

// POST /trade/{tradeID}/join
func (s *Server) joinTrade(w http.ResponseWriter, r *http.Request) {
	var body joinRequest
	if err := readBody(w, r, &body); nil != err {
		sendFault(w, err)
		return
	}

	err := s.machine.Join(chi.URLParam(r, "tradeID"), body.BuyerPubkey, body.BuyerChatPubkey)
	if nil != err {
		sendFault(w, err)
		return
	}
	sendReply(w, struct {
		OK bool `json:"ok"`
	}{
		OK: true,
	})
}

// GET /trade/{tradeID}/chat-info
func (s *Server) chatInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.machine.ChatInfo(chi.URLParam(r, "tradeID"))
	if nil != err {
		sendFault(w, err)
		return
	}
	sendReply(w, info)
}

type chatPubkeyRequest struct {
	IdentityPubkey string `json:"identity_pubkey"`
	ChatPubkey     string `json:"chat_pubkey"`
}

type successReply struct {
	Success bool `json:"success"`
}

// POST /trade/{tradeID}/update-chat-pubkey
func (s *Server) updateChatPubkey(w http.ResponseWriter, r *http.Request) {
	var body chatPubkeyRequest
	if err := readBody(w, r, &body); nil != err {
		sendFault(w, err)
		return
	}

	err := s.machine.UpdateChatPubkey(chi.URLParam(r, "tradeID"), body.IdentityPubkey, body.ChatPubkey)
	if nil != err {
		sendFault(w, err)
		return
	}
	sendReply(w, successReply{Success: true})
}

// GET /trade/{tradeID}/peer-chat-pubkey/{identity}
func (s *Server) peerChatPubkey(w http.ResponseWriter, r *http.Request) {
	// base64 keys may carry an escaped '/'
	identity, err := url.PathUnescape(chi.URLParam(r, "identity"))
	if nil != err {
		sendError(w, "invalid identity", http.StatusBadRequest)
		return
	}

	peer, err := s.machine.PeerChatPubkey(chi.URLParam(r, "tradeID"), identity)
	if nil != err {
		sendFault(w, err)
		return
	}

	var reply struct {
		Success        bool    `json:"success"`
		PeerChatPubkey *string `json:"peer_chat_pubkey"`
	}
	reply.Success = true
	if "" != peer {
		reply.PeerChatPubkey = &peer
	}
	sendReply(w, reply)
}
