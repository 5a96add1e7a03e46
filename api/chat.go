// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bitmark-inc/tradechaind/chat"
)

// GET /chat/history/{tradeID}?limit=N
func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")

	limit := chat.DefaultHistoryLimit
	if value := r.URL.Query().Get("limit"); "" != value {
		n, err := strconv.Atoi(value)
		if nil != err || n <= 0 {
			sendError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	messages, err := s.registry.History(tradeID, limit)
	if nil != err {
		s.log.Errorf("trade: %s  history error: %s", tradeID, err)
		sendInternalServerError(w)
		return
	}
	if nil == messages {
		messages = []chat.StoredMessage{}
	}

	sendReply(w, struct {
		Success  bool                `json:"success"`
		Messages []chat.StoredMessage `json:"messages"`
	}{
		Success:  true,
		Messages: messages,
	})
}

// GET /chat/room/{tradeID}
func (s *Server) chatRoom(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")

	participants := s.registry.RoomInfo(r.Context(), tradeID)
	if nil == participants {
		participants = []chat.RoomMember{}
	}

	sendReply(w, struct {
		Success      bool              `json:"success"`
		TradeID      string            `json:"trade_id"`
		Participants []chat.RoomMember `json:"participants"`
		Count        int               `json:"count"`
	}{
		Success:      true,
		TradeID:      tradeID,
		Participants: participants,
		Count:        len(participants),
	})
}
