// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package trade

import (
	"github.com/bitmark-inc/tradechaind/canonical"
)

// Status - lifecycle state of a trade
type Status string

// trade states, both COMPLETED and CANCELLED are final
const (
	Open      Status = "OPEN"
	Completed Status = "COMPLETED"
	Cancelled Status = "CANCELLED"
)

// Snapshot - current view of a trade, rebuildable from the ledger
// apart from the join and chat key fields
type Snapshot struct {
	TradeID          string   `json:"trade_id"`
	SellerPubkey     string   `json:"seller_pubkey"`
	BuyerPubkey      string   `json:"buyer_pubkey,omitempty"`
	ContentHash      string   `json:"content_hash"`
	Description      *string  `json:"description"`
	Price            *float64 `json:"price"`
	Status           Status   `json:"status"`
	SellerChatPubkey string   `json:"seller_chat_pubkey,omitempty"`
	BuyerChatPubkey  string   `json:"buyer_chat_pubkey,omitempty"`
	CreatedAt        int64    `json:"created_at"`
}

// ChatInfo - the keys both sides need to open a chat
type ChatInfo struct {
	TradeID          string `json:"trade_id"`
	SellerPubkey     string `json:"seller_pubkey"`
	BuyerPubkey      string `json:"buyer_pubkey,omitempty"`
	SellerChatPubkey string `json:"seller_chat_pubkey,omitempty"`
	BuyerChatPubkey  string `json:"buyer_chat_pubkey,omitempty"`
	Status           Status `json:"status"`
}

// CreatePayload - payload of a CREATE block
type CreatePayload struct {
	ContentHash  string   `json:"content_hash"`
	SellerPubkey string   `json:"seller_pubkey"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
}

// CompletePayload - payload of a COMPLETE block
type CompletePayload struct {
	TradeID string `json:"trade_id"`
	Result  Status `json:"result"`
}

// CancelPayload - payload of a CANCEL block and the body whose
// digest the seller signs
type CancelPayload struct {
	TradeID   string `json:"trade_id"`
	Result    Status `json:"result"`
	Timestamp int64  `json:"timestamp"`
}

// CancelDigest - the digest a seller must sign to cancel at the given time
func CancelDigest(tradeID string, timestamp int64) (string, error) {
	return canonical.Digest(CancelPayload{
		TradeID:   tradeID,
		Result:    Cancelled,
		Timestamp: timestamp,
	})
}
