// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bitmark-inc/tradechaind/canonical"
)

// BlockType - the kind of trade transition a block records
type BlockType string

// the block types
const (
	Create   BlockType = "CREATE"
	Complete BlockType = "COMPLETE"
	Cancel   BlockType = "CANCEL"
)

// Valid - true for a known block type
func (t BlockType) Valid() bool {
	switch t {
	case Create, Complete, Cancel:
		return true
	default:
		return false
	}
}

// GenesisPrevHash - the predecessor hash of block zero
var GenesisPrevHash = strings.Repeat("0", 2*sha256.Size)

// Event - the signed content of a block
type Event struct {
	Type       BlockType         `json:"type"`
	TradeID    string            `json:"trade_id"`
	Payload    json.RawMessage   `json:"payload"`
	Signatures map[string]string `json:"signatures"`
}

// Block - one committed ledger entry, never modified after append
type Block struct {
	Index     uint64    `json:"index"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
	Timestamp int64     `json:"timestamp"`
	Type      BlockType `json:"type"`
	Event     Event     `json:"payload"`
}

// ComputeHash - the hash of a block from its parts
func ComputeHash(index uint64, prevHash string, event Event, timestamp int64) (string, error) {
	if nil == event.Signatures {
		event.Signatures = map[string]string{}
	}
	body, err := canonical.Bytes(event)
	if nil != err {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(index, 10)))
	h.Write([]byte(prevHash))
	h.Write(body)
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))

	return hex.EncodeToString(h.Sum(nil)), nil
}

// recompute the hash from the stored fields
func (b *Block) computeHash() (string, error) {
	return ComputeHash(b.Index, b.PrevHash, b.Event, b.Timestamp)
}
