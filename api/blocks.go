// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/bitmark-inc/tradechaind/ledger"
)

// GET /blocks/export
func (s *Server) exportBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := s.engine.Export()
	if nil != err {
		s.log.Errorf("export error: %s", err)
		sendFault(w, err)
		return
	}
	if nil == blocks {
		blocks = []ledger.Block{}
	}
	sendReply(w, struct {
		Blocks []ledger.Block `json:"blocks"`
	}{
		Blocks: blocks,
	})
}

// GET /blocks/verify
func (s *Server) verifyBlocks(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Verify()
	if nil != err {
		s.log.Errorf("verify error: %s", err)
		sendFault(w, err)
		return
	}
	if !result.Valid {
		s.log.Criticalf("chain invalid: %s", result.Reason)
	}
	sendReply(w, result)
}
