// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/tradechaind/canonical"
	"github.com/bitmark-inc/tradechaind/trade"
)

func runDigest(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	var source io.Reader
	if text := c.String("json"); "" != text {
		source = strings.NewReader(text)
	} else if fileName := c.String("file"); "" != fileName {
		f, err := os.Open(fileName)
		if nil != err {
			return err
		}
		defer f.Close()
		source = f
	} else {
		return ErrRequiredJSON
	}

	// number literals are kept, canonical form gives 1.50 and 1.5
	// the same digest while large integers stay exact
	decoder := json.NewDecoder(source)
	decoder.UseNumber()
	var value interface{}
	if err := decoder.Decode(&value); nil != err {
		return err
	}

	text, err := canonical.Canonicalize(value)
	if nil != err {
		return err
	}
	digest, err := canonical.Digest(value)
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "canonical: %s\n", text)
	}

	out := struct {
		Canonical string `json:"canonical"`
		Digest    string `json:"digest"`
	}{
		Canonical: text,
		Digest:    digest,
	}
	return printJSON(m.w, out)
}

func runCancelHash(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	tradeID, err := checkRequired(c.String("trade-id"), ErrRequiredTradeID)
	if nil != err {
		return err
	}

	timestamp := c.Int64("timestamp")
	if 0 == timestamp {
		timestamp = time.Now().Unix()
	}

	digest, err := trade.CancelDigest(tradeID, timestamp)
	if nil != err {
		return err
	}

	out := struct {
		TradeID   string `json:"trade_id"`
		Timestamp int64  `json:"timestamp"`
		Digest    string `json:"digest"`
	}{
		TradeID:   tradeID,
		Timestamp: timestamp,
		Digest:    digest,
	}
	return printJSON(m.w, out)
}
