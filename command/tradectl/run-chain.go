// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/storage"
)

// storage needs a logger channel, only critical items are shown
func startLogging() error {
	logging := logger.Configuration{
		Directory: os.TempDir(),
		File:      "tradectl.log",
		Size:      1048576,
		Count:     10,
		Console:   true,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	return logger.Initialise(logging)
}

func runVerifyChain(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	name, err := checkDatabase(c.String("database"))
	if nil != err {
		return err
	}

	if err := startLogging(); nil != err {
		return err
	}
	defer logger.Finalise()

	return verifyChain(m, name)
}

func runDumpBlocks(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	name, err := checkDatabase(c.String("database"))
	if nil != err {
		return err
	}

	w := m.w
	output := strings.TrimSpace(c.String("output"))
	if "" != output && "-" != output {
		fd, err := os.Create(output)
		if nil != err {
			return err
		}
		defer fd.Close()
		w = fd
	}

	if err := startLogging(); nil != err {
		return err
	}
	defer logger.Finalise()

	return dumpBlocks(m, name, w)
}

// read only, the daemon must be stopped since LevelDB locks the directory
func openEngine(name string) (*storage.Database, *ledger.Engine, error) {
	db, err := storage.Open(name, storage.ReadOnly)
	if nil != err {
		return nil, nil, err
	}
	return db, ledger.New(ledger.NewPoolStore(db.Pool.Blocks), nil), nil
}

func verifyChain(m *metadata, name string) error {
	db, engine, err := openEngine(name)
	if nil != err {
		return err
	}
	defer db.Close()

	v, err := engine.Verify()
	if nil != err {
		return err
	}
	if err := printJSON(m.w, v); nil != err {
		return err
	}
	if !v.Valid {
		return fmt.Errorf("chain invalid: %s", v.Reason)
	}
	return nil
}

func dumpBlocks(m *metadata, name string, w io.Writer) error {
	db, engine, err := openEngine(name)
	if nil != err {
		return err
	}
	defer db.Close()

	blocks, err := engine.Export()
	if nil != err {
		return err
	}
	if nil == blocks {
		blocks = []ledger.Block{}
	}

	if m.verbose {
		fmt.Fprintf(m.e, "blocks: %d\n", len(blocks))
	}

	out := struct {
		Blocks []ledger.Block `json:"blocks"`
	}{
		Blocks: blocks,
	}
	return printJSON(w, out)
}
