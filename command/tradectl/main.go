// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

type metadata struct {
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {

	app := cli.NewApp()
	app.Name = "tradectl"
	app.Usage = "trade chain keys, digests and block inspection"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "keygen",
			Usage:     "generate an Ed25519 key pair",
			ArgsUsage: "\n   (* = required)",
			Flags:     []cli.Flag{},
			Action:    runKeygen,
		},
		{
			Name:      "digest",
			Usage:     "canonical SHA-256 digest of a JSON value",
			ArgsUsage: "\n   (* = required, + = select one)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "json, j",
					Value: "",
					Usage: "+JSON `TEXT`",
				},
				cli.StringFlag{
					Name:  "file, f",
					Value: "",
					Usage: "+read JSON from `FILE`",
				},
			},
			Action: runDigest,
		},
		{
			Name:      "sign",
			Usage:     "sign a hex digest",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "key, k",
					Value: "",
					Usage: "*base64 private `KEY`",
				},
				cli.StringFlag{
					Name:  "digest, d",
					Value: "",
					Usage: "*hex `DIGEST`",
				},
			},
			Action: runSign,
		},
		{
			Name:      "verify-signature",
			Usage:     "check a signature over a hex digest",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "public, p",
					Value: "",
					Usage: "*base64 public `KEY`",
				},
				cli.StringFlag{
					Name:  "digest, d",
					Value: "",
					Usage: "*hex `DIGEST`",
				},
				cli.StringFlag{
					Name:  "signature, s",
					Value: "",
					Usage: "*base64 `SIGNATURE`",
				},
			},
			Action: runVerifySignature,
		},
		{
			Name:      "cancel-hash",
			Usage:     "digest a seller signs to cancel a trade",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "trade-id, t",
					Value: "",
					Usage: "*trade `ID`",
				},
				cli.Int64Flag{
					Name:  "timestamp, s",
					Value: 0,
					Usage: " unix `SECONDS` [now]",
				},
			},
			Action: runCancelHash,
		},
		{
			Name:      "verify-chain",
			Usage:     "recompute every block hash of a stopped daemon's database",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "database, d",
					Value: "",
					Usage: "*LevelDB `DIRECTORY`",
				},
			},
			Action: runVerifyChain,
		},
		{
			Name:      "dump-blocks",
			Usage:     "print all blocks as JSON",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "database, d",
					Value: "",
					Usage: "*LevelDB `DIRECTORY`",
				},
				cli.StringFlag{
					Name:  "output, o",
					Value: "-",
					Usage: " write to `FILE` [stdout]",
				},
			},
			Action: runDumpBlocks,
		},
		{
			Name:  "version",
			Usage: "display tradectl version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		c.App.Metadata["config"] = &metadata{
			verbose: c.GlobalBool("verbose"),
			e:       c.App.ErrWriter,
			w:       c.App.Writer,
		}
		return nil
	}

	return app
}
