// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/trade"
)

const (
	apiCertificateFilename = "api.crt"
	apiPrivateKeyFilename  = "api.key"
)

// setup command handler
//
// commands that run to create key and certificate files these
// commands cannot access any internal database or states or the
// configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-api-cert", "api":
		certificateFilename := getFilenameWithDirectory(arguments, apiCertificateFilename)
		privateKeyFilename := getFilenameWithDirectory(arguments, apiPrivateKeyFilename)

		addresses := []string{}
		if len(arguments) >= 2 {
			for _, a := range arguments[1:] {
				if "" != a {
					addresses = append(addresses, a)
				}
			}
		}

		err := makeSelfSignedCertificate("api", certificateFilename, privateKeyFilename, 0 != len(addresses), addresses)
		if nil != err {
			fmt.Printf("generate API key: %q and certificate: %q error: %s\n", privateKeyFilename, certificateFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated API key: %q and certificate: %q\n", privateKeyFilename, certificateFilename)

	case "start", "run":
		return false // continue processing

	case "rebuild", "verify":
		return false // defer processing until database is loaded

	case "config-test", "cfg":
		return false

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-api-cert [DIR]         (api)    - create private key in:  %q\n", "DIR/"+apiPrivateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+apiCertificateFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-api-cert [DIR] [IPs...]         - create private key in:  %q\n", "DIR/"+apiPrivateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+apiCertificateFilename)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  rebuild                             - recreate trade snapshots from the block chain\n")
		fmt.Printf("\n")

		fmt.Printf("  verify                              - check every block hash and link\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the block and trade pools are open so these commands can
// access and/or change these databases
func processDataCommand(log *logger.L, arguments []string, engine *ledger.Engine, machine *trade.Machine) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "rebuild":
		n, err := machine.Rebuild()
		if nil != err {
			log.Errorf("rebuild error: %s", err)
			exitwithstatus.Message("rebuild error: %s", err)
		}
		log.Infof("rebuilt: %d trades", n)
		fmt.Printf("rebuilt: %d trades\n", n)

	case "verify":
		v, err := engine.Verify()
		if nil != err {
			exitwithstatus.Message("verify error: %s", err)
		}
		s, err := json.MarshalIndent(v, "", "  ")
		if nil != err {
			exitwithstatus.Message("verify JSON error: %s", err)
		}
		fmt.Printf("%s\n", s)
		if !v.Valid {
			if nil != v.FirstInvalid {
				log.Criticalf("chain invalid at: %d  reason: %s", *v.FirstInvalid, v.Reason)
			}
			exitwithstatus.Exit(1)
		}

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
