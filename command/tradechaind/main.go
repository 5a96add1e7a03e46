// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/tradechaind/api"
	"github.com/bitmark-inc/tradechaind/background"
	"github.com/bitmark-inc/tradechaind/broker"
	"github.com/bitmark-inc/tradechaind/chat"
	"github.com/bitmark-inc/tradechaind/configuration"
	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/signature"
	"github.com/bitmark-inc/tradechaind/storage"
	"github.com/bitmark-inc/tradechaind/trade"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

const brokerConnectTimeout = 10 * time.Second

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	log.Infof("database: %q", theConfiguration.Database.Name)
	log.Debugf("%s = %#v", "API", theConfiguration.API)
	log.Debugf("%s = %#v", "Broker", theConfiguration.Broker)

	// start the data storage
	log.Info("initialise storage")
	db, err := storage.Open(theConfiguration.Database.Name, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer db.Close()

	engine := ledger.New(ledger.NewPoolStore(db.Pool.Blocks), nil)
	machine := trade.New(engine, trade.NewPoolStore(db.Pool.Trades), signature.Ed25519{}, nil)
	machine.SetCancelWindow(theConfiguration.API.CancelWindow)

	// these commands are allowed to access the internal database
	if len(arguments) > 0 && processDataCommand(log, arguments, engine, machine) {
		return
	}

	// chat fan out between instances
	instanceID := broker.NewInstanceID()
	log.Infof("instance: %s", instanceID)
	b := connectBroker(log, &theConfiguration.Broker)
	defer b.Close()

	registry := chat.NewRegistry(
		b,
		chat.NewPoolStore(db.Pool.Messages, db.Pool.Sequence, nil),
		instanceID,
		nil,
	)

	var tlsConfiguration *tls.Config
	if "" != theConfiguration.API.Certificate {
		var fingerprint string
		tlsConfiguration, fingerprint, err = api.LoadCertificate(log, theConfiguration.API.Certificate, theConfiguration.API.PrivateKey)
		if nil != err {
			log.Criticalf("api certificate error: %s", err)
			exitwithstatus.Message("api certificate error: %s", err)
		}
		log.Infof("SHA3-256 fingerprint: %s", fingerprint)
	}

	server, err := api.New(&theConfiguration.API, machine, engine, registry, tlsConfiguration)
	if nil != err {
		log.Criticalf("api initialise error: %s", err)
		exitwithstatus.Message("api initialise error: %s", err)
	}

	processes := background.Processes{
		server,
		registry.Listener(),
	}

	// settings that can change without a restart
	watcher, err := configuration.NewWatcher(configurationFile)
	if nil != err {
		log.Warnf("configuration watch error: %s", err)
	} else {
		processes = append(processes,
			watcher,
			newReloader(configurationFile, watcher, server, machine),
		)
	}

	processing := background.Start(processes, nil)

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
	processing.Stop()
}

// a broker that fails to connect is replaced by the local only one
func connectBroker(log *logger.L, options *broker.Configuration) broker.Broker {
	b, err := broker.New(options)
	if nil != err {
		log.Criticalf("broker initialise error: %s", err)
		exitwithstatus.Message("broker initialise error: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), brokerConnectTimeout)
	defer cancel()

	err = b.Connect(ctx)
	if nil != err {
		log.Errorf("broker: %q  connect error: %s  continuing without fan out", options.Mode, err)
		_ = b.Close()
		return broker.NewNoop()
	}
	log.Infof("broker: %q  connected", options.Mode)
	return b
}
