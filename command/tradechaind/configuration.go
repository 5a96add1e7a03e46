// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/tradechaind/api"
	"github.com/bitmark-inc/tradechaind/broker"
	"github.com/bitmark-inc/tradechaind/configuration"
	"github.com/bitmark-inc/tradechaind/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabaseDirectory = "data"
	defaultDatabaseName      = "tradechain.leveldb"

	defaultListen       = "127.0.0.1:8000"
	defaultRequestRate  = 200.0
	defaultRequestBurst = 100

	defaultLogDirectory = "log"
	defaultLogFile      = "tradechaind.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "info",
	}
)

// DatabaseType - location of the LevelDB store
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

// Configuration - the whole daemon configuration
type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	Database      DatabaseType         `gluamapper:"database" json:"database"`
	API           api.Configuration    `gluamapper:"api" json:"api"`
	Broker        broker.Configuration `gluamapper:"broker" json:"broker"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Database: DatabaseType{
			Directory: defaultDatabaseDirectory,
			Name:      defaultDatabaseName,
		},

		API: api.Configuration{
			Listen:       []string{defaultListen},
			RequestRate:  defaultRequestRate,
			RequestBurst: defaultRequestBurst,
			AuthTimeout:  api.DefaultAuthTimeout,
		},

		Broker: broker.Configuration{
			Mode:   broker.ModeNone,
			Prefix: broker.DefaultPrefix,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if err := util.CheckDirectory(options.DataDirectory); nil != err {
		return nil, err
	}

	if 0 == len(options.API.Listen) {
		return nil, fmt.Errorf("api: no listen addresses")
	}
	for _, listen := range options.API.Listen {
		if "" == listen {
			return nil, fmt.Errorf("api: blank listen address")
		}
	}

	// certificate and key come as a pair
	if ("" == options.API.Certificate) != ("" == options.API.PrivateKey) {
		return nil, fmt.Errorf("api: certificate and private_key must both be set")
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.API.Certificate,
		&options.API.PrivateKey,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := util.EnsureDirectory(*d); nil != err {
			return nil, err
		}
	}

	for _, f := range mustNotBePaths {
		if !util.IsPlainName(*f[0]) {
			return nil, fmt.Errorf("files: %q is not plain name", *f[0])
		}
		if nil != f[1] {
			*f[0] = util.EnsureAbsolute(*f[1], *f[0])
		}
	}

	// done
	return options, nil
}
