// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/tradechaind/broker"
	"github.com/bitmark-inc/tradechaind/configuration"
	"github.com/bitmark-inc/tradechaind/fault"
	"github.com/bitmark-inc/tradechaind/fixtures"
)

const sampleConfiguration = "tradechaind.conf.sample"

// copy a configuration into a fresh data directory
func setupDirectory(t *testing.T, text string) (string, func()) {
	dir, err := ioutil.TempDir("", "tradechaind-")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	fileName := filepath.Join(dir, "tradechaind.conf")
	if err := ioutil.WriteFile(fileName, []byte(text), 0600); nil != err {
		os.RemoveAll(dir)
		t.Fatalf("write configuration error: %s", err)
	}
	return fileName, func() { os.RemoveAll(dir) }
}

func readSample(t *testing.T) string {
	data, err := ioutil.ReadFile(sampleConfiguration)
	if nil != err {
		t.Fatalf("read sample error: %s", err)
	}
	return string(data)
}

func TestSampleConfiguration(t *testing.T) {
	fileName, teardown := setupDirectory(t, readSample(t))
	defer teardown()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "sample rejected")

	dir := filepath.Dir(fileName)
	assert.Equal(t, dir, options.DataDirectory, "wrong data directory")
	assert.Equal(t, filepath.Join(dir, "data", "tradechain.leveldb"), options.Database.Name, "wrong database")
	assert.Equal(t, filepath.Join(dir, "log"), options.Logging.Directory, "wrong log directory")
	assert.Equal(t, []string{"127.0.0.1:8000"}, options.API.Listen, "wrong listen")
	assert.Equal(t, float64(200), options.API.RequestRate, "wrong rate")
	assert.Equal(t, 100, options.API.RequestBurst, "wrong burst")
	assert.Equal(t, 30, options.API.AuthTimeout, "wrong auth timeout")
	assert.Equal(t, []string{"http://localhost:5500"}, options.API.AllowedOrigins, "wrong origins")
	assert.Equal(t, "chat", options.Broker.Prefix, "wrong prefix")

	info, err := os.Stat(filepath.Join(dir, "data"))
	assert.Nil(t, err, "database directory not created")
	assert.True(t, info.IsDir(), "database path not a directory")
}

func TestMinimalConfiguration(t *testing.T) {
	fileName, teardown := setupDirectory(t, `return { data_directory = "." }`)
	defer teardown()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "minimal configuration rejected")
	assert.Equal(t, []string{defaultListen}, options.API.Listen, "wrong default listen")
	assert.Equal(t, broker.ModeNone, options.Broker.Mode, "wrong default broker")
	assert.Equal(t, broker.DefaultPrefix, options.Broker.Prefix, "wrong default prefix")
	assert.Equal(t, "", options.PidFile, "unexpected pid file")
}

func TestConfigurationPaths(t *testing.T) {
	fileName, teardown := setupDirectory(t, `return {
    data_directory = ".",
    pidfile = "run/tradechaind.pid",
    api = {
        listen = { "*:8443" },
        certificate = "api.crt",
        private_key = "/etc/api.key",
    },
}`)
	defer teardown()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "configuration rejected")

	dir := filepath.Dir(fileName)
	assert.Equal(t, filepath.Join(dir, "run", "tradechaind.pid"), options.PidFile, "pid file not absolute")
	assert.Equal(t, filepath.Join(dir, "api.crt"), options.API.Certificate, "certificate not absolute")
	assert.Equal(t, "/etc/api.key", options.API.PrivateKey, "absolute key changed")
}

func TestConfigurationRejects(t *testing.T) {
	items := []struct {
		name string
		text string
	}{
		{"no data directory", `return { }`},
		{"home data directory", `return { data_directory = "~" }`},
		{"missing data directory", `return { data_directory = "/no/such/tradechaind" }`},
		{"empty listen", `return { data_directory = ".", api = { listen = { "" } } }`},
		{"certificate alone", `return { data_directory = ".", api = { certificate = "api.crt" } }`},
		{"database path", `return { data_directory = ".", database = { name = "x/y.leveldb" } }`},
		{"log path", `return { data_directory = ".", logging = { file = "x/y.log" } }`},
		{"not a table", `return 42`},
	}

	for _, item := range items {
		fileName, teardown := setupDirectory(t, item.text)
		_, err := getConfiguration(fileName)
		assert.NotNil(t, err, item.name)
		teardown()
	}
}

type fakeServer struct {
	rate  float64
	burst int
}

func (f *fakeServer) SetLimits(requestRate float64, burst int) {
	f.rate = requestRate
	f.burst = burst
}

type fakeMachine struct {
	window int
}

func (f *fakeMachine) SetCancelWindow(seconds int) {
	f.window = seconds
}

func TestReloaderApply(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	fileName, teardown := setupDirectory(t, `return {
    data_directory = ".",
    api = { request_rate = 5, request_burst = 7, cancel_window = 60 },
}`)
	defer teardown()

	watcher, err := configuration.NewWatcher(fileName)
	assert.Nil(t, err, "watcher error")

	server := &fakeServer{}
	machine := &fakeMachine{}
	r := newReloader(fileName, watcher, server, machine)
	r.apply()

	assert.Equal(t, float64(5), server.rate, "rate not applied")
	assert.Equal(t, 7, server.burst, "burst not applied")
	assert.Equal(t, 60, machine.window, "window not applied")

	// a broken file leaves the running values alone
	err = ioutil.WriteFile(fileName, []byte(`return {`), 0600)
	assert.Nil(t, err, "rewrite error")
	r.apply()
	assert.Equal(t, float64(5), server.rate, "rate changed by bad file")
	assert.Equal(t, 60, machine.window, "window changed by bad file")
}

func TestSelfSignedCertificate(t *testing.T) {
	dir, err := ioutil.TempDir("", "tradechaind-cert-")
	assert.Nil(t, err, "temp dir error")
	defer os.RemoveAll(dir)

	certificate := getFilenameWithDirectory([]string{dir}, apiCertificateFilename)
	key := getFilenameWithDirectory([]string{dir}, apiPrivateKeyFilename)

	err = makeSelfSignedCertificate("api", certificate, key, false, nil)
	assert.Nil(t, err, "certificate error")

	info, err := os.Stat(key)
	assert.Nil(t, err, "key missing")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "key readable by others")

	err = makeSelfSignedCertificate("api", certificate, key, false, nil)
	assert.Equal(t, fault.CertificateFileAlreadyExists, err, "existing certificate overwritten")

	assert.Nil(t, os.Remove(certificate), "remove certificate error")
	err = makeSelfSignedCertificate("api", certificate, key, false, nil)
	assert.Equal(t, fault.KeyFileAlreadyExists, err, "existing key overwritten")
}
