// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/tradechaind/util"
)

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/data/trade.leveldb", util.EnsureAbsolute("/data", "trade.leveldb"), "relative not joined")
	assert.Equal(t, "/other/trade.leveldb", util.EnsureAbsolute("/data", "/other/trade.leveldb"), "absolute changed")
	assert.Equal(t, "/data/log", util.EnsureAbsolute("/data", "./x/../log"), "path not cleaned")
}

func TestEnsureDirectoryAndFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "util")
	assert.Nil(t, err, "temp dir error")
	defer os.RemoveAll(dir)

	nested := filepath.Join(dir, "a", "b")
	assert.False(t, util.EnsureFileExists(nested), "directory exists too early")

	err = util.EnsureDirectory(nested)
	assert.Nil(t, err, "mkdir error")
	assert.True(t, util.EnsureFileExists(nested), "directory not created")

	err = util.EnsureDirectory(nested)
	assert.Nil(t, err, "existing directory rejected")
}

func TestCheckDirectory(t *testing.T) {
	dir, err := ioutil.TempDir("", "util")
	assert.Nil(t, err, "temp dir error")
	defer os.RemoveAll(dir)

	assert.Nil(t, util.CheckDirectory(dir), "directory rejected")
	assert.NotNil(t, util.CheckDirectory(filepath.Join(dir, "missing")), "missing directory accepted")

	file := filepath.Join(dir, "file")
	assert.Nil(t, ioutil.WriteFile(file, []byte("x"), 0600), "write error")
	assert.NotNil(t, util.CheckDirectory(file), "plain file accepted")
}

func TestIsPlainName(t *testing.T) {
	assert.True(t, util.IsPlainName("trade.leveldb"), "plain name rejected")
	assert.True(t, util.IsPlainName("./trade.leveldb"), "dot prefix rejected")
	assert.False(t, util.IsPlainName("data/trade.leveldb"), "path accepted")
	assert.False(t, util.IsPlainName("/trade.leveldb"), "absolute path accepted")
	assert.False(t, util.IsPlainName(""), "empty name accepted")
	assert.False(t, util.IsPlainName(".."), "parent accepted")
}
