// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package util - path helpers for the configuration of the commands
package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureAbsolute - a clean absolute path, relative paths are taken
// from directory
func EnsureAbsolute(directory string, filePath string) string {
	if filepath.IsAbs(filePath) {
		return filepath.Clean(filePath)
	}
	return filepath.Join(directory, filePath)
}

// EnsureFileExists - check if file exists
func EnsureFileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

// EnsureDirectory - create a private directory and any missing parents
func EnsureDirectory(directory string) error {
	return os.MkdirAll(directory, 0700)
}

// CheckDirectory - error unless name is an existing directory
func CheckDirectory(name string) error {
	info, err := os.Stat(name)
	if nil != err {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path: %q is not a directory", name)
	}
	return nil
}

// IsPlainName - true if name has no directory part
func IsPlainName(name string) bool {
	switch filepath.Dir(name) {
	case "", ".":
		return "" != name && "." != name && ".." != name
	default:
		return false
	}
}
