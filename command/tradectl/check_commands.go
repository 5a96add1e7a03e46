// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/bitmark-inc/tradechaind/fault"
)

var (
	ErrRequiredDatabase   = fault.InvalidError("database is required")
	ErrRequiredDigest     = fault.InvalidError("digest is required")
	ErrRequiredJSON       = fault.InvalidError("json or file is required")
	ErrRequiredPrivateKey = fault.InvalidError("private key is required")
	ErrRequiredPublicKey  = fault.InvalidError("public key is required")
	ErrRequiredSignature  = fault.InvalidError("signature is required")
	ErrRequiredTradeID    = fault.InvalidError("trade id is required")
	ErrSignatureMismatch  = fault.InvalidError("signature does not match")
)

func checkRequired(value string, err error) (string, error) {
	if "" == value {
		return "", err
	}
	return value, nil
}

// the database must already exist, tradectl never creates one
func checkDatabase(name string) (string, error) {
	if "" == name {
		return "", ErrRequiredDatabase
	}
	name = os.ExpandEnv(name)
	if _, err := os.Stat(name); nil != err {
		return "", err
	}
	return name, nil
}
