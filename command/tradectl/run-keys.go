// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/tradechaind/signature"
)

func runKeygen(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	keys, err := signature.NewKeyPair()
	if nil != err {
		return err
	}

	return printJSON(m.w, keys)
}

func runSign(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	privateKey, err := checkRequired(c.String("key"), ErrRequiredPrivateKey)
	if nil != err {
		return err
	}
	digest, err := checkRequired(c.String("digest"), ErrRequiredDigest)
	if nil != err {
		return err
	}

	sig, err := signature.Sign(privateKey, digest)
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "signed digest: %s\n", digest)
	}

	out := struct {
		Digest    string `json:"digest"`
		Signature string `json:"signature"`
	}{
		Digest:    digest,
		Signature: sig,
	}
	return printJSON(m.w, out)
}

func runVerifySignature(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	publicKey, err := checkRequired(c.String("public"), ErrRequiredPublicKey)
	if nil != err {
		return err
	}
	digest, err := checkRequired(c.String("digest"), ErrRequiredDigest)
	if nil != err {
		return err
	}
	sig, err := checkRequired(c.String("signature"), ErrRequiredSignature)
	if nil != err {
		return err
	}

	if !signature.Verify(publicKey, digest, sig) {
		return ErrSignatureMismatch
	}

	out := struct {
		Valid bool `json:"valid"`
	}{
		Valid: true,
	}
	return printJSON(m.w, out)
}
