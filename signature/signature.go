// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package signature - Ed25519 signatures over hex digests
//
// encodings agreed with clients:
//   public key: base64 (standard alphabet) of the 32 byte raw key
//   signature:  base64 (standard alphabet) of the 64 byte signature
//   digest:     lower or upper case hex; the signed message is the
//               decoded digest bytes, never the hex text itself
package signature

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/ed25519"

	"github.com/bitmark-inc/tradechaind/fault"
)

// Verifier - checks a signature over a digest, see Verify
type Verifier interface {
	Verify(publicKey string, digest string, signature string) bool
}

// Ed25519 - the production verifier
type Ed25519 struct{}

// Verify - implements Verifier
func (Ed25519) Verify(publicKey string, digest string, signature string) bool {
	return Verify(publicKey, digest, signature)
}

// Verify - true only if signature was made by the private half of
// publicKey over the bytes of digest
//
// any malformed input just gives false
func Verify(publicKey string, digest string, signature string) bool {
	pk, err := base64.StdEncoding.DecodeString(publicKey)
	if nil != err || ed25519.PublicKeySize != len(pk) {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if nil != err || ed25519.SignatureSize != len(sig) {
		return false
	}
	message, err := hex.DecodeString(digest)
	if nil != err {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk), message, sig)
}

// KeyPair - base64 encoded key pair
type KeyPair struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// NewKeyPair - create a random key pair
func NewKeyPair() (*KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if nil != err {
		return nil, err
	}
	return &KeyPair{
		PublicKey:  base64.StdEncoding.EncodeToString(publicKey),
		PrivateKey: base64.StdEncoding.EncodeToString(privateKey),
	}, nil
}

// Sign - sign a hex digest with a base64 encoded private key
//
// the private key may be the 32 byte seed or the full 64 byte key
func Sign(privateKey string, digest string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(privateKey)
	if nil != err {
		return "", err
	}

	var pk ed25519.PrivateKey
	switch len(key) {
	case ed25519.SeedSize:
		pk = ed25519.NewKeyFromSeed(key)
	case ed25519.PrivateKeySize:
		pk = ed25519.PrivateKey(key)
	default:
		return "", fault.InvalidSignature
	}

	message, err := hex.DecodeString(digest)
	if nil != err {
		return "", fault.HashMismatch
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(pk, message)), nil
}
