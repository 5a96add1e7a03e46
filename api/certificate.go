// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"crypto/tls"
	"encoding/hex"
	"io/ioutil"

	"github.com/bitmark-inc/logger"
	"golang.org/x/crypto/sha3"
)

// LoadCertificate - read a PEM certificate and key pair
//
// returns the TLS configuration and the certificate fingerprint
func LoadCertificate(log *logger.L, certificateFile string, keyFile string) (*tls.Config, string, error) {
	certificate, err := ioutil.ReadFile(certificateFile)
	if nil != err {
		log.Errorf("read certificate: %q  error: %s", certificateFile, err)
		return nil, "", err
	}
	key, err := ioutil.ReadFile(keyFile)
	if nil != err {
		log.Errorf("read private key: %q  error: %s", keyFile, err)
		return nil, "", err
	}

	keyPair, err := tls.X509KeyPair(certificate, key)
	if nil != err {
		log.Errorf("failed to load keypair: %s", err)
		return nil, "", err
	}

	tlsConfiguration := &tls.Config{
		Certificates: []tls.Certificate{
			keyPair,
		},
		MinVersion: tls.VersionTLS12,
	}

	return tlsConfiguration, fingerprint(keyPair.Certificate[0]), nil
}

// fingerprint - compute the fingerprint of a certificate
//
// openssl x509 -outform DER -in api.crt | sha3sum -a 256
func fingerprint(certificate []byte) string {
	sum := sha3.Sum256(certificate)
	return hex.EncodeToString(sum[:])
}
