// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type IntegrityError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised           = ExistsError("already initialised")
	BrokerNotConnected           = ProcessError("broker not connected")
	BuyerAlreadyJoined           = ExistsError("another buyer has already joined the trade")
	BuyerNotJoined               = InvalidError("buyer has not joined the trade")
	CertificateFileAlreadyExists = ExistsError("certificate file already exists")
	ChainBroken                  = IntegrityError("blockchain broken: prev_hash mismatch")
	ChainCorrupt                 = IntegrityError("blockchain corrupt")
	ConfigurationNotTable        = InvalidError("configuration did not return a table")
	DatabaseIsNotSet             = ProcessError("database is not set")
	DatabaseVersion              = IntegrityError("database version is newer than supported")
	DuplicateTrade               = ExistsError("trade already exists")
	FileNotFound                 = NotFoundError("file not found")
	HashMismatch                 = InvalidError("hash mismatch")
	InvalidBody                  = InvalidError("invalid request body")
	InvalidBrokerMode            = InvalidError("invalid broker mode")
	InvalidLoggerChannel         = ProcessError("invalid logger channel")
	InvalidSignature             = InvalidError("invalid signature")
	InvalidState                 = InvalidError("trade is not open")
	InvalidStructPointer         = InvalidError("invalid struct pointer")
	KeyFileAlreadyExists         = ExistsError("key file already exists")
	MissingParameters            = InvalidError("missing parameters")
	NonCanonicalizableValue      = IntegrityError("value cannot be canonically serialised")
	NotInitialised               = NotFoundError("not initialised")
	NotParticipant               = InvalidError("user is not a participant in this trade")
	RateLimiting                 = InvalidError("rate limiting")
	TradeNotFound                = NotFoundError("trade not found")
	UnknownBlockType             = InvalidError("unknown block type")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string    { return string(e) }
func (e IntegrityError) Error() string { return string(e) }
func (e InvalidError) Error() string   { return string(e) }
func (e NotFoundError) Error() string  { return string(e) }
func (e ProcessError) Error() string   { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool    { _, ok := e.(ExistsError); return ok }
func IsErrIntegrity(e error) bool { _, ok := e.(IntegrityError); return ok }
func IsErrInvalid(e error) bool   { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool  { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool   { _, ok := e.(ProcessError); return ok }

// IsValidation - true for errors that reject a request without any
// state change, i.e. the caller sent something wrong
func IsValidation(e error) bool {
	return IsErrExists(e) || IsErrInvalid(e) || IsErrNotFound(e)
}
