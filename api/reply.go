// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/bitmark-inc/tradechaind/fault"
)

// maximum accepted request body
const maximumBodySize = 1 << 20

// decode a JSON request body into a structure
func readBody(w http.ResponseWriter, r *http.Request, body interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maximumBodySize))
	if err := decoder.Decode(body); nil != err {
		return fault.InvalidBody
	}
	return nil
}

func sendReply(w http.ResponseWriter, data interface{}) {
	text, err := json.Marshal(data)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(text)
}

// selected errors
func sendNotFound(w http.ResponseWriter) {
	sendError(w, "not found", http.StatusNotFound)
}
func sendMethodNotAllowed(w http.ResponseWriter) {
	sendError(w, "method not allowed", http.StatusMethodNotAllowed)
}
func sendTooManyRequests(w http.ResponseWriter) {
	sendError(w, "Too Many Requests", http.StatusTooManyRequests)
}
func sendInternalServerError(w http.ResponseWriter) {
	sendError(w, "internal server error", http.StatusInternalServerError)
}

// map a fault onto a status code
//
// validation faults are the caller's problem, everything else is ours
func sendFault(w http.ResponseWriter, err error) {
	switch {
	case fault.IsErrNotFound(err):
		sendError(w, err.Error(), http.StatusNotFound)
	case fault.IsValidation(err):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		sendInternalServerError(w)
	}
}

// to compose JSON error messages
type eType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, message string, code int) {
	text, err := json.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		// manually composed error just incase JSON fails
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(text)
}
