// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// cross origin access for the listed browser origins, "*" allows any
type origins map[string]struct{}

func newOrigins(allowed []string) origins {
	o := make(origins, len(allowed))
	for _, a := range allowed {
		a = strings.TrimRight(strings.TrimSpace(a), "/")
		if "" != a {
			o[a] = struct{}{}
		}
	}
	return o
}

func (o origins) allowed(origin string) bool {
	if _, ok := o["*"]; ok {
		return true
	}
	_, ok := o[origin]
	return ok
}

// middleware adding the CORS headers and answering preflight requests
func (o origins) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if "" == origin || 0 == len(o) || !o.allowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if http.MethodOptions == r.Method && "" != r.Header.Get("Access-Control-Request-Method") {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
