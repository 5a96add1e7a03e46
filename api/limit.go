// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/tradechaind/fault"
)

const (
	limiterExpiry  = 10 * time.Minute
	limiterCleanup = 20 * time.Minute

	// longest a request is held back before being refused
	maximumDelay = 2 * time.Second
)

// one token bucket per remote address, idle buckets expire
type limiters struct {
	sync.RWMutex
	limit  rate.Limit
	burst  int
	remote *cache.Cache
}

// a non-positive rate disables limiting
func newLimiters(requestRate float64, burst int) *limiters {
	l := &limiters{
		remote: cache.New(limiterExpiry, limiterCleanup),
	}
	l.set(requestRate, burst)
	return l
}

func toLimit(requestRate float64) rate.Limit {
	if requestRate <= 0 {
		return rate.Inf
	}
	return rate.Limit(requestRate)
}

func (l *limiters) set(requestRate float64, burst int) {
	if burst < 1 {
		burst = 1
	}

	l.Lock()
	l.limit = toLimit(requestRate)
	l.burst = burst
	l.Unlock()

	for _, item := range l.remote.Items() {
		if limiter, ok := item.Object.(*rate.Limiter); ok {
			limiter.SetLimit(toLimit(requestRate))
			limiter.SetBurst(burst)
		}
	}
}

func (l *limiters) get(remote string) *rate.Limiter {
	if item, ok := l.remote.Get(remote); ok {
		l.remote.SetDefault(remote, item)
		return item.(*rate.Limiter)
	}

	l.RLock()
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.RUnlock()

	// a concurrent first request may already have stored one
	if err := l.remote.Add(remote, limiter, cache.DefaultExpiration); nil != err {
		if item, ok := l.remote.Get(remote); ok {
			return item.(*rate.Limiter)
		}
	}
	return limiter
}

// limiting for a single request
func limit(limiter *rate.Limiter) error {
	r := limiter.Reserve()
	if !r.OK() {
		return fault.RateLimiting
	}
	delay := r.Delay()
	if delay > maximumDelay {
		r.Cancel()
		return fault.RateLimiting
	}
	time.Sleep(delay)
	return nil
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if nil != err {
		return r.RemoteAddr
	}
	return host
}

// middleware applying the limiter of the request's remote host
func (l *limiters) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := limit(l.get(remoteHost(r))); nil != err {
			sendTooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
