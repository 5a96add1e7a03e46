// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bitmark-inc/tradechaind/chat"
	"github.com/bitmark-inc/tradechaind/fault"
	"github.com/bitmark-inc/tradechaind/ledger"
	"github.com/bitmark-inc/tradechaind/trade"
)

const (
	apiLogName = "api"

	readTimeout     = 10 * time.Second
	shutdownTimeout = 5 * time.Second

	// DefaultAuthTimeout - seconds a chat socket may wait before authenticating
	DefaultAuthTimeout = 30
)

// Configuration - configuration file data for the API server
type Configuration struct {
	Listen       []string `gluamapper:"listen" json:"listen"`
	Certificate  string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey   string   `gluamapper:"private_key" json:"private_key"`
	RequestRate  float64  `gluamapper:"request_rate" json:"request_rate"`
	RequestBurst int      `gluamapper:"request_burst" json:"request_burst"`
	AuthTimeout  int      `gluamapper:"auth_timeout" json:"auth_timeout"`
	CancelWindow int      `gluamapper:"cancel_window" json:"cancel_window"`

	// browser origins allowed cross origin access
	AllowedOrigins []string `gluamapper:"allowed_origins" json:"allowed_origins"`
}

// Server - routes requests to the trade machine, the ledger and the
// chat registry
type Server struct {
	log         *logger.L
	machine     *trade.Machine
	engine      *ledger.Engine
	registry    *chat.Registry
	limiters    *limiters
	origins     origins
	authTimeout time.Duration
	listen      []string
	tlsConfig   *tls.Config
	router      chi.Router

	// closed on shutdown to end the chat sockets
	closing chan struct{}
}

// New - create a server
//
// tlsConfig may be nil to serve plain HTTP
func New(configuration *Configuration, machine *trade.Machine, engine *ledger.Engine, registry *chat.Registry, tlsConfig *tls.Config) (*Server, error) {
	if nil == machine || nil == engine || nil == registry {
		return nil, fault.MissingParameters
	}

	authTimeout := configuration.AuthTimeout
	if authTimeout <= 0 {
		authTimeout = DefaultAuthTimeout
	}

	s := &Server{
		log:         logger.New(apiLogName),
		machine:     machine,
		engine:      engine,
		registry:    registry,
		limiters:    newLimiters(configuration.RequestRate, configuration.RequestBurst),
		origins:     newOrigins(configuration.AllowedOrigins),
		authTimeout: time.Duration(authTimeout) * time.Second,
		listen:      configuration.Listen,
		tlsConfig:   tlsConfig,
		closing:     make(chan struct{}),
	}
	s.router = s.routes()

	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.origins.handler)
	r.Use(s.limiters.handler)

	r.Route("/trade", func(r chi.Router) {
		r.Get("/list", s.listTrades)
		r.Post("/create", s.createTrade)
		r.Post("/complete", s.completeTrade)
		r.Post("/cancel", s.cancelTrade)
		r.Get("/{tradeID}", s.getTrade)
		r.Post("/{tradeID}/join", s.joinTrade)
		r.Get("/{tradeID}/chat-info", s.chatInfo)
		r.Post("/{tradeID}/update-chat-pubkey", s.updateChatPubkey)
		r.Get("/{tradeID}/peer-chat-pubkey/{identity}", s.peerChatPubkey)
	})

	r.Route("/blocks", func(r chi.Router) {
		r.Get("/export", s.exportBlocks)
		r.Get("/verify", s.verifyBlocks)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Get("/history/{tradeID}", s.chatHistory)
		r.Get("/room/{tradeID}", s.chatRoom)
	})

	r.Get("/ws/chat/{tradeID}", s.chatSocket)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendMethodNotAllowed(w)
	})

	return r
}

// Handler - the complete routing tree
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetLimits - change the request rate of every remote
func (s *Server) SetLimits(requestRate float64, burst int) {
	s.log.Infof("request rate: %f  burst: %d", requestRate, burst)
	s.limiters.set(requestRate, burst)
}

// Run - background process serving every listen address until shutdown
func (s *Server) Run(args interface{}, shutdown <-chan struct{}) {
	log := s.log

	servers := make([]*http.Server, 0, len(s.listen))
	for _, listen := range s.listen {
		if '*' == listen[0] {
			// change "*:PORT" to "[::]:PORT"
			// on the assumption that this will listen on tcp4 and tcp6
			listen = "[::]" + ":" + strings.Split(listen, ":")[1]
		}

		server := &http.Server{
			Addr:              listen,
			Handler:           s.router,
			ReadHeaderTimeout: readTimeout,
			MaxHeaderBytes:    1 << 20,
		}

		ln, err := net.Listen("tcp", listen)
		if nil != err {
			log.Errorf("listen on: %q  error: %s", listen, err)
			continue
		}
		if nil != s.tlsConfig {
			cfg := s.tlsConfig.Clone()
			cfg.NextProtos = []string{"http/1.1"}
			ln = tls.NewListener(ln, cfg)
		}

		log.Infof("starting server on: %q  tls: %t", listen, nil != s.tlsConfig)
		servers = append(servers, server)

		go func(server *http.Server, ln net.Listener) {
			err := server.Serve(ln)
			if nil != err && http.ErrServerClosed != err {
				log.Errorf("server on: %q  error: %s", server.Addr, err)
			}
		}(server, ln)
	}

	<-shutdown
	close(s.closing)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, server := range servers {
		if err := server.Shutdown(ctx); nil != err {
			log.Warnf("shutdown of: %q  error: %s", server.Addr, err)
		}
	}
	log.Info("stopped")
}
