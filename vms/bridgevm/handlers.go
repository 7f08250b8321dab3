// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"net/http"

	"github.com/gorilla/rpc/v2"

	"github.com/luxfi/bridge/utils/json"
)

// CreateHandlers returns the bridge's JSON-RPC handlers keyed by path
// extension. The admin service is only served when adminEnabled is set.
func (b *Bridge) CreateHandlers(adminEnabled bool) (map[string]http.Handler, error) {
	rpcServer := b.newRPCServer()
	// name this service "bridge"
	if err := rpcServer.RegisterService(&Service{bridge: b}, "bridge"); err != nil {
		return nil, err
	}
	handlers := map[string]http.Handler{
		"": rpcServer,
	}
	if !adminEnabled {
		return handlers, nil
	}

	adminServer := b.newRPCServer()
	if err := adminServer.RegisterService(&AdminService{bridge: b}, "admin"); err != nil {
		return nil, err
	}
	handlers["/admin"] = adminServer
	return handlers, nil
}

func (b *Bridge) newRPCServer() *rpc.Server {
	codec := json.NewCodec()
	server := rpc.NewServer()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	server.RegisterInterceptFunc(b.metrics.InterceptRequest)
	server.RegisterAfterFunc(b.metrics.AfterRequest)
	return server
}
