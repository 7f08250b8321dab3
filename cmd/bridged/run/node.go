// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/bridge/api/health"
	"github.com/luxfi/bridge/api/metrics"
	"github.com/luxfi/bridge/api/server"
	"github.com/luxfi/bridge/utils/profiler"
	"github.com/luxfi/bridge/utils/wrappers"

	bvm "github.com/luxfi/bridge/vms/bridgevm"
)

const (
	bridgeNamespace = "bridge"
	httpNamespace   = "http"
	healthNamespace = "health"
	nodeNamespace   = "node"

	bridgeEndpoint  = "bridge"
	metricsEndpoint = "metrics"
	healthEndpoint  = "health"

	bridgeCheck = "bridge"
)

// Node is a running bridge daemon: the engine over an on-disk database and
// the HTTP server exposing its API, metrics and health.
type Node struct {
	log      log.Logger
	db       database.Database
	bridge   *bvm.Bridge
	server   server.Server
	listener net.Listener
	profiler *profiler.Continuous
}

// New opens the database, initializes the bridge from the configured genesis
// if the database is empty, and binds the HTTP listener. The node does not
// serve until Run is called.
func New(config *Config, logger log.Logger) (*Node, error) {
	db, err := badgerdb.New(config.DataDir, nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", config.DataDir, err)
	}

	n, err := newNode(config, db, logger)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return n, nil
}

func newNode(config *Config, db database.Database, logger log.Logger) (*Node, error) {
	gatherer := metrics.NewPrefixGatherer()
	bridgeRegistry, err := metrics.MakeAndRegister(gatherer, bridgeNamespace)
	if err != nil {
		return nil, err
	}
	httpRegistry, err := metrics.MakeAndRegister(gatherer, httpNamespace)
	if err != nil {
		return nil, err
	}
	healthRegistry, err := metrics.MakeAndRegister(gatherer, healthNamespace)
	if err != nil {
		return nil, err
	}
	nodeRegistry, err := metrics.MakeAndRegister(gatherer, nodeNamespace)
	if err != nil {
		return nil, err
	}
	err = errors.Join(
		nodeRegistry.Register(metric.NewGoCollector()),
		nodeRegistry.Register(metric.NewProcessCollector(metric.ProcessCollectorOpts{})),
	)
	if err != nil {
		return nil, err
	}

	factory := &bvm.Factory{Config: config.EngineConfig}
	bridge, err := factory.New(db, nil, bridgeRegistry, logger)
	if err != nil {
		return nil, err
	}
	if len(config.Genesis) != 0 {
		genesis, err := bvm.ParseGenesis(config.Genesis)
		if err != nil {
			return nil, err
		}
		applied, err := bridge.ApplyGenesis(genesis)
		if err != nil {
			return nil, fmt.Errorf("failed to apply genesis: %w", err)
		}
		if !applied {
			logger.Info("bridge already initialized, ignoring genesis")
		}
	}

	healthChecks := health.New(logger, healthRegistry)
	if err := healthChecks.RegisterHealthCheck(bridgeCheck, bridge, health.ApplicationTag); err != nil {
		return nil, err
	}

	address := net.JoinHostPort(config.HTTPHost, strconv.FormatUint(uint64(config.HTTPPort), 10))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %q: %w", address, err)
	}
	srv, err := server.New(
		logger,
		listener,
		config.AllowedOrigins,
		config.ShutdownTimeout,
		httpRegistry,
		config.HTTPConfig,
		config.AllowedHosts,
	)
	if err != nil {
		return nil, errors.Join(err, listener.Close())
	}

	handlers, err := bridge.CreateHandlers(config.AdminAPIEnabled)
	if err != nil {
		return nil, errors.Join(err, listener.Close())
	}
	errs := wrappers.Errs{}
	for endpoint, handler := range handlers {
		errs.Add(srv.AddRoute(handler, bridgeEndpoint, endpoint))
	}
	errs.Add(
		srv.AddRoute(metric.HTTPHandler(gatherer, metric.HTTPHandlerOpts{}), metricsEndpoint, ""),
		srv.AddRoute(health.NewGetHandler(healthChecks), healthEndpoint, ""),
	)
	if errs.Errored() {
		return nil, errors.Join(errs.Err, listener.Close())
	}

	n := &Node{
		log:      logger,
		db:       db,
		bridge:   bridge,
		server:   srv,
		listener: listener,
	}
	if config.Profiler.Enabled {
		n.profiler = profiler.NewContinuous(config.Profiler, logger)
	}
	return n, nil
}

// Addr is the address the HTTP server listens on.
func (n *Node) Addr() net.Addr {
	return n.listener.Addr()
}

// Run serves until ctx is cancelled or the server fails, then shuts the
// server down and closes the database.
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n.log.Info("serving bridge API",
			log.Stringer("address", n.listener.Addr()),
		)
		if err := n.server.Dispatch(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return n.server.Shutdown()
	})
	if n.profiler != nil {
		g.Go(func() error {
			return n.profiler.Dispatch(ctx)
		})
	}

	errs := wrappers.Errs{}
	errs.Add(
		g.Wait(),
		n.db.Close(),
	)
	n.log.Info("bridge stopped")
	return errs.Err
}
