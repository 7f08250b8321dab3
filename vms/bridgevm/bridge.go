// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bvm implements a threshold-signed bridge between the home ledger
// and external chains. Every exported mutating method runs as a single
// atomic transaction: its writes are committed together when it returns nil
// and discarded when it returns an error.
package bvm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/utils/timer/mockable"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/config"
	"github.com/luxfi/bridge/vms/bridgevm/custody"
	"github.com/luxfi/bridge/vms/bridgevm/metrics"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
	"github.com/luxfi/bridge/vms/bridgevm/state"
	"github.com/luxfi/bridge/vms/bridgevm/threshold"
)

var errNilDependency = errors.New("nil dependency")

// Bridge is the bridge engine. It is safe for concurrent use; operations are
// applied one at a time in the order they acquire the engine's lock.
type Bridge struct {
	config   *config.Config
	policy   threshold.Policy
	verifier *signer.Verifier
	custody  custody.Factory
	metrics  metrics.Metrics
	log      log.Logger

	clock mockable.Clock

	lock sync.RWMutex
	db   database.Database
}

func New(
	cfg *config.Config,
	db database.Database,
	custodyFactory custody.Factory,
	m metrics.Metrics,
	logger log.Logger,
) (*Bridge, error) {
	if cfg == nil || db == nil || custodyFactory == nil || m == nil || logger == nil {
		return nil, errNilDependency
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	verifier, err := signer.NewVerifier(cfg.SignatureCacheSize)
	if err != nil {
		return nil, err
	}
	return &Bridge{
		config:   cfg,
		policy:   threshold.NewPolicy(cfg.LargeTransferMultiplierBps),
		verifier: verifier,
		custody:  custodyFactory,
		metrics:  m,
		log:      logger,
		db:       db,
	}, nil
}

// Clock returns the engine's clock. Tests pin it to drive expiry, volume
// windows, and timelocks.
func (b *Bridge) Clock() *mockable.Clock {
	return &b.clock
}

// tx is the context of one atomic operation.
type tx struct {
	state   *state.State
	custody custody.Backend
	now     uint64
	events  []*state.Event
}

func (t *tx) emit(e *state.Event) error {
	e.Timestamp = t.now
	if err := t.state.AddEvent(e); err != nil {
		return fmt.Errorf("failed to append %s event: %w", e.Type, err)
	}
	t.events = append(t.events, e)
	return nil
}

func (t *tx) requireInitialized() error {
	initialized, err := t.state.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		return codes.ErrNotInitialized
	}
	return nil
}

// update runs fn as an atomic operation on an initialized bridge.
func (b *Bridge) update(op string, fn func(*tx) error) error {
	return b.execute(op, func(t *tx) error {
		if err := t.requireInitialized(); err != nil {
			return err
		}
		return fn(t)
	})
}

func (b *Bridge) execute(op string, fn func(*tx) error) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	vdb := versiondb.New(b.db)
	t := &tx{
		state:   state.New(vdb),
		custody: b.custody(vdb),
		now:     b.clock.Unix(),
	}
	if err := fn(t); err != nil {
		vdb.Abort()
		b.metrics.MarkFailed(op, err)
		b.log.Debug("bridge operation aborted",
			log.String("op", op),
			log.Err(err),
		)
		return err
	}
	if err := vdb.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", op, err)
	}
	for _, e := range t.events {
		b.metrics.Observe(e)
	}
	return nil
}

// view runs fn against committed state.
func (b *Bridge) view(fn func(*state.State) error) error {
	b.lock.RLock()
	defer b.lock.RUnlock()

	s := state.New(b.db)
	initialized, err := s.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		return codes.ErrNotInitialized
	}
	return fn(s)
}

// notFound maps a missing record to coded, passing other errors through.
func notFound(err error, coded *codes.Error) error {
	if errors.Is(err, database.ErrNotFound) {
		return coded
	}
	return err
}
