// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"github.com/luxfi/database"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/bridge/vms/bridgevm/config"
	"github.com/luxfi/bridge/vms/bridgevm/custody"
	"github.com/luxfi/bridge/vms/bridgevm/metrics"
)

// Factory creates bridge engines from serialized configuration
type Factory struct {
	// Config is the JSON engine configuration. Empty means defaults.
	Config []byte
}

// New returns a bridge engine backed by db. A nil custody factory selects
// the built-in ledger.
func (f *Factory) New(
	db database.Database,
	custodyFactory custody.Factory,
	registry metric.Registry,
	logger log.Logger,
) (*Bridge, error) {
	cfg, err := config.GetConfig(f.Config)
	if err != nil {
		return nil, err
	}
	if custodyFactory == nil {
		custodyFactory = custody.LedgerFactory()
	}
	m, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}
	return New(cfg, db, custodyFactory, m, logger)
}
