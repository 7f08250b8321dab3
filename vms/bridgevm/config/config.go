// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/bridge/vms/bridgevm/signer"
	"github.com/luxfi/bridge/vms/bridgevm/threshold"
)

var (
	errTimelockTooShort      = errors.New("upgrade timelock must be at least one second")
	errWindowTooShort        = errors.New("volume window must be at least one second")
	errZeroMultiplier        = errors.New("large transfer multiplier must be positive")
	errInvalidMaxEventsQuery = errors.New("max events per query must be positive")
)

var Default = Config{
	UpgradeTimelock:            48 * time.Hour,
	VolumeWindow:               24 * time.Hour,
	LargeTransferMultiplierBps: threshold.DefaultLargeTransferMultiplierBps,
	SignatureCacheSize:         signer.DefaultCacheSize,
	MaxEventsPerQuery:          1024,
}

// Config provides the tunable parameters of the bridge engine
type Config struct {
	// UpgradeTimelock is the delay between proposing and applying a
	// validator set replacement.
	UpgradeTimelock time.Duration `json:"upgrade-timelock"`
	// VolumeWindow is the length of the rolling window daily limits apply to.
	VolumeWindow time.Duration `json:"volume-window"`
	// LargeTransferMultiplierBps, in basis points of a chain's max transfer
	// amount, is the size above which a transfer needs every validator's
	// approval.
	LargeTransferMultiplierBps uint64 `json:"large-transfer-multiplier-bps"`
	SignatureCacheSize         int    `json:"signature-cache-size"`
	MaxEventsPerQuery          int    `json:"max-events-per-query"`
}

// GetConfig returns a Config
// input is unmarshalled into a Config previously
// initialized with default values
func GetConfig(b []byte) (*Config, error) {
	c := Default

	if len(b) == 0 {
		return &c, nil
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to parse bridge config: %w", err)
	}
	return &c, c.Verify()
}

func (c *Config) Verify() error {
	switch {
	case c.UpgradeTimelock < time.Second:
		return errTimelockTooShort
	case c.VolumeWindow < time.Second:
		return errWindowTooShort
	case c.LargeTransferMultiplierBps == 0:
		return errZeroMultiplier
	case c.MaxEventsPerQuery <= 0:
		return errInvalidMaxEventsQuery
	default:
		return nil
	}
}

// UpgradeTimelockSeconds returns the timelock in whole seconds.
func (c *Config) UpgradeTimelockSeconds() uint64 {
	return uint64(c.UpgradeTimelock / time.Second)
}

// VolumeWindowSeconds returns the volume window in whole seconds.
func (c *Config) VolumeWindowSeconds() uint64 {
	return uint64(c.VolumeWindow / time.Second)
}
