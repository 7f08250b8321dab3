// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/utils/math"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// MaxFeeBps is a fee of 100%.
const MaxFeeBps = 10_000

// ChainParams are the admin-controlled limits of an external chain.
type ChainParams struct {
	ChainID           state.ChainID
	MinConfirmations  uint32
	MaxTransferAmount uint64
	DailyLimit        uint64
	FeeBps            uint32
	ExpirySeconds     uint64
}

// ConfigureChain creates or replaces the limits of a chain and activates
// it. The chain's current volume window is kept.
func (b *Bridge) ConfigureChain(caller ids.ShortID, params ChainParams) error {
	err := b.update("configureChain", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		return t.configureChain(caller, params)
	})
	if err == nil {
		b.log.Info("configured chain",
			log.Stringer("chain", params.ChainID),
			log.Uint64("maxTransfer", params.MaxTransferAmount),
			log.Uint64("dailyLimit", params.DailyLimit),
			log.Uint32("feeBps", params.FeeBps),
		)
	}
	return err
}

func (t *tx) configureChain(caller ids.ShortID, params ChainParams) error {
	if params.FeeBps > MaxFeeBps {
		return fmt.Errorf("%w: %d bps", codes.ErrInvalidFee, params.FeeBps)
	}

	var (
		volume      uint64
		windowStart = t.now
	)
	existing, err := t.state.GetChain(params.ChainID)
	switch {
	case err == nil:
		volume = existing.DailyVolume
		windowStart = existing.WindowStart
	case !errors.Is(err, database.ErrNotFound):
		return err
	}

	if err := t.state.PutChain(&state.ChainConfig{
		ChainID:           params.ChainID,
		IsActive:          true,
		MinConfirmations:  params.MinConfirmations,
		MaxTransferAmount: params.MaxTransferAmount,
		DailyLimit:        params.DailyLimit,
		DailyVolume:       volume,
		WindowStart:       windowStart,
		FeeBps:            params.FeeBps,
		ExpirySeconds:     params.ExpirySeconds,
	}); err != nil {
		return err
	}
	return t.emit(&state.Event{
		Type:    state.EventChainConfigured,
		Actor:   caller,
		ChainID: params.ChainID,
		Amount:  params.MaxTransferAmount,
		Flag:    true,
	})
}

// SetChainActive enables or disables new requests to and from a chain.
// Pending requests are unaffected.
func (b *Bridge) SetChainActive(caller ids.ShortID, chain state.ChainID, active bool) error {
	return b.update("setChainActive", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		cfg, err := t.state.GetChain(chain)
		if err != nil {
			return notFound(err, codes.ErrChainNotSupported)
		}
		cfg.IsActive = active
		if err := t.state.PutChain(cfg); err != nil {
			return err
		}
		return t.emit(&state.Event{
			Type:    state.EventChainStatusChanged,
			Actor:   caller,
			ChainID: chain,
			Flag:    active,
		})
	})
}

func (b *Bridge) GetChainConfig(chain state.ChainID) (*state.ChainConfig, error) {
	var cfg *state.ChainConfig
	err := b.view(func(s *state.State) error {
		var err error
		cfg, err = s.GetChain(chain)
		return notFound(err, codes.ErrChainNotSupported)
	})
	return cfg, err
}

// activeChain loads chain and checks that it accepts new requests.
func (t *tx) activeChain(chain state.ChainID) (*state.ChainConfig, error) {
	cfg, err := t.state.GetChain(chain)
	if err != nil {
		return nil, notFound(err, codes.ErrChainNotSupported)
	}
	if !cfg.IsActive {
		return nil, fmt.Errorf("%w: %s", codes.ErrChainInactive, chain)
	}
	return cfg, nil
}

func checkMaxTransfer(cfg *state.ChainConfig, amount uint64) error {
	if amount > cfg.MaxTransferAmount {
		return fmt.Errorf("%w: %d > %d", codes.ErrAmountExceedsMax, amount, cfg.MaxTransferAmount)
	}
	return nil
}

// admitVolume refreshes the volume window and checks that amount fits
// within the daily limit. It does not record the volume.
func admitVolume(cfg *state.ChainConfig, amount, now, window uint64) error {
	cfg.RefreshWindow(now, window)
	total, err := math.Add(cfg.DailyVolume, amount)
	if err != nil || total > cfg.DailyLimit {
		return fmt.Errorf("%w: %d used of %d, requested %d",
			codes.ErrDailyLimitExceeded, cfg.DailyVolume, cfg.DailyLimit, amount)
	}
	return nil
}

// CalculateFee splits amount into a fee of feeBps basis points, truncated,
// and the remainder. fee+net always equals amount.
func CalculateFee(amount uint64, feeBps uint32) (fee uint64, net uint64, err error) {
	if feeBps > MaxFeeBps {
		return 0, 0, fmt.Errorf("%w: %d bps", codes.ErrInvalidFee, feeBps)
	}
	fee, err = math.MulDiv(amount, uint64(feeBps), MaxFeeBps)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", codes.ErrArithmeticOverflow, err)
	}
	return fee, amount - fee, nil
}
