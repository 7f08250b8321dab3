// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/utils/math"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// FullBackingBps is a backing ratio of 100%.
const FullBackingBps = 10_000

type AssetParams struct {
	Asset            ids.ID
	ChainID          state.ChainID
	ExternalContract []byte
	HomeDecimals     uint8
	ExternalDecimals uint8
}

// RegisterAsset makes asset bridgeable to an active chain.
func (b *Bridge) RegisterAsset(caller ids.ShortID, params AssetParams) error {
	err := b.update("registerAsset", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		if err := t.requireNotPaused(); err != nil {
			return err
		}
		return t.registerAsset(caller, params)
	})
	if err == nil {
		b.log.Info("registered asset",
			log.Stringer("asset", params.Asset),
			log.Stringer("chain", params.ChainID),
		)
	}
	return err
}

func (t *tx) registerAsset(caller ids.ShortID, params AssetParams) error {
	registered, err := t.state.HasAsset(params.Asset, params.ChainID)
	if err != nil {
		return err
	}
	if registered {
		return fmt.Errorf("%w: %s on %s", codes.ErrAssetAlreadyRegistered, params.Asset, params.ChainID)
	}
	if _, err := t.activeChain(params.ChainID); err != nil {
		return err
	}

	if err := t.state.PutAsset(&state.WrappedAsset{
		Asset:            params.Asset,
		ChainID:          params.ChainID,
		ExternalContract: params.ExternalContract,
		HomeDecimals:     params.HomeDecimals,
		ExternalDecimals: params.ExternalDecimals,
		IsActive:         true,
		BackingRatioBps:  FullBackingBps,
	}); err != nil {
		return err
	}
	return t.emit(&state.Event{
		Type:    state.EventAssetRegistered,
		Actor:   caller,
		Asset:   params.Asset,
		ChainID: params.ChainID,
	})
}

// SetAssetActive enables or disables new requests for an asset. Pending
// requests can still settle.
func (b *Bridge) SetAssetActive(caller ids.ShortID, asset ids.ID, chain state.ChainID, active bool) error {
	return b.update("setAssetActive", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		a, err := t.state.GetAsset(asset, chain)
		if err != nil {
			return notFound(err, codes.ErrAssetNotRegistered)
		}
		a.IsActive = active
		if err := t.state.PutAsset(a); err != nil {
			return err
		}
		return t.emit(&state.Event{
			Type:    state.EventAssetStatusChanged,
			Actor:   caller,
			Asset:   asset,
			ChainID: chain,
			Flag:    active,
		})
	})
}

func (b *Bridge) GetWrappedAsset(asset ids.ID, chain state.ChainID) (*state.WrappedAsset, error) {
	var a *state.WrappedAsset
	err := b.view(func(s *state.State) error {
		var err error
		a, err = s.GetAsset(asset, chain)
		return notFound(err, codes.ErrAssetNotRegistered)
	})
	return a, err
}

// CheckBackingRatio returns the asset's current backing ratio in basis
// points.
func (b *Bridge) CheckBackingRatio(asset ids.ID, chain state.ChainID) (uint64, error) {
	a, err := b.GetWrappedAsset(asset, chain)
	if err != nil {
		return 0, err
	}
	return BackingRatio(a.TotalLocked, a.TotalMinted), nil
}

// ConvertAmount rescales amount between the home and external decimals of
// a registered asset.
func (b *Bridge) ConvertAmount(asset ids.ID, chain state.ChainID, amount uint64, toHome bool) (uint64, error) {
	a, err := b.GetWrappedAsset(asset, chain)
	if err != nil {
		return 0, err
	}
	var converted uint64
	if toHome {
		converted, err = a.ToHome(amount)
	} else {
		converted, err = a.ToExternal(amount)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", codes.ErrArithmeticOverflow, err)
	}
	return converted, nil
}

// BackingRatio returns locked*10000/minted, or 10000 when nothing is minted.
// A ratio too large for a uint64 saturates.
func BackingRatio(locked, minted uint64) uint64 {
	if minted == 0 {
		return FullBackingBps
	}
	ratio, err := math.MulDiv(locked, FullBackingBps, minted)
	if err != nil {
		return math.MaxUint[uint64]()
	}
	return ratio
}

// activeAsset loads asset and checks that it accepts new requests.
func (t *tx) activeAsset(asset ids.ID, chain state.ChainID) (*state.WrappedAsset, error) {
	a, err := t.state.GetAsset(asset, chain)
	if err != nil {
		return nil, notFound(err, codes.ErrAssetNotRegistered)
	}
	if !a.IsActive {
		return nil, fmt.Errorf("%w: %s on %s", codes.ErrAssetInactive, asset, chain)
	}
	return a, nil
}

// lockCollateral records amount entering custody for an outbound request.
func lockCollateral(a *state.WrappedAsset, amount uint64) error {
	locked, err := math.Add(a.TotalLocked, amount)
	if err != nil {
		return fmt.Errorf("%w: total locked", codes.ErrArithmeticOverflow)
	}
	a.TotalLocked = locked
	a.BackingRatioBps = BackingRatio(a.TotalLocked, a.TotalMinted)
	return nil
}

// mintAgainstCollateral records net new wrapped supply and fails if the
// supply would exceed the locked collateral.
func mintAgainstCollateral(a *state.WrappedAsset, net uint64) error {
	minted, err := math.Add(a.TotalMinted, net)
	if err != nil {
		return fmt.Errorf("%w: total minted", codes.ErrArithmeticOverflow)
	}
	ratio := BackingRatio(a.TotalLocked, minted)
	if ratio < FullBackingBps {
		return fmt.Errorf("%w: %d bps after minting %d", codes.ErrBackingRatioBroken, ratio, net)
	}
	a.TotalMinted = minted
	a.BackingRatioBps = ratio
	return nil
}

// unwindCollateral reverses an outbound lock. It never goes below zero.
func unwindCollateral(a *state.WrappedAsset, amount uint64) {
	a.TotalLocked = math.SaturatingSub(a.TotalLocked, amount)
	a.BackingRatioBps = BackingRatio(a.TotalLocked, a.TotalMinted)
}
