// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// Genesis is the initial configuration of a bridge.
type Genesis struct {
	Admin        ids.ShortID        `json:"admin"`
	FeeCollector ids.ShortID        `json:"feeCollector"`
	Validators   []GenesisValidator `json:"validators"`
	Threshold    uint32             `json:"threshold"`
	Chains       []GenesisChain     `json:"chains"`
	Assets       []GenesisAsset     `json:"assets"`
	// Balances seed the custody ledger. Only meaningful when the bridge
	// runs its own ledger, as on development networks.
	Balances []GenesisBalance `json:"balances"`
}

type GenesisValidator struct {
	ID ids.ShortID `json:"id"`
	// PublicKey is the hex-encoded Ed25519 vote key.
	PublicKey string `json:"publicKey"`
}

type GenesisChain struct {
	ChainID           uint32 `json:"chainID"`
	MinConfirmations  uint32 `json:"minConfirmations"`
	MaxTransferAmount uint64 `json:"maxTransferAmount"`
	DailyLimit        uint64 `json:"dailyLimit"`
	FeeBps            uint32 `json:"feeBps"`
	ExpirySeconds     uint64 `json:"expirySeconds"`
}

type GenesisAsset struct {
	Asset            ids.ID `json:"asset"`
	ChainID          uint32 `json:"chainID"`
	ExternalContract string `json:"externalContract"`
	HomeDecimals     uint8  `json:"homeDecimals"`
	ExternalDecimals uint8  `json:"externalDecimals"`
}

type GenesisBalance struct {
	Asset  ids.ID      `json:"asset"`
	Holder ids.ShortID `json:"holder"`
	Amount uint64      `json:"amount"`
}

func ParseGenesis(b []byte) (*Genesis, error) {
	g := &Genesis{}
	if err := json.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis: %w", err)
	}
	return g, nil
}

// ApplyGenesis initializes the bridge from g in a single operation. It
// returns false without error if the bridge was already initialized.
func (b *Bridge) ApplyGenesis(g *Genesis) (bool, error) {
	validators := make([]ids.ShortID, len(g.Validators))
	pubkeys := make([][]byte, len(g.Validators))
	for i, v := range g.Validators {
		pubkey, err := decodeHex(v.PublicKey)
		if err != nil {
			return false, fmt.Errorf("%w: validator %s: %w", codes.ErrInvalidPubkeys, v.ID, err)
		}
		validators[i] = v.ID
		pubkeys[i] = pubkey
	}

	err := b.execute("applyGenesis", func(t *tx) error {
		if err := t.initialize(g.Admin, g.FeeCollector, validators, g.Threshold, pubkeys); err != nil {
			return err
		}
		for _, c := range g.Chains {
			if err := t.configureChain(g.Admin, ChainParams{
				ChainID:           state.ChainID(c.ChainID),
				MinConfirmations:  c.MinConfirmations,
				MaxTransferAmount: c.MaxTransferAmount,
				DailyLimit:        c.DailyLimit,
				FeeBps:            c.FeeBps,
				ExpirySeconds:     c.ExpirySeconds,
			}); err != nil {
				return fmt.Errorf("chain %d: %w", c.ChainID, err)
			}
		}
		for _, a := range g.Assets {
			contract, err := decodeHex(a.ExternalContract)
			if err != nil {
				return fmt.Errorf("asset %s: %w", a.Asset, err)
			}
			if err := t.registerAsset(g.Admin, AssetParams{
				Asset:            a.Asset,
				ChainID:          state.ChainID(a.ChainID),
				ExternalContract: contract,
				HomeDecimals:     a.HomeDecimals,
				ExternalDecimals: a.ExternalDecimals,
			}); err != nil {
				return fmt.Errorf("asset %s: %w", a.Asset, err)
			}
		}
		for _, bal := range g.Balances {
			if err := t.custody.Mint(bal.Asset, bal.Holder, bal.Amount); err != nil {
				return fmt.Errorf("balance of %s: %w", bal.Holder, err)
			}
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, codes.ErrAlreadyInitialized):
		return false, nil
	default:
		return false, err
	}

	b.log.Info("applied genesis",
		log.Stringer("admin", g.Admin),
		log.Int("validators", len(validators)),
		log.Uint32("threshold", g.Threshold),
		log.Int("chains", len(g.Chains)),
		log.Int("assets", len(g.Assets)),
	)
	return true, nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
