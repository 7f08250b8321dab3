// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"net/http"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/utils/json"
	"github.com/luxfi/bridge/vms/bridgevm/auth"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// AdminService exposes the admin operations. Every call names its caller and
// is signed by the caller's key. The signature is verified and its call nonce
// spent before the bridge checks the caller against its admin.
type AdminService struct {
	bridge *Bridge
}

func (s *AdminService) logCall(method string, fields ...any) {
	logCall(s.bridge.log, "admin", method, fields...)
}

// authenticate verifies a call to the admin method named method.
func (s *AdminService) authenticate(method string, caller ids.ShortID, args auth.Signable) error {
	return s.bridge.authenticate("admin."+method, caller, args)
}

type SetPauseArgs struct {
	auth.Credential
	Caller ids.ShortID `json:"caller"`
	Paused bool        `json:"paused"`
	Reason string      `json:"reason"`
}

func (s *AdminService) SetPause(_ *http.Request, args *SetPauseArgs, _ *EmptyReply) error {
	s.logCall("setPause", log.Bool("paused", args.Paused))

	if err := s.authenticate("setPause", args.Caller, args); err != nil {
		return rpcError(err)
	}
	return rpcError(s.bridge.SetPause(args.Caller, args.Paused, args.Reason))
}

type SetFeeCollectorArgs struct {
	auth.Credential
	Caller    ids.ShortID `json:"caller"`
	Collector ids.ShortID `json:"collector"`
}

func (s *AdminService) SetFeeCollector(_ *http.Request, args *SetFeeCollectorArgs, _ *EmptyReply) error {
	s.logCall("setFeeCollector", log.Stringer("collector", args.Collector))

	if err := s.authenticate("setFeeCollector", args.Caller, args); err != nil {
		return rpcError(err)
	}
	return rpcError(s.bridge.SetFeeCollector(args.Caller, args.Collector))
}

type ConfigureChainArgs struct {
	auth.Credential
	Caller            ids.ShortID `json:"caller"`
	ChainID           json.Uint32 `json:"chainID"`
	MinConfirmations  json.Uint32 `json:"minConfirmations"`
	MaxTransferAmount json.Uint64 `json:"maxTransferAmount"`
	DailyLimit        json.Uint64 `json:"dailyLimit"`
	FeeBps            json.Uint32 `json:"feeBps"`
	ExpirySeconds     json.Uint64 `json:"expirySeconds"`
}

func (s *AdminService) ConfigureChain(_ *http.Request, args *ConfigureChainArgs, _ *EmptyReply) error {
	s.logCall("configureChain", log.Uint32("chainID", uint32(args.ChainID)))

	if err := s.authenticate("configureChain", args.Caller, args); err != nil {
		return rpcError(err)
	}
	return rpcError(s.bridge.ConfigureChain(args.Caller, ChainParams{
		ChainID:           state.ChainID(args.ChainID),
		MinConfirmations:  uint32(args.MinConfirmations),
		MaxTransferAmount: uint64(args.MaxTransferAmount),
		DailyLimit:        uint64(args.DailyLimit),
		FeeBps:            uint32(args.FeeBps),
		ExpirySeconds:     uint64(args.ExpirySeconds),
	}))
}

type SetChainActiveArgs struct {
	auth.Credential
	Caller  ids.ShortID `json:"caller"`
	ChainID json.Uint32 `json:"chainID"`
	Active  bool        `json:"active"`
}

func (s *AdminService) SetChainActive(_ *http.Request, args *SetChainActiveArgs, _ *EmptyReply) error {
	s.logCall("setChainActive", log.Uint32("chainID", uint32(args.ChainID)))

	if err := s.authenticate("setChainActive", args.Caller, args); err != nil {
		return rpcError(err)
	}
	return rpcError(s.bridge.SetChainActive(args.Caller, state.ChainID(args.ChainID), args.Active))
}

type RegisterAssetArgs struct {
	auth.Credential
	Caller           ids.ShortID   `json:"caller"`
	Asset            ids.ID        `json:"asset"`
	ChainID          json.Uint32   `json:"chainID"`
	ExternalContract json.HexBytes `json:"externalContract"`
	HomeDecimals     uint8         `json:"homeDecimals"`
	ExternalDecimals uint8         `json:"externalDecimals"`
}

func (s *AdminService) RegisterAsset(_ *http.Request, args *RegisterAssetArgs, _ *EmptyReply) error {
	s.logCall("registerAsset", log.Stringer("asset", args.Asset))

	if err := s.authenticate("registerAsset", args.Caller, args); err != nil {
		return rpcError(err)
	}
	return rpcError(s.bridge.RegisterAsset(args.Caller, AssetParams{
		Asset:            args.Asset,
		ChainID:          state.ChainID(args.ChainID),
		ExternalContract: args.ExternalContract,
		HomeDecimals:     args.HomeDecimals,
		ExternalDecimals: args.ExternalDecimals,
	}))
}

type SetAssetActiveArgs struct {
	auth.Credential
	Caller  ids.ShortID `json:"caller"`
	Asset   ids.ID      `json:"asset"`
	ChainID json.Uint32 `json:"chainID"`
	Active  bool        `json:"active"`
}

func (s *AdminService) SetAssetActive(_ *http.Request, args *SetAssetActiveArgs, _ *EmptyReply) error {
	s.logCall("setAssetActive", log.Stringer("asset", args.Asset))

	if err := s.authenticate("setAssetActive", args.Caller, args); err != nil {
		return rpcError(err)
	}
	return rpcError(s.bridge.SetAssetActive(args.Caller, args.Asset, state.ChainID(args.ChainID), args.Active))
}

type ProposeValidatorUpgradeArgs struct {
	auth.Credential
	Caller     ids.ShortID     `json:"caller"`
	Validators []ids.ShortID   `json:"validators"`
	Threshold  json.Uint32     `json:"threshold"`
	PublicKeys []json.HexBytes `json:"publicKeys"`
}

type ProposeValidatorUpgradeReply struct {
	EffectiveAt json.Uint64 `json:"effectiveAt"`
}

func (s *AdminService) ProposeValidatorUpgrade(_ *http.Request, args *ProposeValidatorUpgradeArgs, reply *ProposeValidatorUpgradeReply) error {
	s.logCall("proposeValidatorUpgrade", log.Int("validators", len(args.Validators)))

	if err := s.authenticate("proposeValidatorUpgrade", args.Caller, args); err != nil {
		return rpcError(err)
	}
	pubkeys := make([][]byte, len(args.PublicKeys))
	for i, pubkey := range args.PublicKeys {
		pubkeys[i] = pubkey
	}
	effectiveAt, err := s.bridge.ProposeValidatorUpgrade(args.Caller, args.Validators, uint32(args.Threshold), pubkeys)
	reply.EffectiveAt = json.Uint64(effectiveAt)
	return rpcError(err)
}

type CallerArgs struct {
	auth.Credential
	Caller ids.ShortID `json:"caller"`
}

type SetVersionReply struct {
	Version json.Uint64 `json:"version"`
}

func (s *AdminService) ApplyValidatorUpgrade(_ *http.Request, args *CallerArgs, reply *SetVersionReply) error {
	s.logCall("applyValidatorUpgrade")

	if err := s.authenticate("applyValidatorUpgrade", args.Caller, args); err != nil {
		return rpcError(err)
	}
	version, err := s.bridge.ApplyValidatorUpgrade(args.Caller)
	reply.Version = json.Uint64(version)
	return rpcError(err)
}

type AddValidatorArgs struct {
	auth.Credential
	Caller    ids.ShortID   `json:"caller"`
	Validator ids.ShortID   `json:"validator"`
	PublicKey json.HexBytes `json:"publicKey"`
	Threshold json.Uint32   `json:"threshold"`
}

func (s *AdminService) AddValidator(_ *http.Request, args *AddValidatorArgs, reply *SetVersionReply) error {
	s.logCall("addValidator", log.Stringer("validator", args.Validator))

	if err := s.authenticate("addValidator", args.Caller, args); err != nil {
		return rpcError(err)
	}
	version, err := s.bridge.AddValidator(args.Caller, args.Validator, args.PublicKey, uint32(args.Threshold))
	reply.Version = json.Uint64(version)
	return rpcError(err)
}

type RemoveValidatorArgs struct {
	auth.Credential
	Caller    ids.ShortID `json:"caller"`
	Validator ids.ShortID `json:"validator"`
	Threshold json.Uint32 `json:"threshold"`
}

func (s *AdminService) RemoveValidator(_ *http.Request, args *RemoveValidatorArgs, reply *SetVersionReply) error {
	s.logCall("removeValidator", log.Stringer("validator", args.Validator))

	if err := s.authenticate("removeValidator", args.Caller, args); err != nil {
		return rpcError(err)
	}
	version, err := s.bridge.RemoveValidator(args.Caller, args.Validator, uint32(args.Threshold))
	reply.Version = json.Uint64(version)
	return rpcError(err)
}
