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

// OutboundParams describe a transfer from the home ledger to an external
// chain.
type OutboundParams struct {
	Initiator       ids.ShortID
	Asset           ids.ID
	Amount          uint64
	ChainID         state.ChainID
	ExternalAddress []byte
	// Nonce, if non-zero, must be one more than the initiator's request
	// count.
	Nonce uint64
}

// InboundParams describe a claim for funds locked on an external chain.
type InboundParams struct {
	Initiator       ids.ShortID
	Asset           ids.ID
	Amount          uint64
	ChainID         state.ChainID
	ExternalAddress []byte
	ExternalTxHash  []byte
	Confirmations   uint32
	Nonce           uint64
}

// admission is the outcome of the checks shared by both directions.
type admission struct {
	chain    *state.ChainConfig
	asset    *state.WrappedAsset
	fee      uint64
	net      uint64
	required uint32
}

// InitiateOutbound locks amount from the initiator into custody, pays the
// fee to the fee collector and opens a request for validators to approve.
func (b *Bridge) InitiateOutbound(p OutboundParams) (uint64, error) {
	var req *state.Request
	err := b.update("initiateOutbound", func(t *tx) error {
		var err error
		req, err = b.initiateOutbound(t, p)
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.Info("initiated outbound request",
		log.Uint64("requestID", req.ID),
		log.Stringer("initiator", p.Initiator),
		log.Uint64("amount", req.GrossAmount),
		log.Uint64("fee", req.FeeAmount),
		log.Uint32("requiredApprovals", req.RequiredApprovals),
	)
	return req.ID, nil
}

func (b *Bridge) initiateOutbound(t *tx, p OutboundParams) (*state.Request, error) {
	if err := t.checkEntry(p.Amount); err != nil {
		return nil, err
	}
	if err := t.checkNonce(p.Initiator, p.Nonce); err != nil {
		return nil, err
	}
	adm, err := b.admit(t, p.Asset, p.ChainID, p.Amount, nil)
	if err != nil {
		return nil, err
	}

	balance, err := t.custody.Balance(p.Asset, p.Initiator)
	if err != nil {
		return nil, err
	}
	if balance < p.Amount {
		return nil, fmt.Errorf("%w: have %d, need %d", codes.ErrInsufficientBalance, balance, p.Amount)
	}
	if err := t.custody.Lock(p.Asset, p.Initiator, p.Amount); err != nil {
		return nil, err
	}
	if err := lockCollateral(adm.asset, p.Amount); err != nil {
		return nil, err
	}
	if err := recordVolume(adm.chain, p.Amount); err != nil {
		return nil, err
	}
	if adm.fee > 0 {
		collector, err := t.state.GetFeeCollector()
		if err != nil {
			return nil, err
		}
		if err := t.custody.Release(p.Asset, collector, adm.fee); err != nil {
			return nil, err
		}
	}
	if err := t.state.PutAsset(adm.asset); err != nil {
		return nil, err
	}

	req := &state.Request{
		Direction:       state.Outbound,
		Initiator:       p.Initiator,
		Asset:           p.Asset,
		ChainID:         p.ChainID,
		ExternalAddress: p.ExternalAddress,
	}
	return req, t.openRequest(req, adm, p.Amount)
}

// InitiateInbound opens a request to mint funds that were locked on an
// external chain in the given transaction. Nothing moves on the home ledger
// until validators approve.
func (b *Bridge) InitiateInbound(p InboundParams) (uint64, error) {
	var req *state.Request
	err := b.update("initiateInbound", func(t *tx) error {
		var err error
		req, err = b.initiateInbound(t, p)
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.Info("initiated inbound request",
		log.Uint64("requestID", req.ID),
		log.Stringer("initiator", p.Initiator),
		log.Uint64("amount", req.GrossAmount),
		log.Uint32("requiredApprovals", req.RequiredApprovals),
	)
	return req.ID, nil
}

func (b *Bridge) initiateInbound(t *tx, p InboundParams) (*state.Request, error) {
	if err := t.checkEntry(p.Amount); err != nil {
		return nil, err
	}
	if err := t.checkReplay(p.ExternalTxHash); err != nil {
		return nil, err
	}
	if err := t.checkNonce(p.Initiator, p.Nonce); err != nil {
		return nil, err
	}
	adm, err := b.admit(t, p.Asset, p.ChainID, p.Amount, func(c *state.ChainConfig) error {
		if p.Confirmations < c.MinConfirmations {
			return fmt.Errorf("%w: %d of %d", codes.ErrInsufficientConfirmations, p.Confirmations, c.MinConfirmations)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := recordVolume(adm.chain, p.Amount); err != nil {
		return nil, err
	}

	req := &state.Request{
		Direction:       state.Inbound,
		Initiator:       p.Initiator,
		Asset:           p.Asset,
		ChainID:         p.ChainID,
		ExternalAddress: p.ExternalAddress,
		ExternalTxHash:  p.ExternalTxHash,
	}
	if err := t.openRequest(req, adm, p.Amount); err != nil {
		return nil, err
	}
	return req, t.state.PutClaim(p.ExternalTxHash, req.ID)
}

// CancelRequest lets the initiator withdraw a pending request. Outbound
// funds, less the fee already paid, are returned.
func (b *Bridge) CancelRequest(caller ids.ShortID, requestID uint64) error {
	err := b.update("cancelRequest", func(t *tx) error {
		req, err := t.state.GetRequest(requestID)
		if err != nil {
			return notFound(err, codes.ErrRequestNotFound)
		}
		if req.Initiator != caller {
			return codes.ErrUnauthorized
		}
		if req.Status != state.Pending {
			return fmt.Errorf("%w: %s", codes.ErrRequestNotPending, req)
		}
		return t.terminate(req, state.Cancelled)
	})
	if err == nil {
		b.log.Info("cancelled request",
			log.Uint64("requestID", requestID),
		)
	}
	return err
}

func (b *Bridge) GetRequest(requestID uint64) (*state.Request, error) {
	var req *state.Request
	err := b.view(func(s *state.State) error {
		var err error
		req, err = s.GetRequest(requestID)
		return notFound(err, codes.ErrRequestNotFound)
	})
	return req, err
}

// GetNonce returns the number of requests the account has initiated.
func (b *Bridge) GetNonce(account ids.ShortID) (uint64, error) {
	var nonce uint64
	err := b.view(func(s *state.State) error {
		var err error
		nonce, err = s.GetNonce(account)
		return err
	})
	return nonce, err
}

// SigningPayload returns the bytes validators sign to vote on a request.
func (b *Bridge) SigningPayload(requestID uint64) ([]byte, error) {
	req, err := b.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	return req.Payload(), nil
}

func (t *tx) checkEntry(amount uint64) error {
	if err := t.requireNotPaused(); err != nil {
		return err
	}
	if amount == 0 {
		return codes.ErrAmountTooSmall
	}
	return nil
}

func (t *tx) checkNonce(initiator ids.ShortID, nonce uint64) error {
	if nonce == 0 {
		return nil
	}
	current, err := t.state.GetNonce(initiator)
	if err != nil {
		return err
	}
	if nonce != current+1 {
		return fmt.Errorf("%w: got %d, expected %d", codes.ErrInvalidNonce, nonce, current+1)
	}
	return nil
}

// checkReplay rejects an external transaction that already settled or is
// held by another live request.
func (t *tx) checkReplay(txHash []byte) error {
	if len(txHash) == 0 {
		return fmt.Errorf("%w: empty transaction hash", codes.ErrInvalidExternalTx)
	}
	processed, err := t.state.IsProcessed(txHash)
	if err != nil {
		return err
	}
	if processed {
		return fmt.Errorf("%w: %x settled", codes.ErrDuplicateExternalTx, txHash)
	}
	claimant, err := t.state.GetClaim(txHash)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %x claimed by request %d", codes.ErrDuplicateExternalTx, txHash, claimant)
	case !errors.Is(err, database.ErrNotFound):
		return err
	}
	return nil
}

// admit runs the chain, asset and limit checks for a new request and
// computes its fee and required approvals. chainCheck, if set, runs once the
// chain is known to be active and the amount within its maximum.
func (b *Bridge) admit(
	t *tx,
	assetID ids.ID,
	chainID state.ChainID,
	amount uint64,
	chainCheck func(*state.ChainConfig) error,
) (*admission, error) {
	chain, err := t.activeChain(chainID)
	if err != nil {
		return nil, err
	}
	if err := checkMaxTransfer(chain, amount); err != nil {
		return nil, err
	}
	if chainCheck != nil {
		if err := chainCheck(chain); err != nil {
			return nil, err
		}
	}
	asset, err := t.activeAsset(assetID, chainID)
	if err != nil {
		return nil, err
	}
	if err := admitVolume(chain, amount, t.now, b.config.VolumeWindowSeconds()); err != nil {
		return nil, err
	}
	fee, net, err := CalculateFee(amount, chain.FeeBps)
	if err != nil {
		return nil, err
	}
	set, err := t.state.GetValidatorSet()
	if err != nil {
		return nil, err
	}
	return &admission{
		chain:    chain,
		asset:    asset,
		fee:      fee,
		net:      net,
		required: b.policy.EffectiveRequiredApprovals(set.Len(), set.Threshold, amount, chain.MaxTransferAmount),
	}, nil
}

func recordVolume(chain *state.ChainConfig, amount uint64) error {
	volume, err := math.Add(chain.DailyVolume, amount)
	if err != nil {
		return fmt.Errorf("%w: daily volume", codes.ErrArithmeticOverflow)
	}
	chain.DailyVolume = volume
	return nil
}

// openRequest fills in and persists a new pending request together with the
// chain volume, initiator nonce and stats it affects.
func (t *tx) openRequest(req *state.Request, adm *admission, amount uint64) error {
	id, err := t.state.NextRequestID()
	if err != nil {
		return err
	}
	expiresAt, err := math.Add(t.now, adm.chain.ExpirySeconds)
	if err != nil {
		expiresAt = math.MaxUint[uint64]()
	}
	nonce, err := t.state.GetNonce(req.Initiator)
	if err != nil {
		return err
	}

	req.ID = id
	req.GrossAmount = amount
	req.FeeAmount = adm.fee
	req.NetAmount = adm.net
	req.Status = state.Pending
	req.CreatedAt = t.now
	req.ExpiresAt = expiresAt
	req.RequiredApprovals = adm.required
	req.Nonce = nonce + 1

	if err := t.state.PutChain(adm.chain); err != nil {
		return err
	}
	if err := t.state.PutRequest(req); err != nil {
		return err
	}
	if err := t.state.PutNonce(req.Initiator, req.Nonce); err != nil {
		return err
	}
	if err := t.updateStats(func(s *state.Stats) error {
		s.TotalRequests++
		s.TotalVolume = saturatingAdd(s.TotalVolume, amount)
		s.TotalFeesCollected = saturatingAdd(s.TotalFeesCollected, adm.fee)
		return nil
	}); err != nil {
		return err
	}
	return t.emit(&state.Event{
		Type:              state.EventRequestInitiated,
		Actor:             req.Initiator,
		RequestID:         req.ID,
		Direction:         req.Direction,
		Status:            req.Status,
		Asset:             req.Asset,
		ChainID:           req.ChainID,
		Amount:            req.GrossAmount,
		Fee:               req.FeeAmount,
		RequiredApprovals: req.RequiredApprovals,
	})
}

// terminate moves a pending request to a terminal status other than Completed
// and undoes its effects: outbound funds, less the fee, go back to the
// initiator and an inbound claim on the external transaction is released.
func (t *tx) terminate(req *state.Request, status state.Status) error {
	req.Status = status
	req.CompletedAt = t.now

	switch req.Direction {
	case state.Outbound:
		if err := t.unwind(req); err != nil {
			return err
		}
	case state.Inbound:
		if err := t.state.DeleteClaim(req.ExternalTxHash); err != nil {
			return err
		}
	}
	if err := t.state.PutRequest(req); err != nil {
		return err
	}

	var eventType state.EventType
	if err := t.updateStats(func(s *state.Stats) error {
		switch status {
		case state.Rejected:
			s.TotalRejected++
			eventType = state.EventRequestRejected
		case state.Cancelled:
			s.TotalCancelled++
			eventType = state.EventRequestCancelled
		case state.Expired:
			s.TotalExpired++
			eventType = state.EventRequestExpired
		default:
			return fmt.Errorf("cannot close %s as %s", req, status)
		}
		return nil
	}); err != nil {
		return err
	}
	return t.emit(&state.Event{
		Type:              eventType,
		Actor:             req.Initiator,
		RequestID:         req.ID,
		Direction:         req.Direction,
		Status:            status,
		Asset:             req.Asset,
		ChainID:           req.ChainID,
		Amount:            req.NetAmount,
		ApprovalCount:     req.ApprovalCount,
		RejectionCount:    req.RejectionCount,
		RequiredApprovals: req.RequiredApprovals,
	})
}

// unwind returns the net amount of an outbound request to its initiator and
// removes the gross amount from the asset's locked total. The fee is kept.
func (t *tx) unwind(req *state.Request) error {
	if req.NetAmount > 0 {
		if err := t.custody.Release(req.Asset, req.Initiator, req.NetAmount); err != nil {
			return err
		}
	}
	asset, err := t.state.GetAsset(req.Asset, req.ChainID)
	if err != nil {
		return notFound(err, codes.ErrAssetNotRegistered)
	}
	unwindCollateral(asset, req.GrossAmount)
	return t.state.PutAsset(asset)
}

func saturatingAdd(a, b uint64) uint64 {
	sum, err := math.Add(a, b)
	if err != nil {
		return math.MaxUint[uint64]()
	}
	return sum
}
