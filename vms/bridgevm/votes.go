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

// SubmitVote records a validator's signed approval or rejection of a
// pending request and returns the request's resulting status.
//
// A request past its deadline is moved to Expired before the vote is looked
// at; that transition is committed and Expired is returned without error,
// but the vote itself is not recorded. Reaching the required approvals
// finalizes the request in the same operation.
//
// The status is only meaningful when err is nil. On error the zero Status is
// returned, which says nothing about the request; use GetRequest to read it.
func (b *Bridge) SubmitVote(validator ids.ShortID, requestID uint64, approved bool, signature []byte) (state.Status, error) {
	var req *state.Request
	err := b.update("submitVote", func(t *tx) error {
		var err error
		req, err = t.submitVote(validator, requestID, approved, signature, b.verifier.Verify)
		return err
	})
	if err != nil {
		return 0, err
	}

	b.log.Debug("processed vote",
		log.Uint64("requestID", requestID),
		log.Stringer("validator", validator),
		log.Bool("approved", approved),
		log.Uint32("approvals", req.ApprovalCount),
		log.Uint32("rejections", req.RejectionCount),
		log.Uint32("required", req.RequiredApprovals),
	)
	if req.Status.Terminal() {
		b.log.Info("request settled",
			log.Uint64("requestID", requestID),
			log.Stringer("direction", req.Direction),
			log.Stringer("status", req.Status),
			log.Uint64("netAmount", req.NetAmount),
		)
	}
	return req.Status, nil
}

var ErrVoteNotFound = errors.New("vote not found")

type verifyFunc func(pubkey, payload, sig []byte) error

func (t *tx) submitVote(
	validator ids.ShortID,
	requestID uint64,
	approved bool,
	signature []byte,
	verify verifyFunc,
) (*state.Request, error) {
	if err := t.requireNotPaused(); err != nil {
		return nil, err
	}
	set, err := t.state.GetValidatorSet()
	if err != nil {
		return nil, err
	}
	if !set.Contains(validator) {
		return nil, fmt.Errorf("%w: %s", codes.ErrNotValidator, validator)
	}
	req, err := t.state.GetRequest(requestID)
	if err != nil {
		return nil, notFound(err, codes.ErrRequestNotFound)
	}
	if req.Status != state.Pending {
		return nil, fmt.Errorf("%w: %s", codes.ErrRequestAlreadyProcessed, req)
	}

	// Expiry wins over any tally, so a late approval never completes a
	// request.
	if t.now > req.ExpiresAt {
		return req, t.terminate(req, state.Expired)
	}

	voted, err := t.state.HasVote(requestID, validator)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, fmt.Errorf("%w: %s on request %d", codes.ErrAlreadyVoted, validator, requestID)
	}
	pubkey, err := t.state.GetPubkey(validator)
	if err != nil {
		return nil, notFound(err, codes.ErrNotValidator)
	}
	if err := verify(pubkey, req.Payload(), signature); err != nil {
		return nil, fmt.Errorf("vote by %s on request %d: %w", validator, requestID, err)
	}

	if err := t.state.PutVote(&state.Vote{
		Validator:  validator,
		RequestID:  requestID,
		Approved:   approved,
		SignedAt:   t.now,
		Signature:  signature,
		SetVersion: set.Version,
	}); err != nil {
		return nil, err
	}
	if approved {
		req.ApprovalCount++
	} else {
		req.RejectionCount++
	}
	if err := t.emit(&state.Event{
		Type:              state.EventValidatorVoted,
		Actor:             validator,
		Subject:           validator,
		RequestID:         requestID,
		Direction:         req.Direction,
		Status:            req.Status,
		Approved:          approved,
		ApprovalCount:     req.ApprovalCount,
		RejectionCount:    req.RejectionCount,
		RequiredApprovals: req.RequiredApprovals,
		SetVersion:        set.Version,
	}); err != nil {
		return nil, err
	}

	if req.ApprovalCount >= req.RequiredApprovals {
		req.Status = state.Approved
		return req, t.finalize(req)
	}

	cast := req.ApprovalCount + req.RejectionCount
	remaining := math.SaturatingSub(uint32(set.Len()), cast)
	if uint64(req.ApprovalCount)+uint64(remaining) < uint64(req.RequiredApprovals) {
		return req, t.terminate(req, state.Rejected)
	}
	return req, t.state.PutRequest(req)
}

// finalize settles an approved request. Inbound requests mint the net
// amount to the initiator, which fails if the asset would become
// under-collateralized. Outbound requests only complete here: their funds
// were locked at initiation and are paid out on the external chain.
func (t *tx) finalize(req *state.Request) error {
	if req.Direction == state.Inbound {
		processed, err := t.state.IsProcessed(req.ExternalTxHash)
		if err != nil {
			return err
		}
		if processed {
			return fmt.Errorf("%w: %x", codes.ErrDuplicateExternalTx, req.ExternalTxHash)
		}
		if err := t.state.MarkProcessed(req.ExternalTxHash, req.ID); err != nil {
			return err
		}
		if err := t.state.DeleteClaim(req.ExternalTxHash); err != nil {
			return err
		}

		asset, err := t.state.GetAsset(req.Asset, req.ChainID)
		if err != nil {
			return notFound(err, codes.ErrAssetNotRegistered)
		}
		if err := mintAgainstCollateral(asset, req.NetAmount); err != nil {
			return err
		}
		if err := t.state.PutAsset(asset); err != nil {
			return err
		}
		if err := t.custody.Mint(req.Asset, req.Initiator, req.NetAmount); err != nil {
			return err
		}
	}

	req.Status = state.Completed
	req.CompletedAt = t.now
	if err := t.state.PutRequest(req); err != nil {
		return err
	}
	if err := t.updateStats(func(s *state.Stats) error {
		s.TotalCompleted++
		return nil
	}); err != nil {
		return err
	}
	return t.emit(&state.Event{
		Type:              state.EventRequestCompleted,
		Actor:             req.Initiator,
		RequestID:         req.ID,
		Direction:         req.Direction,
		Status:            req.Status,
		Asset:             req.Asset,
		ChainID:           req.ChainID,
		Amount:            req.NetAmount,
		Fee:               req.FeeAmount,
		ApprovalCount:     req.ApprovalCount,
		RejectionCount:    req.RejectionCount,
		RequiredApprovals: req.RequiredApprovals,
	})
}

// HasValidatorVoted reports whether validator has a recorded vote on the
// request.
func (b *Bridge) HasValidatorVoted(requestID uint64, validator ids.ShortID) (bool, error) {
	var voted bool
	err := b.view(func(s *state.State) error {
		var err error
		voted, err = s.HasVote(requestID, validator)
		return err
	})
	return voted, err
}

func (b *Bridge) GetVote(requestID uint64, validator ids.ShortID) (*state.Vote, error) {
	var vote *state.Vote
	err := b.view(func(s *state.State) error {
		var err error
		vote, err = s.GetVote(requestID, validator)
		if errors.Is(err, database.ErrNotFound) {
			return ErrVoteNotFound
		}
		return err
	})
	return vote, err
}
