// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"net/http"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/utils/json"
	"github.com/luxfi/bridge/vms/bridgevm/auth"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// Service is the public JSON-RPC API of the bridge. Mutating calls carry an
// auth.Credential signed by the key behind the account they act for, and are
// rejected before any state changes if it does not verify. Votes carry their
// own validator signatures instead.
type Service struct {
	bridge *Bridge
}

type EmptyReply struct{}

// ErrorData is attached to every error returned for a coded bridge failure.
type ErrorData struct {
	Category  string `json:"category"`
	Retryable bool   `json:"retryable"`
}

// rpcError exposes a coded error's numeric code to JSON-RPC clients.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	coded, ok := codes.Of(err)
	if !ok {
		return err
	}
	return &json2.Error{
		Code:    json2.ErrorCode(coded.Code),
		Message: err.Error(),
		Data: ErrorData{
			Category:  coded.Category.String(),
			Retryable: coded.Retryable,
		},
	}
}

func (s *Service) logCall(method string, fields ...any) {
	logCall(s.bridge.log, "bridge", method, fields...)
}

func logCall(logger log.Logger, service, method string, fields ...any) {
	logger.Debug("API called",
		append([]any{
			log.String("service", service),
			log.String("method", method),
		}, fields...)...,
	)
}

// APIRequest is the JSON form of a request.
type APIRequest struct {
	ID                json.Uint64     `json:"id"`
	Direction         state.Direction `json:"direction"`
	Initiator         ids.ShortID     `json:"initiator"`
	Asset             ids.ID          `json:"asset"`
	GrossAmount       json.Uint64     `json:"grossAmount"`
	FeeAmount         json.Uint64     `json:"feeAmount"`
	NetAmount         json.Uint64     `json:"netAmount"`
	ChainID           json.Uint32     `json:"chainID"`
	ExternalAddress   json.HexBytes   `json:"externalAddress"`
	ExternalTxHash    json.HexBytes   `json:"externalTxHash,omitempty"`
	Status            state.Status    `json:"status"`
	CreatedAt         json.Uint64     `json:"createdAt"`
	ExpiresAt         json.Uint64     `json:"expiresAt"`
	CompletedAt       json.Uint64     `json:"completedAt"`
	ApprovalCount     json.Uint32     `json:"approvalCount"`
	RejectionCount    json.Uint32     `json:"rejectionCount"`
	RequiredApprovals json.Uint32     `json:"requiredApprovals"`
	Nonce             json.Uint64     `json:"nonce"`
}

func newAPIRequest(r *state.Request) APIRequest {
	return APIRequest{
		ID:                json.Uint64(r.ID),
		Direction:         r.Direction,
		Initiator:         r.Initiator,
		Asset:             r.Asset,
		GrossAmount:       json.Uint64(r.GrossAmount),
		FeeAmount:         json.Uint64(r.FeeAmount),
		NetAmount:         json.Uint64(r.NetAmount),
		ChainID:           json.Uint32(r.ChainID),
		ExternalAddress:   r.ExternalAddress,
		ExternalTxHash:    r.ExternalTxHash,
		Status:            r.Status,
		CreatedAt:         json.Uint64(r.CreatedAt),
		ExpiresAt:         json.Uint64(r.ExpiresAt),
		CompletedAt:       json.Uint64(r.CompletedAt),
		ApprovalCount:     json.Uint32(r.ApprovalCount),
		RejectionCount:    json.Uint32(r.RejectionCount),
		RequiredApprovals: json.Uint32(r.RequiredApprovals),
		Nonce:             json.Uint64(r.Nonce),
	}
}

type RequestIDArgs struct {
	RequestID json.Uint64 `json:"requestID"`
}

// GetRequest returns a request and its tally.
func (s *Service) GetRequest(_ *http.Request, args *RequestIDArgs, reply *APIRequest) error {
	s.logCall("getRequest", log.Uint64("requestID", uint64(args.RequestID)))

	req, err := s.bridge.GetRequest(uint64(args.RequestID))
	if err != nil {
		return rpcError(err)
	}
	*reply = newAPIRequest(req)
	return nil
}

type GetSigningPayloadReply struct {
	Payload json.HexBytes `json:"payload"`
}

// GetSigningPayload returns the bytes a validator signs to vote on a
// request.
func (s *Service) GetSigningPayload(_ *http.Request, args *RequestIDArgs, reply *GetSigningPayloadReply) error {
	s.logCall("getSigningPayload", log.Uint64("requestID", uint64(args.RequestID)))

	payload, err := s.bridge.SigningPayload(uint64(args.RequestID))
	reply.Payload = payload
	return rpcError(err)
}

type InitiateOutboundArgs struct {
	auth.Credential
	Initiator       ids.ShortID   `json:"initiator"`
	Asset           ids.ID        `json:"asset"`
	Amount          json.Uint64   `json:"amount"`
	ChainID         json.Uint32   `json:"chainID"`
	ExternalAddress json.HexBytes `json:"externalAddress"`
	Nonce           json.Uint64   `json:"nonce"`
}

type RequestIDReply struct {
	RequestID json.Uint64 `json:"requestID"`
}

func (s *Service) InitiateOutbound(_ *http.Request, args *InitiateOutboundArgs, reply *RequestIDReply) error {
	s.logCall("initiateOutbound",
		log.Stringer("initiator", args.Initiator),
		log.Uint64("amount", uint64(args.Amount)),
	)

	if err := s.bridge.authenticate("bridge.initiateOutbound", args.Initiator, args); err != nil {
		return rpcError(err)
	}
	id, err := s.bridge.InitiateOutbound(OutboundParams{
		Initiator:       args.Initiator,
		Asset:           args.Asset,
		Amount:          uint64(args.Amount),
		ChainID:         state.ChainID(args.ChainID),
		ExternalAddress: args.ExternalAddress,
		Nonce:           uint64(args.Nonce),
	})
	reply.RequestID = json.Uint64(id)
	return rpcError(err)
}

type InitiateInboundArgs struct {
	auth.Credential
	Initiator       ids.ShortID   `json:"initiator"`
	Asset           ids.ID        `json:"asset"`
	Amount          json.Uint64   `json:"amount"`
	ChainID         json.Uint32   `json:"chainID"`
	ExternalAddress json.HexBytes `json:"externalAddress"`
	ExternalTxHash  json.HexBytes `json:"externalTxHash"`
	Confirmations   json.Uint32   `json:"confirmations"`
	Nonce           json.Uint64   `json:"nonce"`
}

func (s *Service) InitiateInbound(_ *http.Request, args *InitiateInboundArgs, reply *RequestIDReply) error {
	s.logCall("initiateInbound",
		log.Stringer("initiator", args.Initiator),
		log.Uint64("amount", uint64(args.Amount)),
	)

	if err := s.bridge.authenticate("bridge.initiateInbound", args.Initiator, args); err != nil {
		return rpcError(err)
	}
	id, err := s.bridge.InitiateInbound(InboundParams{
		Initiator:       args.Initiator,
		Asset:           args.Asset,
		Amount:          uint64(args.Amount),
		ChainID:         state.ChainID(args.ChainID),
		ExternalAddress: args.ExternalAddress,
		ExternalTxHash:  args.ExternalTxHash,
		Confirmations:   uint32(args.Confirmations),
		Nonce:           uint64(args.Nonce),
	})
	reply.RequestID = json.Uint64(id)
	return rpcError(err)
}

type SubmitVoteArgs struct {
	Validator ids.ShortID   `json:"validator"`
	RequestID json.Uint64   `json:"requestID"`
	Approved  bool          `json:"approved"`
	Signature json.HexBytes `json:"signature"`
}

// SubmitVoteReply carries the request's status after the vote. It is only
// sent when the vote was processed.
type SubmitVoteReply struct {
	Status state.Status `json:"status"`
}

func (s *Service) SubmitVote(_ *http.Request, args *SubmitVoteArgs, reply *SubmitVoteReply) error {
	s.logCall("submitVote",
		log.Stringer("validator", args.Validator),
		log.Uint64("requestID", uint64(args.RequestID)),
	)

	status, err := s.bridge.SubmitVote(args.Validator, uint64(args.RequestID), args.Approved, args.Signature)
	if err != nil {
		return rpcError(err)
	}
	reply.Status = status
	return nil
}

type CancelRequestArgs struct {
	auth.Credential
	Caller    ids.ShortID `json:"caller"`
	RequestID json.Uint64 `json:"requestID"`
}

func (s *Service) CancelRequest(_ *http.Request, args *CancelRequestArgs, _ *EmptyReply) error {
	s.logCall("cancelRequest", log.Uint64("requestID", uint64(args.RequestID)))

	if err := s.bridge.authenticate("bridge.cancelRequest", args.Caller, args); err != nil {
		return rpcError(err)
	}
	return rpcError(s.bridge.CancelRequest(args.Caller, uint64(args.RequestID)))
}

type VoteArgs struct {
	RequestID json.Uint64 `json:"requestID"`
	Validator ids.ShortID `json:"validator"`
}

type HasVotedReply struct {
	Voted bool `json:"voted"`
}

func (s *Service) HasVoted(_ *http.Request, args *VoteArgs, reply *HasVotedReply) error {
	s.logCall("hasVoted")

	voted, err := s.bridge.HasValidatorVoted(uint64(args.RequestID), args.Validator)
	reply.Voted = voted
	return rpcError(err)
}

type APIVote struct {
	Validator  ids.ShortID   `json:"validator"`
	RequestID  json.Uint64   `json:"requestID"`
	Approved   bool          `json:"approved"`
	SignedAt   json.Uint64   `json:"signedAt"`
	Signature  json.HexBytes `json:"signature"`
	SetVersion json.Uint64   `json:"setVersion"`
}

func (s *Service) GetVote(_ *http.Request, args *VoteArgs, reply *APIVote) error {
	s.logCall("getVote")

	vote, err := s.bridge.GetVote(uint64(args.RequestID), args.Validator)
	if err != nil {
		return rpcError(err)
	}
	*reply = APIVote{
		Validator:  vote.Validator,
		RequestID:  json.Uint64(vote.RequestID),
		Approved:   vote.Approved,
		SignedAt:   json.Uint64(vote.SignedAt),
		Signature:  vote.Signature,
		SetVersion: json.Uint64(vote.SetVersion),
	}
	return nil
}

type AccountArgs struct {
	Account ids.ShortID `json:"account"`
}

type GetNonceReply struct {
	// Nonce counts the requests the account has initiated.
	Nonce json.Uint64 `json:"nonce"`
	// CallNonce counts the signed calls the account has made.
	CallNonce json.Uint64 `json:"callNonce"`
}

func (s *Service) GetNonce(_ *http.Request, args *AccountArgs, reply *GetNonceReply) error {
	s.logCall("getNonce")

	nonce, err := s.bridge.GetNonce(args.Account)
	if err != nil {
		return rpcError(err)
	}
	callNonce, err := s.bridge.GetCallNonce(args.Account)
	reply.Nonce = json.Uint64(nonce)
	reply.CallNonce = json.Uint64(callNonce)
	return rpcError(err)
}

func (s *Service) GetStats(_ *http.Request, _ *struct{}, reply *state.Stats) error {
	s.logCall("getStats")

	stats, err := s.bridge.GetStats()
	if err != nil {
		return rpcError(err)
	}
	*reply = *stats
	return nil
}

func (s *Service) GetValidatorSet(_ *http.Request, _ *struct{}, reply *state.ValidatorSet) error {
	s.logCall("getValidatorSet")

	set, err := s.bridge.GetValidatorSet()
	if err != nil {
		return rpcError(err)
	}
	*reply = *set
	return nil
}

type ValidatorArgs struct {
	Validator ids.ShortID `json:"validator"`
}

type GetValidatorPubkeyReply struct {
	PublicKey json.HexBytes `json:"publicKey"`
}

func (s *Service) GetValidatorPubkey(_ *http.Request, args *ValidatorArgs, reply *GetValidatorPubkeyReply) error {
	s.logCall("getValidatorPubkey")

	pubkey, err := s.bridge.GetValidatorPubkey(args.Validator)
	reply.PublicKey = pubkey
	return rpcError(err)
}

func (s *Service) GetPendingUpgrade(_ *http.Request, _ *struct{}, reply *state.PendingUpgrade) error {
	s.logCall("getPendingUpgrade")

	upgrade, err := s.bridge.GetPendingUpgrade()
	if err != nil {
		return rpcError(err)
	}
	*reply = *upgrade
	return nil
}

type ChainArgs struct {
	ChainID json.Uint32 `json:"chainID"`
}

func (s *Service) GetChainConfig(_ *http.Request, args *ChainArgs, reply *state.ChainConfig) error {
	s.logCall("getChainConfig")

	cfg, err := s.bridge.GetChainConfig(state.ChainID(args.ChainID))
	if err != nil {
		return rpcError(err)
	}
	*reply = *cfg
	return nil
}

type AssetArgs struct {
	Asset   ids.ID      `json:"asset"`
	ChainID json.Uint32 `json:"chainID"`
}

type APIWrappedAsset struct {
	Asset            ids.ID        `json:"asset"`
	ChainID          json.Uint32   `json:"chainID"`
	ExternalContract json.HexBytes `json:"externalContract"`
	HomeDecimals     uint8         `json:"homeDecimals"`
	ExternalDecimals uint8         `json:"externalDecimals"`
	TotalLocked      json.Uint64   `json:"totalLocked"`
	TotalMinted      json.Uint64   `json:"totalMinted"`
	IsActive         bool          `json:"isActive"`
	BackingRatioBps  json.Uint64   `json:"backingRatioBps"`
}

func (s *Service) GetWrappedAsset(_ *http.Request, args *AssetArgs, reply *APIWrappedAsset) error {
	s.logCall("getWrappedAsset")

	a, err := s.bridge.GetWrappedAsset(args.Asset, state.ChainID(args.ChainID))
	if err != nil {
		return rpcError(err)
	}
	*reply = APIWrappedAsset{
		Asset:            a.Asset,
		ChainID:          json.Uint32(a.ChainID),
		ExternalContract: a.ExternalContract,
		HomeDecimals:     a.HomeDecimals,
		ExternalDecimals: a.ExternalDecimals,
		TotalLocked:      json.Uint64(a.TotalLocked),
		TotalMinted:      json.Uint64(a.TotalMinted),
		IsActive:         a.IsActive,
		BackingRatioBps:  json.Uint64(a.BackingRatioBps),
	}
	return nil
}

type CheckBackingRatioReply struct {
	RatioBps json.Uint64 `json:"ratioBps"`
}

func (s *Service) CheckBackingRatio(_ *http.Request, args *AssetArgs, reply *CheckBackingRatioReply) error {
	s.logCall("checkBackingRatio")

	ratio, err := s.bridge.CheckBackingRatio(args.Asset, state.ChainID(args.ChainID))
	reply.RatioBps = json.Uint64(ratio)
	return rpcError(err)
}

type ConvertAmountArgs struct {
	AssetArgs
	Amount json.Uint64 `json:"amount"`
	ToHome bool        `json:"toHome"`
}

type AmountReply struct {
	Amount json.Uint64 `json:"amount"`
}

func (s *Service) ConvertAmount(_ *http.Request, args *ConvertAmountArgs, reply *AmountReply) error {
	s.logCall("convertAmount")

	amount, err := s.bridge.ConvertAmount(args.Asset, state.ChainID(args.ChainID), uint64(args.Amount), args.ToHome)
	reply.Amount = json.Uint64(amount)
	return rpcError(err)
}

type CalculateFeeArgs struct {
	Amount json.Uint64 `json:"amount"`
	FeeBps json.Uint32 `json:"feeBps"`
}

type CalculateFeeReply struct {
	Fee json.Uint64 `json:"fee"`
	Net json.Uint64 `json:"net"`
}

func (s *Service) CalculateFee(_ *http.Request, args *CalculateFeeArgs, reply *CalculateFeeReply) error {
	s.logCall("calculateFee")

	fee, net, err := CalculateFee(uint64(args.Amount), uint32(args.FeeBps))
	reply.Fee = json.Uint64(fee)
	reply.Net = json.Uint64(net)
	return rpcError(err)
}

type GetEventsArgs struct {
	From  json.Uint64 `json:"from"`
	Limit json.Uint32 `json:"limit"`
}

type GetEventsReply struct {
	Events []*state.Event `json:"events"`
}

// GetEvents pages through the event log. A zero limit returns the largest
// page the bridge allows.
func (s *Service) GetEvents(_ *http.Request, args *GetEventsArgs, reply *GetEventsReply) error {
	s.logCall("getEvents", log.Uint64("from", uint64(args.From)))

	events, err := s.bridge.GetEvents(uint64(args.From), int(args.Limit))
	reply.Events = events
	return rpcError(err)
}
