// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"context"
	"errors"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/ids"
	"github.com/luxfi/rpc"

	"github.com/luxfi/bridge/utils/json"
	"github.com/luxfi/bridge/vms/bridgevm/auth"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// Client for interacting with a bridge node. Errors carrying a bridge code
// are returned as the matching codes sentinel, so callers can use errors.Is
// and codes.IsRetryable on them.
//
// Mutating calls take the secp256k1 key of the account they act for. The
// client reads the account's call nonce, signs the call with the next one and
// sends it, so concurrent calls from one key may fail with
// codes.ErrInvalidNonce and should be retried.
type Client struct {
	Requester      rpc.EndpointRequester
	AdminRequester rpc.EndpointRequester
}

func NewClient(uri string) *Client {
	return &Client{
		Requester:      rpc.NewEndpointRequester(uri + "/ext/bridge"),
		AdminRequester: rpc.NewEndpointRequester(uri + "/ext/bridge/admin"),
	}
}

var errNoKey = errors.New("a signing key is required")

// codedError maps a JSON-RPC error back to the bridge error it was built
// from.
func codedError(err error) error {
	var rpcErr *json2.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code < 0 {
		return err
	}
	if coded, ok := codes.Lookup(codes.Code(rpcErr.Code)); ok {
		return coded
	}
	return err
}

func (c *Client) send(ctx context.Context, method string, args, reply any, options ...rpc.Option) error {
	return codedError(c.Requester.SendRequest(ctx, "bridge."+method, args, reply, options...))
}

func (c *Client) sendAdmin(ctx context.Context, method string, args, reply any, options ...rpc.Option) error {
	return codedError(c.AdminRequester.SendRequest(ctx, "admin."+method, args, reply, options...))
}

// sign stamps args with key's next call nonce and its signature over the
// call to the fully qualified method.
func (c *Client) sign(ctx context.Context, key *secp256k1.PrivateKey, method string, args auth.Signable, options ...rpc.Option) error {
	nonce, err := c.GetCallNonce(ctx, key.Address(), options...)
	if err != nil {
		return err
	}
	return auth.Sign(method, key, nonce+1, args)
}

func (c *Client) sendSigned(ctx context.Context, key *secp256k1.PrivateKey, method string, args auth.Signable, reply any, options ...rpc.Option) error {
	if err := c.sign(ctx, key, "bridge."+method, args, options...); err != nil {
		return err
	}
	return c.send(ctx, method, args, reply, options...)
}

func (c *Client) sendSignedAdmin(ctx context.Context, key *secp256k1.PrivateKey, method string, args auth.Signable, reply any, options ...rpc.Option) error {
	if err := c.sign(ctx, key, "admin."+method, args, options...); err != nil {
		return err
	}
	return c.sendAdmin(ctx, method, args, reply, options...)
}

func (c *Client) GetRequest(ctx context.Context, requestID uint64, options ...rpc.Option) (*APIRequest, error) {
	res := &APIRequest{}
	err := c.send(ctx, "getRequest", &RequestIDArgs{RequestID: json.Uint64(requestID)}, res, options...)
	return res, err
}

func (c *Client) GetSigningPayload(ctx context.Context, requestID uint64, options ...rpc.Option) ([]byte, error) {
	res := &GetSigningPayloadReply{}
	err := c.send(ctx, "getSigningPayload", &RequestIDArgs{RequestID: json.Uint64(requestID)}, res, options...)
	return res.Payload, err
}

// InitiateOutbound locks funds of key's account. p.Initiator is ignored.
func (c *Client) InitiateOutbound(ctx context.Context, key *secp256k1.PrivateKey, p OutboundParams, options ...rpc.Option) (uint64, error) {
	if key == nil {
		return 0, errNoKey
	}
	res := &RequestIDReply{}
	err := c.sendSigned(ctx, key, "initiateOutbound", &InitiateOutboundArgs{
		Initiator:       key.Address(),
		Asset:           p.Asset,
		Amount:          json.Uint64(p.Amount),
		ChainID:         json.Uint32(p.ChainID),
		ExternalAddress: p.ExternalAddress,
		Nonce:           json.Uint64(p.Nonce),
	}, res, options...)
	return uint64(res.RequestID), err
}

// InitiateInbound reports an external deposit on behalf of key's account.
// p.Initiator is ignored.
func (c *Client) InitiateInbound(ctx context.Context, key *secp256k1.PrivateKey, p InboundParams, options ...rpc.Option) (uint64, error) {
	if key == nil {
		return 0, errNoKey
	}
	res := &RequestIDReply{}
	err := c.sendSigned(ctx, key, "initiateInbound", &InitiateInboundArgs{
		Initiator:       key.Address(),
		Asset:           p.Asset,
		Amount:          json.Uint64(p.Amount),
		ChainID:         json.Uint32(p.ChainID),
		ExternalAddress: p.ExternalAddress,
		ExternalTxHash:  p.ExternalTxHash,
		Confirmations:   json.Uint32(p.Confirmations),
		Nonce:           json.Uint64(p.Nonce),
	}, res, options...)
	return uint64(res.RequestID), err
}

// SubmitVote sends a signed vote and returns the request's status after it
// was counted.
func (c *Client) SubmitVote(
	ctx context.Context,
	validator ids.ShortID,
	requestID uint64,
	approved bool,
	signature []byte,
	options ...rpc.Option,
) (state.Status, error) {
	res := &SubmitVoteReply{}
	err := c.send(ctx, "submitVote", &SubmitVoteArgs{
		Validator: validator,
		RequestID: json.Uint64(requestID),
		Approved:  approved,
		Signature: signature,
	}, res, options...)
	return res.Status, err
}

func (c *Client) CancelRequest(ctx context.Context, key *secp256k1.PrivateKey, requestID uint64, options ...rpc.Option) error {
	if key == nil {
		return errNoKey
	}
	return c.sendSigned(ctx, key, "cancelRequest", &CancelRequestArgs{
		Caller:    key.Address(),
		RequestID: json.Uint64(requestID),
	}, &EmptyReply{}, options...)
}

func (c *Client) HasVoted(ctx context.Context, requestID uint64, validator ids.ShortID, options ...rpc.Option) (bool, error) {
	res := &HasVotedReply{}
	err := c.send(ctx, "hasVoted", &VoteArgs{
		RequestID: json.Uint64(requestID),
		Validator: validator,
	}, res, options...)
	return res.Voted, err
}

func (c *Client) GetVote(ctx context.Context, requestID uint64, validator ids.ShortID, options ...rpc.Option) (*APIVote, error) {
	res := &APIVote{}
	err := c.send(ctx, "getVote", &VoteArgs{
		RequestID: json.Uint64(requestID),
		Validator: validator,
	}, res, options...)
	return res, err
}

func (c *Client) GetNonce(ctx context.Context, account ids.ShortID, options ...rpc.Option) (uint64, error) {
	res := &GetNonceReply{}
	err := c.send(ctx, "getNonce", &AccountArgs{Account: account}, res, options...)
	return uint64(res.Nonce), err
}

// GetCallNonce returns the number of signed calls account has made.
func (c *Client) GetCallNonce(ctx context.Context, account ids.ShortID, options ...rpc.Option) (uint64, error) {
	res := &GetNonceReply{}
	err := c.send(ctx, "getNonce", &AccountArgs{Account: account}, res, options...)
	return uint64(res.CallNonce), err
}

func (c *Client) GetStats(ctx context.Context, options ...rpc.Option) (*state.Stats, error) {
	res := &state.Stats{}
	err := c.send(ctx, "getStats", struct{}{}, res, options...)
	return res, err
}

func (c *Client) GetValidatorSet(ctx context.Context, options ...rpc.Option) (*state.ValidatorSet, error) {
	res := &state.ValidatorSet{}
	err := c.send(ctx, "getValidatorSet", struct{}{}, res, options...)
	return res, err
}

func (c *Client) GetValidatorPubkey(ctx context.Context, validator ids.ShortID, options ...rpc.Option) ([]byte, error) {
	res := &GetValidatorPubkeyReply{}
	err := c.send(ctx, "getValidatorPubkey", &ValidatorArgs{Validator: validator}, res, options...)
	return res.PublicKey, err
}

func (c *Client) GetPendingUpgrade(ctx context.Context, options ...rpc.Option) (*state.PendingUpgrade, error) {
	res := &state.PendingUpgrade{}
	err := c.send(ctx, "getPendingUpgrade", struct{}{}, res, options...)
	return res, err
}

func (c *Client) GetChainConfig(ctx context.Context, chain state.ChainID, options ...rpc.Option) (*state.ChainConfig, error) {
	res := &state.ChainConfig{}
	err := c.send(ctx, "getChainConfig", &ChainArgs{ChainID: json.Uint32(chain)}, res, options...)
	return res, err
}

func (c *Client) GetWrappedAsset(ctx context.Context, asset ids.ID, chain state.ChainID, options ...rpc.Option) (*APIWrappedAsset, error) {
	res := &APIWrappedAsset{}
	err := c.send(ctx, "getWrappedAsset", &AssetArgs{
		Asset:   asset,
		ChainID: json.Uint32(chain),
	}, res, options...)
	return res, err
}

func (c *Client) CheckBackingRatio(ctx context.Context, asset ids.ID, chain state.ChainID, options ...rpc.Option) (uint64, error) {
	res := &CheckBackingRatioReply{}
	err := c.send(ctx, "checkBackingRatio", &AssetArgs{
		Asset:   asset,
		ChainID: json.Uint32(chain),
	}, res, options...)
	return uint64(res.RatioBps), err
}

func (c *Client) ConvertAmount(
	ctx context.Context,
	asset ids.ID,
	chain state.ChainID,
	amount uint64,
	toHome bool,
	options ...rpc.Option,
) (uint64, error) {
	res := &AmountReply{}
	err := c.send(ctx, "convertAmount", &ConvertAmountArgs{
		AssetArgs: AssetArgs{
			Asset:   asset,
			ChainID: json.Uint32(chain),
		},
		Amount: json.Uint64(amount),
		ToHome: toHome,
	}, res, options...)
	return uint64(res.Amount), err
}

func (c *Client) CalculateFee(ctx context.Context, amount uint64, feeBps uint32, options ...rpc.Option) (uint64, uint64, error) {
	res := &CalculateFeeReply{}
	err := c.send(ctx, "calculateFee", &CalculateFeeArgs{
		Amount: json.Uint64(amount),
		FeeBps: json.Uint32(feeBps),
	}, res, options...)
	return uint64(res.Fee), uint64(res.Net), err
}

func (c *Client) GetEvents(ctx context.Context, from uint64, limit uint32, options ...rpc.Option) ([]*state.Event, error) {
	res := &GetEventsReply{}
	err := c.send(ctx, "getEvents", &GetEventsArgs{
		From:  json.Uint64(from),
		Limit: json.Uint32(limit),
	}, res, options...)
	return res.Events, err
}

func (c *Client) SetPause(ctx context.Context, key *secp256k1.PrivateKey, paused bool, reason string, options ...rpc.Option) error {
	if key == nil {
		return errNoKey
	}
	return c.sendSignedAdmin(ctx, key, "setPause", &SetPauseArgs{
		Caller: key.Address(),
		Paused: paused,
		Reason: reason,
	}, &EmptyReply{}, options...)
}

func (c *Client) ConfigureChain(ctx context.Context, key *secp256k1.PrivateKey, p ChainParams, options ...rpc.Option) error {
	if key == nil {
		return errNoKey
	}
	return c.sendSignedAdmin(ctx, key, "configureChain", &ConfigureChainArgs{
		Caller:            key.Address(),
		ChainID:           json.Uint32(p.ChainID),
		MinConfirmations:  json.Uint32(p.MinConfirmations),
		MaxTransferAmount: json.Uint64(p.MaxTransferAmount),
		DailyLimit:        json.Uint64(p.DailyLimit),
		FeeBps:            json.Uint32(p.FeeBps),
		ExpirySeconds:     json.Uint64(p.ExpirySeconds),
	}, &EmptyReply{}, options...)
}

func (c *Client) RegisterAsset(ctx context.Context, key *secp256k1.PrivateKey, p AssetParams, options ...rpc.Option) error {
	if key == nil {
		return errNoKey
	}
	return c.sendSignedAdmin(ctx, key, "registerAsset", &RegisterAssetArgs{
		Caller:           key.Address(),
		Asset:            p.Asset,
		ChainID:          json.Uint32(p.ChainID),
		ExternalContract: p.ExternalContract,
		HomeDecimals:     p.HomeDecimals,
		ExternalDecimals: p.ExternalDecimals,
	}, &EmptyReply{}, options...)
}

func (c *Client) ApplyValidatorUpgrade(ctx context.Context, key *secp256k1.PrivateKey, options ...rpc.Option) (uint64, error) {
	if key == nil {
		return 0, errNoKey
	}
	res := &SetVersionReply{}
	err := c.sendSignedAdmin(ctx, key, "applyValidatorUpgrade", &CallerArgs{Caller: key.Address()}, res, options...)
	return uint64(res.Version), err
}
