// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"testing"

	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bridge/vms/bridgevm/auth"
	"github.com/luxfi/bridge/vms/bridgevm/config"
	"github.com/luxfi/bridge/vms/bridgevm/custody"
	"github.com/luxfi/bridge/vms/bridgevm/metrics"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

const (
	testStartTime      = 1_000_000
	testChain          = state.ChainEthereum
	testMaxTransfer    = 1_000
	testDailyLimit     = 10_000
	testFeeBps         = 30
	testExpiry         = 3_600
	testConfirmations  = 12
	testInitialBalance = 1_000_000
)

var testExternalAddress = []byte{0xde, 0xad, 0xbe, 0xef}

type testEnv struct {
	*Bridge

	db         database.Database
	adminKey   *secp256k1.PrivateKey
	admin      ids.ShortID
	collector  ids.ShortID
	userKey    *secp256k1.PrivateKey
	user       ids.ShortID
	asset      ids.ID
	validators []ids.ShortID
	keys       map[ids.ShortID]*signer.Key
}

type envOption func(*config.Config)

func withMultiplierBps(bps uint64) envOption {
	return func(c *config.Config) {
		c.LargeTransferMultiplierBps = bps
	}
}

// newUninitialized returns a bridge over an empty database.
func newUninitialized(t *testing.T, opts ...envOption) *testEnv {
	require := require.New(t)

	cfg := config.Default
	for _, opt := range opts {
		opt(&cfg)
	}
	db := memdb.New()
	m, err := metrics.New(metric.NewRegistry())
	require.NoError(err)
	b, err := New(&cfg, db, custody.LedgerFactory(), m, log.NewNoOpLogger())
	require.NoError(err)
	b.Clock().SetUnix(testStartTime)

	adminKey := newAccountKey(t)
	userKey := newAccountKey(t)
	return &testEnv{
		Bridge:    b,
		db:        db,
		adminKey:  adminKey,
		admin:     adminKey.Address(),
		collector: ids.GenerateTestShortID(),
		userKey:   userKey,
		user:      userKey.Address(),
		asset:     ids.GenerateTestID(),
		keys:      make(map[ids.ShortID]*signer.Key),
	}
}

func newAccountKey(t *testing.T) *secp256k1.PrivateKey {
	key, err := secp256k1.NewPrivateKey()
	require.NoError(t, err)
	return key
}

// sign signs args for the fully qualified method with key and its next call
// nonce.
func (env *testEnv) sign(t *testing.T, key *secp256k1.PrivateKey, method string, args auth.Signable) {
	nonce, err := env.GetCallNonce(key.Address())
	require.NoError(t, err)
	require.NoError(t, auth.Sign(method, key, nonce+1, args))
}

// newTestEnv returns an initialized bridge with n validators, a configured
// chain, a registered asset and a funded user.
func newTestEnv(t *testing.T, n int, threshold uint32, opts ...envOption) *testEnv {
	require := require.New(t)

	env := newUninitialized(t, opts...)
	validators, pubkeys := env.newValidators(t, n)
	require.NoError(env.Initialize(env.admin, env.collector, validators, threshold, pubkeys))
	env.validators = validators

	require.NoError(env.ConfigureChain(env.admin, ChainParams{
		ChainID:           testChain,
		MinConfirmations:  testConfirmations,
		MaxTransferAmount: testMaxTransfer,
		DailyLimit:        testDailyLimit,
		FeeBps:            testFeeBps,
		ExpirySeconds:     testExpiry,
	}))
	require.NoError(env.RegisterAsset(env.admin, AssetParams{
		Asset:            env.asset,
		ChainID:          testChain,
		ExternalContract: []byte{0x01, 0x02},
		HomeDecimals:     9,
		ExternalDecimals: 18,
	}))
	require.NoError(custody.NewLedger(env.db).Mint(env.asset, env.user, testInitialBalance))
	return env
}

// newValidators generates n validators and remembers their keys.
func (env *testEnv) newValidators(t *testing.T, n int) ([]ids.ShortID, [][]byte) {
	validators := make([]ids.ShortID, n)
	pubkeys := make([][]byte, n)
	for i := range validators {
		id, pubkey := env.newValidator(t)
		validators[i] = id
		pubkeys[i] = pubkey
	}
	return validators, pubkeys
}

func (env *testEnv) newValidator(t *testing.T) (ids.ShortID, []byte) {
	key, err := signer.GenerateKey()
	require.NoError(t, err)
	id := ids.GenerateTestShortID()
	env.keys[id] = key
	return id, key.PublicKey()
}

func (env *testEnv) outbound(t *testing.T, amount uint64) uint64 {
	id, err := env.InitiateOutbound(OutboundParams{
		Initiator:       env.user,
		Asset:           env.asset,
		Amount:          amount,
		ChainID:         testChain,
		ExternalAddress: testExternalAddress,
	})
	require.NoError(t, err)
	return id
}

func (env *testEnv) inboundParams(amount uint64, txHash byte) InboundParams {
	return InboundParams{
		Initiator:       env.user,
		Asset:           env.asset,
		Amount:          amount,
		ChainID:         testChain,
		ExternalAddress: testExternalAddress,
		ExternalTxHash:  []byte{txHash, 0xaa, 0xbb},
		Confirmations:   testConfirmations,
	}
}

func (env *testEnv) inbound(t *testing.T, amount uint64, txHash byte) uint64 {
	id, err := env.InitiateInbound(env.inboundParams(amount, txHash))
	require.NoError(t, err)
	return id
}

// vote signs the request's payload with the validator's key and submits it.
func (env *testEnv) vote(t *testing.T, validator ids.ShortID, requestID uint64, approved bool) (state.Status, error) {
	payload, err := env.SigningPayload(requestID)
	require.NoError(t, err)
	return env.SubmitVote(validator, requestID, approved, env.keys[validator].Sign(payload))
}

func (env *testEnv) mustVote(t *testing.T, validator ids.ShortID, requestID uint64, approved bool) state.Status {
	status, err := env.vote(t, validator, requestID, approved)
	require.NoError(t, err)
	return status
}

func (env *testEnv) balance(t *testing.T, holder ids.ShortID) uint64 {
	balance, err := custody.NewLedger(env.db).Balance(env.asset, holder)
	require.NoError(t, err)
	return balance
}

func (env *testEnv) request(t *testing.T, id uint64) *state.Request {
	req, err := env.GetRequest(id)
	require.NoError(t, err)
	return req
}

func (env *testEnv) wrapped(t *testing.T) *state.WrappedAsset {
	a, err := env.GetWrappedAsset(env.asset, testChain)
	require.NoError(t, err)
	return a
}

func (env *testEnv) stats(t *testing.T) *state.Stats {
	stats, err := env.GetStats()
	require.NoError(t, err)
	return stats
}

func (env *testEnv) eventTypes(t *testing.T) []state.EventType {
	events, err := env.GetEvents(0, 0)
	require.NoError(t, err)
	types := make([]state.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}
