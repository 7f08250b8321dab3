// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sign

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bridge/cmd/bridged/keygen"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
	"github.com/luxfi/bridge/vms/bridgevm/state"

	bvm "github.com/luxfi/bridge/vms/bridgevm"
)

var externalAddress = []byte{0xde, 0xad, 0xbe, 0xef}

type testNode struct {
	uri       string
	bridge    *bvm.Bridge
	validator ids.ShortID
	key       *signer.Key
	requestID uint64
}

// newTestNode serves a bridge with one pending outbound request. The first
// validator's key is returned for signing.
func newTestNode(t *testing.T) *testNode {
	require := require.New(t)

	bridge, err := (&bvm.Factory{}).New(memdb.New(), nil, metric.NewRegistry(), log.NewNoOpLogger())
	require.NoError(err)

	user := ids.GenerateTestShortID()
	asset := ids.GenerateTestID()
	genesis := &bvm.Genesis{
		Admin:        ids.GenerateTestShortID(),
		FeeCollector: ids.GenerateTestShortID(),
		Threshold:    3,
		Chains: []bvm.GenesisChain{{
			ChainID:           uint32(state.ChainEthereum),
			MinConfirmations:  12,
			MaxTransferAmount: 1_000,
			DailyLimit:        10_000,
			FeeBps:            30,
			ExpirySeconds:     3_600,
		}},
		Assets: []bvm.GenesisAsset{{
			Asset:            asset,
			ChainID:          uint32(state.ChainEthereum),
			ExternalContract: "0x0102",
			HomeDecimals:     9,
			ExternalDecimals: 18,
		}},
		Balances: []bvm.GenesisBalance{{
			Asset:  asset,
			Holder: user,
			Amount: 1_000_000,
		}},
	}
	keys := make([]*signer.Key, 3)
	for i := range keys {
		keys[i], err = signer.GenerateKey()
		require.NoError(err)
		genesis.Validators = append(genesis.Validators, bvm.GenesisValidator{
			ID:        ids.GenerateTestShortID(),
			PublicKey: hex.EncodeToString(keys[i].PublicKey()),
		})
	}
	applied, err := bridge.ApplyGenesis(genesis)
	require.NoError(err)
	require.True(applied)

	requestID, err := bridge.InitiateOutbound(bvm.OutboundParams{
		Initiator:       user,
		Asset:           asset,
		Amount:          1_000,
		ChainID:         state.ChainEthereum,
		ExternalAddress: externalAddress,
	})
	require.NoError(err)

	handlers, err := bridge.CreateHandlers(false)
	require.NoError(err)
	mux := http.NewServeMux()
	mux.Handle("/ext/bridge", handlers[""])
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testNode{
		uri:       server.URL,
		bridge:    bridge,
		validator: genesis.Validators[0].ID,
		key:       keys[0],
		requestID: requestID,
	}
}

func TestSignAndSubmit(t *testing.T) {
	require := require.New(t)

	node := newTestNode(t)
	out := &bytes.Buffer{}
	require.NoError(Sign(context.Background(), &Config{
		Key:       node.key,
		URI:       node.uri,
		RequestID: node.requestID,
		Validator: node.validator,
		Submit:    true,
		Approved:  true,
	}, out))

	require.Contains(out.String(), "net amount: 997")
	require.Contains(out.String(), "request status: pending")

	voted, err := node.bridge.HasValidatorVoted(node.requestID, node.validator)
	require.NoError(err)
	require.True(voted)
}

func TestSignOffline(t *testing.T) {
	require := require.New(t)

	key, err := signer.GenerateKey()
	require.NoError(err)
	payload := signer.Payload(7, 997, uint32(state.ChainEthereum), externalAddress)

	out := &bytes.Buffer{}
	require.NoError(Sign(context.Background(), &Config{
		Key:     key,
		URI:     "http://127.0.0.1:1",
		Payload: payload,
	}, out))
	require.Contains(out.String(), "signature: 0x"+hex.EncodeToString(key.Sign(payload)))

	err = Sign(context.Background(), &Config{
		Key:       key,
		URI:       "http://127.0.0.1:1",
		RequestID: 8,
		Payload:   payload,
	}, out)
	require.ErrorIs(err, errPayloadIDMismatch)
}

func TestParseFlags(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "validator.key")
	_, err := keygen.Generate(&keygen.Config{KeyFile: keyFile})
	require.NoError(t, err)
	validator := ids.GenerateTestShortID()

	tests := []struct {
		name        string
		args        []string
		expectedErr error
		expected    func(*require.Assertions, *Config)
	}{
		{
			name:        "no request",
			args:        []string{"--" + KeyFileKey, keyFile},
			expectedErr: errMissingRequest,
		},
		{
			name: "submit without request id",
			args: []string{
				"--" + KeyFileKey, keyFile,
				"--" + PayloadKey, "0x00",
				"--" + ValidatorKey, validator.String(),
			},
			expectedErr: errSubmitNeedsRequest,
		},
		{
			name: "bad payload",
			args: []string{
				"--" + KeyFileKey, keyFile,
				"--" + PayloadKey, "0xzz",
			},
			expectedErr: errInvalidPayloadBytes,
		},
		{
			name: "reject vote",
			args: []string{
				"--" + KeyFileKey, keyFile,
				"--" + RequestIDKey, "4",
				"--" + ValidatorKey, validator.String(),
				"--" + RejectKey,
			},
			expected: func(require *require.Assertions, config *Config) {
				require.Equal(uint64(4), config.RequestID)
				require.Equal(validator, config.Validator)
				require.True(config.Submit)
				require.False(config.Approved)
				require.Equal(defaultURI, config.URI)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			config, err := ParseFlags(Command().Flags(), tt.args)
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}
			tt.expected(require, config)
		})
	}
}
