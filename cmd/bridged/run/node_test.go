// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bridge/api/server"
	"github.com/luxfi/bridge/utils/profiler"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
	"github.com/luxfi/bridge/vms/bridgevm/state"

	bvm "github.com/luxfi/bridge/vms/bridgevm"
)

// testGenesis returns a genesis administered by the returned key.
func testGenesis(t *testing.T) ([]byte, *secp256k1.PrivateKey) {
	adminKey, err := secp256k1.NewPrivateKey()
	require.NoError(t, err)
	g := &bvm.Genesis{
		Admin:        adminKey.Address(),
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
	}
	for range 3 {
		key, err := signer.GenerateKey()
		require.NoError(t, err)
		g.Validators = append(g.Validators, bvm.GenesisValidator{
			ID:        ids.GenerateTestShortID(),
			PublicKey: hex.EncodeToString(key.PublicKey()),
		})
	}
	b, err := json.Marshal(g)
	require.NoError(t, err)
	return b, adminKey
}

func testConfig(t *testing.T, genesis []byte) *Config {
	return &Config{
		DataDir:         filepath.Join(t.TempDir(), "db"),
		Genesis:         genesis,
		HTTPHost:        "127.0.0.1",
		AllowedOrigins:  []string{"*"},
		AllowedHosts:    []string{"*"},
		ShutdownTimeout: time.Second,
		HTTPConfig:      server.HTTPConfig{ReadHeaderTimeout: time.Second},
	}
}

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNode(t *testing.T) {
	require := require.New(t)

	genesisBytes, adminKey := testGenesis(t)
	config := testConfig(t, genesisBytes)
	config.AdminAPIEnabled = true
	config.Profiler = profiler.Config{
		Dir:         filepath.Join(t.TempDir(), "profiles"),
		Enabled:     true,
		Freq:        time.Minute,
		MaxNumFiles: 1,
	}

	node, err := New(config, log.NewNoOpLogger())
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() {
		stopped <- node.Run(ctx)
	}()

	uri := "http://" + node.Addr().String()
	client := bvm.NewClient(uri)
	set, err := client.GetValidatorSet(context.Background())
	require.NoError(err)
	require.Equal(uint32(3), set.Threshold)
	require.Len(set.Validators, 3)

	require.NoError(client.SetPause(context.Background(), adminKey, true, "maintenance"))
	stats, err := client.GetStats(context.Background())
	require.NoError(err)
	require.True(stats.IsPaused)

	status, body := get(t, uri+"/ext/health")
	require.Equal(http.StatusServiceUnavailable, status)
	require.Contains(body, bridgeCheck)

	status, body = get(t, uri+"/ext/metrics")
	require.Equal(http.StatusOK, status)
	require.Contains(body, "bridge_paused 1")
	require.Contains(body, "http_requests_total")
	require.Contains(body, "node_go_goroutines")

	cancel()
	require.NoError(<-stopped)
	require.FileExists(filepath.Join(config.Profiler.Dir, "cpu.profile"))
}

func TestNodeRestartKeepsState(t *testing.T) {
	require := require.New(t)

	genesisBytes, _ := testGenesis(t)
	config := testConfig(t, genesisBytes)

	node, err := New(config, log.NewNoOpLogger())
	require.NoError(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(node.Run(ctx))

	// A second genesis is ignored once the database is initialized.
	otherGenesis, _ := testGenesis(t)
	config.Genesis = otherGenesis
	node, err = New(config, log.NewNoOpLogger())
	require.NoError(err)

	details, err := node.bridge.HealthCheck(context.Background())
	require.NoError(err)
	require.Equal(3, details.(*bvm.HealthDetails).Validators)
	require.Equal(uint64(1), details.(*bvm.HealthDetails).SetVersion)

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	require.NoError(node.Run(ctx))
}

func TestNodeInvalidGenesis(t *testing.T) {
	require := require.New(t)

	config := testConfig(t, []byte(`{"threshold":`))
	_, err := New(config, log.NewNoOpLogger())
	require.ErrorContains(err, "failed to parse genesis")
}
