// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetConfig(t *testing.T) {
	t.Run("no input", func(t *testing.T) {
		require := require.New(t)

		c, err := GetConfig(nil)
		require.NoError(err)
		require.Equal(&Default, c)
		require.Equal(uint64(172_800), c.UpgradeTimelockSeconds())
		require.Equal(uint64(86_400), c.VolumeWindowSeconds())
		require.Equal(uint64(100_000), c.LargeTransferMultiplierBps)
	})

	t.Run("partial input keeps defaults", func(t *testing.T) {
		require := require.New(t)

		b := []byte(`{"large-transfer-multiplier-bps": 5000, "upgrade-timelock": 3600000000000}`)
		c, err := GetConfig(b)
		require.NoError(err)
		require.Equal(uint64(5_000), c.LargeTransferMultiplierBps)
		require.Equal(time.Hour, c.UpgradeTimelock)
		require.Equal(Default.VolumeWindow, c.VolumeWindow)
		require.Equal(Default.SignatureCacheSize, c.SignatureCacheSize)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := GetConfig([]byte(`{"large-transfer-multiplier-bps": 0}`))
		require.ErrorIs(t, err, errZeroMultiplier)

		_, err = GetConfig([]byte(`{"volume-window": 10}`))
		require.ErrorIs(t, err, errWindowTooShort)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := GetConfig([]byte(`{`))
		require.Error(t, err)
	})
}
