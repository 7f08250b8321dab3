// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
)

func TestSingletons(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())

	initialized, err := s.IsInitialized()
	require.NoError(err)
	require.False(initialized)
	require.NoError(s.SetInitialized())
	initialized, err = s.IsInitialized()
	require.NoError(err)
	require.True(initialized)

	_, err = s.GetAdmin()
	require.ErrorIs(err, database.ErrNotFound)

	admin := ids.GenerateTestShortID()
	require.NoError(s.PutAdmin(admin))
	got, err := s.GetAdmin()
	require.NoError(err)
	require.Equal(admin, got)

	stats, err := s.GetStats()
	require.NoError(err)
	require.Equal(&Stats{}, stats)

	stats.TotalRequests = 3
	stats.IsPaused = true
	stats.PauseReason = "incident"
	require.NoError(s.PutStats(stats))
	stats, err = s.GetStats()
	require.NoError(err)
	require.Equal(uint64(3), stats.TotalRequests)
	require.Equal("incident", stats.PauseReason)
}

func TestValidatorSetRoundTrip(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	set := &ValidatorSet{
		Validators: []ids.ShortID{
			ids.GenerateTestShortID(),
			ids.GenerateTestShortID(),
			ids.GenerateTestShortID(),
		},
		Threshold: 3,
		Version:   1,
		UpdatedAt: 100,
	}
	require.NoError(s.PutValidatorSet(set))

	got, err := s.GetValidatorSet()
	require.NoError(err)
	require.Equal(set, got)

	require.True(got.Contains(set.Validators[1]))
	require.True(got.Remove(set.Validators[1]))
	require.False(got.Contains(set.Validators[1]))
	require.False(got.Remove(set.Validators[1]))
	require.Equal([]ids.ShortID{set.Validators[0], set.Validators[2]}, got.Validators)
}

func TestRequestCounter(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	for want := uint64(1); want <= 3; want++ {
		id, err := s.NextRequestID()
		require.NoError(err)
		require.Equal(want, id)
	}
}

func TestKeyedStoresAreIndependent(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	asset := ids.GenerateTestID()

	require.NoError(s.PutAsset(&WrappedAsset{Asset: asset, ChainID: ChainEthereum, IsActive: true}))
	ok, err := s.HasAsset(asset, ChainEthereum)
	require.NoError(err)
	require.True(ok)
	ok, err = s.HasAsset(asset, ChainPolygon)
	require.NoError(err)
	require.False(ok)

	validator := ids.GenerateTestShortID()
	require.NoError(s.PutVote(&Vote{Validator: validator, RequestID: 1, Approved: true}))
	ok, err = s.HasVote(1, validator)
	require.NoError(err)
	require.True(ok)
	ok, err = s.HasVote(2, validator)
	require.NoError(err)
	require.False(ok)

	hash := []byte{0xaa, 0xbb}
	ok, err = s.IsProcessed(hash)
	require.NoError(err)
	require.False(ok)
	require.NoError(s.PutClaim(hash, 9))
	id, err := s.GetClaim(hash)
	require.NoError(err)
	require.Equal(uint64(9), id)
	ok, err = s.IsProcessed(hash)
	require.NoError(err)
	require.False(ok)
	require.NoError(s.DeleteClaim(hash))
	_, err = s.GetClaim(hash)
	require.ErrorIs(err, database.ErrNotFound)
}

func TestNonce(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	addr := ids.GenerateTestShortID()

	nonce, err := s.GetNonce(addr)
	require.NoError(err)
	require.Zero(nonce)

	require.NoError(s.PutNonce(addr, 4))
	nonce, err = s.GetNonce(addr)
	require.NoError(err)
	require.Equal(uint64(4), nonce)

	// request and call nonces are counted separately
	callNonce, err := s.GetCallNonce(addr)
	require.NoError(err)
	require.Zero(callNonce)

	require.NoError(s.PutCallNonce(addr, 9))
	callNonce, err = s.GetCallNonce(addr)
	require.NoError(err)
	require.Equal(uint64(9), callNonce)
	nonce, err = s.GetNonce(addr)
	require.NoError(err)
	require.Equal(uint64(4), nonce)
}

func TestEvents(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	for i := 0; i < 5; i++ {
		require.NoError(s.AddEvent(&Event{Type: EventRequestInitiated, RequestID: uint64(i + 1)}))
	}

	events, err := s.GetEvents(0, 10)
	require.NoError(err)
	require.Len(events, 5)
	require.Equal(uint64(1), events[0].Seq)

	events, err = s.GetEvents(4, 10)
	require.NoError(err)
	require.Len(events, 2)
	require.Equal(uint64(4), events[0].Seq)
	require.Equal(uint64(4), events[0].RequestID)

	events, err = s.GetEvents(1, 2)
	require.NoError(err)
	require.Len(events, 2)
}

// Writes through a versiondb are invisible until committed and vanish on
// abort.
func TestVersionDBAbort(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	vdb := versiondb.New(base)
	s := New(vdb)

	require.NoError(s.PutRequest(&Request{ID: 1, GrossAmount: 10}))
	_, err := New(base).GetRequest(1)
	require.ErrorIs(err, database.ErrNotFound)

	vdb.Abort()
	_, err = New(base).GetRequest(1)
	require.ErrorIs(err, database.ErrNotFound)

	vdb = versiondb.New(base)
	require.NoError(New(vdb).PutRequest(&Request{ID: 1, GrossAmount: 10}))
	require.NoError(vdb.Commit())

	req, err := New(base).GetRequest(1)
	require.NoError(err)
	require.Equal(uint64(10), req.GrossAmount)
}

func TestRefreshWindow(t *testing.T) {
	require := require.New(t)

	c := &ChainConfig{DailyVolume: 500, WindowStart: 1_000}
	require.False(c.RefreshWindow(87_399, 86_400))
	require.Equal(uint64(500), c.DailyVolume)

	require.True(c.RefreshWindow(87_400, 86_400))
	require.Zero(c.DailyVolume)
	require.Equal(uint64(87_400), c.WindowStart)
}

func TestDecimalConversion(t *testing.T) {
	tests := []struct {
		name       string
		home       uint8
		external   uint8
		amount     uint64
		toHome     uint64
		toExternal uint64
	}{
		{
			name:       "same decimals",
			home:       7,
			external:   7,
			amount:     12_345,
			toHome:     12_345,
			toExternal: 12_345,
		},
		{
			name:       "external has more decimals",
			home:       7,
			external:   12,
			amount:     123_456_789,
			toHome:     1_234,
			toExternal: 12_345_678_900_000,
		},
		{
			name:       "home has more decimals",
			home:       9,
			external:   6,
			amount:     5_000,
			toHome:     5_000_000,
			toExternal: 5,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			a := &WrappedAsset{HomeDecimals: test.home, ExternalDecimals: test.external}
			got, err := a.ToHome(test.amount)
			require.NoError(err)
			require.Equal(test.toHome, got)

			got, err = a.ToExternal(test.amount)
			require.NoError(err)
			require.Equal(test.toExternal, got)
		})
	}
}

func TestDecimalConversionOverflow(t *testing.T) {
	a := &WrappedAsset{HomeDecimals: 0, ExternalDecimals: 18}
	_, err := a.ToExternal(1 << 62)
	require.Error(t, err)
}

func TestNamesRoundTrip(t *testing.T) {
	require := require.New(t)

	for _, s := range []Status{Pending, Approved, Completed, Rejected, Cancelled, Expired} {
		b, err := s.MarshalText()
		require.NoError(err)
		var parsed Status
		require.NoError(parsed.UnmarshalText(b))
		require.Equal(s, parsed)
	}
	for _, d := range []Direction{Outbound, Inbound} {
		b, err := d.MarshalText()
		require.NoError(err)
		var parsed Direction
		require.NoError(parsed.UnmarshalText(b))
		require.Equal(d, parsed)
	}
	for eventType := range eventTypeNames {
		b, err := eventType.MarshalText()
		require.NoError(err)
		var parsed EventType
		require.NoError(parsed.UnmarshalText(b))
		require.Equal(eventType, parsed)
	}

	var s Status
	require.ErrorIs(s.UnmarshalText([]byte("settled")), errUnknownName)
}
