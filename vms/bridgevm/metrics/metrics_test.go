// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

func TestObserve(t *testing.T) {
	require := require.New(t)

	m, err := New(metric.NewRegistry())
	require.NoError(err)
	impl := m.(*metrics)

	m.Observe(&state.Event{
		Type:      state.EventRequestInitiated,
		Direction: state.Outbound,
		Amount:    1_000,
		Fee:       30,
	})
	m.Observe(&state.Event{Type: state.EventValidatorVoted, Approved: true})
	m.Observe(&state.Event{Type: state.EventValidatorVoted, Approved: false})
	m.Observe(&state.Event{Type: state.EventRequestCompleted, Status: state.Completed})
	m.Observe(&state.Event{Type: state.EventPauseToggled, Flag: true})
	m.Observe(&state.Event{
		Type:           state.EventValidatorAdded,
		ValidatorCount: 6,
		Threshold:      5,
		SetVersion:     2,
	})

	require.Equal(1.0, testutil.ToFloat64(impl.initiated.WithLabelValues("outbound")))
	require.Equal(1_000.0, testutil.ToFloat64(impl.volume))
	require.Equal(30.0, testutil.ToFloat64(impl.fees))
	require.Equal(1.0, testutil.ToFloat64(impl.votes.WithLabelValues("approve")))
	require.Equal(1.0, testutil.ToFloat64(impl.votes.WithLabelValues("reject")))
	require.Equal(1.0, testutil.ToFloat64(impl.settled.WithLabelValues("completed")))
	require.Equal(1.0, testutil.ToFloat64(impl.paused))
	require.Equal(6.0, testutil.ToFloat64(impl.validators))
	require.Equal(5.0, testutil.ToFloat64(impl.threshold))
	require.Equal(2.0, testutil.ToFloat64(impl.setVersion))
}

func TestMarkFailed(t *testing.T) {
	require := require.New(t)

	m, err := New(metric.NewRegistry())
	require.NoError(err)
	impl := m.(*metrics)

	m.MarkFailed("submitVote", fmt.Errorf("vote: %w", codes.ErrInvalidSignature))
	m.MarkFailed("submitVote", errors.New("disk full"))

	require.Equal(1.0, testutil.ToFloat64(impl.failures.WithLabelValues("submitVote", "5071")))
	require.Equal(1.0, testutil.ToFloat64(impl.failures.WithLabelValues("submitVote", uncoded)))
}

func TestNewDuplicateRegistration(t *testing.T) {
	reg := metric.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}
