// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/bridge/utils/json"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

func TestOutboundCompletesAtThreshold(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 5, 4)
	id := env.outbound(t, 1_000)

	req := env.request(t, id)
	require.Equal(uint32(4), req.RequiredApprovals)
	require.Equal(uint64(3), req.FeeAmount)
	require.Equal(uint64(997), req.NetAmount)

	for _, v := range env.validators[:3] {
		require.Equal(state.Pending, env.mustVote(t, v, id, true))
	}
	require.Equal(state.Completed, env.mustVote(t, env.validators[3], id, true))

	req = env.request(t, id)
	require.Equal(state.Completed, req.Status)
	require.Equal(uint32(4), req.ApprovalCount)
	require.Equal(uint64(testStartTime), req.CompletedAt)

	require.Equal(uint64(testInitialBalance-1_000), env.balance(t, env.user))
	require.Equal(uint64(3), env.balance(t, env.collector))
	require.Equal(uint64(1_000), env.wrapped(t).TotalLocked)

	stats := env.stats(t)
	require.Equal(uint64(1), stats.TotalRequests)
	require.Equal(uint64(1), stats.TotalCompleted)
	require.Equal(uint64(1_000), stats.TotalVolume)
	require.Equal(uint64(3), stats.TotalFeesCollected)

	_, err := env.vote(t, env.validators[4], id, true)
	require.ErrorIs(err, codes.ErrRequestAlreadyProcessed)
}

func TestLargeTransferNeedsEveryValidator(t *testing.T) {
	require := require.New(t)

	// Half the max transfer amount is already large.
	env := newTestEnv(t, 5, 4, withMultiplierBps(5_000))

	small := env.outbound(t, 500)
	require.Equal(uint32(4), env.request(t, small).RequiredApprovals)

	large := env.outbound(t, 600)
	require.Equal(uint32(5), env.request(t, large).RequiredApprovals)
	for _, v := range env.validators[:4] {
		require.Equal(state.Pending, env.mustVote(t, v, large, true))
	}
	require.Equal(state.Completed, env.mustVote(t, env.validators[4], large, true))
}

func TestRejectionWhenThresholdUnreachable(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 5, 4)
	id := env.outbound(t, 1_000)

	require.Equal(state.Pending, env.mustVote(t, env.validators[0], id, true))
	require.Equal(state.Pending, env.mustVote(t, env.validators[1], id, true))
	require.Equal(state.Pending, env.mustVote(t, env.validators[2], id, false))
	require.Equal(state.Rejected, env.mustVote(t, env.validators[3], id, false))

	req := env.request(t, id)
	require.Equal(uint32(2), req.ApprovalCount)
	require.Equal(uint32(2), req.RejectionCount)

	// The fee is kept and the rest returned.
	require.Equal(uint64(testInitialBalance-3), env.balance(t, env.user))
	require.Equal(uint64(3), env.balance(t, env.collector))
	require.Zero(env.wrapped(t).TotalLocked)
	require.Equal(uint64(1), env.stats(t).TotalRejected)

	_, err := env.vote(t, env.validators[4], id, true)
	require.ErrorIs(err, codes.ErrRequestAlreadyProcessed)
}

func TestExpiryWinsOverVotes(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 5, 4)
	id := env.outbound(t, 1_000)
	expiresAt := env.request(t, id).ExpiresAt
	require.Equal(uint64(testStartTime+testExpiry), expiresAt)

	// A vote exactly at the deadline still counts.
	env.Clock().SetUnix(expiresAt)
	require.Equal(state.Pending, env.mustVote(t, env.validators[0], id, true))
	require.Equal(state.Pending, env.mustVote(t, env.validators[1], id, true))
	require.Equal(state.Pending, env.mustVote(t, env.validators[2], id, true))

	env.Clock().SetUnix(expiresAt + 1)
	status, err := env.vote(t, env.validators[3], id, true)
	require.NoError(err)
	require.Equal(state.Expired, status)

	voted, err := env.HasValidatorVoted(id, env.validators[3])
	require.NoError(err)
	require.False(voted)

	req := env.request(t, id)
	require.Equal(state.Expired, req.Status)
	require.Equal(uint32(3), req.ApprovalCount)
	require.Equal(expiresAt+1, req.CompletedAt)
	require.Equal(uint64(testInitialBalance-3), env.balance(t, env.user))
	require.Zero(env.wrapped(t).TotalLocked)
	require.Equal(uint64(1), env.stats(t).TotalExpired)

	_, err = env.vote(t, env.validators[4], id, false)
	require.ErrorIs(err, codes.ErrRequestAlreadyProcessed)
}

func TestVoteIsIdempotent(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 5, 4)
	id := env.outbound(t, 1_000)
	v := env.validators[0]

	require.Equal(state.Pending, env.mustVote(t, v, id, true))
	before := env.request(t, id)
	events := env.eventTypes(t)

	for _, approved := range []bool{true, false} {
		_, err := env.vote(t, v, id, approved)
		require.ErrorIs(err, codes.ErrAlreadyVoted)
	}
	require.Equal(before, env.request(t, id))
	require.Equal(events, env.eventTypes(t))

	vote, err := env.GetVote(id, v)
	require.NoError(err)
	require.True(vote.Approved)
	require.Equal(uint64(1), vote.SetVersion)

	_, err = env.GetVote(id, env.validators[1])
	require.ErrorIs(err, ErrVoteNotFound)
}

func TestVoteErrorReturnsZeroStatus(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 5, 4)
	id := env.outbound(t, 1_000)
	for _, v := range env.validators[:4] {
		env.mustVote(t, v, id, true)
	}
	require.Equal(state.Completed, env.request(t, id).Status)

	status, err := env.vote(t, env.validators[4], id, true)
	require.ErrorIs(err, codes.ErrRequestAlreadyProcessed)
	require.Zero(status)

	s := &Service{bridge: env.Bridge}
	payload, err := env.SigningPayload(id)
	require.NoError(err)
	reply := SubmitVoteReply{Status: state.Expired}
	err = s.SubmitVote(nil, &SubmitVoteArgs{
		Validator: env.validators[4],
		RequestID: json.Uint64(id),
		Approved:  true,
		Signature: env.keys[env.validators[4]].Sign(payload),
	}, &reply)
	require.Error(err)
	require.Equal(state.Expired, reply.Status)
}

func TestVoteAuthentication(t *testing.T) {
	env := newTestEnv(t, 5, 4)
	id := env.outbound(t, 1_000)
	other := env.outbound(t, 500)

	outsider, _ := env.newValidator(t)
	otherPayload, err := env.SigningPayload(other)
	require.NoError(t, err)
	payload, err := env.SigningPayload(id)
	require.NoError(t, err)

	tests := []struct {
		name        string
		validator   int
		signature   func() []byte
		expectedErr error
	}{
		{
			name:        "signature over another request",
			signature:   func() []byte { return env.keys[env.validators[0]].Sign(otherPayload) },
			expectedErr: codes.ErrInvalidSignature,
		},
		{
			name:        "signature by another validator",
			signature:   func() []byte { return env.keys[env.validators[1]].Sign(payload) },
			expectedErr: codes.ErrInvalidSignature,
		},
		{
			name:        "truncated signature",
			signature:   func() []byte { return env.keys[env.validators[0]].Sign(payload)[:10] },
			expectedErr: codes.ErrInvalidSignature,
		},
		{
			name:        "not a validator",
			validator:   -1,
			signature:   func() []byte { return env.keys[outsider].Sign(payload) },
			expectedErr: codes.ErrNotValidator,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			voter := env.validators[0]
			if tt.validator < 0 {
				voter = outsider
			}
			_, err := env.SubmitVote(voter, id, true, tt.signature())
			require.ErrorIs(err, tt.expectedErr)

			voted, err := env.HasValidatorVoted(id, voter)
			require.NoError(err)
			require.False(voted)
			require.Zero(env.request(t, id).ApprovalCount)
		})
	}

	_, err = env.SubmitVote(env.validators[0], 99, true, nil)
	require.ErrorIs(t, err, codes.ErrRequestNotFound)
}

func TestSettlementIsMonotonic(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 7, 5)
	id := env.outbound(t, 1_000)

	votes := []bool{true, false, true, false, true, true, true}
	var approvals, rejections uint32
	for i, approved := range votes {
		status := env.mustVote(t, env.validators[i], id, approved)
		req := env.request(t, id)
		require.GreaterOrEqual(req.ApprovalCount, approvals)
		require.GreaterOrEqual(req.RejectionCount, rejections)
		approvals, rejections = req.ApprovalCount, req.RejectionCount
		if status.Terminal() {
			require.Equal(state.Completed, status)
			require.Equal(uint32(5), approvals)
			require.Equal(i, len(votes)-1)
		}
	}
}

func TestInboundMintsAgainstCollateral(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 5, 4)
	out := env.outbound(t, 1_000)
	for _, v := range env.validators[:4] {
		env.mustVote(t, v, out, true)
	}

	in := env.inbound(t, 500, 0x01)
	req := env.request(t, in)
	require.Equal(state.Inbound, req.Direction)
	require.Equal(uint64(1), req.FeeAmount)
	require.Equal(uint64(499), req.NetAmount)

	balance := env.balance(t, env.user)
	for _, v := range env.validators[:3] {
		env.mustVote(t, v, in, true)
	}
	require.Equal(state.Completed, env.mustVote(t, env.validators[3], in, true))

	require.Equal(balance+499, env.balance(t, env.user))
	a := env.wrapped(t)
	require.Equal(uint64(499), a.TotalMinted)
	require.Equal(uint64(1_000), a.TotalLocked)
	require.Equal(uint64(20_040), a.BackingRatioBps)

	ratio, err := env.CheckBackingRatio(env.asset, testChain)
	require.NoError(err)
	require.Equal(a.BackingRatioBps, ratio)

	// The external transaction can never be claimed again.
	_, err = env.InitiateInbound(env.inboundParams(100, 0x01))
	require.ErrorIs(err, codes.ErrDuplicateExternalTx)
}

func TestBrokenBackingRollsBackVote(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 5, 4)
	id := env.inbound(t, 500, 0x01)
	for _, v := range env.validators[:3] {
		env.mustVote(t, v, id, true)
	}

	before := env.request(t, id)
	events := env.eventTypes(t)
	balance := env.balance(t, env.user)

	_, err := env.vote(t, env.validators[3], id, true)
	require.ErrorIs(err, codes.ErrBackingRatioBroken)

	require.Equal(before, env.request(t, id))
	require.Equal(events, env.eventTypes(t))
	require.Equal(balance, env.balance(t, env.user))
	require.Zero(env.wrapped(t).TotalMinted)

	voted, err := env.HasValidatorVoted(id, env.validators[3])
	require.NoError(err)
	require.False(voted)

	// The claim is still held by the pending request.
	_, err = env.InitiateInbound(env.inboundParams(100, 0x01))
	require.ErrorIs(err, codes.ErrDuplicateExternalTx)
}

func TestInboundRejectionReleasesClaim(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t, 3, 3)
	id := env.inbound(t, 500, 0x07)
	require.Equal(state.Rejected, env.mustVote(t, env.validators[0], id, false))

	env.Clock().Advance(time.Minute)
	retry := env.inbound(t, 500, 0x07)
	require.NotEqual(id, retry)
}
