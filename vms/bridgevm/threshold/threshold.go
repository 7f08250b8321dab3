// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package threshold holds the BFT approval rules for validator sets.
package threshold

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/bridge/vms/bridgevm/codes"
)

const (
	// MinValidators is the smallest set that tolerates one faulty member.
	MinValidators = 3

	// DefaultLargeTransferMultiplierBps makes transfers above 10x a chain's
	// max transfer amount unanimous.
	DefaultLargeTransferMultiplierBps uint64 = 100_000

	bpsDenominator = 10_000
)

// Minimum returns the smallest threshold that no coalition of at most
// floor(n/3) validators can reach on its own: floor(2n/3)+1.
func Minimum(n int) uint32 {
	if n <= 0 {
		return 1
	}
	return uint32(2*n/3 + 1)
}

// Validate checks that t approvals out of n validators is a safe quorum.
func Validate(t uint32, n int) error {
	switch {
	case n < MinValidators:
		return fmt.Errorf("%w: %d validators, need at least %d", codes.ErrValidatorSetTooSmall, n, MinValidators)
	case uint64(t) > uint64(n):
		return fmt.Errorf("%w: threshold %d, %d validators", codes.ErrThresholdExceedsSet, t, n)
	case t < Minimum(n):
		return fmt.Errorf("%w: threshold %d, minimum %d", codes.ErrThresholdTooLow, t, Minimum(n))
	default:
		return nil
	}
}

// Policy decides how many approvals a transfer needs.
type Policy struct {
	// LargeTransferMultiplierBps scales a chain's max transfer amount, in
	// basis points, to the point above which every validator must approve.
	LargeTransferMultiplierBps uint64
}

func NewPolicy(multiplierBps uint64) Policy {
	if multiplierBps == 0 {
		multiplierBps = DefaultLargeTransferMultiplierBps
	}
	return Policy{LargeTransferMultiplierBps: multiplierBps}
}

// IsLargeTransfer reports whether amount exceeds maxSingleTx scaled by the
// multiplier. The comparison is exact for all inputs.
func (p Policy) IsLargeTransfer(amount, maxSingleTx uint64) bool {
	lhs := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(bpsDenominator))
	rhs := new(uint256.Int).Mul(uint256.NewInt(maxSingleTx), uint256.NewInt(p.LargeTransferMultiplierBps))
	return lhs.Gt(rhs)
}

// EffectiveRequiredApprovals returns the approvals needed for amount given
// a set of n validators with the given threshold. Large transfers need all n.
func (p Policy) EffectiveRequiredApprovals(n int, threshold uint32, amount, maxSingleTx uint64) uint32 {
	if p.IsLargeTransfer(amount, maxSingleTx) {
		return uint32(n)
	}
	return threshold
}
