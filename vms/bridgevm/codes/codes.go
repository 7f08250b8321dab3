// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codes defines the bridge's error values. Every error carries a
// stable numeric code and a category so that relayers can tell retryable
// conditions apart from permanent ones without parsing messages.
package codes

import (
	"errors"
	"fmt"
)

// Code is a stable, enumerable error identifier. Codes are never reused.
type Code uint32

const (
	Unauthorized Code = 5001
	NotValidator Code = 5002
	NotAdmin     Code = 5003

	AlreadyInitialized Code = 5010
	NotInitialized     Code = 5011

	RequestNotFound         Code = 5020
	RequestAlreadyProcessed Code = 5021
	RequestExpired          Code = 5022
	RequestNotPending       Code = 5023
	AlreadyVoted            Code = 5024

	AssetNotRegistered     Code = 5030
	AssetAlreadyRegistered Code = 5031
	AssetInactive          Code = 5032
	BackingRatioBroken     Code = 5033

	ChainNotSupported Code = 5040
	ChainInactive     Code = 5041

	AmountTooSmall            Code = 5050
	AmountExceedsMax          Code = 5051
	DailyLimitExceeded        Code = 5052
	InsufficientBalance       Code = 5053
	InvalidFee                Code = 5054
	InsufficientConfirmations Code = 5055
	ArithmeticOverflow        Code = 5056

	ValidatorAlreadyExists Code = 5060
	ValidatorNotFound      Code = 5061
	ThresholdTooLow        Code = 5062
	ThresholdExceedsSet    Code = 5063
	ValidatorSetTooSmall   Code = 5064
	NoPendingUpgrade       Code = 5065
	UpgradeTimelockActive  Code = 5066
	InvalidPubkeys         Code = 5067
	DuplicateValidator     Code = 5068

	BridgePaused        Code = 5070
	InvalidSignature    Code = 5071
	DuplicateExternalTx Code = 5072
	InvalidNonce        Code = 5073
	InvalidExternalTx   Code = 5074
)

type Category uint8

const (
	CategoryAuthorization Category = iota + 1
	CategoryLifecycle
	CategoryAsset
	CategoryChain
	CategoryLimits
	CategoryValidatorSet
	CategoryBridgeState
)

func (c Category) String() string {
	switch c {
	case CategoryAuthorization:
		return "authorization"
	case CategoryLifecycle:
		return "lifecycle"
	case CategoryAsset:
		return "asset"
	case CategoryChain:
		return "chain"
	case CategoryLimits:
		return "limits"
	case CategoryValidatorSet:
		return "validator-set"
	case CategoryBridgeState:
		return "bridge-state"
	default:
		return "unknown"
	}
}

// Error is a coded bridge error. Values are compared by identity, so callers
// should use errors.Is against the sentinels below.
type Error struct {
	Code      Code
	Category  Category
	Retryable bool
	msg       string
}

func (e *Error) Error() string {
	return e.msg
}

var (
	ErrUnauthorized = newError(Unauthorized, CategoryAuthorization, "caller is not authorized")
	ErrNotValidator = newError(NotValidator, CategoryAuthorization, "caller is not a validator")
	ErrNotAdmin     = newError(NotAdmin, CategoryAuthorization, "caller is not the admin")

	ErrAlreadyInitialized      = newError(AlreadyInitialized, CategoryLifecycle, "bridge already initialized")
	ErrNotInitialized          = newError(NotInitialized, CategoryLifecycle, "bridge not initialized")
	ErrRequestNotFound         = newError(RequestNotFound, CategoryLifecycle, "request not found")
	ErrRequestAlreadyProcessed = newError(RequestAlreadyProcessed, CategoryLifecycle, "request already processed")
	ErrRequestExpired          = newError(RequestExpired, CategoryLifecycle, "request expired")
	ErrRequestNotPending       = newError(RequestNotPending, CategoryLifecycle, "request not pending")
	ErrAlreadyVoted            = newError(AlreadyVoted, CategoryLifecycle, "validator already voted")

	ErrAssetNotRegistered     = newError(AssetNotRegistered, CategoryAsset, "asset not registered")
	ErrAssetAlreadyRegistered = newError(AssetAlreadyRegistered, CategoryAsset, "asset already registered")
	ErrAssetInactive          = newError(AssetInactive, CategoryAsset, "asset inactive")
	ErrBackingRatioBroken     = newError(BackingRatioBroken, CategoryAsset, "backing ratio below 100%")

	ErrChainNotSupported = newError(ChainNotSupported, CategoryChain, "chain not supported")
	ErrChainInactive     = newError(ChainInactive, CategoryChain, "chain inactive")

	ErrAmountTooSmall            = newError(AmountTooSmall, CategoryLimits, "amount too small")
	ErrAmountExceedsMax          = newError(AmountExceedsMax, CategoryLimits, "amount exceeds max transfer")
	ErrDailyLimitExceeded        = newRetryable(DailyLimitExceeded, CategoryLimits, "daily limit exceeded")
	ErrInsufficientBalance       = newRetryable(InsufficientBalance, CategoryLimits, "insufficient balance")
	ErrInvalidFee                = newError(InvalidFee, CategoryLimits, "invalid fee")
	ErrInsufficientConfirmations = newRetryable(InsufficientConfirmations, CategoryLimits, "insufficient confirmations")
	ErrArithmeticOverflow        = newError(ArithmeticOverflow, CategoryLimits, "arithmetic overflow")

	ErrValidatorAlreadyExists = newError(ValidatorAlreadyExists, CategoryValidatorSet, "validator already exists")
	ErrValidatorNotFound      = newError(ValidatorNotFound, CategoryValidatorSet, "validator not found")
	ErrThresholdTooLow        = newError(ThresholdTooLow, CategoryValidatorSet, "threshold below BFT minimum")
	ErrThresholdExceedsSet    = newError(ThresholdExceedsSet, CategoryValidatorSet, "threshold exceeds validator count")
	ErrValidatorSetTooSmall   = newError(ValidatorSetTooSmall, CategoryValidatorSet, "validator set too small")
	ErrNoPendingUpgrade       = newError(NoPendingUpgrade, CategoryValidatorSet, "no pending validator upgrade")
	ErrUpgradeTimelockActive  = newRetryable(UpgradeTimelockActive, CategoryValidatorSet, "upgrade timelock still active")
	ErrInvalidPubkeys         = newError(InvalidPubkeys, CategoryValidatorSet, "invalid validator public keys")
	ErrDuplicateValidator     = newError(DuplicateValidator, CategoryValidatorSet, "duplicate validator in set")

	ErrBridgePaused        = newRetryable(BridgePaused, CategoryBridgeState, "bridge paused")
	ErrInvalidSignature    = newError(InvalidSignature, CategoryBridgeState, "invalid signature")
	ErrDuplicateExternalTx = newError(DuplicateExternalTx, CategoryBridgeState, "external transaction already claimed")
	ErrInvalidNonce        = newRetryable(InvalidNonce, CategoryBridgeState, "invalid nonce")
	ErrInvalidExternalTx   = newError(InvalidExternalTx, CategoryBridgeState, "invalid external transaction reference")

	all = []*Error{
		ErrUnauthorized, ErrNotValidator, ErrNotAdmin,
		ErrAlreadyInitialized, ErrNotInitialized, ErrRequestNotFound,
		ErrRequestAlreadyProcessed, ErrRequestExpired, ErrRequestNotPending,
		ErrAlreadyVoted,
		ErrAssetNotRegistered, ErrAssetAlreadyRegistered, ErrAssetInactive,
		ErrBackingRatioBroken,
		ErrChainNotSupported, ErrChainInactive,
		ErrAmountTooSmall, ErrAmountExceedsMax, ErrDailyLimitExceeded,
		ErrInsufficientBalance, ErrInvalidFee, ErrInsufficientConfirmations,
		ErrArithmeticOverflow,
		ErrValidatorAlreadyExists, ErrValidatorNotFound, ErrThresholdTooLow,
		ErrThresholdExceedsSet, ErrValidatorSetTooSmall, ErrNoPendingUpgrade,
		ErrUpgradeTimelockActive, ErrInvalidPubkeys, ErrDuplicateValidator,
		ErrBridgePaused, ErrInvalidSignature, ErrDuplicateExternalTx,
		ErrInvalidNonce, ErrInvalidExternalTx,
	}
)

func newError(code Code, category Category, msg string) *Error {
	return &Error{Code: code, Category: category, msg: msg}
}

func newRetryable(code Code, category Category, msg string) *Error {
	return &Error{Code: code, Category: category, Retryable: true, msg: msg}
}

// All returns every defined error, ordered by code.
func All() []*Error {
	return append([]*Error(nil), all...)
}

// Lookup returns the sentinel registered for code.
func Lookup(code Code) (*Error, bool) {
	for _, e := range all {
		if e.Code == code {
			return e, true
		}
	}
	return nil, false
}

// Of returns the coded error wrapped by err, if any.
func Of(err error) (*Error, bool) {
	var coded *Error
	if errors.As(err, &coded) {
		return coded, true
	}
	return nil, false
}

// IsRetryable reports whether err is a condition that may clear on its own,
// such as a rolling limit or an active timelock.
func IsRetryable(err error) bool {
	coded, ok := Of(err)
	return ok && coded.Retryable
}

// Wrap attaches context to a coded error while keeping it matchable with
// errors.Is.
func Wrap(err *Error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}
