// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/utils/math"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
	"github.com/luxfi/bridge/vms/bridgevm/state"
	"github.com/luxfi/bridge/vms/bridgevm/threshold"
)

// ProposeValidatorUpgrade schedules the replacement of the whole validator
// set after the upgrade timelock and returns the time it becomes
// applicable. The new keys are registered immediately. A later proposal
// replaces an earlier one.
func (b *Bridge) ProposeValidatorUpgrade(
	caller ids.ShortID,
	validators []ids.ShortID,
	newThreshold uint32,
	pubkeys [][]byte,
) (uint64, error) {
	var effectiveAt uint64
	err := b.update("proposeValidatorUpgrade", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		if err := validateMembers(validators, newThreshold, pubkeys); err != nil {
			return err
		}
		for i, validator := range validators {
			if err := t.state.PutPubkey(validator, pubkeys[i]); err != nil {
				return err
			}
		}

		var err error
		effectiveAt, err = math.Add(t.now, b.config.UpgradeTimelockSeconds())
		if err != nil {
			return fmt.Errorf("%w: effective time", codes.ErrArithmeticOverflow)
		}
		if err := t.state.PutPendingUpgrade(&state.PendingUpgrade{
			Validators:  append([]ids.ShortID(nil), validators...),
			Threshold:   newThreshold,
			ProposedAt:  t.now,
			EffectiveAt: effectiveAt,
			Proposer:    caller,
		}); err != nil {
			return err
		}
		return t.emit(&state.Event{
			Type:           state.EventUpgradeProposed,
			Actor:          caller,
			EffectiveAt:    effectiveAt,
			Threshold:      newThreshold,
			ValidatorCount: uint32(len(validators)),
		})
	})
	if err == nil {
		b.log.Info("proposed validator upgrade",
			log.Int("validators", len(validators)),
			log.Uint32("threshold", newThreshold),
			log.Uint64("effectiveAt", effectiveAt),
		)
	}
	return effectiveAt, err
}

// ApplyValidatorUpgrade installs the pending validator set once its
// timelock has passed and returns the new set version.
func (b *Bridge) ApplyValidatorUpgrade(caller ids.ShortID) (uint64, error) {
	var set *state.ValidatorSet
	err := b.update("applyValidatorUpgrade", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		upgrade, err := t.state.GetPendingUpgrade()
		if err != nil {
			return notFound(err, codes.ErrNoPendingUpgrade)
		}
		if t.now < upgrade.EffectiveAt {
			return fmt.Errorf("%w: effective at %d, now %d", codes.ErrUpgradeTimelockActive, upgrade.EffectiveAt, t.now)
		}
		current, err := t.state.GetValidatorSet()
		if err != nil {
			return err
		}

		set = &state.ValidatorSet{
			Validators: upgrade.Validators,
			Threshold:  upgrade.Threshold,
			Version:    current.Version + 1,
			UpdatedAt:  t.now,
		}
		if err := t.state.PutValidatorSet(set); err != nil {
			return err
		}
		if err := t.state.DeletePendingUpgrade(); err != nil {
			return err
		}
		return t.emitSetChange(state.EventUpgradeApplied, caller, ids.ShortEmpty, set)
	})
	if err != nil {
		return 0, err
	}
	b.log.Info("applied validator upgrade",
		log.Uint64("version", set.Version),
		log.Int("validators", set.Len()),
		log.Uint32("threshold", set.Threshold),
	)
	return set.Version, nil
}

// AddValidator admits a single validator without a timelock and sets the
// threshold for the enlarged set.
func (b *Bridge) AddValidator(caller, validator ids.ShortID, pubkey []byte, newThreshold uint32) (uint64, error) {
	var set *state.ValidatorSet
	err := b.update("addValidator", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		var err error
		set, err = t.state.GetValidatorSet()
		if err != nil {
			return err
		}
		if set.Contains(validator) {
			return fmt.Errorf("%w: %s", codes.ErrValidatorAlreadyExists, validator)
		}
		if err := threshold.Validate(newThreshold, set.Len()+1); err != nil {
			return err
		}
		if err := validatePubkey(pubkey); err != nil {
			return err
		}

		set.Validators = append(set.Validators, validator)
		set.Threshold = newThreshold
		set.Version++
		set.UpdatedAt = t.now
		if err := t.state.PutValidatorSet(set); err != nil {
			return err
		}
		if err := t.state.PutPubkey(validator, pubkey); err != nil {
			return err
		}
		return t.emitSetChange(state.EventValidatorAdded, caller, validator, set)
	})
	if err != nil {
		return 0, err
	}
	b.log.Info("added validator",
		log.Stringer("validator", validator),
		log.Uint64("version", set.Version),
		log.Uint32("threshold", set.Threshold),
	)
	return set.Version, nil
}

// RemoveValidator drops a single validator without a timelock and sets the
// threshold for the reduced set. The validator's key stays registered but
// is no longer consulted.
func (b *Bridge) RemoveValidator(caller, validator ids.ShortID, newThreshold uint32) (uint64, error) {
	var set *state.ValidatorSet
	err := b.update("removeValidator", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		var err error
		set, err = t.state.GetValidatorSet()
		if err != nil {
			return err
		}
		if !set.Contains(validator) {
			return fmt.Errorf("%w: %s", codes.ErrValidatorNotFound, validator)
		}
		if err := threshold.Validate(newThreshold, set.Len()-1); err != nil {
			return err
		}

		set.Remove(validator)
		set.Threshold = newThreshold
		set.Version++
		set.UpdatedAt = t.now
		if err := t.state.PutValidatorSet(set); err != nil {
			return err
		}
		return t.emitSetChange(state.EventValidatorRemoved, caller, validator, set)
	})
	if err != nil {
		return 0, err
	}
	b.log.Info("removed validator",
		log.Stringer("validator", validator),
		log.Uint64("version", set.Version),
		log.Uint32("threshold", set.Threshold),
	)
	return set.Version, nil
}

func (t *tx) emitSetChange(eventType state.EventType, caller, subject ids.ShortID, set *state.ValidatorSet) error {
	return t.emit(&state.Event{
		Type:           eventType,
		Actor:          caller,
		Subject:        subject,
		SetVersion:     set.Version,
		Threshold:      set.Threshold,
		ValidatorCount: uint32(set.Len()),
	})
}

func validatePubkey(pubkey []byte) error {
	if len(pubkey) != signer.PublicKeyLen {
		return fmt.Errorf("%w: key is %d bytes", codes.ErrInvalidPubkeys, len(pubkey))
	}
	return nil
}

func (b *Bridge) GetValidatorSet() (*state.ValidatorSet, error) {
	var set *state.ValidatorSet
	err := b.view(func(s *state.State) error {
		var err error
		set, err = s.GetValidatorSet()
		return err
	})
	return set, err
}

func (b *Bridge) GetValidatorPubkey(validator ids.ShortID) ([]byte, error) {
	var pubkey []byte
	err := b.view(func(s *state.State) error {
		var err error
		pubkey, err = s.GetPubkey(validator)
		return notFound(err, codes.ErrValidatorNotFound)
	})
	return pubkey, err
}

func (b *Bridge) GetPendingUpgrade() (*state.PendingUpgrade, error) {
	var upgrade *state.PendingUpgrade
	err := b.view(func(s *state.State) error {
		var err error
		upgrade, err = s.GetPendingUpgrade()
		return notFound(err, codes.ErrNoPendingUpgrade)
	})
	return upgrade, err
}
