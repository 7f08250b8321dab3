// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
	"github.com/luxfi/bridge/vms/bridgevm/threshold"
)

// Initialize installs the admin, the fee collector and the first validator
// set. It can only succeed once.
func (b *Bridge) Initialize(
	admin ids.ShortID,
	feeCollector ids.ShortID,
	validators []ids.ShortID,
	threshold uint32,
	pubkeys [][]byte,
) error {
	return b.execute("initialize", func(t *tx) error {
		return t.initialize(admin, feeCollector, validators, threshold, pubkeys)
	})
}

func (t *tx) initialize(
	admin ids.ShortID,
	feeCollector ids.ShortID,
	validators []ids.ShortID,
	thresh uint32,
	pubkeys [][]byte,
) error {
	initialized, err := t.state.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return codes.ErrAlreadyInitialized
	}
	if err := validateMembers(validators, thresh, pubkeys); err != nil {
		return err
	}

	set := &state.ValidatorSet{
		Validators: append([]ids.ShortID(nil), validators...),
		Threshold:  thresh,
		Version:    1,
		UpdatedAt:  t.now,
	}
	for i, validator := range validators {
		if err := t.state.PutPubkey(validator, pubkeys[i]); err != nil {
			return err
		}
	}
	if err := t.state.PutValidatorSet(set); err != nil {
		return err
	}
	if err := t.state.PutAdmin(admin); err != nil {
		return err
	}
	if err := t.state.PutFeeCollector(feeCollector); err != nil {
		return err
	}
	if err := t.state.PutStats(&state.Stats{}); err != nil {
		return err
	}
	if err := t.state.SetInitialized(); err != nil {
		return err
	}
	return t.emit(&state.Event{
		Type:           state.EventBridgeInitialized,
		Actor:          admin,
		SetVersion:     set.Version,
		Threshold:      set.Threshold,
		ValidatorCount: uint32(set.Len()),
	})
}

// validateMembers checks a full validator set proposal.
func validateMembers(validators []ids.ShortID, thresh uint32, pubkeys [][]byte) error {
	if err := threshold.Validate(thresh, len(validators)); err != nil {
		return err
	}
	if len(pubkeys) != len(validators) {
		return fmt.Errorf("%w: %d keys for %d validators", codes.ErrInvalidPubkeys, len(pubkeys), len(validators))
	}
	seen := make(map[ids.ShortID]struct{}, len(validators))
	for i, validator := range validators {
		if _, ok := seen[validator]; ok {
			return fmt.Errorf("%w: %s", codes.ErrDuplicateValidator, validator)
		}
		seen[validator] = struct{}{}
		if err := validatePubkey(pubkeys[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) requireAdmin(caller ids.ShortID) error {
	admin, err := t.state.GetAdmin()
	if err != nil {
		return err
	}
	if caller != admin {
		return codes.ErrNotAdmin
	}
	return nil
}

func (t *tx) requireNotPaused() error {
	stats, err := t.state.GetStats()
	if err != nil {
		return err
	}
	if stats.IsPaused {
		return fmt.Errorf("%w: %s", codes.ErrBridgePaused, stats.PauseReason)
	}
	return nil
}

func (t *tx) updateStats(fn func(*state.Stats) error) error {
	stats, err := t.state.GetStats()
	if err != nil {
		return err
	}
	if err := fn(stats); err != nil {
		return err
	}
	return t.state.PutStats(stats)
}

// SetPause halts or resumes initiation, voting and asset registration.
// Cancellation and governance stay available while paused.
func (b *Bridge) SetPause(caller ids.ShortID, paused bool, reason string) error {
	err := b.update("setPause", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		if err := t.updateStats(func(s *state.Stats) error {
			s.IsPaused = paused
			s.PauseReason = reason
			return nil
		}); err != nil {
			return err
		}
		return t.emit(&state.Event{
			Type:   state.EventPauseToggled,
			Actor:  caller,
			Flag:   paused,
			Reason: reason,
		})
	})
	if err == nil {
		b.log.Warn("bridge pause toggled",
			log.Bool("paused", paused),
			log.String("reason", reason),
		)
	}
	return err
}

// SetFeeCollector changes the recipient of outbound fees.
func (b *Bridge) SetFeeCollector(caller, collector ids.ShortID) error {
	return b.update("setFeeCollector", func(t *tx) error {
		if err := t.requireAdmin(caller); err != nil {
			return err
		}
		if err := t.state.PutFeeCollector(collector); err != nil {
			return err
		}
		return t.emit(&state.Event{
			Type:      state.EventFeeCollectorChanged,
			Actor:     caller,
			Subject:   collector,
		})
	})
}

func (b *Bridge) GetStats() (*state.Stats, error) {
	var stats *state.Stats
	err := b.view(func(s *state.State) error {
		var err error
		stats, err = s.GetStats()
		return err
	})
	return stats, err
}

func (b *Bridge) IsPaused() (bool, error) {
	stats, err := b.GetStats()
	if err != nil {
		return false, err
	}
	return stats.IsPaused, nil
}

func (b *Bridge) GetAdmin() (ids.ShortID, error) {
	var admin ids.ShortID
	err := b.view(func(s *state.State) error {
		var err error
		admin, err = s.GetAdmin()
		return err
	})
	return admin, err
}

func (b *Bridge) GetFeeCollector() (ids.ShortID, error) {
	var collector ids.ShortID
	err := b.view(func(s *state.State) error {
		var err error
		collector, err = s.GetFeeCollector()
		return err
	})
	return collector, err
}
