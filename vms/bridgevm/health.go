// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"context"
	"errors"

	"github.com/luxfi/database"

	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// HealthDetails is reported by HealthCheck.
type HealthDetails struct {
	Initialized    bool   `json:"initialized"`
	Paused         bool   `json:"paused"`
	Validators     int    `json:"validators"`
	Threshold      uint32 `json:"threshold"`
	SetVersion     uint64 `json:"setVersion"`
	PendingUpgrade bool   `json:"pendingUpgrade"`
	TotalRequests  uint64 `json:"totalRequests"`
}

// HealthCheck reports the bridge unhealthy until it is initialized and
// while it is paused.
func (b *Bridge) HealthCheck(context.Context) (interface{}, error) {
	details := &HealthDetails{}
	err := b.view(func(s *state.State) error {
		details.Initialized = true

		stats, err := s.GetStats()
		if err != nil {
			return err
		}
		details.Paused = stats.IsPaused
		details.TotalRequests = stats.TotalRequests

		set, err := s.GetValidatorSet()
		if err != nil {
			return err
		}
		details.Validators = set.Len()
		details.Threshold = set.Threshold
		details.SetVersion = set.Version

		_, err = s.GetPendingUpgrade()
		switch {
		case err == nil:
			details.PendingUpgrade = true
		case !errors.Is(err, database.ErrNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return details, err
	}
	if details.Paused {
		return details, codes.ErrBridgePaused
	}
	return details, nil
}
