// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import "github.com/luxfi/bridge/vms/bridgevm/state"

// GetEvents returns up to limit events starting at sequence number from.
func (b *Bridge) GetEvents(from uint64, limit int) ([]*state.Event, error) {
	if limit <= 0 || limit > b.config.MaxEventsPerQuery {
		limit = b.config.MaxEventsPerQuery
	}
	var events []*state.Event
	err := b.view(func(s *state.State) error {
		var err error
		events, err = s.GetEvents(from, limit)
		return err
	})
	return events, err
}
