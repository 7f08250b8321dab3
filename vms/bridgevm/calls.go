// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bvm

import (
	"github.com/luxfi/ids"

	"github.com/luxfi/bridge/vms/bridgevm/auth"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

// GetCallNonce returns the number of signed API calls account has made. The
// next call must carry one more.
func (b *Bridge) GetCallNonce(account ids.ShortID) (uint64, error) {
	var nonce uint64
	err := b.view(func(s *state.State) error {
		var err error
		nonce, err = s.GetCallNonce(account)
		return err
	})
	return nonce, err
}

// SpendCallNonce consumes account's next call nonce. The nonce stays spent
// even if the call it authorized then fails.
func (b *Bridge) SpendCallNonce(account ids.ShortID, nonce uint64) error {
	return b.update("spendCallNonce", func(t *tx) error {
		current, err := t.state.GetCallNonce(account)
		if err != nil {
			return err
		}
		if nonce != current+1 {
			return codes.Wrap(codes.ErrInvalidNonce, "call nonce %d, expected %d", nonce, current+1)
		}
		return t.state.PutCallNonce(account, nonce)
	})
}

// authenticate admits a call to method only if account signed args and the
// signature has not been used before.
func (b *Bridge) authenticate(method string, account ids.ShortID, args auth.Signable) error {
	if err := auth.Verify(method, account, args); err != nil {
		b.metrics.MarkFailed(method, err)
		return err
	}
	return b.SpendCallNonce(account, uint64(args.Auth().CallNonce))
}
