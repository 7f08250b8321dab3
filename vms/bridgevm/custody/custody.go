// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package custody is the bridge's boundary to the token ledger: locking
// outbound funds, releasing them, and minting wrapped supply.
package custody

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"

	"github.com/luxfi/bridge/utils/math"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
)

var (
	_ Backend = (*Ledger)(nil)

	balancePrefix = []byte("balance")
	lockedPrefix  = []byte("locked")
	supplyPrefix  = []byte("supply")
)

//go:generate go run go.uber.org/mock/mockgen -package=${GOPACKAGE}mock -destination=${GOPACKAGE}mock/backend.go -mock_names=Backend=Backend . Backend

// Backend moves tokens on behalf of the bridge.
type Backend interface {
	// Balance returns holder's spendable balance of asset.
	Balance(asset ids.ID, holder ids.ShortID) (uint64, error)
	// Lock moves amount from holder into bridge custody.
	Lock(asset ids.ID, from ids.ShortID, amount uint64) error
	// Release moves amount out of bridge custody to the recipient.
	Release(asset ids.ID, to ids.ShortID, amount uint64) error
	// Mint creates amount of new supply owned by the recipient.
	Mint(asset ids.ID, to ids.ShortID, amount uint64) error
}

// Factory binds a Backend to the database of one bridge operation, so that
// token movements commit or abort together with the operation.
type Factory func(db database.Database) Backend

// LedgerFactory returns a Factory producing database-backed ledgers.
func LedgerFactory() Factory {
	return func(db database.Database) Backend {
		return NewLedger(db)
	}
}

// Ledger keeps balances, custody totals and minted supply in a database.
type Ledger struct {
	balances database.Database
	locked   database.Database
	supply   database.Database
}

func NewLedger(db database.Database) *Ledger {
	return &Ledger{
		balances: prefixdb.New(balancePrefix, db),
		locked:   prefixdb.New(lockedPrefix, db),
		supply:   prefixdb.New(supplyPrefix, db),
	}
}

func (l *Ledger) Balance(asset ids.ID, holder ids.ShortID) (uint64, error) {
	return getAmount(l.balances, holderKey(asset, holder))
}

// Locked returns the amount of asset held in bridge custody.
func (l *Ledger) Locked(asset ids.ID) (uint64, error) {
	return getAmount(l.locked, asset[:])
}

// Supply returns the amount of asset minted through the bridge.
func (l *Ledger) Supply(asset ids.ID) (uint64, error) {
	return getAmount(l.supply, asset[:])
}

func (l *Ledger) Lock(asset ids.ID, from ids.ShortID, amount uint64) error {
	if err := debit(l.balances, holderKey(asset, from), amount); err != nil {
		return fmt.Errorf("failed to lock %d from %s: %w", amount, from, err)
	}
	return credit(l.locked, asset[:], amount)
}

func (l *Ledger) Release(asset ids.ID, to ids.ShortID, amount uint64) error {
	if err := debit(l.locked, asset[:], amount); err != nil {
		return fmt.Errorf("failed to release %d of %s from custody: %w", amount, asset, err)
	}
	return credit(l.balances, holderKey(asset, to), amount)
}

func (l *Ledger) Mint(asset ids.ID, to ids.ShortID, amount uint64) error {
	if err := credit(l.supply, asset[:], amount); err != nil {
		return err
	}
	return credit(l.balances, holderKey(asset, to), amount)
}

func debit(db database.Database, key []byte, amount uint64) error {
	current, err := getAmount(db, key)
	if err != nil {
		return err
	}
	remaining, err := math.Sub(current, amount)
	if err != nil {
		return fmt.Errorf("%w: have %d, need %d", codes.ErrInsufficientBalance, current, amount)
	}
	return putAmount(db, key, remaining)
}

func credit(db database.Database, key []byte, amount uint64) error {
	current, err := getAmount(db, key)
	if err != nil {
		return err
	}
	updated, err := math.Add(current, amount)
	if err != nil {
		return fmt.Errorf("%w: balance %d + %d", codes.ErrArithmeticOverflow, current, amount)
	}
	return putAmount(db, key, updated)
}

func getAmount(db database.KeyValueReader, key []byte) (uint64, error) {
	b, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func putAmount(db database.KeyValueWriter, key []byte, amount uint64) error {
	return db.Put(key, binary.BigEndian.AppendUint64(nil, amount))
}

func holderKey(asset ids.ID, holder ids.ShortID) []byte {
	return append(append(make([]byte, 0, len(asset)+len(holder)), asset[:]...), holder[:]...)
}
