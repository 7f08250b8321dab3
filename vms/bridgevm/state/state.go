// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists the bridge's records in independent keyed stores so
// that every lookup is a point read.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
)

var (
	singletonPrefix = []byte("singleton")
	requestPrefix   = []byte("request")
	assetPrefix     = []byte("asset")
	chainPrefix     = []byte("chain")
	votePrefix      = []byte("vote")
	processedPrefix = []byte("processed")
	claimPrefix     = []byte("claim")
	pubkeyPrefix    = []byte("pubkey")
	noncePrefix     = []byte("nonce")
	callNoncePrefix = []byte("callNonce")
	eventPrefix     = []byte("event")

	initializedKey    = []byte("initialized")
	adminKey          = []byte("admin")
	feeCollectorKey   = []byte("feeCollector")
	validatorSetKey   = []byte("validatorSet")
	pendingUpgradeKey = []byte("pendingUpgrade")
	statsKey          = []byte("stats")
	requestCounterKey = []byte("requestCounter")
	eventCounterKey   = []byte("eventCounter")

	errCorruptCounter = errors.New("corrupt counter")
	errUnknownName    = errors.New("unknown name")
)

// State is a view of the bridge records over a database. Writes go straight
// to the underlying database, so callers that need atomicity should hand in
// a versiondb.
type State struct {
	singletons database.Database
	requests   database.Database
	assets     database.Database
	chains     database.Database
	votes      database.Database
	processed  database.Database
	claims     database.Database
	pubkeys    database.Database
	nonces     database.Database
	callNonces database.Database
	events     database.Database
}

func New(db database.Database) *State {
	return &State{
		singletons: prefixdb.New(singletonPrefix, db),
		requests:   prefixdb.New(requestPrefix, db),
		assets:     prefixdb.New(assetPrefix, db),
		chains:     prefixdb.New(chainPrefix, db),
		votes:      prefixdb.New(votePrefix, db),
		processed:  prefixdb.New(processedPrefix, db),
		claims:     prefixdb.New(claimPrefix, db),
		pubkeys:    prefixdb.New(pubkeyPrefix, db),
		nonces:     prefixdb.New(noncePrefix, db),
		callNonces: prefixdb.New(callNoncePrefix, db),
		events:     prefixdb.New(eventPrefix, db),
	}
}

func (s *State) IsInitialized() (bool, error) {
	return s.singletons.Has(initializedKey)
}

func (s *State) SetInitialized() error {
	return s.singletons.Put(initializedKey, []byte{1})
}

func (s *State) GetAdmin() (ids.ShortID, error) {
	return getShortID(s.singletons, adminKey)
}

func (s *State) PutAdmin(admin ids.ShortID) error {
	return s.singletons.Put(adminKey, admin[:])
}

func (s *State) GetFeeCollector() (ids.ShortID, error) {
	return getShortID(s.singletons, feeCollectorKey)
}

func (s *State) PutFeeCollector(collector ids.ShortID) error {
	return s.singletons.Put(feeCollectorKey, collector[:])
}

func (s *State) GetValidatorSet() (*ValidatorSet, error) {
	return get[ValidatorSet](s.singletons, validatorSetKey)
}

func (s *State) PutValidatorSet(set *ValidatorSet) error {
	return put(s.singletons, validatorSetKey, set)
}

func (s *State) GetPendingUpgrade() (*PendingUpgrade, error) {
	return get[PendingUpgrade](s.singletons, pendingUpgradeKey)
}

func (s *State) PutPendingUpgrade(upgrade *PendingUpgrade) error {
	return put(s.singletons, pendingUpgradeKey, upgrade)
}

func (s *State) DeletePendingUpgrade() error {
	return s.singletons.Delete(pendingUpgradeKey)
}

// GetStats returns zeroed stats before the first write.
func (s *State) GetStats() (*Stats, error) {
	stats, err := get[Stats](s.singletons, statsKey)
	if errors.Is(err, database.ErrNotFound) {
		return &Stats{}, nil
	}
	return stats, err
}

func (s *State) PutStats(stats *Stats) error {
	return put(s.singletons, statsKey, stats)
}

// NextRequestID allocates the next request id. Ids start at 1.
func (s *State) NextRequestID() (uint64, error) {
	return increment(s.singletons, requestCounterKey)
}

func (s *State) GetRequest(id uint64) (*Request, error) {
	return get[Request](s.requests, uint64Key(id))
}

func (s *State) PutRequest(req *Request) error {
	return put(s.requests, uint64Key(req.ID), req)
}

func (s *State) GetAsset(asset ids.ID, chain ChainID) (*WrappedAsset, error) {
	return get[WrappedAsset](s.assets, assetKey(asset, chain))
}

func (s *State) HasAsset(asset ids.ID, chain ChainID) (bool, error) {
	return s.assets.Has(assetKey(asset, chain))
}

func (s *State) PutAsset(a *WrappedAsset) error {
	return put(s.assets, assetKey(a.Asset, a.ChainID), a)
}

func (s *State) GetChain(chain ChainID) (*ChainConfig, error) {
	return get[ChainConfig](s.chains, chainKey(chain))
}

func (s *State) PutChain(c *ChainConfig) error {
	return put(s.chains, chainKey(c.ChainID), c)
}

func (s *State) GetVote(requestID uint64, validator ids.ShortID) (*Vote, error) {
	return get[Vote](s.votes, voteKey(requestID, validator))
}

func (s *State) HasVote(requestID uint64, validator ids.ShortID) (bool, error) {
	return s.votes.Has(voteKey(requestID, validator))
}

func (s *State) PutVote(v *Vote) error {
	return put(s.votes, voteKey(v.RequestID, v.Validator), v)
}

// IsProcessed reports whether an external transaction has already been
// settled by a completed inbound request.
func (s *State) IsProcessed(txHash []byte) (bool, error) {
	return s.processed.Has(txHash)
}

func (s *State) MarkProcessed(txHash []byte, requestID uint64) error {
	return s.processed.Put(txHash, uint64Key(requestID))
}

// GetClaim returns the live inbound request holding txHash.
func (s *State) GetClaim(txHash []byte) (uint64, error) {
	b, err := s.claims.Get(txHash)
	if err != nil {
		return 0, err
	}
	return parseUint64(b)
}

func (s *State) PutClaim(txHash []byte, requestID uint64) error {
	return s.claims.Put(txHash, uint64Key(requestID))
}

func (s *State) DeleteClaim(txHash []byte) error {
	return s.claims.Delete(txHash)
}

func (s *State) GetPubkey(validator ids.ShortID) ([]byte, error) {
	return s.pubkeys.Get(validator[:])
}

func (s *State) PutPubkey(validator ids.ShortID, pubkey []byte) error {
	return s.pubkeys.Put(validator[:], pubkey)
}

// GetNonce returns the number of requests initiator has created.
func (s *State) GetNonce(initiator ids.ShortID) (uint64, error) {
	return getCount(s.nonces, initiator)
}

func (s *State) PutNonce(initiator ids.ShortID, nonce uint64) error {
	return s.nonces.Put(initiator[:], uint64Key(nonce))
}

// GetCallNonce returns the number of signed API calls account has made.
func (s *State) GetCallNonce(account ids.ShortID) (uint64, error) {
	return getCount(s.callNonces, account)
}

func (s *State) PutCallNonce(account ids.ShortID, nonce uint64) error {
	return s.callNonces.Put(account[:], uint64Key(nonce))
}

// getCount reads a per-account counter. Accounts never seen read as zero.
func getCount(db database.KeyValueReader, account ids.ShortID) (uint64, error) {
	b, err := db.Get(account[:])
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseUint64(b)
}

// AddEvent assigns the next sequence number to e and stores it.
func (s *State) AddEvent(e *Event) error {
	seq, err := increment(s.singletons, eventCounterKey)
	if err != nil {
		return err
	}
	e.Seq = seq
	return put(s.events, uint64Key(seq), e)
}

// GetEvents returns up to limit events with sequence numbers >= from.
func (s *State) GetEvents(from uint64, limit int) ([]*Event, error) {
	it := s.events.NewIteratorWithStart(uint64Key(from))
	defer it.Release()

	var events []*Event
	for len(events) < limit && it.Next() {
		e, err := unmarshal[Event](it.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to parse event: %w", err)
		}
		events = append(events, e)
	}
	return events, it.Error()
}

func get[T any](db database.KeyValueReader, key []byte) (*T, error) {
	b, err := db.Get(key)
	if err != nil {
		return nil, err
	}
	return unmarshal[T](b)
}

func put(db database.KeyValueWriter, key []byte, v any) error {
	b, err := marshal(v)
	if err != nil {
		return err
	}
	return db.Put(key, b)
}

func increment(db database.Database, key []byte) (uint64, error) {
	var next uint64 = 1
	b, err := db.Get(key)
	switch {
	case err == nil:
		current, err := parseUint64(b)
		if err != nil {
			return 0, err
		}
		next = current + 1
	case !errors.Is(err, database.ErrNotFound):
		return 0, err
	}
	return next, db.Put(key, uint64Key(next))
}

func getShortID(db database.KeyValueReader, key []byte) (ids.ShortID, error) {
	b, err := db.Get(key)
	if err != nil {
		return ids.ShortEmpty, err
	}
	return ids.ToShortID(b)
}

func uint64Key(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func parseUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: %d bytes", errCorruptCounter, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func chainKey(chain ChainID) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(chain))
}

func assetKey(asset ids.ID, chain ChainID) []byte {
	return binary.BigEndian.AppendUint32(append([]byte(nil), asset[:]...), uint32(chain))
}

func voteKey(requestID uint64, validator ids.ShortID) []byte {
	return append(uint64Key(requestID), validator[:]...)
}
