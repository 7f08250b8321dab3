// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"
)

var errInvalidKey = errors.New("invalid ed25519 key")

// Key is a validator's vote signing key.
type Key struct {
	sk ed25519.PrivateKey
}

func GenerateKey() (*Key, error) {
	_, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Key{sk: sk}, nil
}

// KeyFromSeed derives a key from a 32-byte seed.
func KeyFromSeed(seed []byte) (*Key, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", errInvalidKey, len(seed))
	}
	return &Key{sk: ed25519.NewKeyFromSeed(seed)}, nil
}

// ParseKey decodes a hex-encoded seed, with or without a 0x prefix.
func ParseKey(s string) (*Key, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidKey, err)
	}
	return KeyFromSeed(seed)
}

func (k *Key) PublicKey() []byte {
	return append([]byte(nil), k.sk[ed25519.SeedSize:]...)
}

func (k *Key) Seed() []byte {
	return k.sk.Seed()
}

// String returns the hex-encoded seed.
func (k *Key) String() string {
	return hex.EncodeToString(k.sk.Seed())
}

func (k *Key) Sign(payload []byte) []byte {
	return ed25519.Sign(k.sk, payload)
}

// SignVote signs the payload for a vote on the given request.
func (k *Key) SignVote(requestID, netAmount uint64, chainID uint32, externalAddress []byte) []byte {
	return k.Sign(Payload(requestID, netAmount, chainID, externalAddress))
}

// PublicKeyLen is the length of a validator's vote verification key.
const PublicKeyLen = ed25519.PublicKeySize
