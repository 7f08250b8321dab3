// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"crypto/sha256"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"

	lru "github.com/hashicorp/golang-lru"

	"github.com/luxfi/bridge/vms/bridgevm/codes"
)

const DefaultCacheSize = 1024

// Verifier checks Ed25519 vote signatures. Successful checks are remembered
// so that a vote resubmitted after an aborted transaction is not verified
// twice.
type Verifier struct {
	verified *lru.Cache
}

func NewVerifier(cacheSize int) (*Verifier, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature cache: %w", err)
	}
	return &Verifier{verified: cache}, nil
}

// Verify returns codes.ErrInvalidSignature unless sig is a valid signature of
// payload by pubkey.
func (v *Verifier) Verify(pubkey, payload, sig []byte) error {
	if len(pubkey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key is %d bytes", codes.ErrInvalidSignature, len(pubkey))
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes", codes.ErrInvalidSignature, len(sig))
	}

	key := digest(pubkey, payload, sig)
	if v.verified.Contains(key) {
		return nil
	}
	if !ed25519.Verify(ed25519.PublicKey(pubkey), payload, sig) {
		return codes.ErrInvalidSignature
	}
	v.verified.Add(key, struct{}{})
	return nil
}

func digest(pubkey, payload, sig []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write(pubkey)
	h.Write(sig)
	h.Write(payload)
	var d [sha256.Size]byte
	copy(d[:], h.Sum(nil))
	return d
}
