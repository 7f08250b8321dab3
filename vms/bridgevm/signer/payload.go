// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/luxfi/bridge/utils/wrappers"
)

// DomainTag prefixes every vote payload so signatures cannot be replayed in
// another protocol that signs raw bytes with the same key.
const DomainTag = "lux_bridge_v1"

const (
	requestIDLen = wrappers.LongLen
	amountLen    = 2 * wrappers.LongLen
	chainIDLen   = wrappers.IntLen

	// HeaderLen is the payload length excluding the external address.
	HeaderLen = len(DomainTag) + requestIDLen + amountLen + chainIDLen
)

var (
	errWrongDomain    = errors.New("payload has wrong domain tag")
	errAmountTooLarge = errors.New("payload amount exceeds 64 bits")
)

// UnsignedVote is the content of a vote payload.
type UnsignedVote struct {
	RequestID       uint64
	NetAmount       uint64
	ChainID         uint32
	ExternalAddress []byte
}

// Payload returns the canonical bytes a validator signs to vote on a request:
//
//	DomainTag || requestID (8, BE) || netAmount (16, BE) || chainID (4, BE) || externalAddress
//
// The amount is the net amount so that a vote cannot be reinterpreted under a
// different fee.
func Payload(requestID, netAmount uint64, chainID uint32, externalAddress []byte) []byte {
	p := wrappers.Packer{Bytes: make([]byte, HeaderLen+len(externalAddress))}
	p.PackFixedBytes([]byte(DomainTag))
	p.PackLong(requestID)
	// high 8 bytes of the 128-bit amount are always zero
	p.PackLong(0)
	p.PackLong(netAmount)
	p.PackInt(chainID)
	p.PackFixedBytes(externalAddress)
	return p.Bytes
}

// ParsePayload decodes a payload produced by Payload.
func ParsePayload(b []byte) (*UnsignedVote, error) {
	p := wrappers.Packer{Bytes: b}
	if tag := p.UnpackFixedBytes(len(DomainTag)); !p.Errored() && !bytes.Equal(tag, []byte(DomainTag)) {
		return nil, errWrongDomain
	}
	v := &UnsignedVote{
		RequestID: p.UnpackLong(),
	}
	high := p.UnpackLong()
	v.NetAmount = p.UnpackLong()
	v.ChainID = p.UnpackInt()
	if p.Errored() {
		return nil, fmt.Errorf("failed to parse payload: %w", p.Err)
	}
	if high != 0 {
		return nil, errAmountTooLarge
	}
	v.ExternalAddress = bytes.Clone(b[p.Offset:])
	return v, nil
}

func (v *UnsignedVote) Bytes() []byte {
	return Payload(v.RequestID, v.NetAmount, v.ChainID, v.ExternalAddress)
}
