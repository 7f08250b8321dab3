// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wrappers packs fixed-width big-endian values into byte slices and
// collects errors across a sequence of calls.
package wrappers

import (
	"encoding/binary"
	"errors"
)

const (
	// IntLen is the number of bytes per int
	IntLen = 4
	// LongLen is the number of bytes per long
	LongLen = 8
)

var (
	ErrInsufficientLength = errors.New("packer has insufficient length for input")
	errNegativeOffset     = errors.New("negative offset")
	errInvalidInput       = errors.New("input does not match expected format")
)

// Packer writes to and reads from Bytes starting at Offset. It never grows
// Bytes: callers size the slice up front. After the first error every
// operation is a no-op and Err is kept.
type Packer struct {
	Errs

	Bytes  []byte
	Offset int
}

// PackInt appends an int to the byte array
func (p *Packer) PackInt(val uint32) {
	if !p.checkSpace(IntLen) {
		return
	}
	binary.BigEndian.PutUint32(p.Bytes[p.Offset:], val)
	p.Offset += IntLen
}

// UnpackInt unpacks an int from the byte array
func (p *Packer) UnpackInt() uint32 {
	if !p.checkSpace(IntLen) {
		return 0
	}
	val := binary.BigEndian.Uint32(p.Bytes[p.Offset:])
	p.Offset += IntLen
	return val
}

// PackLong appends a long to the byte array
func (p *Packer) PackLong(val uint64) {
	if !p.checkSpace(LongLen) {
		return
	}
	binary.BigEndian.PutUint64(p.Bytes[p.Offset:], val)
	p.Offset += LongLen
}

// UnpackLong unpacks a long from the byte array
func (p *Packer) UnpackLong() uint64 {
	if !p.checkSpace(LongLen) {
		return 0
	}
	val := binary.BigEndian.Uint64(p.Bytes[p.Offset:])
	p.Offset += LongLen
	return val
}

// PackFixedBytes appends a byte slice with no length descriptor to the byte
// array
func (p *Packer) PackFixedBytes(bytes []byte) {
	if !p.checkSpace(len(bytes)) {
		return
	}
	copy(p.Bytes[p.Offset:], bytes)
	p.Offset += len(bytes)
}

// UnpackFixedBytes unpacks a byte slice with no length descriptor from the
// byte array. The returned slice aliases Bytes.
func (p *Packer) UnpackFixedBytes(size int) []byte {
	if !p.checkSpace(size) {
		return nil
	}
	bytes := p.Bytes[p.Offset : p.Offset+size]
	p.Offset += size
	return bytes
}

// checkSpace reports whether there are at least bytes bytes left after
// Offset, recording an error if not.
func (p *Packer) checkSpace(bytes int) bool {
	switch {
	case p.Errored():
	case p.Offset < 0:
		p.Add(errNegativeOffset)
	case bytes < 0:
		p.Add(errInvalidInput)
	case len(p.Bytes)-p.Offset < bytes:
		p.Add(ErrInsufficientLength)
	}
	return !p.Errored()
}
