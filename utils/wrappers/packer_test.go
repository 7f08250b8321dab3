// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacker(t *testing.T) {
	require := require.New(t)

	p := Packer{Bytes: make([]byte, 2+IntLen+LongLen)}
	p.PackFixedBytes([]byte{0xbe, 0xef})
	p.PackInt(0x01020304)
	p.PackLong(0x05060708090a0b0c)
	require.False(p.Errored())
	require.Equal([]byte{
		0xbe, 0xef,
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c,
	}, p.Bytes)

	p.PackInt(1)
	require.ErrorIs(p.Err, ErrInsufficientLength)

	u := Packer{Bytes: p.Bytes}
	require.Equal([]byte{0xbe, 0xef}, u.UnpackFixedBytes(2))
	require.Equal(uint32(0x01020304), u.UnpackInt())
	require.Equal(uint64(0x05060708090a0b0c), u.UnpackLong())
	require.False(u.Errored())
	require.Len(u.Bytes, u.Offset)

	require.Zero(u.UnpackLong())
	require.ErrorIs(u.Err, ErrInsufficientLength)
}

func TestPackerKeepsFirstError(t *testing.T) {
	require := require.New(t)

	p := Packer{Bytes: make([]byte, IntLen), Offset: -1}
	require.Zero(p.UnpackInt())
	require.ErrorIs(p.Err, errNegativeOffset)

	p.Offset = 0
	require.Nil(p.UnpackFixedBytes(-1))
	require.ErrorIs(p.Err, errNegativeOffset)
}

func TestErrs(t *testing.T) {
	require := require.New(t)

	first := errors.New("first")
	errs := Errs{}
	errs.Add(nil, nil)
	require.False(errs.Errored())

	errs.Add(nil, first, errors.New("second"))
	errs.Add(errors.New("third"))
	require.Equal(first, errs.Err)
}
