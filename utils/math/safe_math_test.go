// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const maxUint64 uint64 = 1<<64 - 1

func TestAdd(t *testing.T) {
	require := require.New(t)

	sum, err := Add(maxUint64-1, 1)
	require.NoError(err)
	require.Equal(maxUint64, sum)

	_, err = Add(maxUint64, 1)
	require.ErrorIs(err, ErrOverflow)

	_, err = Add[uint32](1<<31, 1<<31)
	require.ErrorIs(err, ErrOverflow)
}

func TestSub(t *testing.T) {
	require := require.New(t)

	diff, err := Sub[uint64](10, 3)
	require.NoError(err)
	require.Equal(uint64(7), diff)

	_, err = Sub[uint64](3, 10)
	require.ErrorIs(err, ErrUnderflow)

	require.Zero(SaturatingSub[uint64](3, 10))
	require.Equal(uint64(7), SaturatingSub[uint64](10, 3))
}

func TestMul(t *testing.T) {
	require := require.New(t)

	p, err := Mul[uint64](1<<32, 1<<31)
	require.NoError(err)
	require.Equal(uint64(1<<63), p)

	_, err = Mul[uint64](1<<32, 1<<32)
	require.ErrorIs(err, ErrOverflow)

	require.Equal(maxUint64, SaturatingMul(1<<32, 1<<32))
	require.Equal(uint64(10_000), SaturatingMul(1_000, 10))
}

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name        string
		a, b, d     uint64
		expected    uint64
		expectedErr error
	}{
		{
			name:     "truncates",
			a:        999,
			b:        30,
			d:        10_000,
			expected: 2,
		},
		{
			name:     "wide intermediate",
			a:        maxUint64,
			b:        10_000,
			d:        10_000,
			expected: maxUint64,
		},
		{
			name:        "quotient overflow",
			a:           maxUint64,
			b:           10_000,
			d:           1,
			expectedErr: ErrOverflow,
		},
		{
			name:        "zero divisor",
			a:           1,
			b:           1,
			expectedErr: ErrDivideByZero,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			got, err := MulDiv(test.a, test.b, test.d)
			require.ErrorIs(err, test.expectedErr)
			require.Equal(test.expected, got)
		})
	}
}

func TestPow10(t *testing.T) {
	require := require.New(t)

	p, err := Pow10(0)
	require.NoError(err)
	require.Equal(uint64(1), p)

	p, err = Pow10(19)
	require.NoError(err)
	require.Equal(uint64(10_000_000_000_000_000_000), p)

	_, err = Pow10(20)
	require.ErrorIs(err, ErrOverflow)
}
