// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"math"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
)

const CodecVersion = 0

var Codec codec.Manager

func init() {
	Codec = codec.NewManager(math.MaxInt32)
	lc := linearcodec.NewDefault()

	err := errors.Join(
		lc.RegisterType(&ValidatorSet{}),
		lc.RegisterType(&PendingUpgrade{}),
		lc.RegisterType(&ChainConfig{}),
		lc.RegisterType(&WrappedAsset{}),
		lc.RegisterType(&Request{}),
		lc.RegisterType(&Vote{}),
		lc.RegisterType(&Stats{}),
		lc.RegisterType(&Event{}),
		Codec.RegisterCodec(CodecVersion, lc),
	)
	if err != nil {
		panic(err)
	}
}

func marshal(v any) ([]byte, error) {
	return Codec.Marshal(CodecVersion, v)
}

func unmarshal[T any](b []byte) (*T, error) {
	v := new(T)
	if _, err := Codec.Unmarshal(b, v); err != nil {
		return nil, err
	}
	return v, nil
}
