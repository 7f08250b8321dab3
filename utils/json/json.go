// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package json provides JSON encodings for values that JavaScript clients
// cannot represent natively: 64-bit integers and raw bytes are sent as
// strings.
package json

import (
	"encoding/hex"
	"strconv"
	"strings"
)

const Null = "null"

// Uint32 is a uint32 that can be JSON marshaled as a string.
type Uint32 uint32

func (u Uint32) MarshalJSON() ([]byte, error) {
	return quote(strconv.FormatUint(uint64(u), 10)), nil
}

func (u *Uint32) UnmarshalJSON(b []byte) error {
	str, ok := unquote(b)
	if !ok {
		return nil
	}
	val, err := strconv.ParseUint(str, 10, 32)
	*u = Uint32(val)
	return err
}

// Uint64 is a uint64 that can be JSON marshaled as a string.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return quote(strconv.FormatUint(uint64(u), 10)), nil
}

func (u *Uint64) UnmarshalJSON(b []byte) error {
	str, ok := unquote(b)
	if !ok {
		return nil
	}
	val, err := strconv.ParseUint(str, 10, 64)
	*u = Uint64(val)
	return err
}

// HexBytes is a byte slice that is JSON marshaled as a 0x-prefixed hex
// string. The prefix is optional when unmarshaling.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return quote("0x" + hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalJSON(b []byte) error {
	str, ok := unquote(b)
	if !ok {
		return nil
	}
	val, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return err
	}
	*h = val
	return nil
}

func quote(s string) []byte {
	return []byte(`"` + s + `"`)
}

// unquote strips the quotes around a JSON string. ok is false for null.
func unquote(b []byte) (string, bool) {
	str := string(b)
	if str == Null {
		return "", false
	}
	if len(str) >= 2 {
		if lastIndex := len(str) - 1; str[0] == '"' && str[lastIndex] == '"' {
			str = str[1:lastIndex]
		}
	}
	return str, true
}
