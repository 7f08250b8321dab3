// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auth proves who sent a mutating API call.
//
// The caller signs the call's method and arguments with a secp256k1 key.
// The server recovers the key from the signature and accepts the call as
// coming from the key's address. Each credential carries the account's next
// call nonce, so a captured call cannot be submitted a second time.
package auth

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/ids"

	"github.com/luxfi/bridge/utils/json"
	"github.com/luxfi/bridge/vms/bridgevm/codes"

	stdjson "encoding/json"
)

// domain separates call signatures from every other message a bridge key
// might sign.
const domain = "lux-bridge-call\x00"

var errNilKey = errors.New("nil signing key")

// Credential is embedded in the arguments of every mutating call.
type Credential struct {
	CallNonce json.Uint64   `json:"callNonce"`
	Signature json.HexBytes `json:"signature"`
}

// Auth returns c, letting any args struct that embeds a Credential satisfy
// Signable.
func (c *Credential) Auth() *Credential {
	return c
}

// Signable is an args struct carrying a Credential.
type Signable interface {
	Auth() *Credential
}

// Message returns the bytes signed for a call to method with args: the
// domain, the method and the JSON encoding of args with an empty signature.
// The account and the call nonce are fields of args, so both are covered.
func Message(method string, args Signable) ([]byte, error) {
	cred := args.Auth()
	sig := cred.Signature
	cred.Signature = nil
	body, err := stdjson.Marshal(args)
	cred.Signature = sig
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s arguments: %w", method, err)
	}

	msg := make([]byte, 0, len(domain)+len(method)+1+len(body))
	msg = append(msg, domain...)
	msg = append(msg, method...)
	msg = append(msg, 0)
	return append(msg, body...), nil
}

// Sign stamps args with nonce and key's signature over the call.
func Sign(method string, key *secp256k1.PrivateKey, nonce uint64, args Signable) error {
	if key == nil {
		return errNilKey
	}
	args.Auth().CallNonce = json.Uint64(nonce)
	msg, err := Message(method, args)
	if err != nil {
		return err
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("failed to sign %s: %w", method, err)
	}
	args.Auth().Signature = sig
	return nil
}

// Verify checks that args was signed for method by the key behind account.
// It does not check the call nonce; spending it is up to the caller.
func Verify(method string, account ids.ShortID, args Signable) error {
	sig := args.Auth().Signature
	if len(sig) == 0 {
		return codes.Wrap(codes.ErrUnauthorized, "%s call is not signed", method)
	}
	msg, err := Message(method, args)
	if err != nil {
		return err
	}
	pk, err := secp256k1.RecoverPublicKey(msg, sig)
	if err != nil {
		return codes.Wrap(codes.ErrUnauthorized, "%s signature: %v", method, err)
	}
	if signer := pk.Address(); signer != account {
		return codes.Wrap(codes.ErrUnauthorized, "%s signed by %s, not %s", method, signer, account)
	}
	return nil
}
