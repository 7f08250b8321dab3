// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sign

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/ids"
	"github.com/spf13/pflag"

	"github.com/luxfi/bridge/cmd/bridged/keygen"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
)

const (
	KeyFileKey   = "key-file"
	URIKey       = "uri"
	RequestIDKey = "request-id"
	PayloadKey   = "payload"
	ValidatorKey = "validator"
	RejectKey    = "reject"

	defaultURI = "http://127.0.0.1:9660"
)

var (
	errMissingRequest      = errors.New("either a request id or a payload is required")
	errSubmitNeedsRequest  = errors.New("submitting a vote requires a request id")
	errPayloadIDMismatch   = errors.New("payload is for a different request")
	errInvalidPayloadBytes = errors.New("invalid payload encoding")
)

func AddFlags(flags *pflag.FlagSet) {
	flags.String(KeyFileKey, "~/.bridged/validator.key", "File holding the validator's hex-encoded key seed")
	flags.String(URIKey, defaultURI, "URI of the bridge node")
	flags.Uint64(RequestIDKey, 0, "Request to fetch the signing payload of")
	flags.String(PayloadKey, "", "Hex-encoded payload to sign offline instead of fetching it")
	flags.String(ValidatorKey, "", "If set, submit the vote to the node as this validator")
	flags.Bool(RejectKey, false, "Submit a rejection instead of an approval")
}

type Config struct {
	Key       *signer.Key
	URI       string
	RequestID uint64
	Payload   []byte
	Validator ids.ShortID
	Submit    bool
	Approved  bool
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	keyFile, err := flags.GetString(KeyFileKey)
	if err != nil {
		return nil, err
	}
	key, err := keygen.Load(keyFile)
	if err != nil {
		return nil, err
	}

	uri, err := flags.GetString(URIKey)
	if err != nil {
		return nil, err
	}

	requestID, err := flags.GetUint64(RequestIDKey)
	if err != nil {
		return nil, err
	}

	payloadStr, err := flags.GetString(PayloadKey)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if payloadStr != "" {
		payload, err = hex.DecodeString(strings.TrimPrefix(payloadStr, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidPayloadBytes, err)
		}
	}
	if requestID == 0 && payload == nil {
		return nil, errMissingRequest
	}

	validatorStr, err := flags.GetString(ValidatorKey)
	if err != nil {
		return nil, err
	}
	config := &Config{
		Key:       key,
		URI:       uri,
		RequestID: requestID,
		Payload:   payload,
		Submit:    validatorStr != "",
	}
	if config.Submit {
		if requestID == 0 {
			return nil, errSubmitNeedsRequest
		}
		config.Validator, err = ids.ShortFromString(validatorStr)
		if err != nil {
			return nil, err
		}
	}

	reject, err := flags.GetBool(RejectKey)
	if err != nil {
		return nil, err
	}
	config.Approved = !reject
	return config, nil
}
