// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keygen

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/luxfi/bridge/utils"
)

const (
	KeyFileKey = "key-file"
	ForceKey   = "force"
	AccountKey = "account"
)

var errMissingKeyFile = errors.New("missing key file")

func AddFlags(flags *pflag.FlagSet) {
	flags.String(KeyFileKey, "~/.bridged/validator.key", "File the hex-encoded key seed is written to")
	flags.Bool(ForceKey, false, "Overwrite an existing key file")
	flags.Bool(AccountKey, false, "Generate a secp256k1 account key for signing API calls instead of a vote signing key")
}

type Config struct {
	KeyFile string
	Force   bool
	Account bool
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	keyFile, err := flags.GetString(KeyFileKey)
	if err != nil {
		return nil, err
	}
	if keyFile == "" {
		return nil, errMissingKeyFile
	}

	force, err := flags.GetBool(ForceKey)
	if err != nil {
		return nil, err
	}

	account, err := flags.GetBool(AccountKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		KeyFile: utils.ExpandHome(keyFile),
		Force:   force,
		Account: account,
	}, nil
}
