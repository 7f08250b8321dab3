// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keygen

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/luxfi/crypto/secp256k1"
	"github.com/spf13/cobra"

	"github.com/luxfi/bridge/utils"
	"github.com/luxfi/bridge/utils/perms"
	"github.com/luxfi/bridge/vms/bridgevm/signer"
)

var errKeyFileExists = errors.New("key file already exists")

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "keygen",
		Short: "Generates a validator vote signing key or an API account key",
		RunE:  keygenFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func keygenFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}

	if config.Account {
		key, err := GenerateAccount(config)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(c.OutOrStdout(), "wrote account key to %s\naddress: %s\n", config.KeyFile, key.Address())
		return err
	}

	key, err := Generate(config)
	if err != nil {
		return err
	}
	return printKey(c.OutOrStdout(), config.KeyFile, key)
}

// Generate writes a new vote signing key to config.KeyFile, readable only by
// its owner.
func Generate(config *Config) (*signer.Key, error) {
	key, err := signer.GenerateKey()
	if err != nil {
		return nil, err
	}
	return key, writeKey(config, key.String())
}

// GenerateAccount writes a new secp256k1 key to config.KeyFile. Its address
// is the account that API calls signed with it act for.
func GenerateAccount(config *Config) (*secp256k1.PrivateKey, error) {
	key, err := secp256k1.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return key, writeKey(config, key.String())
}

func writeKey(config *Config, encoded string) error {
	if !config.Force && utils.FileExists(config.KeyFile) {
		return fmt.Errorf("%w: %s", errKeyFileExists, config.KeyFile)
	}
	if err := os.MkdirAll(filepath.Dir(config.KeyFile), perms.ReadWriteExecute); err != nil {
		return err
	}
	return perms.WriteFile(config.KeyFile, []byte(encoded+"\n"), perms.ReadOnly)
}

// Load reads a key written by Generate.
func Load(keyFile string) (*signer.Key, error) {
	b, err := os.ReadFile(utils.ExpandHome(keyFile))
	if err != nil {
		return nil, err
	}
	return signer.ParseKey(string(b))
}

// LoadAccount reads a key written by GenerateAccount.
func LoadAccount(keyFile string) (*secp256k1.PrivateKey, error) {
	b, err := os.ReadFile(utils.ExpandHome(keyFile))
	if err != nil {
		return nil, err
	}
	key := &secp256k1.PrivateKey{}
	if err := key.UnmarshalText(bytes.TrimSpace(b)); err != nil {
		return nil, fmt.Errorf("failed to parse account key %s: %w", keyFile, err)
	}
	return key, nil
}

func printKey(w io.Writer, keyFile string, key *signer.Key) error {
	_, err := fmt.Fprintf(w, "wrote key to %s\npublic key: 0x%s\n", keyFile, hex.EncodeToString(key.PublicKey()))
	return err
}
