// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"github.com/luxfi/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Runs the bridge engine and serves its API",
		RunE:  runFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(viper.New(), c.Flags(), args)
	if err != nil {
		return err
	}

	node, err := New(config, log.NewLogger("bridged"))
	if err != nil {
		return err
	}
	return node.Run(c.Context())
}
