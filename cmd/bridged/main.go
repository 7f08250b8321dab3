// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luxfi/bridge/cmd/bridged/keygen"
	"github.com/luxfi/bridge/cmd/bridged/run"
	"github.com/luxfi/bridge/cmd/bridged/sign"
)

func main() {
	cmd := &cobra.Command{
		Use:   "bridged",
		Short: "Runs and operates a threshold-signed bridge",
	}
	cmd.AddCommand(
		run.Command(),
		keygen.Command(),
		sign.Command(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}
