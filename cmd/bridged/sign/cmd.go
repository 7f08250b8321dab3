// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sign

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luxfi/bridge/vms/bridgevm/signer"

	bvm "github.com/luxfi/bridge/vms/bridgevm"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "sign",
		Short: "Signs a bridge request's vote payload and optionally submits the vote",
		RunE:  signFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func signFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}
	return Sign(c.Context(), config, c.OutOrStdout())
}

// Sign signs the configured payload, fetching it from the node when only a
// request id was given, and submits the vote if a validator was set.
func Sign(ctx context.Context, config *Config, w io.Writer) error {
	client := bvm.NewClient(config.URI)

	payload := config.Payload
	if payload == nil {
		var err error
		payload, err = client.GetSigningPayload(ctx, config.RequestID)
		if err != nil {
			return err
		}
	}

	vote, err := signer.ParsePayload(payload)
	if err != nil {
		return err
	}
	if config.RequestID != 0 && vote.RequestID != config.RequestID {
		return fmt.Errorf("%w: expected %d, got %d", errPayloadIDMismatch, config.RequestID, vote.RequestID)
	}

	signature := config.Key.Sign(payload)
	_, err = fmt.Fprintf(w,
		"request: %d\nchain: %d\nnet amount: %d\nexternal address: 0x%s\nsignature: 0x%s\n",
		vote.RequestID,
		vote.ChainID,
		vote.NetAmount,
		hex.EncodeToString(vote.ExternalAddress),
		hex.EncodeToString(signature),
	)
	if err != nil || !config.Submit {
		return err
	}

	status, err := client.SubmitVote(ctx, config.Validator, config.RequestID, config.Approved, signature)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "vote submitted, request status: %s\n", status)
	return err
}
