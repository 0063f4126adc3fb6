package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/creditgate/internal/application"
)

func signCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign [secret] [timestamp-ms]",
		Short: "Print request signing headers for a secret",
		Long: `Print the X-Timestamp and X-Signature headers for a request signed with
the given secret. The timestamp defaults to now and is valid for 60 seconds.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
			if len(args) == 2 {
				ts = args[1]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "X-Timestamp: %s\n", ts)
			fmt.Fprintf(out, "X-Signature: %s\n", application.Sign(args[0], ts))
			return nil
		},
	}
}
