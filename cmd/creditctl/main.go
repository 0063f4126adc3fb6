// Command creditctl manages creditgate API keys directly in the credential
// store. It reads the same CREDITGATE_* storage variables as the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/creditgate/internal/bootstrap"
	"github.com/ericfisherdev/creditgate/internal/config"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "creditctl",
		Short:         "Manage creditgate API keys and credits",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(signCmd())

	return rootCmd
}

// withStore opens the configured credential store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store driven.APIKeyStore) error) error {
	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, release, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx, store)
}
