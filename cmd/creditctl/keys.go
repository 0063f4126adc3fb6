package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.jetify.com/typeid/v2"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Create and inspect API keys",
	}

	cmd.AddCommand(keysCreateCmd())
	cmd.AddCommand(keysLinkCmd())
	cmd.AddCommand(keysTopupCmd())
	cmd.AddCommand(keysShowCmd())
	cmd.AddCommand(keysRenewCmd())

	return cmd
}

func keysCreateCmd() *cobra.Command {
	var (
		planName  string
		credits   int64
		renewal   int64
		customers []string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print its signing secret once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := model.ParsePlan(planName)
			if err != nil {
				return err
			}
			if renewal == 0 {
				renewal = credits
			}

			key, err := newAPIKey(plan, credits, renewal, customers, expiresIn)
			if err != nil {
				return err
			}

			return withStore(cmd, func(ctx context.Context, store driven.APIKeyStore) error {
				if err := store.Create(ctx, key); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "uuid:    %s\n", key.UUID)
				fmt.Fprintf(out, "key:     %s\n", key.Key)
				fmt.Fprintf(out, "secret:  %s\n", key.Secret)
				fmt.Fprintf(out, "plan:    %s\n", key.Plan)
				fmt.Fprintf(out, "credits: %d (renews to %d)\n", key.Balance.Remaining, key.Balance.Renewal)
				fmt.Fprintln(out, "\nThe secret is not shown again.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&planName, "plan", "p", "basic", "Plan (lite, basic, pro, enterprise)")
	cmd.Flags().Int64VarP(&credits, "credits", "c", 0, "Initial credits")
	cmd.Flags().Int64Var(&renewal, "renewal", 0, "Renewal allotment (defaults to --credits)")
	cmd.Flags().StringSliceVar(&customers, "customer", nil, "Customer reference (repeatable)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Expiry from now (0 = never)")

	return cmd
}

func keysLinkCmd() *cobra.Command {
	var auth map[string]string

	cmd := &cobra.Command{
		Use:   "link [key] [account-id]",
		Short: "Link a downstream bank account to an API key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store driven.APIKeyStore) error {
				key, err := lookup(ctx, store, args[0])
				if err != nil {
					return err
				}

				if err := store.LinkAccount(ctx, key.UUID, model.LinkedAccount{AccountID: args[1], Auth: auth}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "linked %s to %s\n", args[1], key.UUID)
				return nil
			})
		},
	}

	cmd.Flags().StringToStringVar(&auth, "auth", nil, "Login material forwarded to the bank (key=value, repeatable)")

	return cmd
}

func keysTopupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topup [key] [amount]",
		Short: "Add credits to an API key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("amount must be a positive integer, got %q", args[1])
			}

			return withStore(cmd, func(ctx context.Context, store driven.APIKeyStore) error {
				key, err := lookup(ctx, store, args[0])
				if err != nil {
					return err
				}

				remaining, err := store.AddCredits(ctx, key.UUID, amount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d credits\n", key.UUID, remaining)
				return nil
			})
		},
	}
}

func keysShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Show an API key's plan, balance and linked accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store driven.APIKeyStore) error {
				key, err := lookup(ctx, store, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "uuid:      %s\n", key.UUID)
				fmt.Fprintf(out, "plan:      %s\n", key.Plan)
				fmt.Fprintf(out, "credits:   %d / %d\n", key.Balance.Remaining, key.Balance.Renewal)
				if !key.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "expires:   %s\n", key.ExpiresAt.UTC().Format(time.RFC3339))
				}
				if len(key.CustomerRefs) > 0 {
					fmt.Fprintf(out, "customers: %s\n", strings.Join(key.CustomerRefs, ", "))
				}

				ids := make([]string, 0, len(key.Credentials))
				for _, c := range key.Credentials {
					ids = append(ids, c.AccountID)
				}
				if len(ids) == 0 {
					fmt.Fprintln(out, "accounts:  none")
				} else {
					fmt.Fprintf(out, "accounts:  %s\n", strings.Join(ids, ", "))
				}
				return nil
			})
		},
	}
}

func keysRenewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Top every API key up to its renewal allotment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, store driven.APIKeyStore) error {
				n, err := store.RenewCredits(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "renewed %d keys\n", n)
				return nil
			})
		},
	}
}

func lookup(ctx context.Context, store driven.APIKeyStore, presented string) (*model.APIKey, error) {
	key, err := store.GetByKey(ctx, presented)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("api key %q: %w", presented, driven.ErrKeyNotFound)
	}
	return key, nil
}

// newAPIKey builds a record with a typeid internal id, a random presented
// key and a 32-byte signing secret.
func newAPIKey(plan model.Plan, credits, renewal int64, customers []string, expiresIn time.Duration) (*model.APIKey, error) {
	tid, err := typeid.Generate("key")
	if err != nil {
		return nil, fmt.Errorf("generating key id: %w", err)
	}

	presented, err := randomToken(18)
	if err != nil {
		return nil, err
	}
	secret, err := randomToken(32)
	if err != nil {
		return nil, err
	}

	key := &model.APIKey{
		UUID:         tid.String(),
		Key:          "pk_" + presented,
		Secret:       secret,
		Balance:      model.Balance{Remaining: credits, Renewal: renewal},
		CustomerRefs: customers,
		Plan:         plan,
	}
	if expiresIn > 0 {
		key.ExpiresAt = time.Now().Add(expiresIn).UTC()
	}

	if err := key.Validate(); err != nil {
		return nil, err
	}
	return key, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
