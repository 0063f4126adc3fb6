package model

import (
	"fmt"
	"time"
)

// Balance is the prepaid credit counter of an API key. Remaining is the
// spendable count; Renewal is the allotment the renewal job tops up to.
type Balance struct {
	Remaining int64
	Renewal   int64
}

// LinkedAccount is a downstream banking identity attached to an API key.
// Auth holds the downstream login material verbatim; the gateway never
// interprets it and never returns it in responses.
type LinkedAccount struct {
	AccountID string
	Auth      map[string]string
}

// APIKey is the tenant credential and credit record. Key is the public
// identifier presented by callers; UUID is the internal record id.
type APIKey struct {
	UUID         string
	Key          string
	Secret       string
	Balance      Balance
	CustomerRefs []string
	Credentials  []LinkedAccount
	ExpiresAt    time.Time
	Plan         Plan
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCredits reports whether the record can cover amount without going negative.
func (k *APIKey) HasCredits(amount int64) bool {
	return k.Balance.Remaining >= amount
}

// Expired reports whether the record has passed its expiry. A zero
// ExpiresAt never expires.
func (k *APIKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && !now.Before(k.ExpiresAt)
}

// Account returns the linked account with the given id, or nil.
func (k *APIKey) Account(accountID string) *LinkedAccount {
	for i := range k.Credentials {
		if k.Credentials[i].AccountID == accountID {
			return &k.Credentials[i]
		}
	}
	return nil
}

// Validate checks the record-level invariants: non-negative balance and
// unique account ids among the linked credentials.
func (k *APIKey) Validate() error {
	if k.Key == "" {
		return fmt.Errorf("api key: empty key")
	}
	if k.Secret == "" {
		return fmt.Errorf("api key %s: empty secret", k.UUID)
	}
	if k.Balance.Remaining < 0 || k.Balance.Renewal < 0 {
		return fmt.Errorf("api key %s: negative balance", k.UUID)
	}
	if !k.Plan.Valid() {
		return fmt.Errorf("api key %s: unknown plan %d", k.UUID, k.Plan)
	}

	seen := make(map[string]struct{}, len(k.Credentials))
	for _, c := range k.Credentials {
		if c.AccountID == "" {
			return fmt.Errorf("api key %s: linked account without id", k.UUID)
		}
		if _, dup := seen[c.AccountID]; dup {
			return fmt.Errorf("api key %s: duplicate linked account %q", k.UUID, c.AccountID)
		}
		seen[c.AccountID] = struct{}{}
	}
	return nil
}
