package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// CreditLedger checks and debits the prepaid balance of an API key record.
type CreditLedger struct {
	store  driven.APIKeyStore
	logger *slog.Logger
}

// NewCreditLedger creates a CreditLedger backed by store.
func NewCreditLedger(store driven.APIKeyStore, logger *slog.Logger) *CreditLedger {
	return &CreditLedger{store: store, logger: logger}
}

// HasCredits reports whether key's last known balance covers amount. It does
// not touch the store.
func (l *CreditLedger) HasCredits(key *model.APIKey, amount int64) bool {
	return key.HasCredits(amount)
}

// DeductCredits charges amount against key. The check and the decrement are
// one conditional update in the store, so concurrent deductions never drive
// the balance negative. It returns false, leaving the balance untouched, when
// fewer than amount credits remain. On success key's in-memory balance is
// refreshed from the store.
func (l *CreditLedger) DeductCredits(ctx context.Context, key *model.APIKey, amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("deduct credits: negative amount %d", amount)
	}

	remaining, ok, err := l.store.DeductCredits(ctx, key.UUID, amount)
	if err != nil {
		return false, fmt.Errorf("deduct %d credits from %s: %w", amount, key.UUID, err)
	}
	if !ok {
		return false, nil
	}

	key.Balance.Remaining = remaining
	l.logger.Debug("credits deducted", "key", key.UUID, "amount", amount, "remaining", remaining)
	return true, nil
}
