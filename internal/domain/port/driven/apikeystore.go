package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

var (
	// ErrKeyNotFound is returned by mutating APIKeyStore operations when the
	// addressed record does not exist.
	ErrKeyNotFound = errors.New("api key not found")

	// ErrDuplicateAccount is returned when linking an account id that is
	// already linked to the same record.
	ErrDuplicateAccount = errors.New("account already linked to this key")

	// ErrEncryptionKeyNotSet is returned by stores that seal linked-account
	// material when CREDITGATE_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CREDITGATE_SECRET_KEY")
)

// APIKeyStore defines the driven port for durable API key records. Every
// balance mutation is a single atomic conditional update in the backing store;
// implementations never read-modify-write the balance in application code.
type APIKeyStore interface {
	// Create inserts a new record. The record must pass model.APIKey.Validate.
	Create(ctx context.Context, key *model.APIKey) error

	// GetByKey looks a record up by its presented key.
	// Returns (nil, nil) if no record matches.
	GetByKey(ctx context.Context, key string) (*model.APIKey, error)

	// DeductCredits decrements remaining credits by amount only if at least
	// amount remain. ok is false, and nothing changes, otherwise. remaining is
	// the balance after a successful deduction.
	DeductCredits(ctx context.Context, uuid string, amount int64) (remaining int64, ok bool, err error)

	// AddCredits increments remaining credits and returns the new balance.
	AddCredits(ctx context.Context, uuid string, amount int64) (int64, error)

	// RenewCredits raises every record's remaining credits to its renewal
	// allotment, never lowering a balance. It returns the number of records changed.
	RenewCredits(ctx context.Context) (int64, error)

	// LinkAccount appends a linked account to the record. Returns
	// ErrDuplicateAccount if the account id is already linked.
	LinkAccount(ctx context.Context, uuid string, account model.LinkedAccount) error
}
