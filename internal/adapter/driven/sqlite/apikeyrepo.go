package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.APIKeyStore = (*APIKeyRepo)(nil)

// APIKeyRepo is the SQLite implementation of the APIKeyStore port interface.
// Signing secrets and linked-account auth material are sealed with
// AES-256-GCM before write and opened after read.
type APIKeyRepo struct {
	db     *DB
	sealer *sealer
}

// NewAPIKeyRepo creates a new APIKeyRepo. key must be 32 bytes for AES-256-GCM,
// or nil, in which case every operation touching sealed columns returns
// driven.ErrEncryptionKeyNotSet.
func NewAPIKeyRepo(db *DB, key []byte) (*APIKeyRepo, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	return &APIKeyRepo{db: db, sealer: s}, nil
}

// Create inserts the record and its linked accounts in one transaction.
func (r *APIKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	secret, err := r.sealer.seal([]byte(key.Secret))
	if err != nil {
		return fmt.Errorf("seal secret for %s: %w", key.UUID, err)
	}
	customers, err := json.Marshal(nonNil(key.CustomerRefs))
	if err != nil {
		return fmt.Errorf("encode customer ids for %s: %w", key.UUID, err)
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create %s: %w", key.UUID, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())
	const insertKey = `INSERT INTO api_keys
		(uuid, key, secret_sealed, credits_remaining, credits_renewal, customer_ids, expires_at, plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insertKey,
		key.UUID, key.Key, secret,
		key.Balance.Remaining, key.Balance.Renewal,
		string(customers), formatTime(key.ExpiresAt), int(key.Plan),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert api key %s: %w", key.UUID, err)
	}

	for _, acc := range key.Credentials {
		if err := r.insertAccount(ctx, tx, key.UUID, acc); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create %s: %w", key.UUID, err)
	}
	return nil
}

// GetByKey returns the record with the presented key, or (nil, nil).
func (r *APIKeyRepo) GetByKey(ctx context.Context, key string) (*model.APIKey, error) {
	const query = `SELECT uuid, key, secret_sealed, credits_remaining, credits_renewal,
		customer_ids, expires_at, plan, created_at, updated_at
		FROM api_keys WHERE key = ?`

	var (
		k                               model.APIKey
		sealedSecret, customers         string
		expiresAt, createdAt, updatedAt string
		plan                            int
	)
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(
		&k.UUID, &k.Key, &sealedSecret, &k.Balance.Remaining, &k.Balance.Renewal,
		&customers, &expiresAt, &plan, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}
	k.Plan = model.Plan(plan)

	secret, err := r.sealer.open(sealedSecret)
	if err != nil {
		return nil, fmt.Errorf("open secret for %s: %w", k.UUID, err)
	}
	k.Secret = string(secret)

	if err := json.Unmarshal([]byte(customers), &k.CustomerRefs); err != nil {
		return nil, fmt.Errorf("decode customer ids for %s: %w", k.UUID, err)
	}
	if k.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at for %s: %w", k.UUID, err)
	}
	if k.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", k.UUID, err)
	}
	if k.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for %s: %w", k.UUID, err)
	}

	if k.Credentials, err = r.listAccounts(ctx, k.UUID); err != nil {
		return nil, err
	}
	return &k, nil
}

// DeductCredits decrements the balance with a single conditional UPDATE.
func (r *APIKeyRepo) DeductCredits(ctx context.Context, uuid string, amount int64) (int64, bool, error) {
	const query = `UPDATE api_keys
		SET credits_remaining = credits_remaining - ?, updated_at = ?
		WHERE uuid = ? AND credits_remaining >= ?
		RETURNING credits_remaining`

	var remaining int64
	err := r.db.Writer.QueryRowContext(ctx, query, amount, formatTime(time.Now()), uuid, amount).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		current, err := r.remaining(ctx, uuid)
		if err != nil {
			return 0, false, err
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("deduct credits from %s: %w", uuid, err)
	}
	return remaining, true, nil
}

// AddCredits increments the balance.
func (r *APIKeyRepo) AddCredits(ctx context.Context, uuid string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("add credits: negative amount %d", amount)
	}

	const query = `UPDATE api_keys
		SET credits_remaining = credits_remaining + ?, updated_at = ?
		WHERE uuid = ?
		RETURNING credits_remaining`

	var remaining int64
	err := r.db.Writer.QueryRowContext(ctx, query, amount, formatTime(time.Now()), uuid).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("add credits to %s: %w", uuid, driven.ErrKeyNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("add credits to %s: %w", uuid, err)
	}
	return remaining, nil
}

// RenewCredits raises every balance below its renewal allotment.
func (r *APIKeyRepo) RenewCredits(ctx context.Context) (int64, error) {
	const query = `UPDATE api_keys
		SET credits_remaining = credits_renewal, updated_at = ?
		WHERE credits_remaining < credits_renewal`

	result, err := r.db.Writer.ExecContext(ctx, query, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("renew credits: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("renew credits rows affected: %w", err)
	}
	return n, nil
}

// LinkAccount appends a linked account to the record.
func (r *APIKeyRepo) LinkAccount(ctx context.Context, uuid string, account model.LinkedAccount) error {
	if account.AccountID == "" {
		return fmt.Errorf("link account to %s: empty account id", uuid)
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin link %s: %w", uuid, err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM api_keys WHERE uuid = ?`, uuid).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("link account to %s: %w", uuid, driven.ErrKeyNotFound)
	}
	if err != nil {
		return fmt.Errorf("link account to %s: %w", uuid, err)
	}

	if err := r.insertAccount(ctx, tx, uuid, account); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit link %s: %w", uuid, err)
	}
	return nil
}

func (r *APIKeyRepo) insertAccount(ctx context.Context, tx *sql.Tx, uuid string, account model.LinkedAccount) error {
	auth, err := json.Marshal(account.Auth)
	if err != nil {
		return fmt.Errorf("encode auth for account %q: %w", account.AccountID, err)
	}
	sealed, err := r.sealer.seal(auth)
	if err != nil {
		return fmt.Errorf("seal auth for account %q: %w", account.AccountID, err)
	}

	const query = `INSERT INTO linked_accounts (api_key_uuid, account_id, auth_sealed) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, uuid, account.AccountID, sealed); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("link account %q to %s: %w", account.AccountID, uuid, driven.ErrDuplicateAccount)
		}
		return fmt.Errorf("link account %q to %s: %w", account.AccountID, uuid, err)
	}
	return nil
}

func (r *APIKeyRepo) listAccounts(ctx context.Context, uuid string) ([]model.LinkedAccount, error) {
	const query = `SELECT account_id, auth_sealed FROM linked_accounts WHERE api_key_uuid = ? ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, uuid)
	if err != nil {
		return nil, fmt.Errorf("list linked accounts for %s: %w", uuid, err)
	}
	defer rows.Close()

	accounts := []model.LinkedAccount{}
	for rows.Next() {
		var acc model.LinkedAccount
		var sealed string
		if err := rows.Scan(&acc.AccountID, &sealed); err != nil {
			return nil, fmt.Errorf("scan linked account: %w", err)
		}

		auth, err := r.sealer.open(sealed)
		if err != nil {
			return nil, fmt.Errorf("open auth for account %q: %w", acc.AccountID, err)
		}
		if err := json.Unmarshal(auth, &acc.Auth); err != nil {
			return nil, fmt.Errorf("decode auth for account %q: %w", acc.AccountID, err)
		}

		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linked accounts: %w", err)
	}

	return accounts, nil
}

func (r *APIKeyRepo) remaining(ctx context.Context, uuid string) (int64, error) {
	var remaining int64
	err := r.db.Writer.QueryRowContext(ctx, `SELECT credits_remaining FROM api_keys WHERE uuid = ?`, uuid).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("deduct credits from %s: %w", uuid, driven.ErrKeyNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read credits of %s: %w", uuid, err)
	}
	return remaining, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
