// Package memory implements the APIKeyStore port in process memory. It backs
// development runs and tests; records do not survive a restart.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.APIKeyStore = (*Store)(nil)

// Store is a mutex-guarded map of API key records. Reads return deep copies
// so callers can never mutate stored state.
type Store struct {
	mu     sync.RWMutex
	byUUID map[string]*model.APIKey
	byKey  map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		byUUID: make(map[string]*model.APIKey),
		byKey:  make(map[string]string),
	}
}

// Create inserts a copy of key.
func (s *Store) Create(_ context.Context, key *model.APIKey) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUUID[key.UUID]; exists {
		return fmt.Errorf("create api key %s: already exists", key.UUID)
	}
	if _, exists := s.byKey[key.Key]; exists {
		return fmt.Errorf("create api key %s: presented key already in use", key.UUID)
	}

	c := clone(key)
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.byUUID[c.UUID] = c
	s.byKey[c.Key] = c.UUID
	return nil
}

// GetByKey returns a copy of the record with the presented key, or (nil, nil).
func (s *Store) GetByKey(_ context.Context, key string) (*model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	return clone(s.byUUID[id]), nil
}

// DeductCredits decrements the balance under the write lock.
func (s *Store) DeductCredits(_ context.Context, uuid string, amount int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.byUUID[uuid]
	if !ok {
		return 0, false, driven.ErrKeyNotFound
	}
	if k.Balance.Remaining < amount {
		return k.Balance.Remaining, false, nil
	}
	k.Balance.Remaining -= amount
	k.UpdatedAt = time.Now().UTC()
	return k.Balance.Remaining, true, nil
}

// AddCredits increments the balance.
func (s *Store) AddCredits(_ context.Context, uuid string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("add credits: negative amount %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.byUUID[uuid]
	if !ok {
		return 0, driven.ErrKeyNotFound
	}
	k.Balance.Remaining += amount
	k.UpdatedAt = time.Now().UTC()
	return k.Balance.Remaining, nil
}

// RenewCredits raises every balance below its renewal allotment.
func (s *Store) RenewCredits(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now().UTC()
	for _, k := range s.byUUID {
		if k.Balance.Remaining < k.Balance.Renewal {
			k.Balance.Remaining = k.Balance.Renewal
			k.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// LinkAccount appends account to the record's credentials.
func (s *Store) LinkAccount(_ context.Context, uuid string, account model.LinkedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.byUUID[uuid]
	if !ok {
		return driven.ErrKeyNotFound
	}
	if k.Account(account.AccountID) != nil {
		return driven.ErrDuplicateAccount
	}
	k.Credentials = append(k.Credentials, model.LinkedAccount{
		AccountID: account.AccountID,
		Auth:      maps.Clone(account.Auth),
	})
	k.UpdatedAt = time.Now().UTC()
	return nil
}

func clone(k *model.APIKey) *model.APIKey {
	c := *k
	c.CustomerRefs = slices.Clone(k.CustomerRefs)
	c.Credentials = make([]model.LinkedAccount, len(k.Credentials))
	for i, acc := range k.Credentials {
		c.Credentials[i] = model.LinkedAccount{AccountID: acc.AccountID, Auth: maps.Clone(acc.Auth)}
	}
	return &c
}
