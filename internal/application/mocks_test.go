package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock implementations ---

// mockStore is a mutex-guarded APIKeyStore. Records are handed out as copies
// so callers cannot mutate stored balances directly.
type mockStore struct {
	mu      sync.Mutex
	byKey   map[string]*model.APIKey
	getErr  error
	dedErr  error
	renewed int64

	gets    atomic.Int32
	deducts atomic.Int32
}

func newMockStore(keys ...*model.APIKey) *mockStore {
	s := &mockStore{byKey: make(map[string]*model.APIKey)}
	for _, k := range keys {
		s.byKey[k.Key] = k
	}
	return s
}

func (m *mockStore) Create(_ context.Context, k *model.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[k.Key] = k
	return nil
}

func (m *mockStore) GetByKey(_ context.Context, key string) (*model.APIKey, error) {
	m.gets.Add(1)
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.byKey[key]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

func (m *mockStore) find(uuid string) *model.APIKey {
	for _, k := range m.byKey {
		if k.UUID == uuid {
			return k
		}
	}
	return nil
}

func (m *mockStore) DeductCredits(_ context.Context, uuid string, amount int64) (int64, bool, error) {
	m.deducts.Add(1)
	if m.dedErr != nil {
		return 0, false, m.dedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.find(uuid)
	if k == nil {
		return 0, false, driven.ErrKeyNotFound
	}
	if k.Balance.Remaining < amount {
		return k.Balance.Remaining, false, nil
	}
	k.Balance.Remaining -= amount
	return k.Balance.Remaining, true, nil
}

func (m *mockStore) AddCredits(_ context.Context, uuid string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.find(uuid)
	if k == nil {
		return 0, driven.ErrKeyNotFound
	}
	k.Balance.Remaining += amount
	return k.Balance.Remaining, nil
}

func (m *mockStore) RenewCredits(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renewed++
	var n int64
	for _, k := range m.byKey {
		if k.Balance.Remaining < k.Balance.Renewal {
			k.Balance.Remaining = k.Balance.Renewal
			n++
		}
	}
	return n, nil
}

func (m *mockStore) LinkAccount(_ context.Context, uuid string, account model.LinkedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.find(uuid)
	if k == nil {
		return driven.ErrKeyNotFound
	}
	k.Credentials = append(k.Credentials, account)
	return nil
}

func (m *mockStore) balance(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byKey[key].Balance.Remaining
}

// mockBank is a BankAccount whose FetchAccounts behaviour is scripted.
// Every other method panics through the nil embedded interface.
type mockBank struct {
	driven.BankAccount
	name  string
	calls atomic.Int32
	fetch func(ctx context.Context) (model.Payload, error)
}

func (m *mockBank) FetchAccounts(ctx context.Context) (model.Payload, error) {
	m.calls.Add(1)
	if m.fetch != nil {
		return m.fetch(ctx)
	}
	return model.Payload(`{"account":"` + m.name + `"}`), nil
}

type mockConnector struct {
	account driven.BankAccount
	err     error
	block   bool
	logins  []model.LinkedAccount
}

func (m *mockConnector) Login(ctx context.Context, account model.LinkedAccount) (driven.BankAccount, error) {
	m.logins = append(m.logins, account)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

// spyRegistry records lookups against a fixed set of sessions.
type spyRegistry struct {
	sessions map[string]driven.BankAccount
	gets     atomic.Int32
}

func (s *spyRegistry) Put(accountID string, account driven.BankAccount) {
	s.sessions[accountID] = account
}

func (s *spyRegistry) Get(accountID string) (driven.BankAccount, bool) {
	s.gets.Add(1)
	a, ok := s.sessions[accountID]
	return a, ok
}

func (s *spyRegistry) Len() int { return len(s.sessions) }

type recordingUsage struct {
	mu       sync.Mutex
	debited  map[string]int64
	rejected []string
}

func newRecordingUsage() *recordingUsage {
	return &recordingUsage{debited: make(map[string]int64)}
}

func (r *recordingUsage) Debited(op string, amount int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debited[op] += amount
}

func (r *recordingUsage) Rejected(op, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, op+":"+kind)
}

var errDownstream = errors.New("Account frozen")
