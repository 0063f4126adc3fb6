package application

import (
	"sync"
	"sync/atomic"

	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// SessionRegistry maps a linked account id to its live downstream session.
// Put overwrites unconditionally; there is no eviction.
type SessionRegistry interface {
	Put(accountID string, account driven.BankAccount)
	Get(accountID string) (driven.BankAccount, bool)
	Len() int
}

// Compile-time interface satisfaction check.
var _ SessionRegistry = (*SessionTable)(nil)

type session struct {
	account driven.BankAccount
}

// SessionTable is the process-wide SessionRegistry. Each account owns one
// slot that is swapped atomically on re-login, so readers always observe a
// complete session written by some finished Put. The map lock is only held
// to find or create a slot.
type SessionTable struct {
	mu    sync.RWMutex
	slots map[string]*atomic.Pointer[session]
}

// NewSessionTable creates an empty registry.
func NewSessionTable() *SessionTable {
	return &SessionTable{slots: make(map[string]*atomic.Pointer[session])}
}

// Put stores account as the live session for accountID, replacing any
// previous session.
func (t *SessionTable) Put(accountID string, account driven.BankAccount) {
	s := &session{account: account}

	t.mu.RLock()
	slot, ok := t.slots[accountID]
	t.mu.RUnlock()
	if ok {
		slot.Store(s)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	slot, ok = t.slots[accountID]
	if !ok {
		slot = new(atomic.Pointer[session])
		t.slots[accountID] = slot
	}
	slot.Store(s)
}

// Get returns the live session for accountID.
func (t *SessionTable) Get(accountID string) (driven.BankAccount, bool) {
	t.mu.RLock()
	slot, ok := t.slots[accountID]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}

	s := slot.Load()
	if s == nil {
		return nil, false
	}
	return s.account, true
}

// Len returns the number of accounts with a live session.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots)
}
