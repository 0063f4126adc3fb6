package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// LoginService establishes downstream sessions for linked accounts.
type LoginService struct {
	connector driven.BankConnector
	sessions  SessionRegistry
	timeout   time.Duration
	logger    *slog.Logger
}

// NewLoginService creates a LoginService. timeout bounds the downstream
// handshake; zero disables the bound.
func NewLoginService(connector driven.BankConnector, sessions SessionRegistry, timeout time.Duration, logger *slog.Logger) *LoginService {
	return &LoginService{
		connector: connector,
		sessions:  sessions,
		timeout:   timeout,
		logger:    logger,
	}
}

// Login performs the downstream handshake for accountID using the auth
// material linked to key, and registers the resulting session, replacing any
// previous one. On failure the registry is left unchanged. It returns how
// long the handshake took.
func (s *LoginService) Login(ctx context.Context, key *model.APIKey, accountID string) (time.Duration, error) {
	if key == nil {
		return 0, ErrUnauthorized
	}
	if accountID == "" {
		return 0, ErrMissingAccountID
	}

	linked := key.Account(accountID)
	if linked == nil {
		return 0, ErrUnknownAccount
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	account, err := s.connector.Login(ctx, *linked)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("downstream login failed", "key", key.UUID, "account_id", accountID, "error", err)
		return elapsed, upstreamFailure(ctx, err)
	}

	s.sessions.Put(accountID, account)
	s.logger.Info("downstream session established",
		"key", key.UUID,
		"account_id", accountID,
		"duration", elapsed.Round(time.Millisecond),
	)

	return elapsed, nil
}
