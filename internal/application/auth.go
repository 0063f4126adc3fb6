package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// MaxClockSkew bounds |now - timestamp| for a signed request. A request
// exactly MaxClockSkew away is accepted.
const MaxClockSkew = 60 * time.Second

// Credentials are the caller-supplied authentication values of one request.
type Credentials struct {
	Key       string
	Timestamp string
	Signature string
	// AccountID optionally selects a linked account's live session.
	AccountID string
}

// RequestContext is the per-call result of authentication. Account is set
// only when an account id was supplied and has a live session.
type RequestContext struct {
	APIKey    *model.APIKey
	AccountID string
	Account   driven.BankAccount
}

// AuthService verifies signed requests against stored API key records.
type AuthService struct {
	store    driven.APIKeyStore
	sessions SessionRegistry
	now      func() time.Time
}

// NewAuthService creates an AuthService. now may be nil to use the wall clock.
func NewAuthService(store driven.APIKeyStore, sessions SessionRegistry, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{store: store, sessions: sessions, now: now}
}

// Sign computes the request signature for timestamp: HMAC-SHA512 keyed with
// secret, encoded as unpadded URL-safe base64. Only the timestamp is signed,
// so a captured signature can be replayed with any body inside the skew window.
func Sign(secret, timestamp string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(timestamp))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Authenticate runs the verification steps in order and stops at the first
// failure. It has no side effects.
func (s *AuthService) Authenticate(ctx context.Context, c Credentials) (*RequestContext, error) {
	key, err := s.store.GetByKey(ctx, c.Key)
	if err != nil {
		return nil, internalError("key lookup failed", err)
	}
	if key == nil {
		return nil, ErrInvalidKey
	}

	if c.Timestamp == "" {
		return nil, ErrMissingTimestamp
	}
	ts, ok := parseMillis(c.Timestamp)
	if !ok {
		return nil, ErrInvalidTimestamp
	}

	now := s.now().UnixMilli()
	if skew := now - ts; skew > MaxClockSkew.Milliseconds() || -skew > MaxClockSkew.Milliseconds() {
		return nil, &Error{Kind: KindUnauthenticated, Message: ErrClockSkew.Message, ServerTime: now}
	}

	if !hmac.Equal([]byte(Sign(key.Secret, c.Timestamp)), []byte(c.Signature)) {
		return nil, ErrBadSignature
	}
	if key.Expired(s.now()) {
		return nil, ErrExpiredKey
	}

	rc := &RequestContext{APIKey: key}
	if c.AccountID == "" {
		return rc, nil
	}

	if key.Account(c.AccountID) == nil {
		return nil, ErrUnknownAccount
	}
	account, ok := s.sessions.Get(c.AccountID)
	if !ok {
		return nil, ErrInactiveAccount
	}
	rc.AccountID = c.AccountID
	rc.Account = account

	return rc, nil
}

// parseMillis accepts only ASCII digits. Values that overflow int64 are rejected.
func parseMillis(s string) (int64, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
