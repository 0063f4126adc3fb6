package application_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

const (
	authKey    = "pk_live_1"
	authSecret = "s3cr3t"
)

var authNow = time.UnixMilli(1_760_000_000_000)

func authFixture() (*application.AuthService, *mockStore, *spyRegistry) {
	store := newMockStore(&model.APIKey{
		UUID:        "key_1",
		Key:         authKey,
		Secret:      authSecret,
		Balance:     model.Balance{Remaining: 10},
		Credentials: []model.LinkedAccount{{AccountID: "acc-1"}, {AccountID: "acc-2"}},
	})
	reg := &spyRegistry{sessions: map[string]driven.BankAccount{"acc-1": &mockBank{name: "one"}}}
	return application.NewAuthService(store, reg, func() time.Time { return authNow }), store, reg
}

func signedCreds(ts time.Time) application.Credentials {
	stamp := strconv.FormatInt(ts.UnixMilli(), 10)
	return application.Credentials{
		Key:       authKey,
		Timestamp: stamp,
		Signature: application.Sign(authSecret, stamp),
	}
}

func TestSign_KnownVector(t *testing.T) {
	sig := application.Sign("key", "1700000000000")

	// HMAC-SHA512 is 64 bytes: 86 unpadded base64url characters.
	assert.Len(t, sig, 86)
	assert.NotContains(t, sig, "=")
	assert.NotContains(t, sig, "+")
	assert.NotContains(t, sig, "/")
	assert.Equal(t, sig, application.Sign("key", "1700000000000"))
	assert.NotEqual(t, sig, application.Sign("key", "1700000000001"))
}

func TestAuthenticate_Success(t *testing.T) {
	svc, _, reg := authFixture()

	rc, err := svc.Authenticate(context.Background(), signedCreds(authNow))

	require.NoError(t, err)
	assert.Equal(t, "key_1", rc.APIKey.UUID)
	assert.Nil(t, rc.Account)
	assert.Empty(t, rc.AccountID)
	assert.Zero(t, reg.gets.Load(), "registry must not be consulted without an account id")
}

func TestAuthenticate_ExpiredKey(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		wantErr error
	}{
		{"never expires", time.Time{}, nil},
		{"expires later", authNow.Add(time.Hour), nil},
		{"expires now", authNow, application.ErrExpiredKey},
		{"expired", authNow.Add(-time.Hour), application.ErrExpiredKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore(&model.APIKey{
				UUID:      "key_1",
				Key:       authKey,
				Secret:    authSecret,
				ExpiresAt: tt.expires,
			})
			svc := application.NewAuthService(store, &spyRegistry{}, func() time.Time { return authNow })

			rc, err := svc.Authenticate(context.Background(), signedCreds(authNow))

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.NotNil(t, rc)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, application.KindUnauthenticated, application.KindOf(err))
		})
	}
}

func TestAuthenticate_WithLiveAccount(t *testing.T) {
	svc, _, _ := authFixture()
	c := signedCreds(authNow)
	c.AccountID = "acc-1"

	rc, err := svc.Authenticate(context.Background(), c)

	require.NoError(t, err)
	assert.Equal(t, "acc-1", rc.AccountID)
	require.NotNil(t, rc.Account)
	assert.Equal(t, "one", rc.Account.(*mockBank).name)
}

func TestAuthenticate_SkewBoundary(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"exactly 60s behind", -60 * time.Second, true},
		{"exactly 60s ahead", 60 * time.Second, true},
		{"60.001s behind", -60*time.Second - time.Millisecond, false},
		{"60.001s ahead", 60*time.Second + time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := authFixture()

			_, err := svc.Authenticate(context.Background(), signedCreds(authNow.Add(tt.offset)))

			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, application.ErrClockSkew)
			var appErr *application.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, authNow.UnixMilli(), appErr.ServerTime)
		})
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*application.Credentials)
		want   error
	}{
		{"unknown key", func(c *application.Credentials) { c.Key = "other" }, application.ErrInvalidKey},
		{"missing timestamp", func(c *application.Credentials) { c.Timestamp = "" }, application.ErrMissingTimestamp},
		{"non-numeric timestamp", func(c *application.Credentials) { c.Timestamp = "17e11" }, application.ErrInvalidTimestamp},
		{"negative timestamp", func(c *application.Credentials) { c.Timestamp = "-1" }, application.ErrInvalidTimestamp},
		{"overflowing timestamp", func(c *application.Credentials) { c.Timestamp = "99999999999999999999" }, application.ErrInvalidTimestamp},
		{"bad signature", func(c *application.Credentials) { c.Signature = "AAAA" }, application.ErrBadSignature},
		{"padded signature", func(c *application.Credentials) { c.Signature += "==" }, application.ErrBadSignature},
		{"unlinked account", func(c *application.Credentials) { c.AccountID = "acc-9" }, application.ErrUnknownAccount},
		{"linked but inactive", func(c *application.Credentials) { c.AccountID = "acc-2" }, application.ErrInactiveAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := authFixture()
			c := signedCreds(authNow)
			tt.mutate(&c)

			rc, err := svc.Authenticate(context.Background(), c)

			assert.Nil(t, rc)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, application.KindUnauthenticated, application.KindOf(err))
		})
	}
}

func TestAuthenticate_SkewCheckedBeforeSignature(t *testing.T) {
	svc, _, _ := authFixture()
	c := signedCreds(authNow.Add(-2 * time.Minute))
	c.Signature = "garbage"

	_, err := svc.Authenticate(context.Background(), c)

	require.ErrorIs(t, err, application.ErrClockSkew)
}

func TestAuthenticate_StoreFailureIsInternal(t *testing.T) {
	svc, store, _ := authFixture()
	store.getErr = errors.New("connection reset")

	_, err := svc.Authenticate(context.Background(), signedCreds(authNow))

	require.Error(t, err)
	assert.Equal(t, application.KindInternal, application.KindOf(err))
}

func TestAuthenticate_DefaultClock(t *testing.T) {
	store := newMockStore(&model.APIKey{UUID: "key_1", Key: authKey, Secret: authSecret})
	svc := application.NewAuthService(store, &spyRegistry{sessions: map[string]driven.BankAccount{}}, nil)

	_, err := svc.Authenticate(context.Background(), signedCreds(time.Now()))

	require.NoError(t, err)
}
