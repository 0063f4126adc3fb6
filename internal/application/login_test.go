package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

func loginKey() *model.APIKey {
	return &model.APIKey{
		UUID: "key_1",
		Credentials: []model.LinkedAccount{
			{AccountID: "acc-1", Auth: map[string]string{"pin": "1234"}},
		},
	}
}

func TestLogin_RegistersSession(t *testing.T) {
	bank := &mockBank{name: "fresh"}
	conn := &mockConnector{account: bank}
	table := application.NewSessionTable()
	svc := application.NewLoginService(conn, table, time.Second, discardLogger())

	_, err := svc.Login(context.Background(), loginKey(), "acc-1")

	require.NoError(t, err)
	got, ok := table.Get("acc-1")
	require.True(t, ok)
	assert.Same(t, bank, got)
	require.Len(t, conn.logins, 1)
	assert.Equal(t, "1234", conn.logins[0].Auth["pin"])
}

func TestLogin_ReplacesExistingSession(t *testing.T) {
	old := &mockBank{name: "old"}
	fresh := &mockBank{name: "fresh"}
	table := application.NewSessionTable()
	table.Put("acc-1", old)
	svc := application.NewLoginService(&mockConnector{account: fresh}, table, 0, discardLogger())

	_, err := svc.Login(context.Background(), loginKey(), "acc-1")

	require.NoError(t, err)
	got, _ := table.Get("acc-1")
	assert.Same(t, fresh, got)
}

func TestLogin_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		key       *model.APIKey
		accountID string
		want      error
	}{
		{"no key", nil, "acc-1", application.ErrUnauthorized},
		{"missing account id", loginKey(), "", application.ErrMissingAccountID},
		{"unlinked account", loginKey(), "acc-9", application.ErrUnknownAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockConnector{account: &mockBank{}}
			svc := application.NewLoginService(conn, application.NewSessionTable(), 0, discardLogger())

			_, err := svc.Login(context.Background(), tt.key, tt.accountID)

			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, conn.logins)
		})
	}
}

func TestLogin_HandshakeFailureKeepsOldSession(t *testing.T) {
	old := &mockBank{name: "old"}
	table := application.NewSessionTable()
	table.Put("acc-1", old)
	svc := application.NewLoginService(&mockConnector{err: errors.New("Wrong PIN")}, table, 0, discardLogger())

	_, err := svc.Login(context.Background(), loginKey(), "acc-1")

	require.Error(t, err)
	assert.Equal(t, application.KindUpstream, application.KindOf(err))
	var appErr *application.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Wrong PIN", appErr.Message)

	got, _ := table.Get("acc-1")
	assert.Same(t, old, got)
}

func TestLogin_Timeout(t *testing.T) {
	table := application.NewSessionTable()
	svc := application.NewLoginService(&mockConnector{block: true}, table, 20*time.Millisecond, discardLogger())

	_, err := svc.Login(context.Background(), loginKey(), "acc-1")

	var appErr *application.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, application.KindUpstream, appErr.Kind)
	assert.Equal(t, "Upstream request timed out", appErr.Message)
	assert.Zero(t, table.Len())
}
