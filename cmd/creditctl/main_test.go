package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

// useTempStore points the store variables at a fresh sqlite file.
func useTempStore(t *testing.T) {
	t.Helper()
	t.Setenv("CREDITGATE_STORE_DRIVER", "sqlite")
	t.Setenv("CREDITGATE_DB_PATH", filepath.Join(t.TempDir(), "ctl.db"))
	t.Setenv("CREDITGATE_SECRET_KEY", strings.Repeat("ab", 32))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var presentedKey = regexp.MustCompile(`(?m)^key:\s+(\S+)$`)

func TestKeysLifecycle(t *testing.T) {
	useTempStore(t)

	out, err := execute(t, "keys", "create", "--plan", "pro", "--credits", "5", "--renewal", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "uuid:    key_")
	assert.Contains(t, out, "plan:    pro")
	m := presentedKey.FindStringSubmatch(out)
	require.Len(t, m, 2)
	key := m[1]

	out, err = execute(t, "keys", "link", key, "acc-1", "--auth", "pin=1234")
	require.NoError(t, err)
	assert.Contains(t, out, "linked acc-1")

	out, err = execute(t, "keys", "topup", key, "10")
	require.NoError(t, err)
	assert.Contains(t, out, "now has 15 credits")

	out, err = execute(t, "keys", "renew")
	require.NoError(t, err)
	assert.Contains(t, out, "renewed 1 keys")

	out, err = execute(t, "keys", "show", key)
	require.NoError(t, err)
	assert.Contains(t, out, "credits:   50 / 50")
	assert.Contains(t, out, "accounts:  acc-1")
	assert.NotContains(t, out, "secret")
}

func TestKeysCommandErrors(t *testing.T) {
	useTempStore(t)

	_, err := execute(t, "keys", "show", "pk_missing")
	require.Error(t, err)

	_, err = execute(t, "keys", "topup", "pk_missing", "-3")
	require.Error(t, err)

	_, err = execute(t, "keys", "create", "--plan", "platinum")
	require.Error(t, err)
}

func TestNewAPIKey(t *testing.T) {
	k, err := newAPIKey(model.PlanLite, 3, 3, nil, 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(k.UUID, "key_"))
	assert.True(t, strings.HasPrefix(k.Key, "pk_"))
	assert.Len(t, k.Secret, 43)
	assert.True(t, k.ExpiresAt.IsZero())

	other, err := newAPIKey(model.PlanLite, 3, 3, nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, k.Key, other.Key)
	assert.NotEqual(t, k.Secret, other.Secret)
}

func TestSignCmd(t *testing.T) {
	out, err := execute(t, "sign", "s3cr3t", "1700000000000")

	require.NoError(t, err)
	assert.Contains(t, out, "X-Timestamp: 1700000000000\n")
	assert.Contains(t, out, "X-Signature: "+application.Sign("s3cr3t", "1700000000000")+"\n")
}
