package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/creditgate/internal/domain/model"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

func seed(t *testing.T, s *Store, remaining, renewal int64) *model.APIKey {
	t.Helper()
	k := &model.APIKey{
		UUID:    "key_" + t.Name(),
		Key:     "pk_" + t.Name(),
		Secret:  "secret",
		Balance: model.Balance{Remaining: remaining, Renewal: renewal},
		Credentials: []model.LinkedAccount{
			{AccountID: "acc-1", Auth: map[string]string{"pin": "0000"}},
		},
		Plan: model.PlanBasic,
	}
	require.NoError(t, s.Create(context.Background(), k))
	return k
}

func TestStore_GetByKeyReturnsCopy(t *testing.T) {
	s := New()
	k := seed(t, s, 5, 0)
	ctx := context.Background()

	got, err := s.GetByKey(ctx, k.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	got.Balance.Remaining = 999
	got.Credentials[0].Auth["pin"] = "changed"

	again, err := s.GetByKey(ctx, k.Key)
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.Balance.Remaining)
	assert.Equal(t, "0000", again.Credentials[0].Auth["pin"])
}

func TestStore_GetByKeyMissing(t *testing.T) {
	got, err := New().GetByKey(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_CreateRejectsDuplicates(t *testing.T) {
	s := New()
	k := seed(t, s, 1, 0)

	err := s.Create(context.Background(), k)
	assert.Error(t, err)
}

func TestStore_DeductCredits(t *testing.T) {
	s := New()
	k := seed(t, s, 10, 0)
	ctx := context.Background()

	remaining, ok, err := s.DeductCredits(ctx, k.UUID, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), remaining)

	remaining, ok, err = s.DeductCredits(ctx, k.UUID, 8)
	require.NoError(t, err)
	assert.False(t, ok, "deduction above balance must fail")
	assert.Equal(t, int64(7), remaining)

	_, _, err = s.DeductCredits(ctx, "key_missing", 1)
	assert.ErrorIs(t, err, driven.ErrKeyNotFound)
}

func TestStore_ConcurrentDeductNeverOverdraws(t *testing.T) {
	s := New()
	k := seed(t, s, 50, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	var succeeded atomic.Int64
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.DeductCredits(ctx, k.UUID, 3)
			assert.NoError(t, err)
			if ok {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetByKey(ctx, k.Key)
	require.NoError(t, err)
	assert.Equal(t, int64(16), succeeded.Load())
	assert.Equal(t, int64(2), got.Balance.Remaining)
}

func TestStore_AddAndRenewCredits(t *testing.T) {
	s := New()
	low := seed(t, s, 2, 20)
	ctx := context.Background()

	remaining, err := s.AddCredits(ctx, low.UUID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), remaining)

	n, err := s.RenewCredits(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetByKey(ctx, low.Key)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Balance.Remaining)

	// A second pass changes nothing.
	n, err = s.RenewCredits(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_LinkAccount(t *testing.T) {
	s := New()
	k := seed(t, s, 0, 0)
	ctx := context.Background()

	err := s.LinkAccount(ctx, k.UUID, model.LinkedAccount{AccountID: "acc-2"})
	require.NoError(t, err)

	err = s.LinkAccount(ctx, k.UUID, model.LinkedAccount{AccountID: "acc-1"})
	assert.ErrorIs(t, err, driven.ErrDuplicateAccount)

	got, err := s.GetByKey(ctx, k.Key)
	require.NoError(t, err)
	assert.Len(t, got.Credentials, 2)
}
