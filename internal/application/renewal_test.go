package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/creditgate/internal/application"
	"github.com/ericfisherdev/creditgate/internal/domain/model"
)

func TestRenewOnce(t *testing.T) {
	store := newMockStore(
		&model.APIKey{UUID: "a", Key: "pk_a", Balance: model.Balance{Remaining: 2, Renewal: 100}},
		&model.APIKey{UUID: "b", Key: "pk_b", Balance: model.Balance{Remaining: 250, Renewal: 100}},
	)
	svc := application.NewRenewalService(store, time.Hour, discardLogger())

	n, err := svc.RenewOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(100), store.balance("pk_a"))
	assert.Equal(t, int64(250), store.balance("pk_b"), "renewal never lowers a balance")
}

func TestRenewalService_StartStopsOnCancel(t *testing.T) {
	store := newMockStore(&model.APIKey{UUID: "a", Key: "pk_a", Balance: model.Balance{Remaining: 0, Renewal: 5}})
	svc := application.NewRenewalService(store, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.balance("pk_a") == 5 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("renewal service did not stop")
	}
}
