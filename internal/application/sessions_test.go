package application_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/creditgate/internal/application"
)

func TestSessionTable_GetMissing(t *testing.T) {
	table := application.NewSessionTable()

	got, ok := table.Get("acc-1")

	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Zero(t, table.Len())
}

func TestSessionTable_PutOverwrites(t *testing.T) {
	table := application.NewSessionTable()
	first := &mockBank{name: "first"}
	second := &mockBank{name: "second"}

	table.Put("acc-1", first)
	table.Put("acc-1", second)

	got, ok := table.Get("acc-1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, table.Len())
}

func TestSessionTable_ConcurrentPutGet(t *testing.T) {
	table := application.NewSessionTable()
	handles := make([]*mockBank, 8)
	for i := range handles {
		handles[i] = &mockBank{name: fmt.Sprintf("h%d", i)}
	}
	valid := make(map[*mockBank]bool, len(handles))
	for _, h := range handles {
		valid[h] = true
	}

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			table.Put(fmt.Sprintf("acc-%d", i%4), handles[i%len(handles)])
		}()
		go func() {
			defer wg.Done()
			if got, ok := table.Get(fmt.Sprintf("acc-%d", i%4)); ok {
				assert.True(t, valid[got.(*mockBank)], "reader saw a handle no writer stored")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, table.Len())
}
