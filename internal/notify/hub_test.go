package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/domain"
)

func TestHub_DeliversToUser(t *testing.T) {
	h := NewHub()
	var got []Change
	h.Subscribe(2, func(c Change) error {
		got = append(got, c)
		return nil
	})
	h.Subscribe(3, func(c Change) error {
		t.Error("user 3 must not receive user 2's change")
		return nil
	})

	require.NoError(t, h.Emit(context.Background(), Change{UserID: 2, Type: domain.ChangeUpdated, EventID: 7}))

	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].EventID)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	calls := 0
	unsubscribe := h.Subscribe(2, func(Change) error {
		calls++
		return nil
	})
	assert.Equal(t, 1, h.ListenerCount(2))

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, h.ListenerCount(2))

	require.NoError(t, h.Emit(context.Background(), Change{UserID: 2}))
	assert.Equal(t, 0, calls)
}

func TestHub_ListenerErrorsJoined(t *testing.T) {
	h := NewHub()
	boom := errors.New("boom")
	delivered := false
	h.Subscribe(2, func(Change) error { return boom })
	h.Subscribe(2, func(Change) error {
		delivered = true
		return nil
	})

	err := h.Emit(context.Background(), Change{UserID: 2})
	assert.ErrorIs(t, err, boom)
	assert.True(t, delivered, "a failing listener does not stop the others")
}

func TestHub_ConcurrentSubscribeEmit(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := h.Subscribe(1, func(Change) error { return nil })
			unsub()
		}()
		go func() {
			defer wg.Done()
			_ = h.Emit(context.Background(), Change{UserID: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.ListenerCount(1))
}

func TestEmitterFunc_And_Discard(t *testing.T) {
	var seen Change
	e := EmitterFunc(func(_ context.Context, c Change) error {
		seen = c
		return nil
	})
	require.NoError(t, e.Emit(context.Background(), Change{ChangeID: "x"}))
	assert.Equal(t, "x", seen.ChangeID)

	assert.NoError(t, Discard.Emit(context.Background(), Change{}))
}
