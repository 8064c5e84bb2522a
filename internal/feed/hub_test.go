package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubCoalescesNotifications(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	for range 5 {
		h.Notify("u1")
	}
	h.Notify("u2")

	select {
	case <-ch:
	default:
		t.Fatalf("expected a pending wake-up")
	}
	select {
	case <-ch:
		t.Fatalf("burst should coalesce into one wake-up")
	default:
	}
}

func TestHubCancelReleases(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("u1")
	assert.Equal(t, 1, h.Subscribers("u1"))
	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers("u1"))
	h.Notify("u1")
}

func TestWatchIsLazyAndRestartable(t *testing.T) {
	h := NewHub()
	var loads atomic.Int32
	load := func(context.Context) (int32, error) { return loads.Add(1), nil }

	seq := Watch(context.Background(), h, "u1", load)
	assert.Equal(t, int32(0), loads.Load(), "nothing runs before range")
	assert.Equal(t, 0, h.Subscribers("u1"))

	for snap, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, uint64(1), snap.Seq)
		assert.Equal(t, int32(1), snap.Value)
		assert.Equal(t, 1, h.Subscribers("u1"))
		break
	}
	assert.Equal(t, 0, h.Subscribers("u1"), "break releases the subscription")

	for snap, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, uint64(1), snap.Seq, "a new range starts its own numbering")
		assert.Equal(t, int32(2), snap.Value)
		break
	}
}

func TestWatchYieldsPerChange(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n atomic.Int32
	load := func(context.Context) (int32, error) { return n.Add(1), nil }

	var got []uint64
	for snap, err := range Watch(ctx, h, "u1", load) {
		require.NoError(t, err)
		got = append(got, snap.Seq)
		if len(got) == 3 {
			break
		}
		h.Notify("u1")
	}
	assert.Equal(t, []uint64{1, 2, 3}, got)
}

func TestWatchStopsOnContextAndReportsErrors(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("boom")
	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok", nil
	}

	var errs, values int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap, err := range Watch(ctx, h, "u1", load) {
			if err != nil {
				errs++
				h.Notify("u1")
				continue
			}
			values++
			assert.Equal(t, uint64(1), snap.Seq)
			cancel()
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, values)
}
