// Package feed fans out per-user change notifications and turns them into
// restartable snapshot sequences.
package feed

import (
	"context"
	"iter"
	"sync"
)

// Hub wakes subscribers when a user's collection changes. Wake-ups
// coalesce: a subscriber that has not consumed the last one sees a single
// pending wake-up however many changes arrived meanwhile.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers for a user's changes. The returned cancel func must
// be called to release the subscription.
func (h *Hub) Subscribe(userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	m, ok := h.subs[userID]
	if !ok {
		m = make(map[chan struct{}]struct{})
		h.subs[userID] = m
	}
	m[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
		})
	}
}

// Notify wakes every subscriber of userID without blocking.
func (h *Hub) Notify(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many subscriptions a user has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Snapshot is one value of a watched sequence. Seq starts at 1 for every
// new range over the sequence.
type Snapshot[T any] struct {
	Seq   uint64
	Value T
}

// Watch returns a lazy sequence of snapshots for userID. Nothing happens
// until it is ranged over. Each range subscribes, yields the current
// snapshot, then one more per change until ctx ends or the loop breaks.
// Ranging again starts over with a fresh subscription. A load error is
// yielded and the sequence continues with the next change.
func Watch[T any](ctx context.Context, h *Hub, userID string, load func(context.Context) (T, error)) iter.Seq2[Snapshot[T], error] {
	return func(yield func(Snapshot[T], error) bool) {
		wake, cancel := h.Subscribe(userID)
		defer cancel()

		var seq uint64
		for {
			v, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				if !yield(Snapshot[T]{}, err) {
					return
				}
			} else {
				seq++
				if !yield(Snapshot[T]{Seq: seq, Value: v}, nil) {
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
		}
	}
}
