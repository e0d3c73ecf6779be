// Package pubsub is a synchronous in-process event bus.
package pubsub

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// AllChannels subscribes a handler to every channel
const AllChannels = "*"

// Handler receives an event published on channel
type Handler[E any] func(channel string, event E)

type Bus[E any] struct {
	mu   sync.RWMutex
	log  *zap.Logger
	subs map[string]map[uint64]Handler[E]
	next uint64
}

func New[E any](log *zap.Logger) *Bus[E] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus[E]{
		log:  log,
		subs: make(map[string]map[uint64]Handler[E]),
	}
}

// Subscribe registers h on channel and returns a function removing it
func (b *Bus[E]) Subscribe(channel string, h Handler[E]) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[uint64]Handler[E])
	}
	b.subs[channel][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[channel], id)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
		})
	}
}

// Publish delivers event to the subscribers of channel and of AllChannels,
// in subscription order, on the calling goroutine. It returns the number
// of handlers called. A panicking handler is logged and skipped.
func (b *Bus[E]) Publish(channel string, event E) int {
	handlers := b.handlers(channel)
	for _, h := range handlers {
		b.deliver(channel, h, event)
	}
	b.log.Debug("Published event", zap.String("channel", channel), zap.Int("subscribers", len(handlers)))
	return len(handlers)
}

// Subscribers returns the number of handlers registered on channel
func (b *Bus[E]) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

func (b *Bus[E]) handlers(channel string) []Handler[E] {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]uint64, 0)
	byID := make(map[uint64]Handler[E])
	for _, ch := range []string{channel, AllChannels} {
		for id, h := range b.subs[ch] {
			if _, dup := byID[id]; !dup {
				ids = append(ids, id)
				byID[id] = h
			}
		}
		if channel == AllChannels {
			break
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Handler[E], len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

func (b *Bus[E]) deliver(channel string, h Handler[E], event E) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Subscriber panicked", zap.String("channel", channel), zap.Any("panic", r))
		}
	}()
	h(channel, event)
}
