// Package eventbus is an in-memory publish/subscribe bus. The dispatcher
// publishes finished invocations on it and the audit recorder consumes them.
//
// Publish never blocks: each subscriber has a buffered channel and events
// that do not fit are dropped and counted.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// EventBus publishes to and subscribes on topics.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string) *Subscription
}

const DefaultBufferSize = 100

// Subscription is one subscriber's channel. Close detaches it from the bus
// and closes C.
type Subscription struct {
	C <-chan Event

	ch    chan Event
	topic string
	bus   *Bus
	once  sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.remove(s) })
}

// Bus is the in-memory EventBus.
type Bus struct {
	mu          sync.RWMutex
	bufferSize  int
	subscribers map[string][]*Subscription
	dropped     atomic.Int64
}

type Option func(*Bus)

// WithBufferSize sets the per-subscriber buffer.
func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{
		bufferSize:  DefaultBufferSize,
		subscribers: make(map[string][]*Subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber for topic. The caller must drain C.
func (b *Bus) Subscribe(topic string) *Subscription {
	ch := make(chan Event, b.bufferSize)
	sub := &Subscription{C: ch, ch: ch, topic: topic, bus: b}
	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.mu.Unlock()
	return sub
}

// Publish delivers payload to every subscriber of topic whose buffer has room.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers[topic] {
		select {
		case sub.ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a buffer was full.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[sub.topic]
	for i, s := range subs {
		if s == sub {
			b.subscribers[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[sub.topic]) == 0 {
		delete(b.subscribers, sub.topic)
	}
	close(sub.ch)
}
