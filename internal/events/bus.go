package events

import (
	"sync"
	"sync/atomic"
)

// Bus fans gateway events out to in-process listeners. Publishing never
// blocks a WebSocket session: a listener that falls behind loses events and
// the loss is counted per topic.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[Event]map[uint64]chan any
	lost   sync.Map // Event -> *atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{topics: make(map[Event]map[uint64]chan any)}
}

// Subscribe returns a channel of payloads published on e and a cancel
// function that closes it. Cancel is idempotent.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	ch := make(chan any, buffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.topics[e] == nil {
		b.topics[e] = make(map[uint64]chan any)
	}
	b.topics[e][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.topics[e][id]; !ok {
			return
		}
		delete(b.topics[e], id)
		close(ch)
	}
	return ch, cancel
}

func (b *Bus) Publish(e Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.topics[e] {
		select {
		case ch <- payload:
		default:
			b.counter(e).Add(1)
		}
	}
}

func (b *Bus) counter(e Event) *atomic.Uint64 {
	c, _ := b.lost.LoadOrStore(e, new(atomic.Uint64))
	return c.(*atomic.Uint64)
}

// Dropped is the number of deliveries lost across all topics.
func (b *Bus) Dropped() uint64 {
	var total uint64
	b.lost.Range(func(_, v any) bool {
		total += v.(*atomic.Uint64).Load()
		return true
	})
	return total
}

// DroppedFor is the number of deliveries lost on one topic.
func (b *Bus) DroppedFor(e Event) uint64 {
	if c, ok := b.lost.Load(e); ok {
		return c.(*atomic.Uint64).Load()
	}
	return 0
}
