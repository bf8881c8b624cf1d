package realtime

import "sync"

// DefaultBufferSize is the per-subscriber event buffer.
const DefaultBufferSize = 64

// Broadcaster publishes lightweight events to SSE subscribers.
type Broadcaster struct {
	mu   sync.Mutex
	size int
	subs map[chan string]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return NewBroadcasterSize(DefaultBufferSize)
}

// NewBroadcasterSize creates a broadcaster whose subscribers buffer size events.
func NewBroadcasterSize(size int) *Broadcaster {
	if size < 1 {
		size = 1
	}
	return &Broadcaster{
		size: size,
		subs: make(map[chan string]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its event channel.
func (b *Broadcaster) Subscribe() chan string {
	ch := make(chan string, b.size)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan string) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of registered subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers an event to all subscribers. A lagging subscriber loses
// its oldest buffered event, so the latest state always gets through.
func (b *Broadcaster) Publish(event string) {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- event:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
	b.mu.Unlock()
}
