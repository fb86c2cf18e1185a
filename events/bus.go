package events

import "sync"

// Bus keeps track of a channel for each subscriber that needs to be notified when
// authentication state changes
type Bus struct {
	chs map[chan Event]struct{}
	mu  sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		chs: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a channel that will be notified when new events are published
func (b *Bus) Subscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chs[ch] = struct{}{}
}

// Unsubscribe removes a previously-registered channel, if such a channel is
// registered
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.chs, ch)
}

// Publish takes an event and fans it out to all currently-registered channels.
// The send is non-blocking: a subscriber that has stopped draining its channel
// misses events rather than stalling a login flow.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.chs {
		select {
		case ch <- event:
		default:
		}
	}
}
