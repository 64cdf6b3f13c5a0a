package app

import (
	"sync"

	"github.com/google/uuid"

	"github.com/aelexs/timekeeper/pkg/protocol"
)

// Subscription is a live feed of event frames.
type Subscription struct {
	ID     string
	Frames <-chan *protocol.Frame

	cancel func()
}

// Cancel ends the subscription and closes Frames.
func (s *Subscription) Cancel() { s.cancel() }

// Subscribe opens an event feed. Frames are buffered per subscriber and
// dropped when the buffer is full; clients that fall behind re-read status.
func (s *Service) Subscribe() *Subscription {
	return s.events.subscribe()
}

type broker struct {
	size int

	mu     sync.Mutex
	subs   map[string]chan *protocol.Frame
	closed bool
}

func newBroker(size int) *broker {
	return &broker{size: size, subs: make(map[string]chan *protocol.Frame)}
}

func (b *broker) subscribe() *Subscription {
	id := uuid.NewString()
	ch := make(chan *protocol.Frame, b.size)

	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs[id] = ch
	}
	b.mu.Unlock()

	return &Subscription{
		ID:     id,
		Frames: ch,
		cancel: func() { b.unsubscribe(id) },
	}
}

func (b *broker) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish fans f out and returns how many subscribers missed it.
func (b *broker) publish(f *protocol.Frame) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- f:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
