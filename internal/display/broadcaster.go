package display

import (
	"errors"
	"sync"
)

// ErrBroadcasterStopped is returned by Subscribe after Stop.
var ErrBroadcasterStopped = errors.New("broadcaster is stopped")

// Broadcaster fans messages out to subscribers. Slow subscribers lose
// their oldest pending message rather than blocking the publisher.
type Broadcaster[T any] struct {
	messageReceiver chan T
	mu              sync.Mutex
	subscribers     map[chan T]struct{}
	stopped         bool
}

// NewBroadcaster starts a broadcaster goroutine that runs until Stop.
func NewBroadcaster[T any]() *Broadcaster[T] {
	b := &Broadcaster[T]{
		messageReceiver: make(chan T, 1),
		subscribers:     make(map[chan T]struct{}),
	}
	go b.start()
	return b
}

func (b *Broadcaster[T]) start() {
	for msg := range b.messageReceiver {
		b.mu.Lock()
		subscribers := make([]chan T, 0, len(b.subscribers))
		for s := range b.subscribers {
			subscribers = append(subscribers, s)
		}
		b.mu.Unlock()

		for _, s := range subscribers {
			b.send(s, msg)
		}
	}

	b.mu.Lock()
	for s := range b.subscribers {
		close(s)
	}
	b.subscribers = nil
	b.mu.Unlock()
}

// send delivers msg without blocking, dropping the oldest pending message
// when the subscriber is full.
func (b *Broadcaster[T]) send(s chan T, msg T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[s]; !ok {
		return
	}
	select {
	case s <- msg:
	default:
		select {
		case <-s:
		default:
		}
		select {
		case s <- msg:
		default:
		}
	}
}

// Stop closes every subscriber channel once pending messages are sent.
// It is safe to call more than once.
func (b *Broadcaster[T]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	close(b.messageReceiver)
}

// Subscribe returns a channel receiving published messages.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, error) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil, ErrBroadcasterStopped
	}
	b.subscribers[ch] = struct{}{}
	return ch, nil
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Broadcaster[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subscribers {
		if s == sub {
			delete(b.subscribers, s)
			close(s)
			return
		}
	}
}

// Publish queues msg for delivery, replacing an undelivered one.
func (b *Broadcaster[T]) Publish(msg T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	select {
	case b.messageReceiver <- msg:
	default:
		select {
		case <-b.messageReceiver:
		default:
		}
		select {
		case b.messageReceiver <- msg:
		default:
		}
	}
}
