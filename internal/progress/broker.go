// Package progress fans out per-job events to any number of subscribers.
//
// Each job gets its own topic, opened before work starts and torn down
// shortly after its terminal event. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
package progress

import (
	"errors"
	"sync"
	"time"
)

// ErrUnknownTopic is returned when subscribing to a topic that was never
// opened or has already been torn down.
var ErrUnknownTopic = errors.New("unknown progress topic")

// Defaults for New.
const (
	DefaultBuffer = 32
	DefaultLinger = 30 * time.Second
)

// Broker routes events of type E by topic id.
type Broker[E any] struct {
	terminal func(E) bool
	buffer   int
	linger   time.Duration

	mu     sync.RWMutex
	topics map[string]*topic[E]
}

type topic[E any] struct {
	mu        sync.Mutex
	listeners []chan E
	last      E
	done      bool
	removal   *time.Timer
}

// Option configures a Broker.
type Option func(*options)

type options struct {
	buffer int
	linger time.Duration
}

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithLinger sets how long a finished topic stays subscribable.
func WithLinger(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.linger = d
		}
	}
}

// New creates a Broker. terminal reports whether an event ends its topic.
func New[E any](terminal func(E) bool, opts ...Option) *Broker[E] {
	o := options{buffer: DefaultBuffer, linger: DefaultLinger}
	for _, opt := range opts {
		opt(&o)
	}
	return &Broker[E]{
		terminal: terminal,
		buffer:   o.buffer,
		linger:   o.linger,
		topics:   make(map[string]*topic[E]),
	}
}

// Open creates the topic id, or resets it if it already finished.
func (b *Broker[E]) Open(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[id]
	if !ok {
		b.topics[id] = &topic[E]{}
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		if t.removal != nil {
			t.removal.Stop()
			t.removal = nil
		}
		var zero E
		t.done = false
		t.last = zero
	}
}

// Publish delivers e to every current subscriber of id without blocking.
// It reports whether the topic exists. A terminal event closes every
// subscriber channel and schedules the topic for removal.
func (b *Broker[E]) Publish(id string, e E) bool {
	b.mu.RLock()
	t, ok := b.topics[id]
	b.mu.RUnlock()
	if !ok {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return true
	}
	t.last = e

	for _, ch := range t.listeners {
		select {
		case ch <- e:
		default:
			// Listener is slow, skip this update
		}
	}

	if b.terminal != nil && b.terminal(e) {
		t.done = true
		for _, ch := range t.listeners {
			close(ch)
		}
		t.listeners = nil
		t.removal = time.AfterFunc(b.linger, func() { b.remove(id, t) })
	}
	return true
}

// Subscribe returns a channel of events published to id from now on, and a
// function that cancels the subscription. Earlier events are not replayed,
// except that subscribing to a finished topic yields its terminal event
// followed by a closed channel.
func (b *Broker[E]) Subscribe(id string) (<-chan E, func(), error) {
	b.mu.RLock()
	t, ok := b.topics[id]
	b.mu.RUnlock()
	if !ok {
		return nil, nil, ErrUnknownTopic
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		ch := make(chan E, 1)
		ch <- t.last
		close(ch)
		return ch, func() {}, nil
	}

	ch := make(chan E, b.buffer)
	t.listeners = append(t.listeners, ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() { t.unsubscribe(ch) })
	}
	return ch, cancel, nil
}

// Close tears down id immediately, closing every subscriber channel.
func (b *Broker[E]) Close(id string) {
	b.mu.Lock()
	t, ok := b.topics[id]
	delete(b.topics, id)
	b.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.removal != nil {
		t.removal.Stop()
	}
	for _, ch := range t.listeners {
		close(ch)
	}
	t.listeners = nil
	t.done = true
}

// Subscribers returns the number of live subscribers on id.
func (b *Broker[E]) Subscribers(id string) int {
	b.mu.RLock()
	t, ok := b.topics[id]
	b.mu.RUnlock()
	if !ok {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

// Topics returns the number of open topics.
func (b *Broker[E]) Topics() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// remove deletes id if it still maps to t. A topic reopened after the
// timer fired keeps its new state.
func (b *Broker[E]) remove(id string, t *topic[E]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.topics[id]; ok && cur == t {
		t.mu.Lock()
		done := t.done
		t.mu.Unlock()
		if done {
			delete(b.topics, id)
		}
	}
}

func (t *topic[E]) unsubscribe(ch chan E) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, l := range t.listeners {
		if l == ch {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}
