package analysis

import (
	"log/slog"
	"sync"
)

// ListenerFunc receives job settlements. Listeners run on the job's
// goroutine; keep them short.
type ListenerFunc func(fingerprint string, res Result)

// ListenerBus fans settlement events out to every current subscriber,
// e.g. a background tab and a re-opened view of the same document.
type ListenerBus struct {
	mu        sync.Mutex
	seq       int
	listeners map[int]ListenerFunc
	logger    *slog.Logger
}

// NewListenerBus creates an empty bus.
func NewListenerBus(logger *slog.Logger) *ListenerBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListenerBus{
		listeners: make(map[int]ListenerFunc),
		logger:    logger.With("component", "listener-bus"),
	}
}

// AddListener subscribes a callback and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (b *ListenerBus) AddListener(fn ListenerFunc) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.seq
	b.seq++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Len returns the current subscriber count.
func (b *ListenerBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// notify delivers a settlement to every subscriber. A panicking
// listener must not prevent delivery to the others; no cross-listener
// ordering is guaranteed.
func (b *ListenerBus) notify(fingerprint string, res Result) {
	b.mu.Lock()
	snapshot := make([]ListenerFunc, 0, len(b.listeners))
	for _, fn := range b.listeners {
		snapshot = append(snapshot, fn)
	}
	b.mu.Unlock()

	for _, fn := range snapshot {
		b.deliver(fn, fingerprint, res)
	}
}

func (b *ListenerBus) deliver(fn ListenerFunc, fingerprint string, res Result) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panicked", "fingerprint", fingerprint, "panic", r)
		}
	}()
	fn(fingerprint, res)
}
