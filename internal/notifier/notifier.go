// Package notifier broadcasts reload signals to connected live-reload clients.
package notifier

import "sync"

// Notifier fans a reload signal out to every subscriber. Subscribers receive
// an empty struct per signal; signals sent while one is pending are merged.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
	closed    bool
	done      chan struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]struct{}),
		done:      make(chan struct{}),
	}
}

// Subscribe registers a listener. The returned cancel func removes it and
// must be called when the listener goes away.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, ch)
			n.mu.Unlock()
		})
	}
}

// Notify signals every listener without blocking.
func (n *Notifier) Notify() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
			// A reload is already pending for this listener.
		}
	}
}

// Clients returns the number of subscribed listeners.
func (n *Notifier) Clients() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Done is closed by Close so long-lived streams can end.
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}

// Close ends all streams. It is safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.done)
	}
}
