// Package notify delivers configuration change notifications.
//
// Observers subscribe to every change or to one section path. A path
// subscription also receives changes below it, so subscribing to "logging"
// receives "logging.level".
package notify

import (
	"slices"
	"sync"
)

// ChangeType represents the type of configuration change.
type ChangeType int

const (
	// ChangeSet indicates a section or value was updated.
	ChangeSet ChangeType = iota

	// ChangeReload indicates the whole configuration was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a configuration change event.
type Change struct {
	// Path is the dot-separated path of the changed section.
	// Empty for reload events.
	Path string

	Type     ChangeType
	OldValue any
	NewValue any

	// Source identifies where the change came from, usually a file path.
	Source string
}

// Observer is called when configuration changes occur.
type Observer func(change Change)

type subscription struct {
	path     string
	observer Observer
}

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the registration. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	s.notifier.mu.Lock()
	delete(s.notifier.subs, s.id)
	s.notifier.mu.Unlock()
	s.notifier = nil
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]subscription
	nextID uint64
	closed bool

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync delivers changes from a background goroutine through a buffer
// of the given size.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		subs: make(map[uint64]subscription),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.async {
		n.wg.Add(1)
		go n.loop()
	}
	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribePath("", observer)
}

// SubscribePath registers an observer for changes at or below path.
// Reload events reach every observer.
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = subscription{path: path, observer: observer}
	return &Subscription{id: id, notifier: n}
}

// Notify sends a change to all matching observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return
	}

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}
	n.deliver(change)
}

// NotifySet reports an updated section.
func (n *Notifier) NotifySet(path string, oldValue, newValue any, source string) {
	n.Notify(Change{Path: path, Type: ChangeSet, OldValue: oldValue, NewValue: newValue, Source: source})
}

// NotifyReload reports a full reload.
func (n *Notifier) NotifyReload(oldValue, newValue any, source string) {
	n.Notify(Change{Type: ChangeReload, OldValue: oldValue, NewValue: newValue, Source: source})
}

// Close stops delivery. Buffered async changes are delivered first.
// It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

// deliver calls matching observers in subscription order, outside the lock.
func (n *Notifier) deliver(change Change) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.subs))
	for id, s := range n.subs {
		if change.Type == ChangeReload || matches(s.path, change.Path) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, n.subs[id].observer)
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) loop() {
	defer n.wg.Done()
	for {
		select {
		case change := <-n.buffer:
			n.deliver(change)
		case <-n.done:
			for {
				select {
				case change := <-n.buffer:
					n.deliver(change)
				default:
					return
				}
			}
		}
	}
}

// matches reports whether a subscription to sub covers a change at path.
// "logging" covers "logging" and "logging.level"; "" covers everything.
func matches(sub, path string) bool {
	if sub == "" || sub == path {
		return true
	}
	return len(path) > len(sub) && path[:len(sub)] == sub && path[len(sub)] == '.'
}
