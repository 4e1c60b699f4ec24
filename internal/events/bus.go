package events

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this starts losing events rather than slowing the
// producer.
const subscriberBuffer = 32

// Subscription is a handle to one subscriber's event stream. C is closed when
// the bus publishes a terminal event or the subscription is cancelled.
type Subscription struct {
	C   <-chan Event
	ch  chan Event
	bus *Bus
}

// Cancel detaches the subscription from its bus. It is safe to call more than
// once and after the bus has closed.
func (s *Subscription) Cancel() {
	s.bus.unsubscribe(s)
}

// Bus is the per-job publish/subscribe channel. One producer (the extraction
// engine) publishes; zero or more streaming transports subscribe. Publish
// never blocks on a slow or absent consumer.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	status string
}

// NewBus returns an open bus with the given initial status snapshot.
func NewBus(status string) *Bus {
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		status: status,
	}
}

// Subscribe registers a new subscriber and returns its handle. Subscribers
// that join after the terminal event receive an already-closed channel; the
// status snapshot is still available via Status.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Publish delivers evt to every active subscriber in publish order. Full
// subscriber buffers drop the event for that subscriber only. Publishing a
// terminal event closes the bus: later business events become no-ops, which
// keeps late writes from a cancelled job harmless.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for sub := range b.subs {
		select {
		case sub.ch <- evt:
		default:
			// drop for this subscriber; the producer never waits
		}
	}

	if evt.Terminal() {
		b.closed = true
		if evt.Type == TypeDone {
			b.status = "done"
		} else {
			b.status = "failed"
		}
		for sub := range b.subs {
			delete(b.subs, sub)
			close(sub.ch)
		}
	}
}

// SetStatus updates the snapshot reported to newly attached transports.
func (b *Bus) SetStatus(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

// Status returns the best-effort current status snapshot.
func (b *Bus) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Closed reports whether a terminal event has been published.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
