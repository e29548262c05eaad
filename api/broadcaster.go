package api

import "github.com/rv32sim/rv32sim/trace"

// Broadcaster fans new trace.Event records out to every subscribed
// WebSocket client, following the teacher's broadcaster.go: a single
// run loop owning the subscription set, register/unregister channels,
// and non-blocking per-subscriber sends so one slow client never stalls
// the cycle engine or the other subscribers. Simplified from the
// teacher's session-scoped, event-type-filtered broadcaster to one
// unfiltered event-kind stream, since spec.md's API has exactly one
// session (the running machine) and one event family (trace.Event) to
// broadcast (spec.md §4.8 "/ws streams newline-delimited JSON trace
// records").
type Broadcaster struct {
	broadcast  chan trace.Event
	register   chan chan trace.Event
	unregister chan chan trace.Event
	done       chan struct{}
}

// NewBroadcaster creates and starts a running Broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		broadcast:  make(chan trace.Event, 256),
		register:   make(chan chan trace.Event),
		unregister: make(chan chan trace.Event),
		done:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	subscribers := make(map[chan trace.Event]bool)
	for {
		select {
		case ch := <-b.register:
			subscribers[ch] = true

		case ch := <-b.unregister:
			if subscribers[ch] {
				delete(subscribers, ch)
				close(ch)
			}

		case event := <-b.broadcast:
			for ch := range subscribers {
				select {
				case ch <- event:
				default: // slow client, drop this event
				}
			}

		case <-b.done:
			for ch := range subscribers {
				close(ch)
			}
			return
		}
	}
}

// Subscribe registers a new subscriber channel.
func (b *Broadcaster) Subscribe() chan trace.Event {
	ch := make(chan trace.Event, 64)
	b.register <- ch
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Broadcaster) Unsubscribe(ch chan trace.Event) {
	b.unregister <- ch
}

// Publish submits an event for fan-out, dropping it if the broadcaster
// is itself backed up.
func (b *Broadcaster) Publish(event trace.Event) {
	select {
	case b.broadcast <- event:
	default:
	}
}

// Close shuts the broadcaster down and disconnects every subscriber.
func (b *Broadcaster) Close() {
	close(b.done)
}
