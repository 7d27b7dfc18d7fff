/*
feed.go - In-process change-feed fan-out

PURPOSE:
  Shared subscription plumbing for stores without a native change stream
  (memory, sqlite). Publishers never block on subscribers: each subscriber
  gets a buffered channel and events are dropped if the buffer is full.
  Subscribers that fall behind re-list on reconnect, same as a dropped
  change-stream cursor.

The mongo store does not use this; it bridges real change streams instead.

SEE ALSO:
  - store.go: Watch contract
*/
package procure

import (
	"context"
	"sync"
)

const feedBuffer = 64

// Feed fans events out to any number of subscribers.
type Feed struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events that is closed when ctx is done.
func (f *Feed) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, feedBuffer)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Publish delivers e to every current subscriber without blocking.
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
			// Subscriber buffer full; it will re-list on reconnect.
		}
	}
}
