// Copyright (C) 2025 Josh Simonot
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package eventbus implements an in-memory pub/sub bus where each
// subscriber keeps only the most recent event per topic. Slow consumers
// never stall publishers; they just skip stale events.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

type Topic string
type Event = any

// Each subscriber channel is closed by its own cleanup goroutine and by
// nothing else; Close only signals those goroutines. Deliveries happen
// under the bus lock, which the cleanup goroutine also takes before
// closing, so a send can never race a close.
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic]map[uint64]chan Event
	last   map[Topic]Event
	nextID atomic.Uint64
	closed bool
	done   chan struct{}
}

func New() *Bus {
	return &Bus{
		subs: make(map[Topic]map[uint64]chan Event),
		last: make(map[Topic]Event),
		done: make(chan struct{}),
	}
}

// Publish stores ev as the topic's last event and delivers it to every
// subscriber, replacing any undelivered older event.
func (b *Bus) Publish(topic Topic, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last[topic] = ev
	for _, ch := range b.subs[topic] {
		deliverReplace(ch, ev)
	}
}

// deliverReplace sends ev to ch without blocking, dropping any stale
// event already queued there. Callers hold the bus lock, so the second
// send cannot lose a race with another publisher.
func deliverReplace(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}

// Subscribe returns a channel of events for a topic and an unsubscribe
// func. With withLast set, the topic's last event (if any) is delivered
// immediately. The subscription ends and the channel closes when ctx is
// canceled, unsubscribe is called, or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic Topic, withLast bool) (<-chan Event, func()) {
	ch := make(chan Event, 1)
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]chan Event)
	}
	b.subs[topic][id] = ch
	if last, ok := b.last[topic]; withLast && ok {
		deliverReplace(ch, last)
	}
	b.mu.Unlock()

	stop := make(chan struct{})
	var once sync.Once
	unsub := func() {
		once.Do(func() { close(stop) })
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		case <-b.done:
		}
		b.mu.Lock()
		if m, ok := b.subs[topic]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(b.subs, topic)
			}
		}
		close(ch)
		b.mu.Unlock()
	}()

	return ch, unsub
}

// GetLast returns the last event published to a topic, if any.
func (b *Bus) GetLast(topic Topic) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, ok := b.last[topic]
	return ev, ok
}

// Close shuts down the bus. Publish becomes a no-op, Subscribe returns
// closed channels, and every live subscription winds down.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.done)
}
