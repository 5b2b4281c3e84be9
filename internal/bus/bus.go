// Package bus is an in-process change feed. Mutating code publishes an event
// per write; list screens subscribe to a topic and re-fetch their snapshot on
// every event, replacing the view wholesale.
package bus

import (
	"sync"
	"time"
)

// Event describes one mutation against a topic.
type Event struct {
	Topic  string    `json:"topic"`
	Action string    `json:"action"`
	ID     int64     `json:"id"`
	At     time.Time `json:"at"`
}

const subscriberBuffer = 16

type subscriber struct {
	topic string
	ch    chan Event
}

// Bus fans events out to topic subscribers. Slow subscribers drop events
// rather than block publishers; a dropped event only delays the next
// re-fetch, it never loses data.
type Bus struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[int64]*subscriber
}

func New() *Bus {
	return &Bus{subs: make(map[int64]*subscriber)}
}

// Subscribe registers a listener for a topic. The returned cancel func must
// be called on teardown; it closes the channel.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	sub := &subscriber{topic: topic, ch: make(chan Event, subscriberBuffer)}
	b.subs[id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of its topic.
func (b *Bus) Publish(topic, action string, id int64) {
	ev := Event{Topic: topic, Action: action, ID: id, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.topic != topic {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Subscribers returns the current listener count for a topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.subs {
		if s.topic == topic {
			n++
		}
	}
	return n
}
