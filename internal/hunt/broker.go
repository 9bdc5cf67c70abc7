package hunt

import (
	"encoding/json"
	"sync"
)

// EventKind names the event as it appears on the wire (SSE event name).
type EventKind string

const (
	EventLeaderboard EventKind = "leaderboard"
	EventScan        EventKind = "scan"
	EventChat        EventKind = "chat"
	EventGameStatus  EventKind = "status"
)

// Event is a kind tag plus its JSON-encoded payload.
type Event struct {
	Kind EventKind
	Data []byte
}

// Broker is an in-process pub/sub for game events, keyed by game ID.
// Publishing is fire-and-forget: slow subscribers drop events.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives all events for the given game.
func (b *Broker) Subscribe(gameID string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan Event]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(gameID string, ch chan Event) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given game.
func (b *Broker) Publish(gameID string, kind EventKind, payload any) {
	data, _ := json.Marshal(payload)
	event := Event{Kind: kind, Data: data}

	b.mu.RLock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- event:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
