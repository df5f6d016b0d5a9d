package brainstorm

import (
	"sync"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

type EventType string

const (
	EventUserTurn    EventType = "user_turn"
	EventPlaceholder EventType = "placeholder"
	EventResolved    EventType = "resolved"
	EventImage       EventType = "image"
	EventNotice      EventType = "notice"
	EventSettled     EventType = "settled"
	EventFailed      EventType = "failed"
)

// Event is one step of a round as seen by live subscribers.
type Event struct {
	Type      EventType        `json:"type"`
	SessionID domain.SessionID `json:"session_id"`
	Message   *domain.Message  `json:"message,omitempty"`
}

const subscriberBuffer = 64

// Hub fans round events out to the subscribers of each session.
// Slow subscribers miss events rather than stalling a round.
type Hub struct {
	mu   sync.Mutex
	subs map[domain.SessionID]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[domain.SessionID]map[chan Event]struct{})}
}

// Subscribe returns a stream of events for one session and a func that ends it.
func (h *Hub) Subscribe(id domain.SessionID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[chan Event]struct{})
	}
	h.subs[id][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[id], ch)
			if len(h.subs[id]) == 0 {
				delete(h.subs, id)
			}
			close(ch)
		})
	}
}

func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.Message != nil {
		ev.Message = ev.Message.Clone()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
