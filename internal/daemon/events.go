package daemon

import (
	"sync"
	"time"
)

// hub keeps the newest events in a ring and fans new ones out to
// subscribers. Slow subscribers miss events rather than block polling.
type hub struct {
	mu     sync.RWMutex
	limit  int
	nextID int64
	events []Event

	nextSub int
	subs    map[int]chan Event
}

func newHub(limit int) *hub {
	return &hub{limit: limit, subs: make(map[int]chan Event)}
}

// publish assigns the next ID, stores the event and notifies subscribers.
func (h *hub) publish(typ string, at time.Time, snap Snapshot, delta Delta) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ev := Event{ID: h.nextID, Type: typ, Timestamp: at, Snapshot: snap, Delta: delta}

	h.events = append(h.events, ev)
	if over := len(h.events) - h.limit; over > 0 {
		h.events = h.events[over:]
	}
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// since returns the retained events with ID greater than id, oldest first.
func (h *hub) since(id int64) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Event, 0, len(h.events))
	for _, ev := range h.events {
		if ev.ID > id {
			out = append(out, ev)
		}
	}
	return out
}

func (h *hub) subscribe(buf int) (int, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSub++
	ch := make(chan Event, buf)
	h.subs[h.nextSub] = ch
	return h.nextSub, ch
}

func (h *hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// counts reports retained events and live subscribers.
func (h *hub) counts() (events, subscribers int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events), len(h.subs)
}
