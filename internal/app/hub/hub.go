// Package hub fans transcript events out to the stream listeners of each room.
package hub

import (
	"sort"
	"sync"

	"github.com/dkeye/Scribe/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultBuffer = 64

// PublishResult reports delivery stats of one event.
type PublishResult struct {
	SentTo  int
	Dropped int
	Kicked  []SubscriberID
}

type RoomInfo struct {
	RoomID      domain.RoomID `json:"roomId"`
	Subscribers int           `json:"subscribers"`
}

// Hub is a threadsafe in-memory set of rooms. A room exists while it has at
// least one subscriber.
type Hub struct {
	buffer int
	policy Policy

	mu    sync.RWMutex
	rooms map[domain.RoomID]map[SubscriberID]*Subscriber
}

func New(buffer int, policy Policy) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if policy == nil {
		policy = DropPolicy{}
	}
	return &Hub{
		buffer: buffer,
		policy: policy,
		rooms:  make(map[domain.RoomID]map[SubscriberID]*Subscriber),
	}
}

func (h *Hub) Subscribe(room domain.RoomID) *Subscriber {
	s := newSubscriber(SubscriberID(uuid.NewString()), room, h.buffer)
	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[SubscriberID]*Subscriber)
		h.rooms[room] = subs
	}
	subs[s.ID] = s
	n := len(subs)
	h.mu.Unlock()
	log.Info().Str("module", "app.hub").Str("room", string(room)).Str("sid", string(s.ID)).Int("subscribers", n).Msg("subscriber added")
	return s
}

// Unsubscribe removes the subscriber and closes its event channel. Safe to
// call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	subs, ok := h.rooms[s.Room]
	if ok {
		delete(subs, s.ID)
		if len(subs) == 0 {
			delete(h.rooms, s.Room)
		}
	}
	h.mu.Unlock()
	s.close()
	if ok {
		log.Info().Str("module", "app.hub").Str("room", string(s.Room)).Str("sid", string(s.ID)).Msg("subscriber removed")
	}
}

// Publish never blocks: a full subscriber buffer is handled by the policy.
func (h *Hub) Publish(room domain.RoomID, ev domain.TranscriptEvent) PublishResult {
	res := PublishResult{}
	var kicked []*Subscriber

	h.mu.RLock()
	for _, s := range h.rooms[room] {
		if err := s.TrySend(ev); err != nil {
			switch h.policy.OnBackPressure(room, s) {
			case KickMember:
				kicked = append(kicked, s)
				res.Kicked = append(res.Kicked, s.ID)
			default:
				s.dropped.Add(1)
				res.Dropped++
			}
			continue
		}
		res.SentTo++
	}
	h.mu.RUnlock()

	// Cleanup is done outside the RLock.
	for _, s := range kicked {
		log.Warn().Str("module", "app.hub").Str("room", string(room)).Str("sid", string(s.ID)).Msg("kicking slow subscriber")
		h.Unsubscribe(s)
	}
	log.Debug().Str("module", "app.hub").Str("room", string(room)).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Int("kicked", len(res.Kicked)).Msg("publish result")
	return res
}

func (h *Hub) SubscriberCount(room domain.RoomID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// List returns the rooms that currently have listeners, sorted by id.
func (h *Hub) List() []RoomInfo {
	h.mu.RLock()
	out := make([]RoomInfo, 0, len(h.rooms))
	for room, subs := range h.rooms {
		out = append(out, RoomInfo{RoomID: room, Subscribers: len(subs)})
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Close removes every subscriber, ending all open streams.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Subscriber
	for _, subs := range h.rooms {
		for _, s := range subs {
			all = append(all, s)
		}
	}
	h.rooms = make(map[domain.RoomID]map[SubscriberID]*Subscriber)
	h.mu.Unlock()
	for _, s := range all {
		s.close()
	}
	log.Info().Str("module", "app.hub").Int("subscribers", len(all)).Msg("hub closed")
}
