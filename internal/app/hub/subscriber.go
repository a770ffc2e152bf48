package hub

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Scribe/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("subscriber closed")
)

type SubscriberID string

// Subscriber is one stream listener of a room. Events is closed when the
// subscriber is removed from the hub.
type Subscriber struct {
	ID   SubscriberID
	Room domain.RoomID

	mu      sync.RWMutex
	closed  bool
	send    chan domain.TranscriptEvent
	dropped atomic.Uint64
}

func newSubscriber(id SubscriberID, room domain.RoomID, buffer int) *Subscriber {
	return &Subscriber{ID: id, Room: room, send: make(chan domain.TranscriptEvent, buffer)}
}

func (s *Subscriber) Events() <-chan domain.TranscriptEvent { return s.send }

// Dropped counts events skipped for this subscriber under backpressure.
func (s *Subscriber) Dropped() uint64 { return s.dropped.Load() }

func (s *Subscriber) TrySend(ev domain.TranscriptEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.send <- ev:
	default:
		return ErrBackpressure
	}
	return nil
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}
