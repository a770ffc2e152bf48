// Package transcript turns a room's server-push stream into an ordered,
// display-ready transcript log.
package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Scribe/internal/core"
	"github.com/dkeye/Scribe/internal/domain"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// Location is used for display timestamps. Defaults to time.Local.
	Location *time.Location
	// Reconnects bounds automatic reopening after a channel error. Zero
	// keeps the channel closed until the session is re-entered.
	Reconnects     int
	ReconnectDelay time.Duration
	// OnAppend and OnStatus are called outside the consumer lock.
	OnAppend func(domain.TranscriptEntry)
	OnStatus func(domain.StreamStatus)
}

// Consumer owns the stream connection and the log for one room session.
// At most one subscription is open at any time.
type Consumer struct {
	stream core.TranscriptStream
	room   domain.RoomID
	opts   Options
	log    *Log

	mu       sync.Mutex
	sub      core.Subscription
	gen      uint64
	status   domain.StreamStatus
	stopped  bool
	retries  int
	retry    *time.Timer
	ctx      context.Context
	cancel   context.CancelFunc
	opened   int
	closed   int
	messages int
}

func NewConsumer(stream core.TranscriptStream, room domain.RoomID, opts Options) *Consumer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		stream: stream,
		room:   room,
		opts:   opts,
		log:    NewLog(),
		status: domain.StreamClosed,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Consumer) Log() *Log { return c.log }

func (c *Consumer) Status() domain.StreamStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start opens the stream, closing any previously open subscription first.
// It is a no-op after Stop.
func (c *Consumer) Start() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.retries = 0
	prev := c.detachLocked()
	c.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	c.open(domain.StreamConnecting)
}

// Stop closes the open subscription, if any, and ignores everything the
// stream delivers afterwards. Safe to call more than once.
func (c *Consumer) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	sub := c.detachLocked()
	c.cancel()
	changed := c.setStatusLocked(domain.StreamClosed)
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	c.notifyStatus(changed, domain.StreamClosed)
	log.Info().Str("module", "app.transcript").Str("room", string(c.room)).Int("entries", c.log.Len()).Msg("consumer stopped")
}

// Stats reports how many subscriptions were opened and closed and how many
// messages arrived. Used by tests and diagnostics.
func (c *Consumer) Stats() (opened, closed, messages int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened, c.closed, c.messages
}

// detachLocked invalidates the current generation and hands back the
// subscription to close. Must hold c.mu.
func (c *Consumer) detachLocked() core.Subscription {
	c.gen++
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	sub := c.sub
	c.sub = nil
	if sub != nil {
		c.closed++
	}
	return sub
}

func (c *Consumer) open(status domain.StreamStatus) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	changed := c.setStatusLocked(status)
	c.mu.Unlock()

	c.notifyStatus(changed, status)
	sub, err := c.stream.Subscribe(c.ctx, c.room, &handler{c: c, gen: gen})
	if err != nil {
		log.Error().Err(err).Str("module", "app.transcript").Str("room", string(c.room)).Msg("subscribe failed")
		c.fail(gen, err)
		return
	}

	c.mu.Lock()
	if c.stopped || c.gen != gen {
		// Stop or a restart won the race; this subscription is already stale.
		c.opened++
		c.closed++
		c.mu.Unlock()
		sub.Close()
		return
	}
	c.sub = sub
	c.opened++
	c.mu.Unlock()
	log.Info().Str("module", "app.transcript").Str("room", string(c.room)).Msg("stream opened")
}

func (c *Consumer) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopped && c.gen == gen
}

func (c *Consumer) receive(gen uint64, payload []byte) {
	entry, ok := Decode(payload, c.opts.Location)

	c.mu.Lock()
	if c.stopped || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.messages++
	c.retries = 0
	if ok {
		// Appending under c.mu keeps Stop from racing a late entry in.
		c.log.Append(entry)
	}
	c.mu.Unlock()

	if !ok {
		log.Debug().Str("module", "app.transcript").Str("room", string(c.room)).Int("bytes", len(payload)).Msg("ignored payload")
		return
	}
	if c.opts.OnAppend != nil {
		c.opts.OnAppend(entry)
	}
}

// fail closes the failed subscription and, when allowed, schedules a reopen.
func (c *Consumer) fail(gen uint64, err error) {
	c.mu.Lock()
	if c.stopped || c.gen != gen {
		c.mu.Unlock()
		return
	}
	sub := c.detachLocked()
	reopen := c.retries < c.opts.Reconnects
	if reopen {
		c.retries++
		attempt := c.retries
		next := c.gen
		c.retry = time.AfterFunc(c.opts.ReconnectDelay, func() {
			if c.current(next) {
				log.Info().Str("module", "app.transcript").Str("room", string(c.room)).Int("attempt", attempt).Msg("reopening stream")
				c.open(domain.StreamReconnecting)
			}
		})
	}
	status := domain.StreamFailed
	if reopen {
		status = domain.StreamReconnecting
	}
	changed := c.setStatusLocked(status)
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	log.Warn().Err(err).Str("module", "app.transcript").Str("room", string(c.room)).Bool("reopen", reopen).Msg("stream failed")
	c.notifyStatus(changed, status)
}

func (c *Consumer) setStatusLocked(s domain.StreamStatus) bool {
	changed := c.status != s
	c.status = s
	return changed
}

func (c *Consumer) notifyStatus(changed bool, s domain.StreamStatus) {
	if changed && c.opts.OnStatus != nil {
		c.opts.OnStatus(s)
	}
}

// handler binds stream callbacks to the generation they were opened under.
type handler struct {
	c   *Consumer
	gen uint64
}

func (h *handler) OnOpen() {
	c := h.c
	c.mu.Lock()
	if c.stopped || c.gen != h.gen {
		c.mu.Unlock()
		return
	}
	changed := c.setStatusLocked(domain.StreamLive)
	c.mu.Unlock()
	c.notifyStatus(changed, domain.StreamLive)
}

func (h *handler) OnMessage(payload []byte) { h.c.receive(h.gen, payload) }

func (h *handler) OnError(err error) { h.c.fail(h.gen, err) }
