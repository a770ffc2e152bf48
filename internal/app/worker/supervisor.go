// Package worker runs at most one transcription worker per room.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/Scribe/internal/domain"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	Started        Status = "started"
	AlreadyRunning Status = "already_running"
)

const (
	DefaultIdleTimeout = time.Minute
	DefaultCheckPeriod = 5 * time.Second
	stopGrace          = 5 * time.Second
)

var ErrClosed = errors.New("worker supervisor closed")

// TokenIssuer signs the credential a worker joins its room with.
type TokenIssuer interface {
	IssueWorker(room domain.RoomID) (string, error)
}

// Listeners reports how many transcript stream listeners a room has.
type Listeners interface {
	SubscriberCount(room domain.RoomID) int
}

type Config struct {
	// Command is the worker argv. Empty runs an in-process holder that only
	// keeps the slot until the room goes idle.
	Command     []string
	IngestURL   string
	MediaURL    string
	IdleTimeout time.Duration
	CheckPeriod time.Duration
}

type Info struct {
	RoomID    domain.RoomID `json:"roomId"`
	StartedAt time.Time     `json:"startedAt"`
	PID       int           `json:"pid,omitempty"`
}

type entry struct {
	info   Info
	cancel context.CancelFunc
	done   chan struct{}
}

type Supervisor struct {
	cfg       Config
	tokens    TokenIssuer
	listeners Listeners

	mu      sync.Mutex
	workers map[domain.RoomID]*entry
	closed  bool
	wg      sync.WaitGroup
}

func New(cfg Config, tokens TokenIssuer, listeners Listeners) *Supervisor {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.CheckPeriod <= 0 {
		cfg.CheckPeriod = DefaultCheckPeriod
	}
	return &Supervisor{
		cfg:       cfg,
		tokens:    tokens,
		listeners: listeners,
		workers:   make(map[domain.RoomID]*entry),
	}
}

// Attach makes sure a worker serves the room. It reports AlreadyRunning
// when one does, otherwise starts a new worker and reports Started.
func (s *Supervisor) Attach(ctx context.Context, room domain.RoomID) (Status, error) {
	if err := domain.ValidateRoomID(room); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	if _, ok := s.workers[room]; ok {
		log.Info().Str("module", "app.worker").Str("room", string(room)).Msg("worker already running")
		return AlreadyRunning, nil
	}

	tok, err := s.tokens.IssueWorker(room)
	if err != nil {
		return "", fmt.Errorf("issue worker token: %w", err)
	}

	wctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		info:   Info{RoomID: room, StartedAt: time.Now()},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	var cmd *exec.Cmd
	if len(s.cfg.Command) > 0 {
		cmd = s.command(wctx, room, tok)
		if err := cmd.Start(); err != nil {
			cancel()
			return "", fmt.Errorf("start worker: %w", err)
		}
		e.info.PID = cmd.Process.Pid
	}
	s.workers[room] = e
	s.wg.Add(1)
	go s.run(wctx, e, cmd)

	log.Info().Str("module", "app.worker").Str("room", string(room)).Int("pid", e.info.PID).Msg("worker started")
	return Started, nil
}

func (s *Supervisor) command(ctx context.Context, room domain.RoomID, tok string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.cfg.Command[0], s.cfg.Command[1:]...)
	cmd.Env = append(os.Environ(),
		"SCRIBE_ROOM_ID="+string(room),
		"SCRIBE_INGEST_URL="+s.cfg.IngestURL,
		"SCRIBE_TOKEN="+tok,
		"SCRIBE_MEDIA_URL="+s.cfg.MediaURL,
	)
	out := log.With().Str("module", "app.worker").Str("room", string(room)).Logger()
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = stopGrace
	return cmd
}

func (s *Supervisor) run(ctx context.Context, e *entry, cmd *exec.Cmd) {
	defer s.release(e)
	logger := log.With().Str("module", "app.worker").Str("room", string(e.info.RoomID)).Logger()

	var exited chan error
	if cmd != nil {
		exited = make(chan error, 1)
		go func() { exited <- cmd.Wait() }()
	}

	ticker := time.NewTicker(s.cfg.CheckPeriod)
	defer ticker.Stop()
	lastHeard := time.Now()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker stop requested")
			if exited != nil {
				<-exited
			}
			return
		case err := <-exited:
			if err != nil {
				logger.Warn().Err(err).Msg("worker exited with error")
			} else {
				logger.Info().Msg("worker exited")
			}
			return
		case now := <-ticker.C:
			if s.listeners.SubscriberCount(e.info.RoomID) > 0 {
				lastHeard = now
				continue
			}
			if now.Sub(lastHeard) >= s.cfg.IdleTimeout {
				logger.Info().Dur("idle", now.Sub(lastHeard)).Msg("room idle, stopping worker")
				e.cancel()
				if exited != nil {
					<-exited
				}
				return
			}
		}
	}
}

func (s *Supervisor) release(e *entry) {
	s.mu.Lock()
	if s.workers[e.info.RoomID] == e {
		delete(s.workers, e.info.RoomID)
	}
	s.mu.Unlock()
	e.cancel()
	close(e.done)
	s.wg.Done()
}

func (s *Supervisor) Running(room domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.workers[room]
	return ok
}

func (s *Supervisor) List() []Info {
	s.mu.Lock()
	out := make([]Info, 0, len(s.workers))
	for _, e := range s.workers {
		out = append(out, e.info)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Stop ends the room's worker and waits for it to exit.
func (s *Supervisor) Stop(room domain.RoomID) bool {
	s.mu.Lock()
	e, ok := s.workers[room]
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.cancel()
	<-e.done
	return true
}

// StopAll refuses new workers, stops the running ones and waits for them.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	s.closed = true
	for _, e := range s.workers {
		e.cancel()
	}
	n := len(s.workers)
	s.mu.Unlock()
	s.wg.Wait()
	log.Info().Str("module", "app.worker").Int("stopped", n).Msg("all workers stopped")
}
