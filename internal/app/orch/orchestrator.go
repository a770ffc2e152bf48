// Package orch drives a participant's room session: credential, media
// session, transcription activation and the live transcript.
package orch

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Scribe/internal/app/transcript"
	"github.com/dkeye/Scribe/internal/core"
	"github.com/dkeye/Scribe/internal/domain"
)

var (
	ErrAlreadyJoined = errors.New("already joined a room")
	ErrSessionLeft   = errors.New("session left before it was established")
	ErrNoMedia       = errors.New("no media session factory")
)

// Orchestrator owns one RoomSession at a time. The zero value is Idle;
// dependencies are set once before the first Join.
type Orchestrator struct {
	Credentials core.CredentialService
	Activator   core.TranscriptionActivator
	Stream      core.TranscriptStream
	// NewMedia builds a fresh media session for each Connected phase.
	NewMedia func() core.MediaSession

	// CredentialTimeout bounds the credential request. Zero waits indefinitely.
	CredentialTimeout time.Duration
	// ActivationTimeout bounds the advisory activation request.
	ActivationTimeout time.Duration
	Transcript        transcript.Options

	mu       sync.Mutex
	state    state
	epoch    uint64
	cancel   func()
	consumer *transcript.Consumer
	media    core.MediaSession
	changes  chan struct{}
}

// State is a read-only snapshot for renderers.
type State struct {
	Phase       domain.SessionPhase
	RoomID      domain.RoomID
	DisplayName string
	// SessionID changes on every join and is set only while Connected.
	SessionID    uint64
	Connected    bool
	StreamStatus domain.StreamStatus
	Transcript   []domain.TranscriptEntry
	Tracks       []core.RemoteTrack
	// Err is the last credential failure while AwaitingCredential.
	Err error
}

// Snapshot returns the current state with a copy of the transcript.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	s := o.state
	epoch := o.epoch
	consumer, media := o.consumer, o.media
	o.mu.Unlock()

	out := State{Phase: s.phase, StreamStatus: domain.StreamClosed, Err: s.err}
	if s.phase == domain.PhaseConnected {
		out.SessionID = epoch
	}
	if s.session != nil {
		out.RoomID = s.session.RoomID
		out.DisplayName = s.session.DisplayName
		out.Connected = s.session.Credential != nil
	}
	if consumer != nil {
		out.StreamStatus = consumer.Status()
		out.Transcript = consumer.Log().Entries()
	}
	if media != nil {
		out.Tracks = media.RemoteTracks()
	}
	return out
}

// Phase is a cheap accessor for the current phase.
func (o *Orchestrator) Phase() domain.SessionPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.phase
}

// TranscriptSince returns entries after the first n of the current session.
func (o *Orchestrator) TranscriptSince(n int) []domain.TranscriptEntry {
	o.mu.Lock()
	consumer := o.consumer
	o.mu.Unlock()
	if consumer == nil {
		return nil
	}
	return consumer.Log().Since(n)
}

// Changes delivers a coalesced signal after every state or transcript change.
func (o *Orchestrator) Changes() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.changesLocked()
}

func (o *Orchestrator) changesLocked() chan struct{} {
	if o.changes == nil {
		o.changes = make(chan struct{}, 1)
	}
	return o.changes
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	ch := o.changesLocked()
	o.mu.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}
