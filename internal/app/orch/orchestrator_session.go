package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Scribe/internal/app/intent"
	"github.com/dkeye/Scribe/internal/app/transcript"
	"github.com/dkeye/Scribe/internal/core"
	"github.com/dkeye/Scribe/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultActivationTimeout = 10 * time.Second

// Join runs Idle → AwaitingCredential → Connected for a ready intent.
// A credential failure leaves the session in AwaitingCredential and the
// caller may Join again. A Leave while the request is outstanding returns
// ErrSessionLeft and the late credential is discarded.
func (o *Orchestrator) Join(ctx context.Context, in intent.Intent) error {
	if o.NewMedia == nil {
		return ErrNoMedia
	}

	o.mu.Lock()
	next, ok := o.state.join(in.RoomID, in.DisplayName)
	if !ok {
		phase := o.state.phase
		o.mu.Unlock()
		return fmt.Errorf("%w (phase %s)", ErrAlreadyJoined, phase)
	}
	if o.cancel != nil {
		// A retry supersedes the outstanding request.
		o.cancel()
	}
	o.epoch++
	epoch := o.epoch
	o.state = next
	reqCtx, cancel := context.WithCancel(ctx)
	if o.CredentialTimeout > 0 {
		reqCtx, cancel = withTimeout(reqCtx, cancel, o.CredentialTimeout)
	}
	o.cancel = cancel
	o.mu.Unlock()
	o.notify()

	logger := log.With().Str("module", "app.orch").Str("room", string(in.RoomID)).Uint64("epoch", epoch).Logger()
	logger.Info().Str("name", in.DisplayName).Msg("requesting credential")

	cred, err := o.Credentials.RequestCredential(reqCtx, in.RoomID, in.DisplayName)
	cancel()

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		logger.Info().Msg("discarding credential response for a left session")
		return ErrSessionLeft
	}
	o.cancel = nil
	if err != nil {
		o.state, _ = o.state.credentialFailed(err)
		o.mu.Unlock()
		o.notify()
		logger.Warn().Err(err).Msg("credential request failed")
		return err
	}
	o.state, _ = o.state.connected(cred)
	media := o.NewMedia()
	opts := o.Transcript
	opts.OnAppend = func(domain.TranscriptEntry) { o.notify() }
	opts.OnStatus = func(domain.StreamStatus) { o.notify() }
	consumer := transcript.NewConsumer(o.Stream, in.RoomID, opts)
	o.media = media
	o.consumer = consumer
	o.mu.Unlock()
	o.notify()
	logger.Info().Msg("connected")

	media.OnDisconnected(func() { o.onMediaDisconnected(epoch) })
	go o.activate(in.RoomID)
	consumer.Start()

	err = media.Connect(ctx, core.MediaParams{
		Room:        in.RoomID,
		DisplayName: in.DisplayName,
		Credential:  cred,
	})
	if err != nil {
		o.mu.Lock()
		left := o.epoch != epoch
		o.mu.Unlock()
		if left {
			logger.Info().Err(err).Msg("media connect aborted by leave")
			return ErrSessionLeft
		}
		logger.Error().Err(err).Msg("media session failed")
		o.leave(epoch, "media connect failed")
		return fmt.Errorf("media session: %w", err)
	}
	return nil
}

// Leave tears the session down from any phase: stream first, then media,
// then session state. It is a no-op when Idle.
func (o *Orchestrator) Leave() {
	o.mu.Lock()
	epoch := o.epoch
	o.mu.Unlock()
	o.leave(epoch, "leave requested")
}

func (o *Orchestrator) leave(epoch uint64, reason string) {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return
	}
	next, ok := o.state.leaving()
	if !ok {
		o.mu.Unlock()
		return
	}
	room := domain.RoomID("")
	if next.session != nil {
		room = next.session.RoomID
	}
	o.state = next
	// Bumping the epoch invalidates every callback of this session.
	o.epoch++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	consumer, media := o.consumer, o.media
	o.mu.Unlock()
	o.notify()

	if consumer != nil {
		consumer.Stop()
	}
	if media != nil {
		media.Close()
	}

	o.mu.Lock()
	o.consumer, o.media = nil, nil
	o.state = o.state.idle()
	o.mu.Unlock()
	o.notify()
	log.Info().Str("module", "app.orch").Str("room", string(room)).Str("reason", reason).Msg("left room")
}

func (o *Orchestrator) onMediaDisconnected(epoch uint64) {
	log.Info().Str("module", "app.orch").Uint64("epoch", epoch).Msg("media disconnected")
	o.leave(epoch, "media disconnected")
}

// activate is advisory: failures are logged and never block the session.
func (o *Orchestrator) activate(room domain.RoomID) {
	if o.Activator == nil {
		return
	}
	timeout := o.ActivationTimeout
	if timeout <= 0 {
		timeout = defaultActivationTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := o.Activator.Activate(ctx, room); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("room", string(room)).Msg("transcription activation failed")
	}
}

func withTimeout(ctx context.Context, parent context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(ctx, d)
	return tctx, func() {
		cancel()
		parent()
	}
}
