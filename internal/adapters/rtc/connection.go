package rtc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/Scribe/internal/core"
	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultHandshakeTimeout = 15 * time.Second

var (
	ErrNoSignalURL = errors.New("rtc: no signalling url")
	ErrRejected    = errors.New("rtc: join rejected")
	ErrClosed      = errors.New("rtc: session closed")
)

type Config struct {
	// SignalURL overrides the media url carried by the credential.
	SignalURL        string
	ICEServers       []string
	Dialer           *websocket.Dialer
	HandshakeTimeout time.Duration
}

func DefaultWebRTCConfig(iceServers []string) webrtc.Configuration {
	cfg := webrtc.Configuration{}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}
	return cfg
}

type trackStat struct {
	info    core.RemoteTrack
	packets atomic.Uint64
	lastSeq atomic.Uint32
}

func (t *trackStat) observe(pkt *rtp.Packet) {
	t.packets.Add(1)
	t.lastSeq.Store(uint32(pkt.SequenceNumber))
}

// Session is a receive-only media session: one signalling websocket and one
// peer connection per joined room.
type Session struct {
	cfg Config

	mu       sync.Mutex
	ws       *websocket.Conn
	pc       *webrtc.PeerConnection
	onDisc   func()
	down     bool
	answered chan *webrtc.SessionDescription
	pending  []webrtc.ICECandidateInit
	remote   bool
	cause    error
	stopped  chan struct{}
	tracks   map[string]*trackStat
	cancel   context.CancelFunc
	logger   zerolog.Logger

	writeMu sync.Mutex
}

var _ core.MediaSession = (*Session)(nil)

func NewSession(cfg Config) *Session {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	return &Session{
		cfg:      cfg,
		answered: make(chan *webrtc.SessionDescription, 1),
		stopped:  make(chan struct{}),
		tracks:   make(map[string]*trackStat),
		logger:   log.With().Str("module", "adapters.rtc").Logger(),
	}
}

// OnDisconnected sets the callback fired once when the session ends.
func (s *Session) OnDisconnected(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisc = fn
}

// Connect dials signalling, joins the room and negotiates a peer connection.
// It returns once the remote answer is applied.
func (s *Session) Connect(ctx context.Context, p core.MediaParams) error {
	url := s.cfg.SignalURL
	if url == "" {
		url = p.Credential.MediaURL
	}
	if url == "" {
		return ErrNoSignalURL
	}

	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		return ErrClosed
	}
	s.logger = log.With().Str("module", "adapters.rtc").Str("room", string(p.Room)).Logger()
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	hsCtx, hsCancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	defer hsCancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.Credential.Token)
	ws, _, err := s.cfg.Dialer.DialContext(hsCtx, url, header)
	if err != nil {
		s.shutdown("dial failed", false)
		return fmt.Errorf("rtc: dial signalling: %w", err)
	}

	pc, err := webrtc.NewPeerConnection(DefaultWebRTCConfig(s.cfg.ICEServers))
	if err != nil {
		_ = ws.Close()
		s.shutdown("peer connection failed", false)
		return fmt.Errorf("rtc: new peer connection: %w", err)
	}

	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		_ = ws.Close()
		_ = pc.Close()
		return ErrClosed
	}
	s.ws, s.pc = ws, pc
	s.mu.Unlock()

	s.wire(runCtx, pc)
	go s.readLoop(ws)

	if err := s.negotiate(hsCtx, p, pc); err != nil {
		s.shutdown("negotiation failed", false)
		if cause := s.failure(); cause != nil {
			return cause
		}
		return err
	}
	s.logger.Info().Msg("media session established")
	return nil
}

func (s *Session) wire(ctx context.Context, pc *webrtc.PeerConnection) {
	pc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		s.logger.Info().Str("peer_connection_state", st.String()).Msg("Peer state")
		if st == webrtc.PeerConnectionStateFailed ||
			st == webrtc.PeerConnectionStateClosed {
			go s.shutdown("peer "+st.String(), true)
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		stat := &trackStat{info: core.RemoteTrack{
			ID:       track.ID(),
			StreamID: track.StreamID(),
			Kind:     track.Kind().String(),
		}}
		s.mu.Lock()
		s.tracks[track.ID()] = stat
		s.mu.Unlock()
		s.logger.Info().
			Str("kind", stat.info.Kind).
			Str("track_id", stat.info.ID).
			Str("stream_id", stat.info.StreamID).
			Msg("OnTrack received")
		go s.drain(ctx, track, stat)
	})
}

// drain reads RTP from a remote track for as long as the session lives.
// Nothing is rendered; packets are only counted.
func (s *Session) drain(ctx context.Context, track *webrtc.TrackRemote, stat *trackStat) {
	for {
		if ctx.Err() != nil {
			return
		}
		pkt, _, err := track.ReadRTP()
		if err != nil {
			s.logger.Debug().Err(err).Str("track_id", stat.info.ID).Uint64("packets", stat.packets.Load()).Msg("track ended")
			return
		}
		stat.observe(pkt)
	}
}

func (s *Session) negotiate(ctx context.Context, p core.MediaParams, pc *webrtc.PeerConnection) error {
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			return fmt.Errorf("rtc: add %s transceiver: %w", kind, err)
		}
	}

	if err := s.send(Message{Type: TypeJoin, Room: string(p.Room), Name: p.DisplayName}); err != nil {
		return fmt.Errorf("rtc: send join: %w", err)
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("rtc: create offer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("rtc: set local description: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("rtc: gather candidates: %w", ctx.Err())
	}
	if err := s.send(Message{Type: TypeOffer, SDP: pc.LocalDescription()}); err != nil {
		return fmt.Errorf("rtc: send offer: %w", err)
	}

	select {
	case answer, ok := <-s.answered:
		if !ok || answer == nil {
			return ErrRejected
		}
		if err := pc.SetRemoteDescription(*answer); err != nil {
			return fmt.Errorf("rtc: set remote description: %w", err)
		}
		s.flushCandidates(pc)
		return nil
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("rtc: wait for answer: %w", ctx.Err())
	}
}

func (s *Session) flushCandidates(pc *webrtc.PeerConnection) {
	s.mu.Lock()
	s.remote = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, c := range pending {
		if err := pc.AddICECandidate(c); err != nil {
			s.logger.Warn().Err(err).Msg("add ICE candidate")
		}
	}
}

func (s *Session) readLoop(ws *websocket.Conn) {
	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			s.mu.Lock()
			down := s.down
			s.mu.Unlock()
			if !down {
				s.logger.Warn().Err(err).Msg("signalling read failed")
			}
			s.closeAnswer()
			s.shutdown("signalling lost", true)
			return
		}
		switch msg.Type {
		case TypeAnswer:
			if msg.SDP == nil {
				continue
			}
			select {
			case s.answered <- msg.SDP:
			default:
			}
		case TypeCandidate:
			if msg.Candidate != nil {
				s.addRemoteCandidate(*msg.Candidate)
			}
		case TypeLeave:
			s.logger.Info().Msg("server ended the session")
			s.closeAnswer()
			s.shutdown("server leave", true)
			return
		case TypeError:
			s.logger.Warn().Str("error", msg.Error).Msg("signalling error")
			s.mu.Lock()
			s.cause = fmt.Errorf("%w: %s", ErrRejected, msg.Error)
			s.mu.Unlock()
			s.closeAnswer()
			s.shutdown("signalling error", true)
			return
		default:
			s.logger.Debug().Str("type", msg.Type).Msg("ignored signalling message")
		}
	}
}

func (s *Session) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// closeAnswer unblocks a negotiation still waiting for the answer.
func (s *Session) closeAnswer() {
	select {
	case s.answered <- nil:
	default:
	}
}

func (s *Session) addRemoteCandidate(c webrtc.ICECandidateInit) {
	s.mu.Lock()
	if !s.remote {
		s.pending = append(s.pending, c)
		s.mu.Unlock()
		return
	}
	pc := s.pc
	s.mu.Unlock()
	if err := pc.AddICECandidate(c); err != nil {
		s.logger.Warn().Err(err).Msg("add ICE candidate")
	}
}

func (s *Session) send(m Message) error {
	s.mu.Lock()
	ws := s.ws
	s.mu.Unlock()
	if ws == nil {
		return ErrClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ws.WriteJSON(m)
}

// RemoteTracks returns the tracks received so far, sorted by id.
func (s *Session) RemoteTracks() []core.RemoteTrack {
	s.mu.Lock()
	out := make([]core.RemoteTrack, 0, len(s.tracks))
	for _, t := range s.tracks {
		rt := t.info
		rt.Packets = t.packets.Load()
		out = append(out, rt)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close leaves the room and releases the connection. Safe to call more than
// once and from any goroutine.
func (s *Session) Close() { s.shutdown("closed", true) }

// shutdown runs once. Reentrant calls from pion callbacks return at once.
func (s *Session) shutdown(reason string, notify bool) {
	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		return
	}
	s.down = true
	close(s.stopped)
	ws, pc, cancel, cb := s.ws, s.pc, s.cancel, s.onDisc
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		s.writeMu.Lock()
		_ = ws.SetWriteDeadline(time.Now().Add(time.Second))
		_ = ws.WriteJSON(Message{Type: TypeLeave})
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leave"),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		_ = ws.Close()
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			s.logger.Error().Err(err).Msg("close error")
		}
	}
	s.logger.Info().Str("reason", reason).Msg("media session closed")
	if notify && cb != nil {
		cb()
	}
}
