package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Scribe/internal/app/intent"
	"github.com/dkeye/Scribe/internal/app/orch"
	"github.com/dkeye/Scribe/internal/domain"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeSession struct {
	mu      sync.Mutex
	joins   []intent.Intent
	leaves  int
	state   orch.State
	joinErr error
	changes chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{changes: make(chan struct{}, 1), state: orch.State{StreamStatus: domain.StreamClosed}}
}

func (f *fakeSession) Join(_ context.Context, in intent.Intent) error {
	f.mu.Lock()
	f.joins = append(f.joins, in)
	err := f.joinErr
	if err == nil {
		f.state = orch.State{Phase: domain.PhaseConnected, RoomID: in.RoomID, DisplayName: in.DisplayName, SessionID: uint64(len(f.joins)), Connected: true, StreamStatus: domain.StreamLive}
	}
	f.mu.Unlock()
	f.signal()
	return err
}

func (f *fakeSession) Leave() {
	f.mu.Lock()
	f.leaves++
	f.state = orch.State{StreamStatus: domain.StreamClosed}
	f.mu.Unlock()
	f.signal()
}

func (f *fakeSession) Snapshot() orch.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Changes() <-chan struct{} { return f.changes }

func (f *fakeSession) signal() {
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

func (f *fakeSession) push(entries ...domain.TranscriptEntry) {
	f.mu.Lock()
	f.state.Transcript = append(append([]domain.TranscriptEntry(nil), f.state.Transcript...), entries...)
	f.mu.Unlock()
	f.signal()
}

func (f *fakeSession) joined() []intent.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]intent.Intent(nil), f.joins...)
}

func startConsole(t *testing.T, sess session, params map[string]string) (*syncBuffer, *io.PipeWriter, chan error) {
	t.Helper()
	vals, err := initialParams("", params["room"], params["name"])
	require.NoError(t, err)
	out := &syncBuffer{}
	c := newConsole(out, sess, intent.NewResolver(vals), "https://scribe.example/join")
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	done := make(chan error, 1)
	go func() { done <- c.run(context.Background(), pr) }()
	return out, pw, done
}

func waitOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(out.String(), want) }, 2*time.Second, 5*time.Millisecond, "output so far:\n%s", out.String())
}

func TestConsole_AutoJoinAndTranscript(t *testing.T) {
	req := require.New(t)
	sess := newFakeSession()
	out, in, done := startConsole(t, sess, map[string]string{"room": "standup", "name": "Alice"})

	waitOutput(t, out, "* connected (room standup as Alice)")
	waitOutput(t, out, "* share: https://scribe.example/join?displayName=Alice&roomId=standup")
	waitOutput(t, out, "* transcript live")

	sess.push(domain.TranscriptEntry{ParticipantName: "Bob", Text: "hello", Timestamp: "10:05"})
	waitOutput(t, out, "[10:05] Bob: hello")
	sess.push(domain.TranscriptEntry{ParticipantName: "Carol", Text: "no time"})
	waitOutput(t, out, "Carol: no time")

	_, err := in.Write([]byte("/quit\n"))
	req.NoError(err)
	req.NoError(<-done)
	req.Equal([]intent.Intent{{RoomID: "standup", DisplayName: "Alice"}}, sess.joined())
	req.Equal(1, strings.Count(out.String(), "Bob: hello"))
}

func TestConsole_FormAsksForMissingFields(t *testing.T) {
	req := require.New(t)
	sess := newFakeSession()
	out, in, done := startConsole(t, sess, map[string]string{"room": "standup"})

	waitOutput(t, out, "display name: ")
	_, err := in.Write([]byte("  Alice \n"))
	req.NoError(err)
	waitOutput(t, out, "* connected")
	req.Equal([]intent.Intent{{RoomID: "standup", DisplayName: "Alice"}}, sess.joined())

	req.NoError(in.Close())
	req.NoError(<-done)
}

func TestConsole_FormRejectsBlankAnswers(t *testing.T) {
	req := require.New(t)
	sess := newFakeSession()
	out, in, done := startConsole(t, sess, nil)

	waitOutput(t, out, "room id: ")
	_, err := in.Write([]byte("   \n"))
	req.NoError(err)
	_, err = in.Write([]byte("retro\n"))
	req.NoError(err)
	waitOutput(t, out, "display name: ")
	_, err = in.Write([]byte("Bob\n"))
	req.NoError(err)
	waitOutput(t, out, "* connected (room retro as Bob)")

	req.NoError(in.Close())
	req.NoError(<-done)
}

func TestConsole_LeaveAndRejoin(t *testing.T) {
	req := require.New(t)
	sess := newFakeSession()
	out, in, done := startConsole(t, sess, map[string]string{"room": "standup", "name": "Alice"})
	waitOutput(t, out, "* connected")
	sess.push(domain.TranscriptEntry{ParticipantName: "Bob", Text: "first", Timestamp: "10:05"})
	waitOutput(t, out, "Bob: first")

	_, err := in.Write([]byte("/leave\n"))
	req.NoError(err)
	waitOutput(t, out, "* idle")

	_, err = in.Write([]byte("/join\n"))
	req.NoError(err)
	req.Eventually(func() bool { return len(sess.joined()) == 2 }, 2*time.Second, 5*time.Millisecond)
	sess.push(domain.TranscriptEntry{ParticipantName: "Bob", Text: "second", Timestamp: "10:06"})
	waitOutput(t, out, "Bob: second")

	req.NoError(in.Close())
	req.NoError(<-done)
	req.GreaterOrEqual(sess.leaves, 2)
}

func TestConsole_RenderNewSessionPrintsWholeLog(t *testing.T) {
	req := require.New(t)
	out := &syncBuffer{}
	c := newConsole(out, newFakeSession(), intent.NewResolver(nil), "https://scribe.example/join")

	c.render(orch.State{Phase: domain.PhaseConnected, RoomID: "standup", SessionID: 1, StreamStatus: domain.StreamLive,
		Transcript: []domain.TranscriptEntry{{ParticipantName: "Bob", Text: "old"}}})
	// Leave and rejoin coalesced into one snapshot of the next session.
	c.render(orch.State{Phase: domain.PhaseConnected, RoomID: "standup", SessionID: 3, StreamStatus: domain.StreamLive,
		Transcript: []domain.TranscriptEntry{{ParticipantName: "Ann", Text: "new one"}, {ParticipantName: "Ann", Text: "new two"}}})

	req.Contains(out.String(), "Ann: new one")
	req.Contains(out.String(), "Ann: new two")
	req.Equal(1, strings.Count(out.String(), "Bob: old"))
}

func TestConsole_JoinFailureIsReported(t *testing.T) {
	sess := newFakeSession()
	sess.joinErr = errors.New("could not obtain credential")
	out, in, done := startConsole(t, sess, map[string]string{"room": "standup", "name": "Alice"})

	waitOutput(t, out, "join failed: could not obtain credential")
	require.NoError(t, in.Close())
	require.NoError(t, <-done)
}

func TestInitialParams(t *testing.T) {
	req := require.New(t)
	p, err := initialParams("https://scribe.example/?roomId=standup&displayName=Alice", "", "Bob")
	req.NoError(err)
	req.Equal("standup", p.Get(intent.ParamRoomID))
	req.Equal("Bob", p.Get(intent.ParamDisplayName))

	_, err = initialParams("://bad", "", "")
	req.Error(err)
}
