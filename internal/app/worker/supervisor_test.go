package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Scribe/internal/domain"
	"github.com/stretchr/testify/require"
)

type tokenFunc func(domain.RoomID) (string, error)

func (f tokenFunc) IssueWorker(room domain.RoomID) (string, error) { return f(room) }

type listeners struct{ n atomic.Int64 }

func (l *listeners) SubscriberCount(domain.RoomID) int { return int(l.n.Load()) }

func staticToken(domain.RoomID) (string, error) { return "worker-token", nil }

func fastConfig() Config {
	return Config{IdleTimeout: 50 * time.Millisecond, CheckPeriod: 5 * time.Millisecond}
}

func TestAttach_StartedThenAlreadyRunning(t *testing.T) {
	req := require.New(t)
	l := &listeners{}
	l.n.Store(1)
	s := New(fastConfig(), tokenFunc(staticToken), l)
	defer s.StopAll()

	st, err := s.Attach(context.Background(), "standup")
	req.NoError(err)
	req.Equal(Started, st)

	st, err = s.Attach(context.Background(), "standup")
	req.NoError(err)
	req.Equal(AlreadyRunning, st)

	req.True(s.Running("standup"))
	infos := s.List()
	req.Len(infos, 1)
	req.Equal(domain.RoomID("standup"), infos[0].RoomID)
}

func TestAttach_Validation(t *testing.T) {
	req := require.New(t)
	s := New(fastConfig(), tokenFunc(staticToken), &listeners{})
	defer s.StopAll()

	_, err := s.Attach(context.Background(), "")
	req.ErrorIs(err, domain.ErrRoomIDEmpty)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Attach(ctx, "standup")
	req.ErrorIs(err, context.Canceled)
	req.False(s.Running("standup"))
}

func TestAttach_TokenFailure(t *testing.T) {
	boom := errors.New("boom")
	s := New(fastConfig(), tokenFunc(func(domain.RoomID) (string, error) { return "", boom }), &listeners{})
	defer s.StopAll()

	_, err := s.Attach(context.Background(), "standup")
	require.ErrorIs(t, err, boom)
	require.False(t, s.Running("standup"))
}

func TestIdleRoom_ReleasesSlot(t *testing.T) {
	req := require.New(t)
	s := New(fastConfig(), tokenFunc(staticToken), &listeners{})
	defer s.StopAll()

	_, err := s.Attach(context.Background(), "standup")
	req.NoError(err)
	req.Eventually(func() bool { return !s.Running("standup") }, time.Second, 5*time.Millisecond)

	st, err := s.Attach(context.Background(), "standup")
	req.NoError(err)
	req.Equal(Started, st)
}

func TestListeners_KeepWorkerAlive(t *testing.T) {
	req := require.New(t)
	l := &listeners{}
	l.n.Store(1)
	s := New(fastConfig(), tokenFunc(staticToken), l)
	defer s.StopAll()

	_, err := s.Attach(context.Background(), "standup")
	req.NoError(err)
	time.Sleep(150 * time.Millisecond)
	req.True(s.Running("standup"))

	l.n.Store(0)
	req.Eventually(func() bool { return !s.Running("standup") }, time.Second, 5*time.Millisecond)
}

func TestStop(t *testing.T) {
	req := require.New(t)
	l := &listeners{}
	l.n.Store(1)
	s := New(fastConfig(), tokenFunc(staticToken), l)
	defer s.StopAll()

	req.False(s.Stop("standup"))
	_, err := s.Attach(context.Background(), "standup")
	req.NoError(err)
	req.True(s.Stop("standup"))
	req.False(s.Running("standup"))
}

func TestStopAll_RefusesNewWorkers(t *testing.T) {
	req := require.New(t)
	l := &listeners{}
	l.n.Store(1)
	s := New(fastConfig(), tokenFunc(staticToken), l)

	_, err := s.Attach(context.Background(), "a")
	req.NoError(err)
	_, err = s.Attach(context.Background(), "b")
	req.NoError(err)

	s.StopAll()
	req.Empty(s.List())
	_, err = s.Attach(context.Background(), "c")
	req.ErrorIs(err, ErrClosed)
}

func TestCommand_ReceivesEnvironmentAndReleasesOnExit(t *testing.T) {
	req := require.New(t)
	out := filepath.Join(t.TempDir(), "env")
	t.Setenv("SCRIBE_TEST_OUT", out)

	cfg := fastConfig()
	cfg.IdleTimeout = time.Minute
	cfg.IngestURL = "http://backend/api/transcripts"
	cfg.MediaURL = "ws://media"
	cfg.Command = []string{"sh", "-c", `printf '%s %s %s %s' "$SCRIBE_ROOM_ID" "$SCRIBE_INGEST_URL" "$SCRIBE_TOKEN" "$SCRIBE_MEDIA_URL" > "$SCRIBE_TEST_OUT"`}
	s := New(cfg, tokenFunc(staticToken), &listeners{})
	defer s.StopAll()

	_, err := s.Attach(context.Background(), "standup")
	req.NoError(err)
	req.Eventually(func() bool { return !s.Running("standup") }, 5*time.Second, 10*time.Millisecond)

	got, err := os.ReadFile(out)
	req.NoError(err)
	req.Equal("standup http://backend/api/transcripts worker-token ws://media", strings.TrimSpace(string(got)))
}

func TestCommand_StartFailure(t *testing.T) {
	cfg := fastConfig()
	cfg.Command = []string{filepath.Join(t.TempDir(), "missing-binary")}
	s := New(cfg, tokenFunc(staticToken), &listeners{})
	defer s.StopAll()

	_, err := s.Attach(context.Background(), "standup")
	require.Error(t, err)
	require.False(t, s.Running("standup"))
}

func TestCommand_StoppedOnRequest(t *testing.T) {
	req := require.New(t)
	l := &listeners{}
	l.n.Store(1)
	cfg := fastConfig()
	cfg.Command = []string{"sleep", "30"}
	s := New(cfg, tokenFunc(staticToken), l)
	defer s.StopAll()

	_, err := s.Attach(context.Background(), "standup")
	req.NoError(err)
	req.NotZero(s.List()[0].PID)

	done := make(chan struct{})
	go func() {
		s.Stop("standup")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
	req.False(s.Running("standup"))
}
