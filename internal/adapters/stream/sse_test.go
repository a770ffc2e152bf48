package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	opened   int
	messages []string
	errs     []error
}

func (r *recorder) OnOpen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened++
}

func (r *recorder) OnMessage(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, string(p))
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) snapshot() (int, []string, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, append([]string(nil), r.messages...), append([]error(nil), r.errs...)
}

func TestSubscribe_DeliversDataFramesInOrder(t *testing.T) {
	req := require.New(t)
	var gotRoom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRoom = r.URL.Query().Get("roomId")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"text\":\"one\"}\n\n")
		fmt.Fprint(w, "data:{\"text\":\"two\"}\r\n\r\n")
		fmt.Fprint(w, "event: message\nid: 3\ndata: {\"text\":\"three\"}\n\n")
		fmt.Fprint(w, "data: {\"text\":\"cut")
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/"})
	req.NoError(err)

	rec := &recorder{}
	sub, err := client.Subscribe(context.Background(), "stand up", rec)
	req.NoError(err)
	defer sub.Close()

	req.Eventually(func() bool {
		_, _, errs := rec.snapshot()
		return len(errs) == 1
	}, 2*time.Second, 5*time.Millisecond)

	opened, messages, errs := rec.snapshot()
	req.Equal(1, opened)
	req.Equal([]string{`{"text":"one"}`, `{"text":"two"}`, `{"text":"three"}`}, messages)
	req.ErrorIs(errs[0], ErrStreamEnded)
	req.Equal("stand up", gotRoom)
}

func TestSubscribe_NonOKStatusIsChannelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	rec := &recorder{}
	_, err = client.Subscribe(context.Background(), "standup", rec)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, _, errs := rec.snapshot()
		return len(errs) == 1
	}, 2*time.Second, 5*time.Millisecond)
	opened, _, _ := rec.snapshot()
	require.Zero(t, opened)
}

func TestSubscribe_CloseStopsCallbacks(t *testing.T) {
	req := require.New(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"text\":\"hello\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewClient(Config{BaseURL: srv.URL})
	req.NoError(err)

	rec := &recorder{}
	s, err := client.Subscribe(context.Background(), "standup", rec)
	req.NoError(err)

	req.Eventually(func() bool {
		_, messages, _ := rec.snapshot()
		return len(messages) == 1
	}, 2*time.Second, 5*time.Millisecond)

	s.Close()
	s.Close()

	select {
	case <-s.(*subscription).Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not exit after Close")
	}
	_, _, errs := rec.snapshot()
	req.Empty(errs)
}

func TestSubscribe_ConnectErrorReported(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	rec := &recorder{}
	_, err = client.Subscribe(context.Background(), "standup", rec)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, _, errs := rec.snapshot()
		return len(errs) == 1 && !errors.Is(errs[0], ErrStreamEnded)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestReadFrame_SplitsBlocksAndNormalisesCRLF(t *testing.T) {
	req := require.New(t)
	r := bufio.NewReader(strings.NewReader("data: one\r\n\r\n: keepalive\n\nevent: x\ndata: two\n\ndata: cut"))

	frame, err := readFrame(r)
	req.NoError(err)
	req.Equal("data: one\n\n", string(frame))

	frame, err = readFrame(r)
	req.NoError(err)
	req.Equal(": keepalive\n\n", string(frame))

	frame, err = readFrame(r)
	req.NoError(err)
	req.Equal("event: x\ndata: two\n\n", string(frame))

	frame, err = readFrame(r)
	req.ErrorIs(err, io.EOF)
	req.Equal("data: cut\n", string(frame))
}

func TestReadFrame_LongLineWithoutNewline(t *testing.T) {
	long := strings.Repeat("x", bufio.NewReader(nil).Size()*3)
	frame, err := readFrame(bufio.NewReader(strings.NewReader("data: " + long + "\n\n")))
	require.NoError(t, err)
	require.Equal(t, "data: "+long+"\n\n", string(frame))
}

// endless never produces a newline.
type endless struct{}

func (endless) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}

func TestReadFrame_UnterminatedLineIsBounded(t *testing.T) {
	_, err := readFrame(bufio.NewReader(endless{}))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}
