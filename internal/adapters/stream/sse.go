// Package stream implements the transcript stream over Server-Sent Events.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dkeye/Scribe/internal/core"
	"github.com/dkeye/Scribe/internal/domain"
	"github.com/gin-contrib/sse"
	"github.com/rs/zerolog/log"
)

const maxFrameBytes = 1 << 20

var (
	ErrStreamEnded   = errors.New("stream ended by server")
	ErrFrameTooLarge = errors.New("sse frame too large")
)

type Config struct {
	// BaseURL is the backend address, e.g. http://localhost:8000.
	BaseURL string
	// Path of the stream endpoint. Defaults to /api/transcript-stream.
	Path       string
	HTTPClient *http.Client
}

// Client opens one SSE connection per subscription.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("stream: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("stream: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	path := cfg.Path
	if path == "" {
		path = "/api/transcript-stream"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client timeout: the response body stays open for the whole session.
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + path,
		httpClient: httpClient,
	}, nil
}

// Subscribe starts the connection in the background and returns at once.
// Handler callbacks come from a single reader goroutine.
func (c *Client) Subscribe(ctx context.Context, room domain.RoomID, h core.StreamHandler) (core.Subscription, error) {
	q := url.Values{}
	q.Set("roomId", string(room))
	subCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(subCtx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stream: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	sub := &subscription{room: room, cancel: cancel, done: make(chan struct{})}
	go sub.run(subCtx, c.httpClient, req, h)
	return sub, nil
}

type subscription struct {
	room   domain.RoomID
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Close cancels the request. It does not wait for the reader so it is safe
// to call from inside a handler callback.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		log.Debug().Str("module", "adapters.stream").Str("room", string(s.room)).Msg("subscription closed")
	})
}

// Done is closed once the reader goroutine has exited.
func (s *subscription) Done() <-chan struct{} { return s.done }

func (s *subscription) run(ctx context.Context, httpClient *http.Client, req *http.Request, h core.StreamHandler) {
	defer close(s.done)

	fail := func(err error) {
		// A cancelled context means Close was called: no more callbacks.
		if ctx.Err() != nil {
			return
		}
		h.OnError(err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		fail(fmt.Errorf("stream: connect: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("stream: unexpected status %d", resp.StatusCode))
		return
	}
	if ctx.Err() != nil {
		return
	}
	h.OnOpen()
	log.Info().Str("module", "adapters.stream").Str("room", string(s.room)).Msg("stream connected")

	r := bufio.NewReader(resp.Body)
	for {
		frame, err := readFrame(r)
		// A block cut short by the end of the body is discarded.
		if err == nil {
			events, decErr := sse.Decode(bytes.NewReader(frame))
			if decErr != nil {
				log.Debug().Err(decErr).Str("module", "adapters.stream").Msg("bad sse frame")
			}
			for _, ev := range events {
				if ctx.Err() != nil {
					return
				}
				data, ok := ev.Data.(string)
				if !ok || data == "" {
					continue
				}
				h.OnMessage([]byte(data))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrStreamEnded
			}
			fail(err)
			return
		}
	}
}

// readFrame reads one event block, up to and including the blank line that
// terminates it. CRLF line endings are normalised to LF. The block, including
// any line still missing its newline, never grows past maxFrameBytes.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	lineStart := 0
	for {
		chunk, err := r.ReadSlice('\n')
		if buf.Len()+len(chunk) > maxFrameBytes {
			return nil, ErrFrameTooLarge
		}
		buf.Write(chunk)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line := bytes.TrimRight(buf.Bytes()[lineStart:], "\r\n")
		buf.Truncate(lineStart + len(line))
		if err != nil {
			if len(line) > 0 {
				buf.WriteByte('\n')
			}
			return buf.Bytes(), err
		}
		buf.WriteByte('\n')
		if len(line) == 0 {
			return buf.Bytes(), nil
		}
		lineStart = buf.Len()
	}
}
