package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Scribe/internal/app/intent"
	"github.com/dkeye/Scribe/internal/app/orch"
	"github.com/dkeye/Scribe/internal/domain"
)

var errQuit = errors.New("quit")

// session is the part of the orchestrator the console drives.
type session interface {
	Join(ctx context.Context, in intent.Intent) error
	Leave()
	Snapshot() orch.State
	Changes() <-chan struct{}
}

// form collects the missing intent fields one stdin line at a time.
type form struct {
	room, name string
	active     bool
}

func (f *form) next() string {
	if f.room == "" {
		return "room id: "
	}
	return "display name: "
}

// fill stores one answer and reports whether both fields are set.
func (f *form) fill(line string) bool {
	v := strings.TrimSpace(line)
	if f.room == "" {
		f.room = v
	} else {
		f.name = v
	}
	return f.room != "" && f.name != ""
}

type console struct {
	out       io.Writer
	sess      session
	resolver  *intent.Resolver
	shareBase string

	mu       sync.Mutex
	form     form
	phase    domain.SessionPhase
	status   domain.StreamStatus
	errMsg   string
	printed  int
	session  uint64
	shared   bool
	joinWait sync.WaitGroup

	outMu sync.Mutex
}

func newConsole(out io.Writer, sess session, resolver *intent.Resolver, shareBase string) *console {
	return &console{
		out:       out,
		sess:      sess,
		resolver:  resolver,
		shareBase: shareBase,
		status:    domain.StreamClosed,
	}
}

// run serves the console until ctx ends or stdin closes. The session is
// left on the way out.
func (c *console) run(ctx context.Context, in io.Reader) error {
	g, gctx := errgroup.WithContext(ctx)

	lines := make(chan string)
	// Not part of the group: a blocked stdin read cannot be interrupted.
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-gctx.Done():
				return
			}
		}
	}()

	g.Go(func() error {
		changes := c.sess.Changes()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changes:
				c.render(c.sess.Snapshot())
			}
		}
	})
	g.Go(func() error {
		if in, ok := c.resolver.Initial(); ok {
			c.join(gctx, in)
		} else {
			c.startForm()
		}
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return errQuit
				}
				if err := c.handle(gctx, line); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	c.sess.Leave()
	c.joinWait.Wait()
	c.render(c.sess.Snapshot())
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (c *console) handle(ctx context.Context, line string) error {
	cmd := strings.TrimSpace(line)
	switch cmd {
	case "/leave":
		c.sess.Leave()
		c.printf("left the room; /join to rejoin\n")
		return nil
	case "/join":
		in, ok := c.resolver.Initial()
		if !ok {
			c.startForm()
			return nil
		}
		c.join(ctx, in)
		return nil
	case "/quit":
		return errQuit
	case "/help":
		c.printf("commands: /leave /join /quit\n")
		return nil
	}

	c.mu.Lock()
	if !c.form.active {
		c.mu.Unlock()
		if cmd != "" {
			c.printf("unknown input %q, try /help\n", cmd)
		}
		return nil
	}
	done := c.form.fill(line)
	f := c.form
	if !done {
		c.mu.Unlock()
		c.printf("%s", f.next())
		return nil
	}
	c.form = form{}
	c.mu.Unlock()

	in, err := c.resolver.Submit(f.room, f.name)
	if err != nil {
		c.printf("%v\n", err)
		c.startForm()
		return nil
	}
	c.join(ctx, in)
	return nil
}

// startForm asks for whichever intent fields the navigation state lacks.
func (c *console) startForm() {
	params := c.resolver.Params()
	c.mu.Lock()
	c.form = form{
		room:   strings.TrimSpace(params.Get(intent.ParamRoomID)),
		name:   strings.TrimSpace(params.Get(intent.ParamDisplayName)),
		active: true,
	}
	prompt := c.form.next()
	c.mu.Unlock()
	c.printf("%s", prompt)
}

// join runs in the background so /leave stays responsive while a credential
// request is outstanding.
func (c *console) join(ctx context.Context, in intent.Intent) {
	c.joinWait.Add(1)
	go func() {
		defer c.joinWait.Done()
		c.mu.Lock()
		c.shared = false
		c.mu.Unlock()
		if err := c.sess.Join(ctx, in); err != nil {
			if errors.Is(err, orch.ErrSessionLeft) {
				return
			}
			log.Warn().Err(err).Str("module", "cmd.client").Str("room", string(in.RoomID)).Msg("join failed")
			c.printf("join failed: %v (/join to retry)\n", err)
		}
	}()
}

func (c *console) render(s orch.State) {
	var b strings.Builder

	c.mu.Lock()
	if s.Phase != c.phase {
		c.phase = s.Phase
		if s.Phase == domain.PhaseAwaitingCredential {
			c.printed = 0
		}
		fmt.Fprintf(&b, "* %s", s.Phase)
		if s.RoomID != "" {
			fmt.Fprintf(&b, " (room %s as %s)", s.RoomID, s.DisplayName)
		}
		b.WriteString("\n")
	}
	if s.Phase == domain.PhaseConnected && !c.shared {
		c.shared = true
		if link, err := c.shareLink(); err == nil {
			fmt.Fprintf(&b, "* share: %s\n", link)
		}
	}
	if s.StreamStatus != c.status {
		c.status = s.StreamStatus
		fmt.Fprintf(&b, "* transcript %s\n", s.StreamStatus)
	}
	errMsg := ""
	if s.Err != nil {
		errMsg = s.Err.Error()
	}
	if errMsg != c.errMsg {
		c.errMsg = errMsg
		if errMsg != "" {
			fmt.Fprintf(&b, "! %s\n", errMsg)
		}
	}
	if s.Phase == domain.PhaseConnected && s.SessionID != c.session {
		c.session = s.SessionID
		c.printed = 0
	}
	if len(s.Transcript) < c.printed {
		// A new session started with an empty log.
		c.printed = 0
	}
	for _, e := range s.Transcript[c.printed:] {
		if e.Timestamp != "" {
			fmt.Fprintf(&b, "[%s] ", e.Timestamp)
		}
		fmt.Fprintf(&b, "%s: %s\n", e.ParticipantName, e.Text)
	}
	c.printed = len(s.Transcript)
	c.mu.Unlock()

	if b.Len() > 0 {
		c.printf("%s", b.String())
	}
}

func (c *console) shareLink() (string, error) {
	if c.shareBase == "" {
		return "", errors.New("no share base")
	}
	return c.resolver.ShareLink(c.shareBase)
}

func (c *console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// initialParams merges a join link with explicit flags; flags win.
func initialParams(joinURL, room, name string) (url.Values, error) {
	params := url.Values{}
	if joinURL != "" {
		p, err := intent.ParseLink(joinURL)
		if err != nil {
			return nil, fmt.Errorf("bad join url: %w", err)
		}
		params = p
	}
	if room != "" {
		params.Set(intent.ParamRoomID, room)
	}
	if name != "" {
		params.Set(intent.ParamDisplayName, name)
	}
	return params, nil
}
