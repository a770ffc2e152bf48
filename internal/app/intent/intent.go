// Package intent resolves which room to join, and as whom, from navigation
// parameters or a submitted form.
package intent

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/dkeye/Scribe/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	ParamRoomID      = "roomId"
	ParamDisplayName = "displayName"
)

var ErrIncompleteIntent = errors.New("room id and display name are required")

var validate = validator.New()

// Intent is a resolved (roomId, displayName) pair ready to join.
type Intent struct {
	RoomID      domain.RoomID `validate:"required"`
	DisplayName string        `validate:"required"`
}

func newIntent(room, displayName string) (Intent, error) {
	in := Intent{
		RoomID:      domain.RoomID(strings.TrimSpace(room)),
		DisplayName: strings.TrimSpace(displayName),
	}
	if err := validate.Struct(in); err != nil {
		return Intent{}, ErrIncompleteIntent
	}
	return in, nil
}

// Params is the navigation form of the intent.
func (i Intent) Params() url.Values {
	v := url.Values{}
	v.Set(ParamRoomID, string(i.RoomID))
	v.Set(ParamDisplayName, i.DisplayName)
	return v
}

// FromParams reports whether navigation parameters carry a complete intent,
// in which case the caller joins right away.
func FromParams(v url.Values) (Intent, bool) {
	in, err := newIntent(v.Get(ParamRoomID), v.Get(ParamDisplayName))
	return in, err == nil
}

// Resolver holds the shareable navigation state of a participant.
type Resolver struct {
	mu     sync.Mutex
	params url.Values
	// OnNavigate, when set, receives the new navigation parameters after a
	// successful submission.
	OnNavigate func(url.Values)
}

// NewResolver starts from the initial navigation parameters.
func NewResolver(initial url.Values) *Resolver {
	params := url.Values{}
	for k, vs := range initial {
		params[k] = append([]string(nil), vs...)
	}
	return &Resolver{params: params}
}

// Initial returns the auto-join intent, if the initial parameters hold one.
func (r *Resolver) Initial() (Intent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return FromParams(r.params)
}

// Submit validates form input. On success the pair replaces the navigation
// parameters so that reloading keeps the intent; on failure nothing changes.
func (r *Resolver) Submit(room, displayName string) (Intent, error) {
	in, err := newIntent(room, displayName)
	if err != nil {
		return Intent{}, err
	}
	r.mu.Lock()
	r.params.Set(ParamRoomID, string(in.RoomID))
	r.params.Set(ParamDisplayName, in.DisplayName)
	params := cloneValues(r.params)
	r.mu.Unlock()

	if r.OnNavigate != nil {
		r.OnNavigate(params)
	}
	return in, nil
}

// Params returns a copy of the current navigation parameters.
func (r *Resolver) Params() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneValues(r.params)
}

// ShareLink renders the current navigation state on top of base.
func (r *Resolver) ShareLink(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range r.Params() {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseLink extracts navigation parameters from a join link.
func ParseLink(link string) (url.Values, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	return u.Query(), nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
