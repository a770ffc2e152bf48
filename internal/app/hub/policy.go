package hub

import (
	"fmt"

	"github.com/dkeye/Scribe/internal/domain"
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickMember
)

type Policy interface {
	OnBackPressure(room domain.RoomID, sub *Subscriber) BackpressureAction
}

// DropPolicy skips the event for the slow subscriber and keeps it attached.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomID, *Subscriber) BackpressureAction { return DropFrame }

// KickPolicy disconnects a subscriber that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.RoomID, *Subscriber) BackpressureAction { return KickMember }

// PolicyByName maps the `server.backpressure` config value to a policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
