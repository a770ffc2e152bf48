package domain

import "strings"

type RoomID string

// SessionPhase is the lifecycle stage of a participant's room session.
type SessionPhase int

const (
	PhaseIdle SessionPhase = iota
	PhaseAwaitingCredential
	PhaseConnected
	PhaseLeaving
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingCredential:
		return "awaiting_credential"
	case PhaseConnected:
		return "connected"
	case PhaseLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

// Credential is an opaque bearer token for one participant in one room.
// MediaURL is optional and only set when the backend advertises it.
type Credential struct {
	Token    string
	MediaURL string
}

func (c Credential) Empty() bool { return strings.TrimSpace(c.Token) == "" }

// RoomSession is the participant's view of a joined (or joining) room.
// Credential is set iff Phase is PhaseConnected.
type RoomSession struct {
	RoomID      RoomID
	DisplayName string
	Credential  *Credential
	Phase       SessionPhase
}

func NewRoomSession(room RoomID, displayName string) *RoomSession {
	return &RoomSession{
		RoomID:      room,
		DisplayName: displayName,
		Phase:       PhaseAwaitingCredential,
	}
}

// Connect stores the credential and moves the session to PhaseConnected.
func (s *RoomSession) Connect(cred Credential) {
	s.Credential = &cred
	s.Phase = PhaseConnected
}

// Leave drops the credential and moves the session to PhaseLeaving.
func (s *RoomSession) Leave() {
	s.Credential = nil
	s.Phase = PhaseLeaving
}
