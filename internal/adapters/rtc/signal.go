package rtc

import "github.com/pion/webrtc/v4"

const (
	TypeJoin      = "join"
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
	TypeLeave     = "leave"
	TypeError     = "error"
)

// Message is one JSON frame on the signalling websocket.
type Message struct {
	Type      string                     `json:"type"`
	Room      string                     `json:"room,omitempty"`
	Name      string                     `json:"name,omitempty"`
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Error     string                     `json:"error,omitempty"`
}
