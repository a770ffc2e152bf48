package domain

import (
	"encoding/json"
	"time"
)

// TranscriptEntry is one display-ready line of the live transcript.
// Timestamp is a local "15:04" string, empty when the source instant was unparseable.
type TranscriptEntry struct {
	ParticipantName string `json:"participantName"`
	Text            string `json:"text"`
	Timestamp       string `json:"timestamp"`
}

// TranscriptEvent is the wire shape pushed on the transcript stream.
type TranscriptEvent struct {
	RoomID              RoomID `json:"roomId"`
	Timestamp           string `json:"timestamp"`
	ParticipantIdentity string `json:"participantIdentity,omitempty"`
	ParticipantName     string `json:"participantName"`
	Text                string `json:"text"`
}

// LooseString decodes a JSON string as itself and any other JSON value as "".
// Producers send labels and timestamps in whatever shape they have at hand.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	*s = LooseString(v)
	return nil
}

// StampNow fills Timestamp with the current instant when it is missing.
func (e *TranscriptEvent) StampNow(now time.Time) {
	if e.Timestamp == "" {
		e.Timestamp = now.UTC().Format(time.RFC3339Nano)
	}
}

// StreamStatus is the health of the transcript stream as shown to the user.
type StreamStatus string

const (
	StreamClosed       StreamStatus = "closed"
	StreamConnecting   StreamStatus = "connecting"
	StreamLive         StreamStatus = "live"
	StreamReconnecting StreamStatus = "reconnecting"
	StreamFailed       StreamStatus = "failed"
)
