package transcript

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dkeye/Scribe/internal/domain"
)

// DisplayLayout is the hour:minute form shown next to each line.
const DisplayLayout = "15:04"

// zone-less ISO-8601 forms, as produced by Python's datetime.isoformat().
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// payload is the pushed message as producers actually send it: text must be a
// string, everything else only labels the entry and may be any JSON value.
type payload struct {
	Text                string             `json:"text"`
	ParticipantName     domain.LooseString `json:"participantName"`
	ParticipantIdentity domain.LooseString `json:"participantIdentity"`
	Timestamp           domain.LooseString `json:"timestamp"`
}

// Decode turns one pushed payload into a transcript entry.
// ok is false for anything that must not produce an entry: non-JSON
// payloads and messages with missing or empty text (heartbeats).
func Decode(raw []byte, loc *time.Location) (domain.TranscriptEntry, bool) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.TranscriptEntry{}, false
	}
	if p.Text == "" {
		return domain.TranscriptEntry{}, false
	}
	name := string(p.ParticipantName)
	if name == "" {
		name = string(p.ParticipantIdentity)
	}
	return domain.TranscriptEntry{
		ParticipantName: name,
		Text:            p.Text,
		Timestamp:       FormatTimestamp(string(p.Timestamp), loc),
	}, true
}

// FormatTimestamp renders raw as local "15:04", or "" when it cannot be parsed.
func FormatTimestamp(raw string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc).Format(DisplayLayout)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.Format(DisplayLayout)
		}
	}
	return ""
}
