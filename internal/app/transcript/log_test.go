package transcript

import (
	"testing"

	"github.com/dkeye/Scribe/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendKeepsOrderAndCopies(t *testing.T) {
	req := require.New(t)
	l := NewLog()

	l.Append(domain.TranscriptEntry{ParticipantName: "Alice", Text: "one"})
	l.Append(domain.TranscriptEntry{ParticipantName: "Bob", Text: "two"})
	l.Append(domain.TranscriptEntry{ParticipantName: "Alice", Text: "one"})

	entries := l.Entries()
	req.Len(entries, 3)
	req.Equal("one", entries[0].Text)
	req.Equal("two", entries[1].Text)
	req.Equal("one", entries[2].Text)

	entries[0].Text = "mutated"
	req.Equal("one", l.Entries()[0].Text)
}

func TestLog_Since(t *testing.T) {
	req := require.New(t)
	l := NewLog()
	for _, text := range []string{"a", "b", "c"} {
		l.Append(domain.TranscriptEntry{Text: text})
	}

	req.Len(l.Since(0), 3)
	req.Equal([]domain.TranscriptEntry{{Text: "c"}}, l.Since(2))
	req.Nil(l.Since(3))
	req.Nil(l.Since(10))
	req.Len(l.Since(-1), 3)
}
