//go:generate go run go.uber.org/mock/mockgen -source=stream_iface.go -destination=../mocks/mock_stream.go -package=mocks
package core

import (
	"context"

	"github.com/dkeye/Scribe/internal/domain"
)

// StreamHandler receives the callbacks of one subscription, always from a
// single goroutine and in arrival order.
type StreamHandler interface {
	// OnOpen is called once the server accepted the stream.
	OnOpen()
	// OnMessage is called for every data payload.
	OnMessage(payload []byte)
	// OnError is called at most once; no callbacks follow it.
	OnError(err error)
}

// Subscription is a live server-push channel. Close is idempotent and
// never calls back into the handler.
type Subscription interface {
	Close()
}

// TranscriptStream opens server-push channels scoped to a room.
type TranscriptStream interface {
	Subscribe(ctx context.Context, room domain.RoomID, h StreamHandler) (Subscription, error)
}
