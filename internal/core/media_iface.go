//go:generate go run go.uber.org/mock/mockgen -source=media_iface.go -destination=../mocks/mock_media.go -package=mocks
package core

import (
	"context"

	"github.com/dkeye/Scribe/internal/domain"
)

// MediaParams carries what the media layer needs to join a room.
type MediaParams struct {
	Room        domain.RoomID
	DisplayName string
	Credential  domain.Credential
}

// RemoteTrack is a read-only view of a remote media track for renderers.
type RemoteTrack struct {
	ID       string `json:"id"`
	StreamID string `json:"stream_id"`
	Kind     string `json:"kind"`
	Packets  uint64 `json:"packets"`
}

// MediaSession is the audio/video session collaborator. One instance serves
// one Connected phase.
type MediaSession interface {
	// Connect establishes the session using the credential.
	Connect(ctx context.Context, p MediaParams) error
	// OnDisconnected sets a callback fired at most once when the session ends.
	OnDisconnected(func())
	// RemoteTracks returns the live set of remote tracks.
	RemoteTracks() []RemoteTrack
	// Close should stop all underlying media resources.
	Close()
}
