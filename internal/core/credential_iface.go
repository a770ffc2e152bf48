//go:generate go run go.uber.org/mock/mockgen -source=credential_iface.go -destination=../mocks/mock_credential.go -package=mocks
package core

import (
	"context"
	"errors"

	"github.com/dkeye/Scribe/internal/domain"
)

// ErrCredentialUnavailable is the only failure a CredentialService reports.
// Callers wrap the cause but never need finer granularity.
var ErrCredentialUnavailable = errors.New("could not obtain credential")

// CredentialService obtains a room-scoped access credential from a trusted backend.
// Each call is independent and performs no retries.
type CredentialService interface {
	RequestCredential(ctx context.Context, room domain.RoomID, displayName string) (domain.Credential, error)
}

// TranscriptionActivator asks the backend to ensure a transcription worker runs for a room.
// The result is advisory.
type TranscriptionActivator interface {
	Activate(ctx context.Context, room domain.RoomID) error
}
