// Package token issues and verifies the signed access credentials handed to
// room participants and to transcription workers.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Scribe/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	WorkerIdentityPrefix = "transcriber-bot-"
	WorkerName           = "Transcriber"
	DefaultTTL           = 6 * time.Hour
)

var (
	ErrNoSecret     = errors.New("token: api secret is not configured")
	ErrInvalidToken = errors.New("token: invalid token")
)

// VideoGrant carries the room permissions embedded in every token.
type VideoGrant struct {
	Room           string `json:"room"`
	RoomJoin       bool   `json:"roomJoin"`
	CanPublish     bool   `json:"canPublish"`
	CanSubscribe   bool   `json:"canSubscribe"`
	CanPublishData bool   `json:"canPublishData,omitempty"`
	Hidden         bool   `json:"hidden,omitempty"`
}

type Claims struct {
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
	jwt.RegisteredClaims
}

// Worker reports whether the claims belong to a transcription worker.
func (c *Claims) Worker() bool {
	return c.Video.Hidden && c.Subject == WorkerIdentity(domain.RoomID(c.Video.Room))
}

func WorkerIdentity(room domain.RoomID) string {
	return WorkerIdentityPrefix + string(room)
}

type Issuer struct {
	key    string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(apiKey, apiSecret string, ttl time.Duration) (*Issuer, error) {
	if apiSecret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{key: apiKey, secret: []byte(apiSecret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a participant credential for one room. The participant
// identity is generated fresh for every call.
func (i *Issuer) Issue(room domain.RoomID, displayName string) (string, error) {
	if err := domain.ValidateRoomID(room); err != nil {
		return "", err
	}
	p, err := domain.NewParticipant(displayName)
	if err != nil {
		return "", err
	}
	return i.sign(string(p.Identity), p.DisplayName, VideoGrant{
		Room:         string(room),
		RoomJoin:     true,
		CanPublish:   true,
		CanSubscribe: true,
	})
}

// IssueWorker signs the hidden, subscribe-only credential of a room's
// transcription worker.
func (i *Issuer) IssueWorker(room domain.RoomID) (string, error) {
	if err := domain.ValidateRoomID(room); err != nil {
		return "", err
	}
	return i.sign(WorkerIdentity(room), WorkerName, VideoGrant{
		Room:           string(room),
		RoomJoin:       true,
		CanSubscribe:   true,
		CanPublishData: true,
		Hidden:         true,
	})
}

func (i *Issuer) sign(identity, name string, grant VideoGrant) (string, error) {
	now := i.now()
	claims := Claims{
		Name:  name,
		Video: grant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.key,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.key),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
