// Package domain contains entities without transport or lifecycle logic.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 64
	MaxRoomIDLen   = 128
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrRoomIDEmpty     = errors.New("room id empty")
	ErrRoomIDTooLong   = errors.New("room id too long")
)

type ParticipantIdentity string

// Participant is a room member as the backend sees it when issuing tokens.
type Participant struct {
	Identity    ParticipantIdentity `json:"identity"`
	DisplayName string              `json:"displayName"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(displayName string) (*Participant, error) {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(displayName) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	id := ParticipantIdentity("participant-" + uuid.NewString())
	return &Participant{Identity: id, DisplayName: displayName}, nil
}

func ValidateRoomID(room RoomID) error {
	if strings.TrimSpace(string(room)) == "" {
		return ErrRoomIDEmpty
	}
	if len(room) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}
