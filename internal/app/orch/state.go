package orch

import "github.com/dkeye/Scribe/internal/domain"

// state is the orchestrator's session container. Transitions are pure: they
// return the next state and whether the move is legal.
type state struct {
	phase   domain.SessionPhase
	session *domain.RoomSession
	err     error
}

func (s state) join(room domain.RoomID, displayName string) (state, bool) {
	switch s.phase {
	case domain.PhaseIdle, domain.PhaseAwaitingCredential:
		return state{
			phase:   domain.PhaseAwaitingCredential,
			session: domain.NewRoomSession(room, displayName),
		}, true
	default:
		return s, false
	}
}

func (s state) credentialFailed(err error) (state, bool) {
	if s.phase != domain.PhaseAwaitingCredential {
		return s, false
	}
	s.err = err
	return s, true
}

func (s state) connected(cred domain.Credential) (state, bool) {
	if s.phase != domain.PhaseAwaitingCredential || s.session == nil {
		return s, false
	}
	sess := *s.session
	sess.Connect(cred)
	return state{phase: domain.PhaseConnected, session: &sess}, true
}

func (s state) leaving() (state, bool) {
	if s.phase == domain.PhaseIdle || s.phase == domain.PhaseLeaving {
		return s, false
	}
	next := state{phase: domain.PhaseLeaving}
	if s.session != nil {
		sess := *s.session
		sess.Leave()
		next.session = &sess
	}
	return next, true
}

func (s state) idle() state {
	return state{phase: domain.PhaseIdle}
}
