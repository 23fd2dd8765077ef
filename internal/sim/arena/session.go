package arena

import (
	"fmt"
	"time"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/catalogs"
)

type SessionState int

const (
	SessionActive SessionState = iota
	SessionEnded
)

// Session is one timed, scored challenge bound to a single player. Once
// ended it is evicted from the registry and never reused.
type Session struct {
	ID          string
	PlayerID    string
	Sport       string
	ChallengeID string
	Config      catalogs.ChallengeDef

	Score         int
	Hits          int
	TimeRemaining float64 // seconds, non-increasing while active
	State         SessionState
}

// SessionRegistry owns at most one session per player and ticks their
// timers. All failure modes are local: a bad config lookup becomes a
// notification event, a missing session a silent no-op.
type SessionRegistry struct {
	sports catalogs.SportCatalog
	send   func(playerID string, v any)
	onEnd  func(s *Session, xp, coins int, reason protocol.EndReason)
	now    func() time.Time

	sessions map[string]*Session // playerID -> session
}

func NewSessionRegistry(sports catalogs.SportCatalog, send func(string, any)) *SessionRegistry {
	return &SessionRegistry{
		sports:   sports,
		send:     send,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// SetEndHook registers the reward sink invoked on every session end, after
// the end event has been emitted.
func (r *SessionRegistry) SetEndHook(f func(s *Session, xp, coins int, reason protocol.EndReason)) {
	r.onEnd = f
}

// SetClock overrides the wall clock used for session ids.
func (r *SessionRegistry) SetClock(now func() time.Time) { r.now = now }

// StartChallenge begins a session for the player. An unknown sport or
// challenge id yields a user-facing notification and no session. An already
// active session is ended with reason "replaced" before the new one is
// constructed, so its end event precedes the new start event.
func (r *SessionRegistry) StartChallenge(playerID, sport, challengeID string) *Session {
	cfg, ok := r.sports.Challenge(sport, challengeID)
	if !ok {
		r.send(playerID, protocol.NotificationMsg{
			Type:     protocol.TypeNotification,
			Category: "info",
			Message:  "Challenge not available yet.",
		})
		return nil
	}

	if existing := r.sessions[playerID]; existing != nil && existing.State == SessionActive {
		r.endChallenge(playerID, protocol.EndReplaced)
	}

	s := &Session{
		ID:            fmt.Sprintf("challenge_%s_%s_%d", sport, playerID, r.now().UnixMilli()),
		PlayerID:      playerID,
		Sport:         sport,
		ChallengeID:   challengeID,
		Config:        cfg,
		TimeRemaining: float64(cfg.DurationSeconds),
		State:         SessionActive,
	}
	r.sessions[playerID] = s

	r.send(playerID, protocol.ChallengeStartedMsg{
		Type:               protocol.TypeChallengeStarted,
		ChallengeSessionID: s.ID,
		ChallengeID:        challengeID,
		Sport:              sport,
		DurationSeconds:    cfg.DurationSeconds,
	})
	return s
}

// CancelChallenge ends the player's active session, if any.
func (r *SessionRegistry) CancelChallenge(playerID string) {
	r.endChallenge(playerID, protocol.EndCancelled)
}

// Update advances every active session's timer by dt seconds. A timer
// reaching zero is clamped and the session ends with reason "completed".
func (r *SessionRegistry) Update(dt float64) {
	for playerID, s := range r.sessions {
		if s.State != SessionActive {
			continue
		}
		s.TimeRemaining -= dt
		if s.TimeRemaining <= 0 {
			s.TimeRemaining = 0
			r.endChallenge(playerID, protocol.EndCompleted)
		}
	}
}

// RegisterHit credits a made shot against the player's active session.
// No-op without one.
func (r *SessionRegistry) RegisterHit(playerID string, points int) {
	s := r.sessions[playerID]
	if s == nil || s.State != SessionActive {
		return
	}
	s.Hits++
	s.Score += points

	r.send(playerID, protocol.ChallengeScoreUpdatedMsg{
		Type:               protocol.TypeChallengeScoreUpdated,
		ChallengeSessionID: s.ID,
		Sport:              s.Sport,
		Score:              s.Score,
		TimeRemaining:      s.TimeRemaining,
	})
}

// ChallengeForSession resolves a session by id, used to validate inbound
// shot attempts against the session that issued them.
func (r *SessionRegistry) ChallengeForSession(sessionID string) *Session {
	for _, s := range r.sessions {
		if s.ID == sessionID {
			return s
		}
	}
	return nil
}

// ActiveSession returns the player's session if one is active.
func (r *SessionRegistry) ActiveSession(playerID string) *Session {
	s := r.sessions[playerID]
	if s == nil || s.State != SessionActive {
		return nil
	}
	return s
}

func (r *SessionRegistry) Len() int { return len(r.sessions) }

func (r *SessionRegistry) endChallenge(playerID string, reason protocol.EndReason) {
	s := r.sessions[playerID]
	if s == nil || s.State == SessionEnded {
		return
	}

	s.State = SessionEnded
	delete(r.sessions, playerID)

	cfg := s.Config
	xpEarned := s.Hits*cfg.XPPerHit + cfg.BonusXPOnFinish
	coinsEarned := s.Hits * cfg.CoinsPerHit

	r.send(playerID, protocol.ChallengeEndedMsg{
		Type:               protocol.TypeChallengeEnded,
		ChallengeSessionID: s.ID,
		Sport:              s.Sport,
		ChallengeID:        s.ChallengeID,
		FinalScore:         s.Score,
		XPEarned:           xpEarned,
		CoinsEarned:        coinsEarned,
		Reason:             reason,
	})

	if r.onEnd != nil {
		r.onEnd(s, xpEarned, coinsEarned, reason)
	}
}
