package arena

import (
	"encoding/json"
	"log"
	"math"

	"pregame.city/internal/protocol"
)

// MessageRouter maps inbound client intents to calls into the core
// components. It holds no state of its own.
type MessageRouter struct {
	sessions *SessionRegistry
	resolver *ShotResolver
	balls    *EntityBinder
	stats    func(playerID string) PlayerStats
	host     Host

	send      func(playerID string, v any)
	broadcast func(v any)
	logger    *log.Logger
}

func NewMessageRouter(
	sessions *SessionRegistry,
	resolver *ShotResolver,
	balls *EntityBinder,
	stats func(string) PlayerStats,
	host Host,
	send func(string, any),
	broadcast func(any),
	logger *log.Logger,
) *MessageRouter {
	return &MessageRouter{
		sessions:  sessions,
		resolver:  resolver,
		balls:     balls,
		stats:     stats,
		host:      host,
		send:      send,
		broadcast: broadcast,
		logger:    logger,
	}
}

// Handle dispatches one raw intent from a connected player. Unknown or
// malformed messages are ignored.
func (r *MessageRouter) Handle(playerID string, raw []byte) {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return
	}

	switch base.Type {
	case protocol.TypeRequestStartChallenge:
		var msg protocol.StartChallengeMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		r.sessions.StartChallenge(playerID, msg.Sport, msg.ChallengeID)

	case protocol.TypeCancelChallenge:
		r.sessions.CancelChallenge(playerID)

	case protocol.TypeBasketballShotAttempt:
		var msg protocol.ShotAttemptMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		r.handleShotAttempt(playerID, msg)

	case protocol.TypePlayerMove:
		var msg protocol.PlayerMoveMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		r.host.SetPlayerTransform(playerID, Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}, msg.Yaw)

	case protocol.TypeEmote:
		var msg protocol.EmoteMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		r.broadcast(protocol.PlayerEmoteMsg{
			Type:     protocol.TypePlayerEmote,
			PlayerID: playerID,
			EmoteID:  msg.EmoteID,
		})

	case protocol.TypeQuickChat:
		var msg protocol.QuickChatMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		r.broadcast(protocol.QuickChatBroadcastMsg{
			Type:      protocol.TypeQuickChatBroadcast,
			PlayerID:  playerID,
			MessageID: msg.MessageID,
			Message:   msg.Message,
		})
	}
}

// handleShotAttempt validates the attempt against the session that issued
// it, resolves the outcome, then spawns and throws the physical ball. The
// resolver outcome is authoritative for scoring; the ball's sensor
// callbacks only feed the event history.
func (r *MessageRouter) handleShotAttempt(playerID string, msg protocol.ShotAttemptMsg) {
	session := r.sessions.ChallengeForSession(msg.ChallengeSessionID)
	if session == nil || session.PlayerID != playerID || session.Sport != "basketball" {
		return
	}

	result := r.resolver.Resolve(ShotInput{
		ShotType:  msg.ShotType,
		Timing:    msg.Timing,
		AimOffset: msg.AimOffset,
		Contested: msg.Contested,
	}, r.stats(playerID))

	if result.Made {
		r.sessions.RegisterHit(playerID, result.Points)
	}

	r.send(playerID, protocol.ShotResultMsg{
		Type:               protocol.TypeBasketballShotResult,
		ChallengeSessionID: msg.ChallengeSessionID,
		PlayerID:           playerID,
		Made:               result.Made,
		Points:             result.Points,
		Reason:             result.Reason,
	})

	r.throwPhysicalBall(playerID, msg)
}

// throwPhysicalBall drives the visible projectile for a resolved attempt.
// Throw power comes from release timing and aim from the inverted offset,
// as the client shot meter reports them.
func (r *MessageRouter) throwPhysicalBall(playerID string, msg protocol.ShotAttemptMsg) {
	_, err := r.balls.SpawnBallForPlayer(playerID,
		func(points int, shotType protocol.ShotType) {
			r.logger.Printf("ball scored: player=%s points=%d type=%s", playerID, points, shotType)
		},
		func() {
			r.logger.Printf("ball missed: player=%s", playerID)
		},
	)
	if err != nil {
		r.logger.Printf("spawn ball: player=%s: %v", playerID, err)
		return
	}

	_, yaw, ok := r.host.PlayerTransform(playerID)
	if !ok {
		return
	}
	direction := Vec3{X: -math.Sin(yaw), Z: -math.Cos(yaw)}
	r.balls.ThrowBall(playerID, msg.Timing, 1-msg.AimOffset, direction)
}
