package arena

import (
	"encoding/json"
	"math"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// PlanarDist is the x/z ground distance, ignoring height.
func PlanarDist(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// BodyID identifies a physical body owned by the host.
type BodyID uint64

// BallProps are the physical properties requested for a spawned ball.
type BallProps struct {
	Radius         float64
	Mass           float64
	Bounciness     float64
	Friction       float64
	LinearDamping  float64
	AngularDamping float64
	CCD            bool
}

// Host is the capability surface the sim requires from the entity/physics
// host. The core never depends on a concrete host implementation.
type Host interface {
	SpawnPlayer(playerID string, pos Vec3, yaw float64)
	RemovePlayer(playerID string)
	PlayerTransform(playerID string) (pos Vec3, yaw float64, ok bool)
	SetPlayerTransform(playerID string, pos Vec3, yaw float64)

	SpawnBall(pos Vec3, props BallProps) BodyID
	DespawnBall(id BodyID)
	ApplyImpulse(id BodyID, impulse Vec3)
	ApplyTorqueImpulse(id BodyID, impulse Vec3)
	BallPosition(id BodyID) (Vec3, bool)
}

// EventLogger receives every outbound event for append-only history.
// Implemented in internal/persistence/log.
type EventLogger interface {
	WriteEvent(e EventLogEntry) error
}

type EventLogEntry struct {
	Tick     uint64          `json:"tick"`
	PlayerID string          `json:"playerId"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}

// ResultsIndex receives a row per ended challenge. Implemented in
// internal/persistence/indexdb. It is a secondary read model; the sim never
// reads it back.
type ResultsIndex interface {
	RecordResult(r ResultRow)
}

type ResultRow struct {
	Tick        uint64
	SessionID   string
	PlayerID    string
	Sport       string
	ChallengeID string
	FinalScore  int
	Hits        int
	XPEarned    int
	CoinsEarned int
	Reason      string
}
