// Package hostphys is a minimal entity/physics host for the arena: dynamic
// ball bodies under gravity, kinematic player transforms, and non-physical
// hoop sensors that report overlap contacts. It stands in for a full game
// host behind the arena.Host capability interface.
package hostphys

import (
	"context"
	"sync"
	"time"

	"pregame.city/internal/sim/arena"
	"pregame.city/internal/sim/catalogs"
)

const (
	gravity = 9.81
	floorY  = 0.0

	// Rim geometry relative to a field center.
	hoopHeight       = 3.05
	sensorRadius     = 0.4
	sensorHalfHeight = 0.25
)

// Contact is a ball/hoop-sensor overlap at the moment of entry.
type Contact struct {
	Body        arena.BodyID
	HoopPos     arena.Vec3
	VerticalVel float64
}

// Hoop is a static scoring sensor volume.
type Hoop struct {
	FieldID string
	Pos     arena.Vec3
}

// HoopsFromZones places one hoop above the center of every basketball field.
func HoopsFromZones(zones catalogs.ZoneCatalog) []Hoop {
	var hoops []Hoop
	for _, z := range zones.Zones {
		for _, f := range z.SportsFields {
			if f.Sport != "basketball" {
				continue
			}
			hoops = append(hoops, Hoop{
				FieldID: f.ID,
				Pos:     arena.Vec3{X: f.Center.X, Y: f.Center.Y + hoopHeight, Z: f.Center.Z},
			})
		}
	}
	return hoops
}

type playerBody struct {
	pos arena.Vec3
	yaw float64
}

type ballBody struct {
	pos    arena.Vec3
	vel    arena.Vec3
	angVel arena.Vec3
	props  arena.BallProps

	// Per-hoop overlap flags for entry edge detection.
	inSensor []bool
}

// World integrates ball bodies and detects sensor entries. It is locked
// internally because the arena loop and the physics loop call in from
// different goroutines.
type World struct {
	mu sync.Mutex

	players map[string]*playerBody
	balls   map[arena.BodyID]*ballBody
	hoops   []Hoop

	nextBody  arena.BodyID
	onContact func(Contact)
}

func NewWorld(hoops []Hoop) *World {
	return &World{
		players: map[string]*playerBody{},
		balls:   map[arena.BodyID]*ballBody{},
		hoops:   hoops,
	}
}

// OnContact sets the sink for sensor-entry contacts. Must be set before
// Run; contacts fire after the world lock is released.
func (w *World) OnContact(f func(Contact)) { w.onContact = f }

func (w *World) SpawnPlayer(playerID string, pos arena.Vec3, yaw float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.players[playerID] = &playerBody{pos: pos, yaw: yaw}
}

func (w *World) RemovePlayer(playerID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.players, playerID)
}

func (w *World) PlayerTransform(playerID string) (arena.Vec3, float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.players[playerID]
	if p == nil {
		return arena.Vec3{}, 0, false
	}
	return p.pos, p.yaw, true
}

func (w *World) SetPlayerTransform(playerID string, pos arena.Vec3, yaw float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.players[playerID]
	if p == nil {
		return
	}
	p.pos = pos
	p.yaw = yaw
}

func (w *World) SpawnBall(pos arena.Vec3, props arena.BallProps) arena.BodyID {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextBody++
	id := w.nextBody
	w.balls[id] = &ballBody{
		pos:      pos,
		props:    props,
		inSensor: make([]bool, len(w.hoops)),
	}
	return id
}

func (w *World) DespawnBall(id arena.BodyID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.balls, id)
}

func (w *World) ApplyImpulse(id arena.BodyID, impulse arena.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.balls[id]
	if b == nil || b.props.Mass <= 0 {
		return
	}
	b.vel = b.vel.Add(impulse.Scale(1 / b.props.Mass))
}

func (w *World) ApplyTorqueImpulse(id arena.BodyID, impulse arena.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.balls[id]
	if b == nil || b.props.Mass <= 0 {
		return
	}
	b.angVel = b.angVel.Add(impulse.Scale(1 / b.props.Mass))
}

func (w *World) BallPosition(id arena.BodyID) (arena.Vec3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.balls[id]
	if b == nil {
		return arena.Vec3{}, false
	}
	return b.pos, true
}

// Step advances every ball by dt seconds and reports new sensor entries.
func (w *World) Step(dt float64) {
	var contacts []Contact

	w.mu.Lock()
	for id, b := range w.balls {
		b.vel.Y -= gravity * dt
		damp := 1 / (1 + b.props.LinearDamping*dt)
		b.vel = b.vel.Scale(damp)
		b.angVel = b.angVel.Scale(1 / (1 + b.props.AngularDamping*dt))
		b.pos = b.pos.Add(b.vel.Scale(dt))

		// Floor bounce.
		if b.pos.Y-b.props.Radius < floorY && b.vel.Y < 0 {
			b.pos.Y = floorY + b.props.Radius
			b.vel.Y = -b.vel.Y * b.props.Bounciness
			b.vel.X *= 1 - b.props.Friction*dt
			b.vel.Z *= 1 - b.props.Friction*dt
		}

		for i, h := range w.hoops {
			inside := arena.PlanarDist(b.pos, h.Pos) < sensorRadius &&
				b.pos.Y > h.Pos.Y-sensorHalfHeight &&
				b.pos.Y < h.Pos.Y+sensorHalfHeight
			if inside && !b.inSensor[i] {
				contacts = append(contacts, Contact{Body: id, HoopPos: h.Pos, VerticalVel: b.vel.Y})
			}
			b.inSensor[i] = inside
		}
	}
	sink := w.onContact
	w.mu.Unlock()

	if sink != nil {
		for _, c := range contacts {
			sink(c)
		}
	}
}

// Run steps the world at the given rate until the context ends.
func (w *World) Run(ctx context.Context, hz int) {
	if hz <= 0 {
		hz = 60
	}
	interval := time.Second / time.Duration(hz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Step(interval.Seconds())
		}
	}
}
