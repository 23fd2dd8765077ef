package arena

import (
	"errors"
	"log"
	"math"
	"time"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/tuning"
)

var ErrNoPlayerEntity = errors.New("no player entity")

// Scheduler provides cancellable wall-clock timers. The production
// implementation funnels the callback back into the arena loop; firing
// against a ball that has already been removed is a no-op.
type Scheduler interface {
	After(d time.Duration, f func()) (cancel func())
}

type BallState int

const (
	BallSpawned BallState = iota
	BallThrown
	BallScored
	BallMissed
)

// Ball tracks one physical projectile. SPAWNED -> THROWN -> exactly one of
// {SCORED, MISSED} -> despawned.
type Ball struct {
	Body      BodyID
	PlayerID  string
	SpawnTime time.Time
	State     BallState

	scored    bool
	despawned bool
	throwPos  Vec3

	onScore func(points int, shotType protocol.ShotType)
	onMiss  func()

	cancelAutoMiss func()
	cancelDespawn  func()
}

func (b *Ball) Scored() bool { return b.scored }

func (b *Ball) Despawned() bool { return b.despawned }

// Terminal reports whether the ball has reached a final outcome.
func (b *Ball) Terminal() bool { return b.State == BallScored || b.State == BallMissed }

// EntityBinder owns at most one non-terminal ball per player. It turns
// throw intents into impulses and reports score/miss outcomes through the
// callbacks bound at spawn time.
type EntityBinder struct {
	host   Host
	tune   tuning.BallTuning
	sched  Scheduler
	logger *log.Logger
	now    func() time.Time

	balls  map[string]*Ball // playerID -> ball
	byBody map[BodyID]*Ball

	// Guard against duplicate sensor contacts for the same body. Entries
	// are cleared on a delay so late duplicates are still suppressed.
	recentlyScored map[BodyID]struct{}
}

func NewEntityBinder(host Host, tune tuning.BallTuning, sched Scheduler, logger *log.Logger) *EntityBinder {
	return &EntityBinder{
		host:           host,
		tune:           tune,
		sched:          sched,
		logger:         logger,
		now:            time.Now,
		balls:          map[string]*Ball{},
		byBody:         map[BodyID]*Ball{},
		recentlyScored: map[BodyID]struct{}{},
	}
}

// SetClock overrides the wall clock recorded as ball spawn time.
func (eb *EntityBinder) SetClock(now func() time.Time) { eb.now = now }

func basketballProps() BallProps {
	return BallProps{
		Radius:         0.15,
		Mass:           0.6,
		Bounciness:     0.65,
		Friction:       0.4,
		LinearDamping:  0.2,
		AngularDamping: 0.3,
		CCD:            true,
	}
}

// SpawnBallForPlayer creates a ball just in front of the player at chest
// height. Any prior non-terminal ball for the player is despawned first.
func (eb *EntityBinder) SpawnBallForPlayer(playerID string, onScore func(points int, shotType protocol.ShotType), onMiss func()) (*Ball, error) {
	if prior := eb.balls[playerID]; prior != nil {
		eb.despawn(prior)
	}

	pos, yaw, ok := eb.host.PlayerTransform(playerID)
	if !ok {
		return nil, ErrNoPlayerEntity
	}

	forward := Vec3{X: -math.Sin(yaw), Z: -math.Cos(yaw)}
	spawnPos := pos.
		Add(forward.Scale(eb.tune.SpawnDistance)).
		Add(Vec3{Y: eb.tune.SpawnHeight})

	ball := &Ball{
		Body:      eb.host.SpawnBall(spawnPos, basketballProps()),
		PlayerID:  playerID,
		SpawnTime: eb.now(),
		State:     BallSpawned,
		onScore:   onScore,
		onMiss:    onMiss,
	}
	eb.balls[playerID] = ball
	eb.byBody[ball.Body] = ball
	return ball, nil
}

// ThrowBall applies the throw impulse for the player's spawned ball and
// arms the auto-miss timer. Returns false without an active ball.
func (eb *EntityBinder) ThrowBall(playerID string, power, aim float64, direction Vec3) bool {
	ball := eb.balls[playerID]
	if ball == nil || ball.State != BallSpawned {
		eb.logger.Printf("throw rejected: no active ball for %s", playerID)
		return false
	}

	// Bias the raw direction upward so every throw arcs.
	dir := direction
	if dir.Y+0.4 > 0.3 {
		dir.Y += 0.4
	} else {
		dir.Y = 0.3
	}
	dir = dir.Normalized()

	strength := eb.tune.ThrowStrengthBase + power*eb.tune.ThrowStrengthScale
	arcBoost := eb.tune.ArcBoostBase + aim*eb.tune.ArcBoostScale

	impulse := dir.Scale(strength)
	impulse.Y += arcBoost
	eb.host.ApplyImpulse(ball.Body, impulse)

	// Backspin for visual effect.
	eb.host.ApplyTorqueImpulse(ball.Body, Vec3{X: -dir.Z * 2, Z: dir.X * 2})

	if p, ok := eb.host.BallPosition(ball.Body); ok {
		ball.throwPos = p
	}
	ball.State = BallThrown

	ball.cancelAutoMiss = eb.sched.After(time.Duration(eb.tune.AutoMissSeconds)*time.Second, func() {
		cur := eb.balls[playerID]
		if cur != ball || ball.Terminal() {
			return
		}
		eb.markMissed(ball)
		eb.despawn(ball)
	})
	return true
}

// HandleSensorContact processes a hoop-sensor overlap for a tracked ball.
// Only a downward-moving, not-yet-scored ball scores; duplicates from the
// sensor are suppressed by the per-body guard.
func (eb *EntityBinder) HandleSensorContact(body BodyID, hoopPos Vec3, verticalVel float64) {
	ball := eb.byBody[body]
	if ball == nil || ball.Terminal() {
		return
	}
	if _, dup := eb.recentlyScored[body]; dup {
		return
	}
	if verticalVel > 0 {
		// Entered from below; not a valid score.
		return
	}

	eb.recentlyScored[body] = struct{}{}
	eb.sched.After(time.Duration(eb.tune.ScoreDedupeCleanupMs)*time.Millisecond, func() {
		delete(eb.recentlyScored, body)
	})

	points, shotType := classifyShot(ball.throwPos, hoopPos)
	ball.scored = true
	ball.State = BallScored
	if ball.cancelAutoMiss != nil {
		ball.cancelAutoMiss()
		ball.cancelAutoMiss = nil
	}
	if ball.onScore != nil {
		ball.onScore(points, shotType)
	}

	// Leave the ball visible briefly before it despawns.
	playerID := ball.PlayerID
	ball.cancelDespawn = eb.sched.After(time.Duration(eb.tune.ScoreDespawnDelayMs)*time.Millisecond, func() {
		if eb.balls[playerID] == ball {
			eb.despawn(ball)
		}
	})
}

// classifyShot grades a made basket by the planar distance the ball
// travelled from its release point to the hoop.
func classifyShot(throwPos, hoopPos Vec3) (points int, shotType protocol.ShotType) {
	d := PlanarDist(throwPos, hoopPos)
	switch {
	case d < 2:
		return 2, protocol.ShotLayup
	case d < 6:
		return 2, protocol.ShotMidrange
	default:
		return 3, protocol.ShotThree
	}
}

func (eb *EntityBinder) markMissed(ball *Ball) {
	if ball.scored || ball.State == BallMissed {
		return
	}
	ball.State = BallMissed
	if ball.onMiss != nil {
		ball.onMiss()
	}
}

// HasActiveBall reports whether the player has a tracked non-terminal ball.
func (eb *EntityBinder) HasActiveBall(playerID string) bool {
	ball := eb.balls[playerID]
	return ball != nil && !ball.Terminal()
}

// PlayerBall returns the tracked ball for a player, if any.
func (eb *EntityBinder) PlayerBall(playerID string) *Ball {
	return eb.balls[playerID]
}

// CleanupPlayer despawns and drops tracking for one player.
func (eb *EntityBinder) CleanupPlayer(playerID string) {
	if ball := eb.balls[playerID]; ball != nil {
		eb.despawn(ball)
	}
}

// Cleanup despawns every tracked ball.
func (eb *EntityBinder) Cleanup() {
	for _, ball := range eb.balls {
		eb.despawn(ball)
	}
}

// despawn cancels pending timers, releases the physical body and drops
// tracking. Safe to call more than once per ball.
func (eb *EntityBinder) despawn(ball *Ball) {
	if ball.cancelAutoMiss != nil {
		ball.cancelAutoMiss()
		ball.cancelAutoMiss = nil
	}
	if ball.cancelDespawn != nil {
		ball.cancelDespawn()
		ball.cancelDespawn = nil
	}
	if eb.byBody[ball.Body] == ball {
		delete(eb.byBody, ball.Body)
		eb.host.DespawnBall(ball.Body)
	}
	ball.despawned = true
	if eb.balls[ball.PlayerID] == ball {
		delete(eb.balls, ball.PlayerID)
	}
}
