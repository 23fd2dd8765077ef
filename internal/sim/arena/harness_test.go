package arena

import (
	"io"
	"log"
	"time"

	"pregame.city/internal/sim/catalogs"
	"pregame.city/internal/sim/tuning"
)

// fakeHost is an in-memory Host that records every physics interaction.
type fakeHost struct {
	players  map[string]fakeTransform
	balls    map[BodyID]Vec3
	nextBody BodyID

	impulses  map[BodyID][]Vec3
	torques   map[BodyID][]Vec3
	despawned []BodyID
}

type fakeTransform struct {
	pos Vec3
	yaw float64
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		players:  map[string]fakeTransform{},
		balls:    map[BodyID]Vec3{},
		impulses: map[BodyID][]Vec3{},
		torques:  map[BodyID][]Vec3{},
	}
}

func (h *fakeHost) SpawnPlayer(playerID string, pos Vec3, yaw float64) {
	h.players[playerID] = fakeTransform{pos: pos, yaw: yaw}
}

func (h *fakeHost) RemovePlayer(playerID string) { delete(h.players, playerID) }

func (h *fakeHost) PlayerTransform(playerID string) (Vec3, float64, bool) {
	p, ok := h.players[playerID]
	return p.pos, p.yaw, ok
}

func (h *fakeHost) SetPlayerTransform(playerID string, pos Vec3, yaw float64) {
	if _, ok := h.players[playerID]; !ok {
		return
	}
	h.players[playerID] = fakeTransform{pos: pos, yaw: yaw}
}

func (h *fakeHost) SpawnBall(pos Vec3, props BallProps) BodyID {
	h.nextBody++
	h.balls[h.nextBody] = pos
	return h.nextBody
}

func (h *fakeHost) DespawnBall(id BodyID) {
	delete(h.balls, id)
	h.despawned = append(h.despawned, id)
}

func (h *fakeHost) ApplyImpulse(id BodyID, impulse Vec3) {
	h.impulses[id] = append(h.impulses[id], impulse)
}

func (h *fakeHost) ApplyTorqueImpulse(id BodyID, impulse Vec3) {
	h.torques[id] = append(h.torques[id], impulse)
}

func (h *fakeHost) BallPosition(id BodyID) (Vec3, bool) {
	pos, ok := h.balls[id]
	return pos, ok
}

// manualTimer / manualScheduler let tests fire wall-clock timers by hand.
type manualTimer struct {
	d         time.Duration
	f         func()
	cancelled bool
	fired     bool
}

type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) After(d time.Duration, f func()) (cancel func()) {
	t := &manualTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return func() { t.cancelled = true }
}

// fire runs every pending timer armed with exactly duration d and reports
// how many ran.
func (s *manualScheduler) fire(d time.Duration) int {
	n := 0
	for _, t := range s.timers {
		if t.d == d && !t.cancelled && !t.fired {
			t.fired = true
			t.f()
			n++
		}
	}
	return n
}

func (s *manualScheduler) pending(d time.Duration) int {
	n := 0
	for _, t := range s.timers {
		if t.d == d && !t.cancelled && !t.fired {
			n++
		}
	}
	return n
}

// eventSink records per-player events in send order.
type sentEvent struct {
	playerID string
	msg      any
}

type eventSink struct {
	events []sentEvent
}

func (s *eventSink) send(playerID string, v any) {
	s.events = append(s.events, sentEvent{playerID: playerID, msg: v})
}

func (s *eventSink) forPlayer(playerID string) []any {
	var out []any
	for _, e := range s.events {
		if e.playerID == playerID {
			out = append(out, e.msg)
		}
	}
	return out
}

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func testSports() catalogs.SportCatalog {
	return catalogs.SportCatalog{
		Sports: map[string]catalogs.SportDef{
			"basketball": {Challenges: []catalogs.ChallengeDef{
				{ID: "free_shoot_60", DisplayName: "Free Shoot", DurationSeconds: 60, XPPerHit: 10, CoinsPerHit: 5, BonusXPOnFinish: 25},
				{ID: "three_point_rush", DisplayName: "Three Point Rush", DurationSeconds: 45, XPPerHit: 15, CoinsPerHit: 8, BonusXPOnFinish: 40},
			}},
			"soccer": {Challenges: []catalogs.ChallengeDef{
				{ID: "penalty_five", DisplayName: "Penalty Five", DurationSeconds: 30, XPPerHit: 12, CoinsPerHit: 6},
			}},
		},
		Digest: "sports-test",
	}
}

func testZones() catalogs.ZoneCatalog {
	return catalogs.ZoneCatalog{
		Zones: []catalogs.ZoneDef{
			{ID: "hub", Type: "hub", SpawnPoint: &catalogs.Point{X: 0, Y: 1, Z: 0}},
			{ID: "bball", Type: "district", SportsFields: []catalogs.FieldDef{
				{ID: "court_a", Sport: "basketball", Mode: "challenge", Center: catalogs.Point{X: 60, Z: 20}},
				{ID: "court_b", Sport: "basketball", Mode: "challenge", Center: catalogs.Point{X: 60, Z: 80}},
			}},
		},
		Digest: "zones-test",
	}
}

func testRanks() catalogs.ProgressionCatalog {
	return catalogs.ProgressionCatalog{
		Ranks: []catalogs.RankDef{
			{ID: "rookie", MinXP: 0},
			{ID: "prospect", MinXP: 100},
			{ID: "starter", MinXP: 300},
		},
		Digest: "progression-test",
	}
}

func testCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Zones:       testZones(),
		Sports:      testSports(),
		Progression: testRanks(),
	}
}

func testBallTuning() tuning.BallTuning { return tuning.Defaults().Ball }
