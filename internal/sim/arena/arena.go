package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/catalogs"
	"pregame.city/internal/sim/tuning"
)

type Config struct {
	ID         string
	TickRateHz int
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type IntentEnvelope struct {
	PlayerID string
	Raw      []byte
}

// SensorContact is a hoop-sensor overlap reported by the host.
type SensorContact struct {
	Body        BodyID
	HoopPos     Vec3
	VerticalVel float64
}

// Arena is the single-threaded authoritative sim for one city instance.
// All mutable core state is owned by the loop goroutine: intents, sensor
// contacts and timer callbacks are handled as they arrive, tick-bound work
// (session timers, then proximity) runs on the ticker.
type Arena struct {
	cfg    Config
	cats   *catalogs.Catalogs
	tune   tuning.Tuning
	host   Host
	logger *log.Logger

	tick atomic.Uint64

	clients map[string]*clientState

	sessions  *SessionRegistry
	proximity *ProximityTracker
	balls     *EntityBinder
	ledger    *Ledger
	router    *MessageRouter

	inbox    chan IntentEnvelope
	join     chan JoinRequest
	leave    chan string
	contacts chan SensorContact
	calls    chan func()
	stop     chan struct{}

	nextPlayerNum atomic.Uint64

	// Optional sinks (may be nil).
	eventLog EventLogger
	results  ResultsIndex
}

type clientState struct {
	Out chan []byte
}

func New(cfg Config, cats *catalogs.Catalogs, tune tuning.Tuning, host Host, logger *log.Logger) *Arena {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = tune.TickRateHz
	}

	a := &Arena{
		cfg:      cfg,
		cats:     cats,
		tune:     tune,
		host:     host,
		logger:   logger,
		clients:  map[string]*clientState{},
		inbox:    make(chan IntentEnvelope, 1024),
		join:     make(chan JoinRequest, 64),
		leave:    make(chan string, 64),
		contacts: make(chan SensorContact, 256),
		calls:    make(chan func(), 256),
		stop:     make(chan struct{}),
	}

	a.sessions = NewSessionRegistry(cats.Sports, a.sendEvent)
	a.proximity = NewProximityTracker(a.playerPosition, a.sendEvent)
	a.proximity.SetupTriggers(cats.Zones)
	a.balls = NewEntityBinder(host, tune.Ball, loopScheduler{a}, logger)
	a.ledger = NewLedger(cats.Progression, a.sendEvent)
	a.sessions.SetEndHook(a.onSessionEnd)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	resolver := NewShotResolver(rng.Float64)
	a.router = NewMessageRouter(a.sessions, resolver, a.balls, a.ledger.Stats, host, a.sendEvent, a.broadcast, logger)

	return a
}

func (a *Arena) SetEventLogger(l EventLogger) { a.eventLog = l }

func (a *Arena) SetResultsIndex(r ResultsIndex) { a.results = r }

// SetShotResolver swaps the resolver, letting tests pin the random draw.
func (a *Arena) SetShotResolver(r *ShotResolver) {
	a.router.resolver = r
}

func (a *Arena) Inbox() chan<- IntentEnvelope   { return a.inbox }
func (a *Arena) Join() chan<- JoinRequest       { return a.join }
func (a *Arena) Leave() chan<- string           { return a.leave }
func (a *Arena) Contacts() chan<- SensorContact { return a.contacts }

func (a *Arena) CurrentTick() uint64 { return a.tick.Load() }

func (a *Arena) Sessions() *SessionRegistry   { return a.sessions }
func (a *Arena) Proximity() *ProximityTracker { return a.proximity }
func (a *Arena) Balls() *EntityBinder         { return a.balls }
func (a *Arena) Ledger() *Ledger              { return a.ledger }

func (a *Arena) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(a.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := interval.Seconds()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stop:
			return nil
		case req := <-a.join:
			a.handleJoin(req)
		case id := <-a.leave:
			a.handleLeave(id)
		case env := <-a.inbox:
			a.router.Handle(env.PlayerID, env.Raw)
		case c := <-a.contacts:
			a.balls.HandleSensorContact(c.Body, c.HoopPos, c.VerticalVel)
		case f := <-a.calls:
			f()
		case <-ticker.C:
			a.StepOnce(dt)
		}
	}
}

func (a *Arena) Stop() { close(a.stop) }

// StepOnce runs one tick of tick-bound work: session timers first, then
// proximity, so a session ending at the tick boundary is reflected before
// fields are re-evaluated. Exported so tests can drive the arena without
// the ticker.
func (a *Arena) StepOnce(dt float64) {
	a.tick.Add(1)
	a.sessions.Update(dt)
	a.proximity.Update()
}

// HandleIntent processes one intent synchronously. Tests use this instead
// of the inbox channel.
func (a *Arena) HandleIntent(playerID string, raw []byte) {
	a.router.Handle(playerID, raw)
}

// HandleContact processes one sensor contact synchronously.
func (a *Arena) HandleContact(c SensorContact) {
	a.balls.HandleSensorContact(c.Body, c.HoopPos, c.VerticalVel)
}

func (a *Arena) handleJoin(req JoinRequest) {
	playerID := fmt.Sprintf("P%d", a.nextPlayerNum.Add(1))

	spawn, _ := a.cats.Zones.HubSpawn()
	pos := Vec3{X: spawn.X, Y: spawn.Y, Z: spawn.Z}
	a.host.SpawnPlayer(playerID, pos, 0)

	if req.Out != nil {
		a.clients[playerID] = &clientState{Out: req.Out}
	}
	a.proximity.RegisterPlayer(playerID)

	name := req.Name
	if name == "" {
		name = "player"
	}
	a.logger.Printf("join: %s (%s)", playerID, name)

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        playerID,
		TickRateHz:      a.cfg.TickRateHz,
		Spawn:           [3]float64{pos.X, pos.Y, pos.Z},
		Catalogs: protocol.CatalogDigests{
			ZonesDigest:       a.cats.Zones.Digest,
			SportsDigest:      a.cats.Sports.Digest,
			ProgressionDigest: a.cats.Progression.Digest,
		},
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: welcome}
	}
}

func (a *Arena) handleLeave(playerID string) {
	a.sessions.CancelChallenge(playerID)
	a.balls.CleanupPlayer(playerID)
	a.proximity.CleanupPlayer(playerID)
	a.ledger.CleanupPlayer(playerID)
	a.host.RemovePlayer(playerID)
	delete(a.clients, playerID)
	a.logger.Printf("leave: %s", playerID)
}

// onSessionEnd forwards reward totals from the single end-event trigger to
// the progression ledger and the optional results index.
func (a *Arena) onSessionEnd(s *Session, xp, coins int, reason protocol.EndReason) {
	a.ledger.Apply(s.PlayerID, xp, coins)

	if a.results != nil {
		a.results.RecordResult(ResultRow{
			Tick:        a.tick.Load(),
			SessionID:   s.ID,
			PlayerID:    s.PlayerID,
			Sport:       s.Sport,
			ChallengeID: s.ChallengeID,
			FinalScore:  s.Score,
			Hits:        s.Hits,
			XPEarned:    xp,
			CoinsEarned: coins,
			Reason:      string(reason),
		})
	}
}

func (a *Arena) playerPosition(playerID string) (Vec3, bool) {
	pos, _, ok := a.host.PlayerTransform(playerID)
	return pos, ok
}

// sendEvent delivers one event to a player's client and tees it into the
// event log. A slow client drops events rather than stalling the loop.
func (a *Arena) sendEvent(playerID string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		a.logger.Printf("marshal event: %v", err)
		return
	}

	if a.eventLog != nil {
		base, _ := protocol.DecodeBase(b)
		if err := a.eventLog.WriteEvent(EventLogEntry{
			Tick:     a.tick.Load(),
			PlayerID: playerID,
			Type:     base.Type,
			Payload:  json.RawMessage(b),
		}); err != nil {
			a.logger.Printf("event log: %v", err)
		}
	}

	c := a.clients[playerID]
	if c == nil {
		return
	}
	select {
	case c.Out <- b:
	default:
		a.logger.Printf("drop event for %s: outbox full", playerID)
	}
}

func (a *Arena) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	for id, c := range a.clients {
		select {
		case c.Out <- b:
		default:
			a.logger.Printf("drop broadcast for %s: outbox full", id)
		}
	}
}

// loopScheduler runs timer callbacks on the arena loop goroutine so they
// never race with intent handling or ticks.
type loopScheduler struct{ a *Arena }

func (s loopScheduler) After(d time.Duration, f func()) (cancel func()) {
	t := time.AfterFunc(d, func() {
		select {
		case s.a.calls <- f:
		case <-s.a.stop:
		}
	})
	return func() { t.Stop() }
}
