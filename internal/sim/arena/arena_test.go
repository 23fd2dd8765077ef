package arena

import (
	"encoding/json"
	"testing"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/tuning"
)

type fakeResults struct {
	rows []ResultRow
}

func (f *fakeResults) RecordResult(r ResultRow) { f.rows = append(f.rows, r) }

type fakeEventLog struct {
	entries []EventLogEntry
}

func (f *fakeEventLog) WriteEvent(e EventLogEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func newTestArena(t *testing.T) (*Arena, *fakeHost) {
	t.Helper()
	host := newFakeHost()
	a := New(Config{ID: "city1"}, testCatalogs(), tuning.Defaults(), host, discardLogger())
	return a, host
}

func joinPlayer(t *testing.T, a *Arena) (string, chan []byte) {
	t.Helper()
	out := make(chan []byte, 64)
	resp := make(chan JoinResponse, 1)
	a.handleJoin(JoinRequest{Name: "tester", Out: out, Resp: resp})
	w := <-resp
	return w.Welcome.PlayerID, out
}

// drain empties the outbox and returns the decoded message types in order.
func drain(out chan []byte) []string {
	var types []string
	for {
		select {
		case b := <-out:
			base, err := protocol.DecodeBase(b)
			if err == nil {
				types = append(types, base.Type)
			}
		default:
			return types
		}
	}
}

func TestArenaJoinWelcome(t *testing.T) {
	a, host := newTestArena(t)

	out := make(chan []byte, 64)
	resp := make(chan JoinResponse, 1)
	a.handleJoin(JoinRequest{Name: "tester", Out: out, Resp: resp})
	w := (<-resp).Welcome

	if w.Type != protocol.TypeWelcome || w.ProtocolVersion != protocol.Version {
		t.Fatalf("welcome header = %q %q", w.Type, w.ProtocolVersion)
	}
	if w.PlayerID != "P1" {
		t.Fatalf("player id = %q, want P1", w.PlayerID)
	}
	if w.TickRateHz != 20 {
		t.Fatalf("tick rate = %d, want 20", w.TickRateHz)
	}
	if w.Spawn != [3]float64{0, 1, 0} {
		t.Fatalf("spawn = %v, want hub spawn", w.Spawn)
	}
	if w.Catalogs.ZonesDigest != "zones-test" || w.Catalogs.SportsDigest != "sports-test" {
		t.Fatalf("catalog digests = %+v", w.Catalogs)
	}

	if _, _, ok := host.PlayerTransform("P1"); !ok {
		t.Fatalf("join should spawn the player entity")
	}

	// A second join gets a distinct id.
	resp2 := make(chan JoinResponse, 1)
	a.handleJoin(JoinRequest{Name: "other", Out: make(chan []byte, 64), Resp: resp2})
	if id := (<-resp2).Welcome.PlayerID; id != "P2" {
		t.Fatalf("second player id = %q, want P2", id)
	}
}

func TestArenaChallengeLifecycle(t *testing.T) {
	a, _ := newTestArena(t)
	results := &fakeResults{}
	a.SetResultsIndex(results)
	a.SetShotResolver(NewShotResolver(func() float64 { return 0 }))

	playerID, out := joinPlayer(t, a)

	a.HandleIntent(playerID, []byte(`{"type":"uiRequestStartChallenge","sport":"basketball","challengeId":"free_shoot_60"}`))
	s := a.Sessions().ActiveSession(playerID)
	if s == nil {
		t.Fatalf("no active session after start intent")
	}

	raw := []byte(`{"type":"basketballShotAttempt","challengeSessionId":"` + s.ID + `","shotType":"three","timing":1.0,"aimOffset":0.0,"contested":false}`)
	a.HandleIntent(playerID, raw)
	if s.Score != 3 {
		t.Fatalf("score = %d, want 3", s.Score)
	}

	// Run the timer out: one big step completes the session.
	a.StepOnce(60)
	if a.Sessions().ActiveSession(playerID) != nil {
		t.Fatalf("session should have completed")
	}

	types := drain(out)
	var sawStarted, sawResult, sawEnded, sawXP, sawCoins bool
	for _, ty := range types {
		switch ty {
		case protocol.TypeChallengeStarted:
			sawStarted = true
		case protocol.TypeBasketballShotResult:
			sawResult = true
		case protocol.TypeChallengeEnded:
			sawEnded = true
		case protocol.TypeXpUpdated:
			sawXP = true
		case protocol.TypeCoinsUpdated:
			sawCoins = true
		}
	}
	if !sawStarted || !sawResult || !sawEnded || !sawXP || !sawCoins {
		t.Fatalf("event stream %v missing lifecycle events", types)
	}

	// 1 hit * 10 xp + 25 bonus, 1 hit * 5 coins.
	p := a.Ledger().Progress(playerID)
	if p.XP != 35 || p.Coins != 5 {
		t.Fatalf("progress = %+v, want 35 xp / 5 coins", p)
	}

	if len(results.rows) != 1 {
		t.Fatalf("got %d result rows, want 1", len(results.rows))
	}
	row := results.rows[0]
	if row.SessionID != s.ID || row.FinalScore != 3 || row.Hits != 1 || row.XPEarned != 35 || row.Reason != "completed" {
		t.Fatalf("result row = %+v", row)
	}
}

func TestArenaEventLogTee(t *testing.T) {
	a, _ := newTestArena(t)
	logSink := &fakeEventLog{}
	a.SetEventLogger(logSink)

	playerID, _ := joinPlayer(t, a)
	a.HandleIntent(playerID, []byte(`{"type":"uiRequestStartChallenge","sport":"basketball","challengeId":"free_shoot_60"}`))

	if len(logSink.entries) == 0 {
		t.Fatalf("events should tee into the event log")
	}
	e := logSink.entries[len(logSink.entries)-1]
	if e.Type != protocol.TypeChallengeStarted || e.PlayerID != playerID {
		t.Fatalf("log entry = %+v", e)
	}
	var started protocol.ChallengeStartedMsg
	if err := json.Unmarshal(e.Payload, &started); err != nil {
		t.Fatalf("log payload: %v", err)
	}
	if started.ChallengeID != "free_shoot_60" {
		t.Fatalf("logged challenge id = %q", started.ChallengeID)
	}
}

func TestArenaLeaveCleansUp(t *testing.T) {
	a, host := newTestArena(t)
	playerID, out := joinPlayer(t, a)

	a.HandleIntent(playerID, []byte(`{"type":"uiRequestStartChallenge","sport":"basketball","challengeId":"free_shoot_60"}`))
	a.handleLeave(playerID)

	if a.Sessions().Len() != 0 {
		t.Fatalf("leave should cancel the session")
	}
	if _, _, ok := host.PlayerTransform(playerID); ok {
		t.Fatalf("leave should remove the player entity")
	}

	// The cancel end event was emitted before the outbox was dropped.
	types := drain(out)
	found := false
	for _, ty := range types {
		if ty == protocol.TypeChallengeEnded {
			found = true
		}
	}
	if !found {
		t.Fatalf("event stream %v missing challengeEnded", types)
	}
}

func TestArenaTickAdvancesProximity(t *testing.T) {
	a, _ := newTestArena(t)
	playerID, out := joinPlayer(t, a)
	drain(out)

	// Move onto court_a and tick.
	a.HandleIntent(playerID, []byte(`{"type":"playerMove","x":60,"y":0,"z":25,"yaw":0}`))
	a.StepOnce(0.05)

	if cur, _ := a.Proximity().CurrentField(playerID); cur != "court_a" {
		t.Fatalf("current field = %q, want court_a", cur)
	}
	types := drain(out)
	if len(types) != 1 || types[0] != protocol.TypeEnteredField {
		t.Fatalf("event stream = %v, want a single enter event", types)
	}
}
