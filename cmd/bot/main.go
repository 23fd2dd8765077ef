// A small scripted client: joins, walks to a basketball court, starts a
// challenge and shoots until the session ends. Useful for smoke-testing a
// running server.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"pregame.city/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "player name")
		sport = flag.String("sport", "basketball", "sport to play")
		chal  = flag.String("challenge", "free_shoot_60", "challenge id")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send hello: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sessionID := ""

	for {
		select {
		case <-stop:
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("welcome player_id=%s tick_rate=%d", w.PlayerID, w.TickRateHz)

			// Walk onto a court, then ask for the challenge.
			move := protocol.PlayerMoveMsg{Type: protocol.TypePlayerMove, X: 60, Y: 0, Z: 22}
			_ = conn.WriteJSON(move)
			start := protocol.StartChallengeMsg{Type: protocol.TypeRequestStartChallenge, Sport: *sport, ChallengeID: *chal}
			_ = conn.WriteJSON(start)

		case protocol.TypeEnteredField:
			var e protocol.EnteredFieldMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("entered field=%s sport=%s", e.FieldID, e.Sport)

		case protocol.TypeChallengeStarted:
			var s protocol.ChallengeStartedMsg
			if err := json.Unmarshal(msg, &s); err != nil {
				continue
			}
			sessionID = s.ChallengeSessionID
			logger.Printf("challenge started session=%s duration=%ds", s.ChallengeSessionID, s.DurationSeconds)
			shoot(conn, rng, sessionID)

		case protocol.TypeBasketballShotResult:
			var res protocol.ShotResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			logger.Printf("shot made=%v points=%d reason=%s", res.Made, res.Points, res.Reason)
			if sessionID != "" {
				// Pace the next attempt roughly like a human shooter.
				time.Sleep(time.Duration(500+rng.Intn(1500)) * time.Millisecond)
				shoot(conn, rng, sessionID)
			}

		case protocol.TypeChallengeEnded:
			var e protocol.ChallengeEndedMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			sessionID = ""
			logger.Printf("challenge ended score=%d xp=%d coins=%d reason=%s", e.FinalScore, e.XPEarned, e.CoinsEarned, e.Reason)
			return

		case protocol.TypeXpUpdated:
			var x protocol.XpUpdatedMsg
			if err := json.Unmarshal(msg, &x); err != nil {
				continue
			}
			logger.Printf("xp=%d rank=%s", x.XP, x.Rank)
		}
	}
}

func shoot(conn *websocket.Conn, rng *rand.Rand, sessionID string) {
	types := []protocol.ShotType{protocol.ShotLayup, protocol.ShotMidrange, protocol.ShotThree}
	attempt := protocol.ShotAttemptMsg{
		Type:               protocol.TypeBasketballShotAttempt,
		ChallengeSessionID: sessionID,
		ShotType:           types[rng.Intn(len(types))],
		Timing:             0.7 + rng.Float64()*0.3,
		AimOffset:          rng.Float64() * 0.4,
		Contested:          rng.Intn(4) == 0,
	}
	_ = conn.WriteJSON(attempt)
}
