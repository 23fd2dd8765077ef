// Package ws bridges websocket clients to the arena loop: a hello/welcome
// handshake, then a reader loop feeding the inbox and a writer goroutine
// draining the per-player outbox.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/arena"
)

// Every intent the reader forwards. Anything else from the wire is dropped
// before it reaches the sim.
var forwardedIntents = map[string]struct{}{
	protocol.TypePlayerMove:            {},
	protocol.TypeRequestStartChallenge: {},
	protocol.TypeCancelChallenge:       {},
	protocol.TypeBasketballShotAttempt: {},
	protocol.TypeEmote:                 {},
	protocol.TypeQuickChat:             {},
}

type Server struct {
	arena *arena.Arena
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(a *arena.Arena, logger *log.Logger) *Server {
	return &Server{
		arena: a,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if _, ok := forwardedIntents[base.Type]; !ok {
				continue
			}
			s.arena.Inbox() <- arena.IntentEnvelope{PlayerID: playerID, Raw: msg}
		}

		// Cleanup.
		s.arena.Leave() <- playerID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected hello"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocolVersion"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.PlayerName == "" {
		hello.PlayerName = "player"
	}

	// Sized for a full challenge lifecycle burst plus proximity churn.
	out = make(chan []byte, 256)

	respCh := make(chan arena.JoinResponse, 1)
	s.arena.Join() <- arena.JoinRequest{
		Name: hello.PlayerName,
		Out:  out,
		Resp: respCh,
	}
	resp := <-respCh

	if err := writeJSON(conn, resp.Welcome); err != nil {
		// The player is already joined; undo it or it stays in the arena
		// with no reader loop to ever remove it.
		s.arena.Leave() <- resp.Welcome.PlayerID
		return "", nil
	}
	return resp.Welcome.PlayerID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
