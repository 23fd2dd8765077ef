package arena

import (
	"fmt"
	"strings"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/catalogs"
)

// PlayerProgress is the per-player reward bookkeeping: xp, coins and the
// rank derived from the progression catalog.
type PlayerProgress struct {
	XP    int
	Coins int
	Rank  string
}

// Ledger applies challenge rewards. The challengeEnded hook is its single
// entry point for earning; nothing else mutates xp or coins.
type Ledger struct {
	ranks catalogs.ProgressionCatalog
	send  func(playerID string, v any)

	players map[string]*PlayerProgress
}

func NewLedger(ranks catalogs.ProgressionCatalog, send func(string, any)) *Ledger {
	return &Ledger{
		ranks:   ranks,
		send:    send,
		players: map[string]*PlayerProgress{},
	}
}

func (l *Ledger) progress(playerID string) *PlayerProgress {
	p := l.players[playerID]
	if p == nil {
		p = &PlayerProgress{Rank: l.ranks.RankForXP(0)}
		l.players[playerID] = p
	}
	return p
}

// Progress returns a copy of the player's current totals.
func (l *Ledger) Progress(playerID string) PlayerProgress {
	return *l.progress(playerID)
}

// Apply credits earned xp and coins, recomputes rank, and pushes the
// updated totals to the player. A rank change also produces a notification.
func (l *Ledger) Apply(playerID string, xp, coins int) {
	if xp <= 0 && coins <= 0 {
		return
	}
	p := l.progress(playerID)
	oldRank := p.Rank

	p.XP += xp
	p.Coins += coins
	p.Rank = l.ranks.RankForXP(p.XP)

	l.send(playerID, protocol.XpUpdatedMsg{Type: protocol.TypeXpUpdated, XP: p.XP, Rank: p.Rank})
	l.send(playerID, protocol.CoinsUpdatedMsg{Type: protocol.TypeCoinsUpdated, Coins: p.Coins})

	if p.Rank != oldRank {
		l.send(playerID, protocol.NotificationMsg{
			Type:     protocol.TypeNotification,
			Category: "xp",
			Message:  fmt.Sprintf("Rank Up! You are now %s!", strings.ToUpper(p.Rank)),
		})
	}
}

// Stats exposes the resolver-facing player stats. Attribute growth is not
// modelled yet; every player shoots with full accuracy.
func (l *Ledger) Stats(playerID string) PlayerStats {
	return PlayerStats{Accuracy: 1, Stamina: 1, Power: 1, Speed: 1}
}

// CleanupPlayer drops the player's totals on disconnect.
func (l *Ledger) CleanupPlayer(playerID string) {
	delete(l.players, playerID)
}
