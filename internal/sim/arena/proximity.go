package arena

import (
	"sort"

	"pregame.city/internal/protocol"
	"pregame.city/internal/sim/catalogs"
)

// TriggerRadius is the fixed planar radius of every field trigger zone.
const TriggerRadius = 15.0

// Trigger is a static circular zone around a sport field. Immutable after
// SetupTriggers.
type Trigger struct {
	FieldID string
	Sport   string
	Mode    string
	Pos     Vec3
	Radius  float64
}

// ProximityTracker owns the per-player "current field" state and emits
// enter/exit events only on transitions.
type ProximityTracker struct {
	triggers []Trigger
	players  map[string]struct{}
	current  map[string]string // playerID -> fieldID

	position func(playerID string) (Vec3, bool)
	send     func(playerID string, v any)
}

func NewProximityTracker(position func(string) (Vec3, bool), send func(string, any)) *ProximityTracker {
	return &ProximityTracker{
		players:  map[string]struct{}{},
		current:  map[string]string{},
		position: position,
		send:     send,
	}
}

// SetupTriggers builds the immutable trigger list from the zone catalog.
// Every sport field of every non-hub zone becomes one trigger. Triggers are
// kept sorted by field id so that exact-distance ties resolve to the lowest
// field id regardless of config order.
func (t *ProximityTracker) SetupTriggers(zones catalogs.ZoneCatalog) {
	t.triggers = t.triggers[:0]
	for _, z := range zones.Zones {
		if z.Type == "hub" {
			continue
		}
		for _, f := range z.SportsFields {
			t.triggers = append(t.triggers, Trigger{
				FieldID: f.ID,
				Sport:   f.Sport,
				Mode:    f.Mode,
				Pos:     Vec3{X: f.Center.X, Y: f.Center.Y, Z: f.Center.Z},
				Radius:  TriggerRadius,
			})
		}
	}
	sort.Slice(t.triggers, func(i, j int) bool { return t.triggers[i].FieldID < t.triggers[j].FieldID })
}

func (t *ProximityTracker) RegisterPlayer(playerID string) {
	t.players[playerID] = struct{}{}
}

func (t *ProximityTracker) UnregisterPlayer(playerID string) {
	delete(t.players, playerID)
	delete(t.current, playerID)
}

func (t *ProximityTracker) CleanupPlayer(playerID string) {
	t.UnregisterPlayer(playerID)
}

// CurrentField reports the field a player was last assigned to, if any.
func (t *ProximityTracker) CurrentField(playerID string) (string, bool) {
	id, ok := t.current[playerID]
	return id, ok
}

func (t *ProximityTracker) TriggerCount() int { return len(t.triggers) }

// Update re-evaluates every registered player against every trigger and
// emits exactly one event per transition. Players with no resolvable
// position are skipped, keeping whatever field they had.
func (t *ProximityTracker) Update() {
	for playerID := range t.players {
		pos, ok := t.position(playerID)
		if !ok {
			continue
		}

		var nearest *Trigger
		nearestDist := 0.0
		for i := range t.triggers {
			tr := &t.triggers[i]
			d := PlanarDist(pos, tr.Pos)
			if d < tr.Radius && (nearest == nil || d < nearestDist) {
				nearest = tr
				nearestDist = d
			}
		}

		cur, had := t.current[playerID]
		switch {
		case nearest != nil && cur != nearest.FieldID:
			t.current[playerID] = nearest.FieldID
			t.send(playerID, protocol.EnteredFieldMsg{
				Type:    protocol.TypeEnteredField,
				FieldID: nearest.FieldID,
				Sport:   nearest.Sport,
				Mode:    nearest.Mode,
			})
		case nearest == nil && had:
			delete(t.current, playerID)
			t.send(playerID, protocol.ExitedFieldMsg{Type: protocol.TypeExitedField})
		}
	}
}
