package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Zones       ZoneCatalog
	Sports      SportCatalog
	Progression ProgressionCatalog
}

type ZoneCatalog struct {
	Zones  []ZoneDef
	Digest string
}

type ZoneDef struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"` // "hub" or a district type
	SpawnPoint   *Point     `json:"spawnPoint,omitempty"`
	SportsFields []FieldDef `json:"sportsFields,omitempty"`
}

type FieldDef struct {
	ID     string `json:"id"`
	Sport  string `json:"sport"`
	Mode   string `json:"mode,omitempty"` // defaults to "challenge"
	Center Point  `json:"center"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type SportCatalog struct {
	Sports map[string]SportDef
	Digest string
}

type SportDef struct {
	Challenges []ChallengeDef `json:"challenges"`
}

type ChallengeDef struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	DurationSeconds int    `json:"durationSeconds"`
	XPPerHit        int    `json:"xpPerHit,omitempty"`
	CoinsPerHit     int    `json:"coinsPerHit,omitempty"`
	BonusXPOnFinish int    `json:"bonusXpOnFinish,omitempty"`
}

type ProgressionCatalog struct {
	Ranks  []RankDef
	Digest string
}

type RankDef struct {
	ID    string `json:"id"`
	MinXP int    `json:"minXp"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadZones(filepath.Join(configDir, "zones.json"), &c.Zones); err != nil {
		return nil, err
	}
	if err := loadSports(filepath.Join(configDir, "sports.json"), &c.Sports); err != nil {
		return nil, err
	}
	if err := loadProgression(filepath.Join(configDir, "progression.json"), &c.Progression); err != nil {
		return nil, err
	}

	return &c, nil
}

// Challenge looks up a challenge definition in the per-sport catalog.
func (c SportCatalog) Challenge(sport, challengeID string) (ChallengeDef, bool) {
	s, ok := c.Sports[sport]
	if !ok {
		return ChallengeDef{}, false
	}
	for _, ch := range s.Challenges {
		if ch.ID == challengeID {
			return ch, true
		}
	}
	return ChallengeDef{}, false
}

// HubSpawn returns the spawn point of the first hub zone.
func (c ZoneCatalog) HubSpawn() (Point, bool) {
	for _, z := range c.Zones {
		if z.Type == "hub" && z.SpawnPoint != nil {
			return *z.SpawnPoint, true
		}
	}
	return Point{}, false
}

// RankForXP returns the highest rank whose threshold the xp total meets.
// Ranks are kept sorted ascending by MinXP at load time.
func (p ProgressionCatalog) RankForXP(xp int) string {
	if len(p.Ranks) == 0 {
		return ""
	}
	cur := p.Ranks[0].ID
	for _, r := range p.Ranks {
		if xp >= r.MinXP {
			cur = r.ID
		} else {
			break
		}
	}
	return cur
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadZones(path string, out *ZoneCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var doc struct {
		Zones []ZoneDef `json:"zones"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("zones.json: %w", err)
	}

	seen := map[string]struct{}{}
	for i := range doc.Zones {
		z := &doc.Zones[i]
		if z.ID == "" {
			return fmt.Errorf("zones.json: empty zone id")
		}
		for j := range z.SportsFields {
			f := &z.SportsFields[j]
			if f.ID == "" {
				return fmt.Errorf("zones.json: zone %s: empty field id", z.ID)
			}
			if f.Sport == "" {
				return fmt.Errorf("zones.json: field %s: empty sport", f.ID)
			}
			if _, dup := seen[f.ID]; dup {
				return fmt.Errorf("zones.json: duplicate field id %s", f.ID)
			}
			seen[f.ID] = struct{}{}
			if f.Mode == "" {
				f.Mode = "challenge"
			}
		}
	}
	out.Zones = doc.Zones
	return nil
}

func loadSports(path string, out *SportCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var doc struct {
		Sports map[string]SportDef `json:"sports"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("sports.json: %w", err)
	}
	for sport, s := range doc.Sports {
		for _, ch := range s.Challenges {
			if ch.ID == "" {
				return fmt.Errorf("sports.json: %s: empty challenge id", sport)
			}
			if ch.DurationSeconds <= 0 {
				return fmt.Errorf("sports.json: %s/%s: duration must be positive", sport, ch.ID)
			}
		}
	}
	out.Sports = doc.Sports
	return nil
}

func loadProgression(path string, out *ProgressionCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// The ledger works without ranks; rewards still accumulate.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	out.Digest = sha256Hex(raw)

	var doc struct {
		Ranks []RankDef `json:"ranks"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("progression.json: %w", err)
	}
	for _, r := range doc.Ranks {
		if r.ID == "" {
			return fmt.Errorf("progression.json: empty rank id")
		}
	}
	sort.SliceStable(doc.Ranks, func(i, j int) bool { return doc.Ranks[i].MinXP < doc.Ranks[j].MinXP })
	out.Ranks = doc.Ranks
	return nil
}
