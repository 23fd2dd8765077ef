package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func writeValidConfigs(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "zones.json", `{
		"zones": [
			{"id": "hub", "type": "hub", "spawnPoint": {"x": 0, "y": 1, "z": 0}},
			{"id": "bball", "type": "district", "sportsFields": [
				{"id": "court_a", "sport": "basketball", "center": {"x": 60, "y": 0, "z": 20}}
			]}
		]
	}`)
	writeFile(t, dir, "sports.json", `{
		"sports": {
			"basketball": {"challenges": [
				{"id": "free_shoot_60", "displayName": "Free Shoot", "durationSeconds": 60, "xpPerHit": 10}
			]}
		}
	}`)
	writeFile(t, dir, "progression.json", `{
		"ranks": [
			{"id": "starter", "minXp": 300},
			{"id": "rookie", "minXp": 0},
			{"id": "prospect", "minXp": 100}
		]
	}`)
}

func TestLoadValidCatalogs(t *testing.T) {
	dir := t.TempDir()
	writeValidConfigs(t, dir)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Zones.Digest == "" || c.Sports.Digest == "" || c.Progression.Digest == "" {
		t.Fatalf("digests should be populated: %+v", c)
	}

	spawn, ok := c.Zones.HubSpawn()
	if !ok || spawn.Y != 1 {
		t.Fatalf("hub spawn = %+v %v", spawn, ok)
	}

	// Field mode defaults when omitted.
	if got := c.Zones.Zones[1].SportsFields[0].Mode; got != "challenge" {
		t.Fatalf("default mode = %q, want challenge", got)
	}

	ch, ok := c.Sports.Challenge("basketball", "free_shoot_60")
	if !ok || ch.DurationSeconds != 60 || ch.XPPerHit != 10 {
		t.Fatalf("challenge lookup = %+v %v", ch, ok)
	}
	if _, ok := c.Sports.Challenge("basketball", "nope"); ok {
		t.Fatalf("unknown challenge should not resolve")
	}
	if _, ok := c.Sports.Challenge("cricket", "free_shoot_60"); ok {
		t.Fatalf("unknown sport should not resolve")
	}

	// Ranks are sorted ascending at load time regardless of file order.
	if c.Progression.Ranks[0].ID != "rookie" || c.Progression.Ranks[2].ID != "starter" {
		t.Fatalf("ranks not sorted: %+v", c.Progression.Ranks)
	}
}

func TestLoadMissingProgressionIsOptional(t *testing.T) {
	dir := t.TempDir()
	writeValidConfigs(t, dir)
	if err := os.Remove(filepath.Join(dir, "progression.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load without progression.json: %v", err)
	}
	if len(c.Progression.Ranks) != 0 || c.Progression.Digest == "" {
		t.Fatalf("empty progression = %+v", c.Progression)
	}
	if got := c.Progression.RankForXP(500); got != "" {
		t.Fatalf("rank without ranks = %q, want empty", got)
	}
}

func TestLoadRejectsDuplicateFieldIDs(t *testing.T) {
	dir := t.TempDir()
	writeValidConfigs(t, dir)
	writeFile(t, dir, "zones.json", `{
		"zones": [
			{"id": "a", "type": "district", "sportsFields": [
				{"id": "court", "sport": "basketball", "center": {"x": 0, "y": 0, "z": 0}}
			]},
			{"id": "b", "type": "district", "sportsFields": [
				{"id": "court", "sport": "soccer", "center": {"x": 9, "y": 0, "z": 9}}
			]}
		]
	}`)

	if _, err := Load(dir); err == nil {
		t.Fatalf("duplicate field ids should fail to load")
	}
}

func TestLoadRejectsNonPositiveDuration(t *testing.T) {
	dir := t.TempDir()
	writeValidConfigs(t, dir)
	writeFile(t, dir, "sports.json", `{
		"sports": {"basketball": {"challenges": [
			{"id": "bad", "displayName": "Bad", "durationSeconds": 0}
		]}}
	}`)

	if _, err := Load(dir); err == nil {
		t.Fatalf("zero duration should fail to load")
	}
}

func TestRankForXPThresholds(t *testing.T) {
	p := ProgressionCatalog{Ranks: []RankDef{
		{ID: "rookie", MinXP: 0},
		{ID: "prospect", MinXP: 100},
		{ID: "starter", MinXP: 300},
	}}

	cases := []struct {
		xp   int
		want string
	}{
		{0, "rookie"},
		{99, "rookie"},
		{100, "prospect"},
		{299, "prospect"},
		{300, "starter"},
		{9999, "starter"},
	}
	for _, tc := range cases {
		if got := p.RankForXP(tc.xp); got != tc.want {
			t.Fatalf("RankForXP(%d) = %q, want %q", tc.xp, got, tc.want)
		}
	}
}

func TestRepoConfigsLoad(t *testing.T) {
	root := findRepoRoot(t)
	c, err := Load(filepath.Join(root, "configs"))
	if err != nil {
		t.Fatalf("load repo configs: %v", err)
	}
	if _, ok := c.Zones.HubSpawn(); !ok {
		t.Fatalf("repo zones.json should define a hub spawn")
	}
	if _, ok := c.Sports.Challenge("basketball", "free_shoot_60"); !ok {
		t.Fatalf("repo sports.json should define free_shoot_60")
	}
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}
