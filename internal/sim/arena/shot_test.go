package arena

import (
	"math"
	"testing"

	"pregame.city/internal/protocol"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestShotChancePerfectLayupClampsAtCeiling(t *testing.T) {
	in := ShotInput{ShotType: protocol.ShotLayup, Timing: 1.0, AimOffset: 0, Contested: false}
	chance, points, reason := ShotChance(in, PlayerStats{Accuracy: 1})

	// 0.85 * 1.2 * 1.1 * 1.0 * 1.1 exceeds the ceiling.
	if chance != chanceCeil {
		t.Fatalf("chance = %v, want ceiling %v", chance, chanceCeil)
	}
	if points != 2 {
		t.Fatalf("points = %d, want 2", points)
	}
	if reason != protocol.ReasonPerfect {
		t.Fatalf("reason = %q, want %q", reason, protocol.ReasonPerfect)
	}
}

func TestShotChanceModifiers(t *testing.T) {
	cases := []struct {
		name   string
		in     ShotInput
		stats  PlayerStats
		chance float64
		points int
		reason protocol.ShotReason
	}{
		{
			name:   "good timing midrange",
			in:     ShotInput{ShotType: protocol.ShotMidrange, Timing: 0.9, AimOffset: 0.2},
			stats:  PlayerStats{Accuracy: 0},
			chance: 0.65 * 1.0 * 1.0 * 1.0 * 0.9,
			points: 2,
			reason: protocol.ReasonGood,
		},
		{
			name:   "okay timing three",
			in:     ShotInput{ShotType: protocol.ShotThree, Timing: 0.75, AimOffset: 0.05},
			stats:  PlayerStats{Accuracy: 1},
			chance: 0.45 * 0.8 * 1.1 * 1.0 * 1.1,
			points: 3,
			reason: protocol.ReasonOkay,
		},
		{
			name:   "late release",
			in:     ShotInput{ShotType: protocol.ShotMidrange, Timing: 0.5, AimOffset: 0.2},
			stats:  PlayerStats{Accuracy: 1},
			chance: 0.65 * 0.5 * 1.0 * 1.0 * 1.1,
			points: 2,
			reason: protocol.ReasonBadTiming,
		},
		{
			name:   "wide aim overrides timing reason",
			in:     ShotInput{ShotType: protocol.ShotLayup, Timing: 1.0, AimOffset: 0.45},
			stats:  PlayerStats{Accuracy: 1},
			chance: 0.85 * 1.2 * 0.8 * 1.0 * 1.1,
			points: 2,
			reason: protocol.ReasonBadAim,
		},
		{
			name:   "contest pressure",
			in:     ShotInput{ShotType: protocol.ShotThree, Timing: 1.0, AimOffset: 0.05, Contested: true},
			stats:  PlayerStats{Accuracy: 1},
			chance: 0.45 * 1.2 * 1.1 * 0.7 * 1.1,
			points: 3,
			reason: protocol.ReasonPerfect,
		},
		{
			name:   "unknown shot type falls back",
			in:     ShotInput{ShotType: protocol.ShotType("dunk"), Timing: 0.9, AimOffset: 0.2},
			stats:  PlayerStats{Accuracy: 0},
			chance: 0.5 * 1.0 * 1.0 * 1.0 * 0.9,
			points: 2,
			reason: protocol.ReasonGood,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chance, points, reason := ShotChance(tc.in, tc.stats)
			if !almostEqual(chance, tc.chance) {
				t.Fatalf("chance = %v, want %v", chance, tc.chance)
			}
			if points != tc.points {
				t.Fatalf("points = %d, want %d", points, tc.points)
			}
			if reason != tc.reason {
				t.Fatalf("reason = %q, want %q", reason, tc.reason)
			}
		})
	}
}

func TestResolveMadeAwardsPoints(t *testing.T) {
	r := NewShotResolver(func() float64 { return 0 })
	res := r.Resolve(ShotInput{ShotType: protocol.ShotThree, Timing: 1.0, AimOffset: 0}, PlayerStats{Accuracy: 1})
	if !res.Made {
		t.Fatalf("draw 0 should always make")
	}
	if res.Points != 3 {
		t.Fatalf("points = %d, want 3", res.Points)
	}
	if res.Reason != protocol.ReasonPerfect {
		t.Fatalf("reason = %q, want %q", res.Reason, protocol.ReasonPerfect)
	}
}

func TestResolveMissAwardsNothing(t *testing.T) {
	r := NewShotResolver(func() float64 { return 0.999 })
	res := r.Resolve(ShotInput{ShotType: protocol.ShotLayup, Timing: 1.0, AimOffset: 0}, PlayerStats{Accuracy: 1})
	if res.Made {
		t.Fatalf("draw above ceiling should miss")
	}
	if res.Points != 0 {
		t.Fatalf("points = %d, want 0 on a miss", res.Points)
	}
}

func TestResolveContestedMissReason(t *testing.T) {
	r := NewShotResolver(func() float64 { return 0.999 })
	res := r.Resolve(ShotInput{ShotType: protocol.ShotLayup, Timing: 1.0, AimOffset: 0, Contested: true}, PlayerStats{Accuracy: 1})
	if res.Made {
		t.Fatalf("expected a miss")
	}
	if res.Reason != protocol.ReasonContestedMiss {
		t.Fatalf("reason = %q, want %q", res.Reason, protocol.ReasonContestedMiss)
	}

	// A contested make keeps the quality reason.
	r = NewShotResolver(func() float64 { return 0 })
	res = r.Resolve(ShotInput{ShotType: protocol.ShotLayup, Timing: 1.0, AimOffset: 0, Contested: true}, PlayerStats{Accuracy: 1})
	if !res.Made || res.Reason != protocol.ReasonPerfect {
		t.Fatalf("contested make = %+v, want made with reason perfect", res)
	}
}
