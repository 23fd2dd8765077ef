package arena

import "pregame.city/internal/protocol"

// Shot resolution rules. The base make chance and point value come from the
// attempted shot type; timing, aim, contest pressure and player accuracy
// scale it before a single uniform draw decides the outcome.
const (
	layupChance    = 0.85
	midrangeChance = 0.65
	threeChance    = 0.45
	unknownChance  = 0.5

	chanceFloor = 0.05
	chanceCeil  = 0.95
)

type ShotInput struct {
	ShotType  protocol.ShotType
	Timing    float64 // 0-1, 1 = perfect release
	AimOffset float64 // 0-1, 0 = perfect aim
	Contested bool
}

type ShotResult struct {
	Made   bool
	Points int
	Reason protocol.ShotReason
}

type PlayerStats struct {
	Accuracy float64 // 0-1
	Stamina  float64
	Power    float64
	Speed    float64
}

// ShotResolver turns a timed input into a made/miss outcome. It holds no
// state; only the injected draw source varies between calls.
type ShotResolver struct {
	draw func() float64 // uniform in [0,1)
}

func NewShotResolver(draw func() float64) *ShotResolver {
	return &ShotResolver{draw: draw}
}

func (r *ShotResolver) Resolve(in ShotInput, stats PlayerStats) ShotResult {
	chance, basePoints, reason := ShotChance(in, stats)

	made := r.draw() <= chance
	if !made && in.Contested {
		reason = protocol.ReasonContestedMiss
	}

	points := 0
	if made {
		points = basePoints
	}
	return ShotResult{Made: made, Points: points, Reason: reason}
}

// ShotChance computes the clamped make chance, the point value of the shot,
// and the reason that applies when the outcome is not a contested miss.
// Exposed separately so the deterministic part is testable without a draw.
func ShotChance(in ShotInput, stats PlayerStats) (chance float64, basePoints int, reason protocol.ShotReason) {
	var base float64
	switch in.ShotType {
	case protocol.ShotLayup:
		base, basePoints = layupChance, 2
	case protocol.ShotMidrange:
		base, basePoints = midrangeChance, 2
	case protocol.ShotThree:
		base, basePoints = threeChance, 3
	default:
		base, basePoints = unknownChance, 2
	}

	timingDelta := in.Timing - 1
	if timingDelta < 0 {
		timingDelta = -timingDelta
	}
	var timingMod float64
	timingReason := protocol.ReasonOkay
	switch {
	case timingDelta <= 0.05:
		timingMod, timingReason = 1.2, protocol.ReasonPerfect
	case timingDelta <= 0.15:
		timingMod, timingReason = 1.0, protocol.ReasonGood
	case timingDelta <= 0.3:
		timingMod, timingReason = 0.8, protocol.ReasonOkay
	default:
		timingMod, timingReason = 0.5, protocol.ReasonBadTiming
	}

	var aimMod float64
	var aimReason protocol.ShotReason
	switch {
	case in.AimOffset <= 0.1:
		aimMod = 1.1
	case in.AimOffset <= 0.3:
		aimMod = 1.0
	case in.AimOffset <= 0.5:
		aimMod, aimReason = 0.8, protocol.ReasonBadAim
	default:
		aimMod, aimReason = 0.5, protocol.ReasonBadAim
	}

	contestMod := 1.0
	if in.Contested {
		contestMod = 0.7
	}
	statMod := 0.9 + stats.Accuracy*0.2

	chance = base * timingMod * aimMod * contestMod * statMod
	if chance < chanceFloor {
		chance = chanceFloor
	}
	if chance > chanceCeil {
		chance = chanceCeil
	}

	// Aim trouble overrides the timing reason.
	reason = timingReason
	if aimReason != "" {
		reason = aimReason
	}
	return chance, basePoints, reason
}
