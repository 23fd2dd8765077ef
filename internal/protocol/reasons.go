package protocol

// ShotType classifies a basketball attempt. Unknown values are accepted on
// the wire; the resolver falls back to a neutral base chance for them.
type ShotType string

const (
	ShotLayup    ShotType = "layup"
	ShotMidrange ShotType = "midrange"
	ShotThree    ShotType = "three"
)

// ShotReason explains a shot outcome to the client.
type ShotReason string

const (
	ReasonPerfect       ShotReason = "perfect"
	ReasonGood          ShotReason = "good"
	ReasonOkay          ShotReason = "okay"
	ReasonBadTiming     ShotReason = "bad_timing"
	ReasonBadAim        ShotReason = "bad_aim"
	ReasonContestedMiss ShotReason = "contested_miss"
)

// EndReason says why a challenge session ended.
type EndReason string

const (
	EndCompleted EndReason = "completed"
	EndCancelled EndReason = "cancelled"
	EndReplaced  EndReason = "replaced"
)

var knownShotTypes = map[ShotType]struct{}{
	ShotLayup:    {},
	ShotMidrange: {},
	ShotThree:    {},
}

var knownShotReasons = map[ShotReason]struct{}{
	ReasonPerfect:       {},
	ReasonGood:          {},
	ReasonOkay:          {},
	ReasonBadTiming:     {},
	ReasonBadAim:        {},
	ReasonContestedMiss: {},
}

var knownEndReasons = map[EndReason]struct{}{
	EndCompleted: {},
	EndCancelled: {},
	EndReplaced:  {},
}

func IsKnownShotType(t ShotType) bool {
	_, ok := knownShotTypes[t]
	return ok
}

func IsKnownShotReason(r ShotReason) bool {
	_, ok := knownShotReasons[r]
	return ok
}

func IsKnownEndReason(r EndReason) bool {
	_, ok := knownEndReasons[r]
	return ok
}
