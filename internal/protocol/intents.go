package protocol

// hello (client -> server): first message on a fresh connection.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocolVersion"`
	PlayerName      string `json:"playerName"`
}

// playerMove (client -> server): host transform passthrough. The sim never
// validates movement; it only needs a live position/facing for proximity
// checks and ball spawning.
type PlayerMoveMsg struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Yaw  float64 `json:"yaw"`
}

// uiRequestStartChallenge (client -> server)
type StartChallengeMsg struct {
	Type        string `json:"type"`
	Sport       string `json:"sport"`
	ChallengeID string `json:"challengeId"`
}

// uiCancelChallenge (client -> server)
type CancelChallengeMsg struct {
	Type string `json:"type"`
}

// basketballShotAttempt (client -> server)
type ShotAttemptMsg struct {
	Type               string   `json:"type"`
	ChallengeSessionID string   `json:"challengeSessionId"`
	ShotType           ShotType `json:"shotType"`
	Timing             float64  `json:"timing"`    // 0-1, 1 = perfect release
	AimOffset          float64  `json:"aimOffset"` // 0-1, 0 = perfect aim
	Contested          bool     `json:"contested,omitempty"`
}

// uiEmote (client -> server)
type EmoteMsg struct {
	Type    string `json:"type"`
	EmoteID string `json:"emoteId"`
}

// uiQuickChat (client -> server)
type QuickChatMsg struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}
