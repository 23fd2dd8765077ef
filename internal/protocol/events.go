package protocol

// welcome (server -> client): reply to hello.
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocolVersion"`
	PlayerID        string         `json:"playerId"`
	TickRateHz      int            `json:"tickRateHz"`
	Spawn           [3]float64     `json:"spawn"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ZonesDigest       string `json:"zonesDigest"`
	SportsDigest      string `json:"sportsDigest"`
	ProgressionDigest string `json:"progressionDigest"`
}

// challengeStarted (server -> client)
type ChallengeStartedMsg struct {
	Type               string `json:"type"`
	ChallengeSessionID string `json:"challengeSessionId"`
	ChallengeID        string `json:"challengeId"`
	Sport              string `json:"sport"`
	DurationSeconds    int    `json:"durationSeconds"`
}

// challengeScoreUpdated (server -> client)
type ChallengeScoreUpdatedMsg struct {
	Type               string  `json:"type"`
	ChallengeSessionID string  `json:"challengeSessionId"`
	Sport              string  `json:"sport"`
	Score              int     `json:"score"`
	TimeRemaining      float64 `json:"timeRemaining"`
}

// challengeEnded (server -> client): the single trigger for reward
// application in the progression ledger.
type ChallengeEndedMsg struct {
	Type               string    `json:"type"`
	ChallengeSessionID string    `json:"challengeSessionId"`
	Sport              string    `json:"sport"`
	ChallengeID        string    `json:"challengeId"`
	FinalScore         int       `json:"finalScore"`
	XPEarned           int       `json:"xpEarned"`
	CoinsEarned        int       `json:"coinsEarned"`
	Reason             EndReason `json:"reason"`
}

// basketballShotResult (server -> client)
type ShotResultMsg struct {
	Type               string     `json:"type"`
	ChallengeSessionID string     `json:"challengeSessionId"`
	PlayerID           string     `json:"playerId"`
	Made               bool       `json:"made"`
	Points             int        `json:"points"`
	Reason             ShotReason `json:"reason"`
}

// enteredSportsFieldTrigger (server -> client)
type EnteredFieldMsg struct {
	Type    string `json:"type"`
	FieldID string `json:"fieldId"`
	Sport   string `json:"sport"`
	Mode    string `json:"mode"`
}

// exitedSportsFieldTrigger (server -> client)
type ExitedFieldMsg struct {
	Type string `json:"type"`
}

// notification (server -> client)
type NotificationMsg struct {
	Type     string `json:"type"`
	Category string `json:"category"` // "info", "xp", "error"
	Message  string `json:"message"`
}

// xpUpdated (server -> client)
type XpUpdatedMsg struct {
	Type string `json:"type"`
	XP   int    `json:"xp"`
	Rank string `json:"rank"`
}

// coinsUpdated (server -> client)
type CoinsUpdatedMsg struct {
	Type  string `json:"type"`
	Coins int    `json:"coins"`
}

// playerEmote (server -> all clients): cosmetic rebroadcast.
type PlayerEmoteMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	EmoteID  string `json:"emoteId"`
}

// quickChat (server -> all clients): cosmetic rebroadcast.
type QuickChatBroadcastMsg struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}
