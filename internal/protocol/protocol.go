package protocol

import "encoding/json"

const Version = "1.0"

// Inbound intent types (client -> server).
const (
	TypeHello                 = "hello"
	TypePlayerMove            = "playerMove"
	TypeRequestStartChallenge = "uiRequestStartChallenge"
	TypeCancelChallenge       = "uiCancelChallenge"
	TypeBasketballShotAttempt = "basketballShotAttempt"
	TypeEmote                 = "uiEmote"
	TypeQuickChat             = "uiQuickChat"
)

// Outbound event types (server -> client).
const (
	TypeWelcome               = "welcome"
	TypeChallengeStarted      = "challengeStarted"
	TypeChallengeScoreUpdated = "challengeScoreUpdated"
	TypeChallengeEnded        = "challengeEnded"
	TypeBasketballShotResult  = "basketballShotResult"
	TypeEnteredField          = "enteredSportsFieldTrigger"
	TypeExitedField           = "exitedSportsFieldTrigger"
	TypeNotification          = "notification"
	TypeXpUpdated             = "xpUpdated"
	TypeCoinsUpdated          = "coinsUpdated"
	TypePlayerEmote           = "playerEmote"
	TypeQuickChatBroadcast    = "quickChat"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocolVersion,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
