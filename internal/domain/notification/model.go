package notification

import "context"

type Type string

const (
	TypeMatchStarting     Type = "MATCH_STARTING"
	TypePredictionClosing Type = "PREDICTION_CLOSING"
	TypeBattleResult      Type = "BATTLE_RESULT"
	TypeCrownEarned       Type = "CROWN_EARNED"
)

// Message is the push payload: {title, body, data{type, matchId}}.
type Message struct {
	Title   string
	Body    string
	Type    Type
	MatchID string
}

// Data returns the string map delivered alongside the visible notification.
func (m Message) Data() map[string]string {
	return map[string]string{
		"type":    string(m.Type),
		"matchId": m.MatchID,
	}
}

// PushGateway delivers a message to one device token.
type PushGateway interface {
	Send(ctx context.Context, deviceToken string, msg Message) error
}
